package cache

import (
	"context"

	"restaurant-backend/internal/logger"
)

// Key prefixes of the cached read models.
const (
	PrefixCatalog    = "catalog:"
	PrefixStatistics = "stats:"
)

// InvalidateCatalog drops the public category and product lists.
func InvalidateCatalog(ctx context.Context) {
	if err := DelPrefix(ctx, PrefixCatalog); err != nil {
		logger.Warn("catalog cache invalidation failed", "error", err)
	}
}

// InvalidateStatistics drops every cached statistics report.
func InvalidateStatistics(ctx context.Context) {
	if err := DelPrefix(ctx, PrefixStatistics); err != nil {
		logger.Warn("statistics cache invalidation failed", "error", err)
	}
}
