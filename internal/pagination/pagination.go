// Package pagination pages and sorts GORM list queries.
package pagination

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const (
	DefaultSize = 20
	MaxSize     = 100
)

// Params is a zero-based page request.
type Params struct {
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	SortBy        string `json:"sort_by"`
	SortDirection string `json:"sort_direction"`
}

// Page is the JSON envelope of a paged listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
}

// FromQuery reads ?page=&size=&sort_by=&sort_direction=.
func FromQuery(c *fiber.Ctx) Params {
	return Params{
		Page:          c.QueryInt("page", 0),
		Size:          c.QueryInt("size", DefaultSize),
		SortBy:        c.Query("sort_by"),
		SortDirection: c.Query("sort_direction"),
	}.Normalize()
}

func (p Params) Normalize() Params {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultSize
	}
	if p.Size > MaxSize {
		p.Size = MaxSize
	}
	return p
}

// Order returns "<column> <dir>" when SortBy is a key of allowed, else def.
// allowed maps request names to column names.
func (p Params) Order(allowed map[string]string, def string) string {
	col, ok := allowed[strings.ToLower(p.SortBy)]
	if !ok {
		return def
	}
	dir := "asc"
	if strings.EqualFold(p.SortDirection, "desc") {
		dir = "desc"
	}
	return col + " " + dir + ", id " + dir
}

// Find counts q, then loads the requested page into a Page. Associations in
// preload are loaded for the page only.
func Find[T any](q *gorm.DB, p Params, order string, preload ...string) (Page[T], error) {
	p = p.Normalize()
	out := Page[T]{Content: []T{}, Page: p.Page, Size: p.Size}

	if err := q.Session(&gorm.Session{}).Count(&out.TotalElements).Error; err != nil {
		return out, err
	}
	q = q.Order(order).Offset(p.Page * p.Size).Limit(p.Size)
	for _, assoc := range preload {
		q = q.Preload(assoc)
	}
	if err := q.Find(&out.Content).Error; err != nil {
		return out, err
	}
	out.TotalPages = int((out.TotalElements + int64(p.Size) - 1) / int64(p.Size))
	return out, nil
}
