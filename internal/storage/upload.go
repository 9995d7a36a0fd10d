package storage

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"restaurant-backend/internal/logger"

	"github.com/gofiber/fiber/v2"
)

// MaxUploadBytes caps every multipart upload.
var MaxUploadBytes int64 = 5 * 1024 * 1024

// UploadRule restricts what a form file may be.
type UploadRule struct {
	Prefix       string
	ContentTypes []string // exact types or "image/*" style prefixes
}

var (
	ImageRule       = UploadRule{Prefix: "products", ContentTypes: []string{"image/*"}}
	RewardImageRule = UploadRule{Prefix: "rewards", ContentTypes: []string{"image/*"}}
	ProofRule       = UploadRule{Prefix: "payment-proofs", ContentTypes: []string{"image/*", "application/pdf"}}
	ReceiptRule     = UploadRule{Prefix: "expense-receipts", ContentTypes: []string{"image/*", "application/pdf"}}
)

// sniffLen is how much of a file http.DetectContentType looks at.
const sniffLen = 512

var extensions = map[string]string{
	"image/png":       ".png",
	"image/jpeg":      ".jpg",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"application/pdf": ".pdf",
}

func limitText(n int64) string {
	if n >= 1<<20 {
		return fmt.Sprintf("%d MB", n>>20)
	}
	return fmt.Sprintf("%d bytes", n)
}

// keyName swaps the client's extension for the one matching the sniffed type.
func keyName(filename, contentType string) string {
	ext, ok := extensions[contentType]
	if !ok {
		return filename
	}
	return strings.TrimSuffix(filename, path.Ext(filename)) + ext
}

func (r UploadRule) allows(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, allowed := range r.ContentTypes {
		if strings.HasSuffix(allowed, "/*") {
			if strings.HasPrefix(ct, strings.TrimSuffix(allowed, "*")) {
				return true
			}
			continue
		}
		if ct == allowed {
			return true
		}
	}
	return false
}

// UploadFormFile validates the multipart field and stores it in Default.
func UploadFormFile(c *fiber.Ctx, field string, rule UploadRule) (ObjectInfo, error) {
	if Default == nil {
		return ObjectInfo{}, fiber.NewError(fiber.StatusServiceUnavailable, "file storage is not configured")
	}

	fh, err := c.FormFile(field)
	if err != nil {
		return ObjectInfo{}, fiber.NewError(fiber.StatusBadRequest, "file is required")
	}
	if fh.Size == 0 {
		return ObjectInfo{}, fiber.NewError(fiber.StatusBadRequest, "file is empty")
	}
	if fh.Size > MaxUploadBytes {
		return ObjectInfo{}, fiber.NewError(fiber.StatusBadRequest, "file exceeds the "+limitText(MaxUploadBytes)+" limit")
	}

	f, err := fh.Open()
	if err != nil {
		return ObjectInfo{}, fiber.NewError(fiber.StatusBadRequest, "file could not be read")
	}
	defer f.Close()

	// the declared Content-Type and extension come from the client; trust the bytes
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ObjectInfo{}, fiber.NewError(fiber.StatusBadRequest, "file could not be read")
	}
	head = head[:n]
	contentType := strings.Split(http.DetectContentType(head), ";")[0]
	if !rule.allows(contentType) {
		return ObjectInfo{}, fiber.NewError(fiber.StatusBadRequest, "file type is not allowed")
	}

	key := NewKey(rule.Prefix, keyName(fh.Filename, contentType), time.Now())
	info, err := Default.Put(c.UserContext(), key, io.MultiReader(bytes.NewReader(head), f), PutObjectOptions{
		Size:        fh.Size,
		ContentType: contentType,
		Metadata:    map[string]string{"original-name": fh.Filename},
	})
	if err != nil {
		logger.FromCtx(c).Error("upload failed", "key", key, "error", err)
		return ObjectInfo{}, fiber.NewError(fiber.StatusServiceUnavailable, "file could not be stored")
	}
	if info.URL == "" {
		info.URL = Default.URL(key)
	}
	return info, nil
}
