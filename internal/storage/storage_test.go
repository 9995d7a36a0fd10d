package storage_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"restaurant-backend/internal/apptest"
	"restaurant-backend/internal/config"
	"restaurant-backend/internal/storage"
	"restaurant-backend/internal/storage/mocks"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	pngData = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	pdfData = []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
)

func useStorage(t *testing.T, s storage.Storage) {
	prev := storage.Default
	storage.Default = s
	t.Cleanup(func() { storage.Default = prev })
}

func uploadApp(rule storage.UploadRule) *fiber.App {
	app := apptest.NewApp()
	app.Post("/upload", func(c *fiber.Ctx) error {
		info, err := storage.UploadFormFile(c, "file", rule)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(info)
	})
	return app
}

func TestNewKey(t *testing.T) {
	now := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	key := storage.NewKey("/products/", "Burger.PNG", now)
	assert.True(t, strings.HasPrefix(key, "products/2025/03/"), key)
	assert.True(t, strings.HasSuffix(key, ".png"), key)
}

func TestUploadFormFileStoresImage(t *testing.T) {
	m := new(mocks.MockStorage)
	useStorage(t, m)

	m.On("Put", mock.Anything, mock.MatchedBy(func(k string) bool { return strings.HasPrefix(k, "products/") }),
		mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool {
			return o.ContentType == "image/png" && o.Size == int64(len(pngData))
		})).
		Return(func(_ context.Context, key string, _ io.Reader, _ storage.PutObjectOptions) storage.ObjectInfo {
			return storage.ObjectInfo{Key: key, URL: "http://cdn/" + key}
		}, nil).Once()

	resp := apptest.Upload(t, uploadApp(storage.ImageRule), "POST", "/upload", "file", "a.png", "image/png", pngData)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out storage.ObjectInfo
	apptest.Decode(t, resp, &out)
	assert.Equal(t, "http://cdn/"+out.Key, out.URL)
	m.AssertExpectations(t)
}

func TestUploadFormFileRejections(t *testing.T) {
	m := new(mocks.MockStorage)
	useStorage(t, m)
	app := uploadApp(storage.ImageRule)

	resp := apptest.Upload(t, app, "POST", "/upload", "file", "a.pdf", "application/pdf", pdfData)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = apptest.Upload(t, app, "POST", "/upload", "other", "a.png", "image/png", pngData)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	prev := storage.MaxUploadBytes
	storage.MaxUploadBytes = 2
	t.Cleanup(func() { storage.MaxUploadBytes = prev })
	resp = apptest.Upload(t, app, "POST", "/upload", "file", "a.png", "image/png", pngData)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "file exceeds the 2 bytes limit", apptest.ErrorMessage(t, resp))

	storage.MaxUploadBytes = 1 << 20
	resp = apptest.Upload(t, app, "POST", "/upload", "file", "a.png", "image/png", make([]byte, 1<<20+1))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "file exceeds the 1 MB limit", apptest.ErrorMessage(t, resp))

	m.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadChecksContentNotDeclaredType(t *testing.T) {
	m := new(mocks.MockStorage)
	useStorage(t, m)
	app := uploadApp(storage.ImageRule)

	// a PDF dressed up as a PNG
	resp := apptest.Upload(t, app, "POST", "/upload", "file", "a.png", "image/png", pdfData)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	resp = apptest.Upload(t, app, "POST", "/upload", "file", "a.png", "image/png", []byte("<script>alert(1)</script>"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	m.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	// a real PNG with the wrong label keeps its true type and extension
	m.On("Put", mock.Anything, mock.MatchedBy(func(k string) bool { return strings.HasSuffix(k, ".png") }),
		mock.Anything, mock.MatchedBy(func(o storage.PutObjectOptions) bool { return o.ContentType == "image/png" })).
		Return(storage.ObjectInfo{Key: "k", URL: "u"}, nil).Once()
	resp = apptest.Upload(t, app, "POST", "/upload", "file", "photo.pdf", "application/pdf", pngData)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	m.AssertExpectations(t)
}

func TestDiscardDeletesOwnObjectsOnly(t *testing.T) {
	m := new(mocks.MockStorage)
	useStorage(t, m)
	m.On("URL", "").Return("http://cdn/")
	m.On("Delete", mock.Anything, "products/2025/01/a.png").Return(nil).Once()

	key, ok := storage.KeyOf("http://cdn/products/2025/01/a.png")
	assert.True(t, ok)
	assert.Equal(t, "products/2025/01/a.png", key)

	storage.Discard(context.Background(), "http://cdn/products/2025/01/a.png")
	storage.Discard(context.Background(), "https://bank/receipt/1")
	storage.Discard(context.Background(), "")
	m.AssertExpectations(t)
	m.AssertNumberOfCalls(t, "Delete", 1)
}

func TestUploadProofAcceptsPDF(t *testing.T) {
	m := new(mocks.MockStorage)
	useStorage(t, m)
	m.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{Key: "k", URL: "u"}, nil).Once()

	resp := apptest.Upload(t, uploadApp(storage.ProofRule), "POST", "/upload", "file", "proof.pdf", "application/pdf", pdfData)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestUploadBackendFailure(t *testing.T) {
	m := new(mocks.MockStorage)
	useStorage(t, m)
	m.On("Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(storage.ObjectInfo{}, errors.New("bucket gone")).Once()

	resp := apptest.Upload(t, uploadApp(storage.ImageRule), "POST", "/upload", "file", "a.png", "image/png", pngData)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestUploadWithoutStorage(t *testing.T) {
	useStorage(t, nil)
	resp := apptest.Upload(t, uploadApp(storage.ImageRule), "POST", "/upload", "file", "a.png", "image/png", pngData)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestNewMinIOValidatesConfig(t *testing.T) {
	_, err := storage.NewMinIO(config.MinIOConfig{})
	assert.Error(t, err)
}
