// internal/services/storage_service_test.go
package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/config"
)

var certificatePNG = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 32)...)

func newLocalStorage(t *testing.T) (*StorageService, string) {
	dir := t.TempDir()
	cfg := &config.Config{
		AWS:      config.AWSConfig{LocalUploadDir: dir, LocalBaseURL: "http://localhost:8080/uploads/"},
		Checkout: config.CheckoutConfig{MaxDocumentBytes: 1 << 20},
	}
	logger, _ := test.NewNullLogger()
	storage, err := NewStorageService(cfg, logger)
	require.NoError(t, err)
	storage.now = func() time.Time { return time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC) }
	return storage, dir
}

func TestStorageServiceDocumentLifecycle(t *testing.T) {
	storage, dir := newLocalStorage(t)
	ctx := context.Background()
	buyer := uuid.New()

	image, err := storage.UploadDocumentImage(ctx, checkout.DocumentFile{Name: "cert.jpeg", Data: certificatePNG}, buyer)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(image.Key, "documents/"+buyer.String()+"/20260315_"))
	assert.True(t, strings.HasSuffix(image.Key, ".png"))
	assert.Equal(t, "http://localhost:8080/uploads/"+image.Key, image.URL)

	path := filepath.Join(dir, filepath.FromSlash(image.Key))
	_, err = os.Stat(path)
	require.NoError(t, err)

	link, err := storage.GeneratePresignedURL(image.Key, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, image.URL, link)

	require.NoError(t, storage.DeleteFile(ctx, image.Key))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// A file that is already gone is not an error.
	assert.NoError(t, storage.DeleteFile(ctx, image.Key))
}

func TestStorageServiceRejectsNonImageDocument(t *testing.T) {
	storage, _ := newLocalStorage(t)

	_, err := storage.UploadDocumentImage(context.Background(), checkout.DocumentFile{Name: "cert.png", Data: []byte("plain text")}, uuid.New())
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestStorageServicePresignsPrivateObjects(t *testing.T) {
	cfg := &config.Config{AWS: config.AWSConfig{
		AccessKeyID:     "AKIAEXAMPLE",
		SecretAccessKey: "secret",
		Region:          "ap-southeast-1",
		S3Bucket:        "farmlink-docs",
	}}
	logger, _ := test.NewNullLogger()
	storage, err := NewStorageService(cfg, logger)
	require.NoError(t, err)

	link, err := storage.GeneratePresignedURL("documents/buyer/cert.png", documentLinkTTL)
	require.NoError(t, err)
	assert.Contains(t, link, "farmlink-docs")
	assert.Contains(t, link, "documents/buyer/cert.png")
	assert.Contains(t, link, "X-Amz-Expires=900")
	assert.Contains(t, link, "X-Amz-Signature=")
	assert.NotEqual(t, storage.getS3URL("documents/buyer/cert.png"), link)
}
