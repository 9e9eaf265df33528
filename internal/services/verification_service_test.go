// internal/services/verification_service_test.go
package services

import (
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"github.com/javajoker/farmlink-backend/internal/models"
)

type stubLinker struct {
	keys []string
	err  error
}

func (l *stubLinker) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	l.keys = append(l.keys, key)
	if l.err != nil {
		return "", l.err
	}
	return "https://signed.example.com/" + key + "?ttl=" + expiration.String(), nil
}

func TestVerificationServiceSignsImageURL(t *testing.T) {
	logger, hook := test.NewNullLogger()
	linker := &stubLinker{}
	service := NewVerificationService(nil, nil, nil, linker, logger)

	doc := models.VerificationDocument{
		ImageKey: "documents/buyer/cert.png",
		ImageURL: "https://farmlink-docs.s3.ap-southeast-1.amazonaws.com/documents/buyer/cert.png",
	}
	service.signImageURL(&doc)
	assert.Equal(t, "https://signed.example.com/documents/buyer/cert.png?ttl=15m0s", doc.ImageURL)

	// Rows without a key keep their stored link.
	legacy := models.VerificationDocument{ImageURL: "http://localhost:8080/uploads/cert.png"}
	service.signImageURL(&legacy)
	assert.Equal(t, "http://localhost:8080/uploads/cert.png", legacy.ImageURL)
	assert.Len(t, linker.keys, 1)

	linker.err = errors.New("credentials expired")
	failed := models.VerificationDocument{ImageKey: "documents/buyer/other.png", ImageURL: "stored"}
	service.signImageURL(&failed)
	assert.Equal(t, "stored", failed.ImageURL)
	assert.Len(t, hook.Entries, 1)
}

func TestVerificationServiceWithoutLinker(t *testing.T) {
	logger, _ := test.NewNullLogger()
	service := NewVerificationService(nil, nil, nil, nil, logger)

	doc := models.VerificationDocument{ImageKey: "documents/buyer/cert.png", ImageURL: "stored"}
	service.signImageURL(&doc)
	assert.Equal(t, "stored", doc.ImageURL)
}
