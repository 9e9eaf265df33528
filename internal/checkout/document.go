// internal/checkout/document.go
package checkout

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	DefaultMaxDocumentBytes = 5 << 20

	DocumentTypeFarmingCertificate = "farming_certificate"
)

// StagedDocument is an accepted image held in memory until the transaction exists.
type StagedDocument struct {
	File     DocumentFile
	MimeType string
	Size     int
	Preview  string
}

// DocumentGate accepts certificate images and submits them after checkout.
type DocumentGate struct {
	gateway  Gateway
	maxBytes int64
}

func NewDocumentGate(gateway Gateway, maxBytes int64) *DocumentGate {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDocumentBytes
	}
	return &DocumentGate{gateway: gateway, maxBytes: maxBytes}
}

// Attach checks size and image type, then stages the file as a data URL.
// It does no network I/O.
func (g *DocumentGate) Attach(file DocumentFile) (*StagedDocument, error) {
	if len(file.Data) == 0 {
		return nil, documentError(CodeInvalidDocument, ErrMsgDocumentEmpty)
	}

	if int64(len(file.Data)) > g.maxBytes {
		return nil, documentError(CodeDocumentTooLarge, fmt.Sprintf(ErrMsgDocumentTooLarge, g.maxBytes>>20))
	}

	if file.ContentType != "" && !strings.HasPrefix(file.ContentType, "image/") {
		return nil, documentError(CodeInvalidDocument, ErrMsgDocumentNotImage)
	}

	detected := mimetype.Detect(file.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, documentError(CodeInvalidDocument, ErrMsgDocumentNotImage)
	}

	staged := file
	staged.ContentType = detected.String()

	return &StagedDocument{
		File:     staged,
		MimeType: detected.String(),
		Size:     len(file.Data),
		Preview:  "data:" + detected.String() + ";base64," + base64.StdEncoding.EncodeToString(file.Data),
	}, nil
}

// Submit uploads the staged image and records it against the transaction.
// An image whose record cannot be saved is removed again.
func (g *DocumentGate) Submit(ctx context.Context, buyerID, sellerID, transactionID uuid.UUID, doc *StagedDocument) (*StoredImage, error) {
	if doc == nil {
		return nil, newValidationError(CodeDocumentRequired, ErrMsgDocumentRequired)
	}

	image, err := g.gateway.UploadDocumentImage(ctx, doc.File, buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to upload verification image: %w", err)
	}

	err = g.gateway.UploadVerificationDocument(ctx, VerificationRecord{
		OwnerID:       buyerID,
		SellerID:      sellerID,
		TransactionID: transactionID,
		DocumentType:  DocumentTypeFarmingCertificate,
		ImageKey:      image.Key,
		ImageURL:      image.URL,
	})
	if err != nil {
		err = fmt.Errorf("failed to save verification document: %w", err)
		if delErr := g.gateway.DeleteDocumentImage(ctx, image.Key); delErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to remove uploaded image %s: %w", image.Key, delErr))
		}
		return nil, err
	}

	return image, nil
}

func documentError(code, message string) *ValidationError {
	return &ValidationError{
		Code:    code,
		Message: message,
		Fields:  map[string]string{"document": message},
	}
}
