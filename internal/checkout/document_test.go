// internal/checkout/document_test.go
package checkout

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentGateAttach(t *testing.T) {
	gate := NewDocumentGate(newFakeGateway(), 0)

	staged, err := gate.Attach(DocumentFile{Name: "cert.png", ContentType: "image/png", Data: pngBytes})
	require.NoError(t, err)
	assert.Equal(t, "image/png", staged.MimeType)
	assert.Equal(t, len(pngBytes), staged.Size)
	assert.True(t, strings.HasPrefix(staged.Preview, "data:image/png;base64,"))
}

func TestDocumentGateRejects(t *testing.T) {
	gate := NewDocumentGate(newFakeGateway(), 64)

	tests := []struct {
		name string
		file DocumentFile
		code string
	}{
		{"empty", DocumentFile{Name: "a.png"}, CodeInvalidDocument},
		{"text file", DocumentFile{Name: "a.txt", Data: []byte("hello world")}, CodeInvalidDocument},
		{"declared pdf", DocumentFile{Name: "a.pdf", ContentType: "application/pdf", Data: pngBytes}, CodeInvalidDocument},
		{"too large", DocumentFile{Name: "big.png", Data: append(append([]byte{}, pngBytes...), make([]byte, 64)...)}, CodeDocumentTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gate.Attach(tt.file)
			verr, ok := AsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, verr.Code)
			assert.Contains(t, verr.Fields, "document")
		})
	}
}

func TestDocumentGateSubmit(t *testing.T) {
	gw := newFakeGateway()
	gate := NewDocumentGate(gw, 0)
	staged, err := gate.Attach(DocumentFile{Name: "cert.png", Data: pngBytes})
	require.NoError(t, err)

	buyer, seller, txID := uuid.New(), uuid.New(), uuid.New()
	image, err := gate.Submit(context.Background(), buyer, seller, txID, staged)
	require.NoError(t, err)

	assert.Equal(t, "https://cdn.example.com/verifications/cert.png", image.URL)
	require.Len(t, gw.records, 1)
	assert.Equal(t, "verifications/cert.png", gw.records[0].ImageKey)
	assert.Equal(t, image.URL, gw.records[0].ImageURL)
	assert.Equal(t, txID, gw.records[0].TransactionID)
	assert.Equal(t, buyer, gw.records[0].OwnerID)
	assert.Equal(t, seller, gw.records[0].SellerID)
	assert.Equal(t, DocumentTypeFarmingCertificate, gw.records[0].DocumentType)
}

func TestDocumentGateSubmitUploadFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.uploadErr = errors.New("bucket unavailable")
	gate := NewDocumentGate(gw, 0)
	staged, err := gate.Attach(DocumentFile{Name: "cert.png", Data: pngBytes})
	require.NoError(t, err)

	_, err = gate.Submit(context.Background(), uuid.New(), uuid.New(), uuid.New(), staged)
	assert.ErrorContains(t, err, "bucket unavailable")
	assert.Empty(t, gw.records)
	assert.Empty(t, gw.deleted)
}

func TestDocumentGateSubmitRemovesImageWhenRecordFails(t *testing.T) {
	gw := newFakeGateway()
	gw.recordErr = errors.New("transaction not found")
	gate := NewDocumentGate(gw, 0)
	staged, err := gate.Attach(DocumentFile{Name: "cert.png", Data: pngBytes})
	require.NoError(t, err)

	_, err = gate.Submit(context.Background(), uuid.New(), uuid.New(), uuid.New(), staged)
	assert.ErrorContains(t, err, "transaction not found")
	assert.Equal(t, []string{"verifications/cert.png"}, gw.deleted)

	gw.deleteErr = errors.New("access denied")
	_, err = gate.Submit(context.Background(), uuid.New(), uuid.New(), uuid.New(), staged)
	assert.ErrorContains(t, err, "transaction not found")
	assert.ErrorContains(t, err, "access denied")
	assert.Len(t, gw.deleted, 2)
}
