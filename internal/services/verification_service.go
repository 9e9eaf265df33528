// internal/services/verification_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/events"
	"github.com/javajoker/farmlink-backend/internal/metrics"
	"github.com/javajoker/farmlink-backend/internal/models"
	"github.com/javajoker/farmlink-backend/internal/utils"
)

const documentLinkTTL = 15 * time.Minute

// DocumentLinker issues time-limited links to stored certificate images.
type DocumentLinker interface {
	GeneratePresignedURL(key string, expiration time.Duration) (string, error)
}

type VerificationService struct {
	db        *gorm.DB
	publisher events.Publisher
	notifier  *NotificationService
	linker    DocumentLinker
	logger    logrus.FieldLogger
	now       func() time.Time
}

type RejectVerificationRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Reviewer is the user acting on a verification document.
type Reviewer struct {
	ID      uuid.UUID
	IsAdmin bool
}

type VerificationEvent struct {
	DocumentID    uuid.UUID                 `json:"document_id"`
	TransactionID uuid.UUID                 `json:"transaction_id"`
	OwnerID       uuid.UUID                 `json:"owner_id"`
	SellerID      uuid.UUID                 `json:"seller_id"`
	Status        models.VerificationStatus `json:"status"`
	Reason        string                    `json:"reason,omitempty"`
}

func NewVerificationService(db *gorm.DB, publisher events.Publisher, notifier *NotificationService, linker DocumentLinker, logger logrus.FieldLogger) *VerificationService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &VerificationService{
		db:        db,
		publisher: publisher,
		notifier:  notifier,
		linker:    linker,
		logger:    logger,
		now:       time.Now,
	}
}

// Record stores the buyer's certificate for a credit transaction. The
// document starts pending and its outcome never changes the transaction.
func (s *VerificationService) Record(ctx context.Context, record checkout.VerificationRecord) (*models.VerificationDocument, error) {
	if strings.TrimSpace(record.ImageURL) == "" {
		return nil, fmt.Errorf("%w: image url is required", ErrInvalidInput)
	}

	db := s.db.WithContext(ctx)

	var txn models.Transaction
	if err := db.First(&txn, "id = ?", record.TransactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if txn.BuyerID != record.OwnerID {
		return nil, ErrForbidden
	}
	if txn.SellerID != record.SellerID {
		return nil, ErrSellerMismatch
	}
	if !txn.IsCredit() {
		return nil, ErrInvalidTransactionState
	}

	var existing int64
	if err := db.Model(&models.VerificationDocument{}).Where("transaction_id = ?", txn.ID).Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if existing > 0 {
		return nil, ErrAlreadyVerified
	}

	docType := models.DocumentType(record.DocumentType)
	if docType == "" {
		docType = models.DocumentTypeFarmingCertificate
	}

	doc := &models.VerificationDocument{
		OwnerID:       record.OwnerID,
		SellerID:      record.SellerID,
		TransactionID: record.TransactionID,
		DocumentType:  docType,
		ImageKey:      record.ImageKey,
		ImageURL:      record.ImageURL,
		Status:        models.VerificationStatusPending,
	}
	if err := db.Create(doc).Error; err != nil {
		return nil, fmt.Errorf("failed to record verification document: %w", err)
	}

	s.publish(ctx, events.TypeVerificationSubmitted, doc)

	if s.notifier != nil {
		bg := context.WithoutCancel(ctx)
		go func() {
			var full models.Transaction
			if err := s.db.WithContext(bg).Preload("Buyer").Preload("Seller").Preload("Product").First(&full, "id = ?", txn.ID).Error; err != nil {
				s.logger.WithError(err).WithField("transaction_id", txn.ID).Warn("Failed to load transaction for notification")
				return
			}
			s.notifier.NotifyVerificationSubmitted(bg, doc, &full)
		}()
	}

	s.logger.WithFields(logrus.Fields{
		"document_id":    doc.ID,
		"transaction_id": doc.TransactionID,
	}).Info("Verification document recorded")

	return doc, nil
}

// Get returns the document to its owner, the reviewing seller or an admin.
func (s *VerificationService) Get(ctx context.Context, id uuid.UUID, reviewer Reviewer) (*models.VerificationDocument, error) {
	var doc models.VerificationDocument
	if err := s.db.WithContext(ctx).Preload("Owner").First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !reviewer.IsAdmin && doc.OwnerID != reviewer.ID && doc.SellerID != reviewer.ID {
		return nil, ErrForbidden
	}
	s.signImageURL(&doc)
	return &doc, nil
}

// List returns documents addressed to sellerID, or all documents when
// sellerID is nil.
func (s *VerificationService) List(ctx context.Context, sellerID *uuid.UUID, params utils.PaginationParams) ([]models.VerificationDocument, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.VerificationDocument{})
	if sellerID != nil {
		query = query.Where("seller_id = ?", *sellerID)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	query = utils.ApplyDateRange(query, "created_at", params)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count verification documents: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "status", "reviewed_at"})
	query = utils.ApplyPagination(query, params)

	var docs []models.VerificationDocument
	if err := query.Preload("Owner").Find(&docs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch verification documents: %w", err)
	}
	for i := range docs {
		s.signImageURL(&docs[i])
	}

	return docs, total, nil
}

func (s *VerificationService) Approve(ctx context.Context, id uuid.UUID, reviewer Reviewer) (*models.VerificationDocument, error) {
	return s.review(ctx, id, reviewer, models.VerificationStatusApproved, "")
}

func (s *VerificationService) Reject(ctx context.Context, id uuid.UUID, reviewer Reviewer, reason string) (*models.VerificationDocument, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrRejectionReasonRequired
	}
	return s.review(ctx, id, reviewer, models.VerificationStatusRejected, reason)
}

func (s *VerificationService) review(ctx context.Context, id uuid.UUID, reviewer Reviewer, status models.VerificationStatus, reason string) (*models.VerificationDocument, error) {
	db := s.db.WithContext(ctx)

	var doc models.VerificationDocument
	if err := db.Preload("Owner").First(&doc, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVerificationNotFound
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !reviewer.IsAdmin && doc.SellerID != reviewer.ID {
		return nil, ErrForbidden
	}
	if doc.Status != models.VerificationStatusPending {
		return nil, ErrAlreadyReviewed
	}

	now := s.now()
	result := db.Model(&models.VerificationDocument{}).
		Where("id = ? AND status = ?", doc.ID, models.VerificationStatusPending).
		Updates(map[string]interface{}{
			"status":           status,
			"rejection_reason": reason,
			"reviewed_by":      reviewer.ID,
			"reviewed_at":      now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to review verification document: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyReviewed
	}

	reviewerID := reviewer.ID
	doc.Status = status
	doc.RejectionReason = reason
	doc.ReviewedBy = &reviewerID
	doc.ReviewedAt = &now

	metrics.VerificationReviews.WithLabelValues(string(status)).Inc()
	s.publish(ctx, events.TypeVerificationReviewed, &doc)

	if s.notifier != nil {
		bg := context.WithoutCancel(ctx)
		reviewed := doc
		go func() {
			var code string
			s.db.WithContext(bg).Model(&models.Transaction{}).Where("id = ?", reviewed.TransactionID).Pluck("code", &code)
			s.notifier.NotifyVerificationReviewed(bg, &reviewed, code)
		}()
	}

	s.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"status":      status,
		"reviewer_id": reviewer.ID,
	}).Info("Verification document reviewed")

	s.signImageURL(&doc)
	return &doc, nil
}

// signImageURL swaps the stored image link for a presigned one so private
// objects can be opened by the reviewer. The stored link is kept on failure.
func (s *VerificationService) signImageURL(doc *models.VerificationDocument) {
	if s.linker == nil || doc.ImageKey == "" {
		return
	}
	url, err := s.linker.GeneratePresignedURL(doc.ImageKey, documentLinkTTL)
	if err != nil {
		s.logger.WithError(err).WithField("document_id", doc.ID).Warn("Failed to presign verification image")
		return
	}
	doc.ImageURL = url
}

func (s *VerificationService) publish(ctx context.Context, eventType string, doc *models.VerificationDocument) {
	event := events.New(eventType, doc.TransactionID.String(), VerificationEvent{
		DocumentID:    doc.ID,
		TransactionID: doc.TransactionID,
		OwnerID:       doc.OwnerID,
		SellerID:      doc.SellerID,
		Status:        doc.Status,
		Reason:        doc.RejectionReason,
	})
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.WithError(err).WithField("event_type", eventType).Warn("Failed to publish verification event")
	}
}
