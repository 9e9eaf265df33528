// internal/models/verification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// VerificationDocument is the farming certificate a buyer attaches to a credit purchase.
// Its review outcome is independent of the transaction status.
type VerificationDocument struct {
	BaseModel
	OwnerID         uuid.UUID          `json:"owner_id" gorm:"type:uuid;not null;index"`
	SellerID        uuid.UUID          `json:"seller_id" gorm:"type:uuid;not null;index"`
	TransactionID   uuid.UUID          `json:"transaction_id" gorm:"type:uuid;not null;uniqueIndex"`
	DocumentType    DocumentType       `json:"document_type" gorm:"type:varchar(40);not null;default:'farming_certificate'"`
	ImageKey        string             `json:"-" gorm:"type:text"`
	ImageURL        string             `json:"image_url" gorm:"type:text;not null"`
	Status          VerificationStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	RejectionReason string             `json:"rejection_reason,omitempty" gorm:"type:text"`
	ReviewedBy      *uuid.UUID         `json:"reviewed_by" gorm:"type:uuid"`
	ReviewedAt      *time.Time         `json:"reviewed_at"`

	// Relationships
	Owner User `json:"owner,omitempty" gorm:"foreignKey:OwnerID"`
}
