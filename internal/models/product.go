// internal/models/product.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

type Product struct {
	BaseModel
	SellerID    uuid.UUID       `json:"seller_id" gorm:"type:uuid;not null;index"`
	Name        string          `json:"name" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Category    string          `json:"category" gorm:"size:100;index"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(15,2);not null"`
	Unit        string          `json:"unit" gorm:"size:20;default:'kg'"`
	Stock       int             `json:"stock" gorm:"default:0"`
	Images      pq.StringArray  `json:"images" gorm:"type:text[]"`
	Status      ProductStatus   `json:"status" gorm:"type:varchar(20);default:'active';index"`
	SalesCount  int64           `json:"sales_count" gorm:"default:0"`

	// Relationships
	Seller User `json:"seller,omitempty" gorm:"foreignKey:SellerID"`
}

// ProductCategories are the catalog categories offered to sellers.
var ProductCategories = []string{"rice", "vegetables", "fruit", "coffee", "seeds", "fertilizer", "livestock", "equipment"}
