package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Sale is an immutable record of what was sold, where and to whom.
// Sales are written by the point-of-sale module; returns only read them.
type Sale struct {
	shared.BaseEntity
	BranchID   uuid.UUID  `gorm:"type:uuid;not null;index"`
	CustomerID uuid.UUID  `gorm:"type:uuid;not null;index"`
	SoldAt     time.Time  `gorm:"not null"`
	Items      []SaleItem `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (Sale) TableName() string {
	return "sales"
}

// SaleItem is one line of a sale
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SaleID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (SaleItem) TableName() string {
	return "sale_items"
}

// NewSale builds a sale with its items; used by seeding and tests
func NewSale(branchID, customerID uuid.UUID, items ...SaleItem) *Sale {
	sale := &Sale{
		BaseEntity: shared.NewBaseEntity(),
		BranchID:   branchID,
		CustomerID: customerID,
		SoldAt:     time.Now(),
	}
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.SaleID = sale.ID
		sale.Items = append(sale.Items, item)
	}
	return sale
}

// Item returns the line with the given ID, or nil
func (s *Sale) Item(itemID uuid.UUID) *SaleItem {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}
