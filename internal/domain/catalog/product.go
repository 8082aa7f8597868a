package catalog

import (
	"strings"

	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ProductStatus represents the status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

// Product is a catalog SKU. The catalog is owned by another module;
// inventory only reads the product's identity and its default minimum stock.
type Product struct {
	shared.BaseEntity
	SKU      string           `gorm:"column:sku;type:varchar(50);not null;uniqueIndex"`
	Name     string           `gorm:"type:varchar(200);not null"`
	MinStock *decimal.Decimal `gorm:"type:decimal(18,4)"` // Fallback minimum when the branch record has none
	Status   ProductStatus    `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a product
func NewProduct(sku, name string) (*Product, error) {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return nil, shared.NewValidationError("sku", "Product SKU cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "Product name cannot be empty")
	}
	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		SKU:        sku,
		Name:       name,
		Status:     ProductStatusActive,
	}, nil
}

// SetMinStock sets the default minimum stock level for alerts
func (p *Product) SetMinStock(minStock decimal.Decimal) error {
	if minStock.IsNegative() {
		return shared.NewValidationError("min_stock", "Minimum stock cannot be negative")
	}
	p.MinStock = &minStock
	return nil
}
