package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductRepository provides read access to catalog products
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// FindByIDs returns the products keyed by ID; missing IDs are omitted
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*Product, error)
}
