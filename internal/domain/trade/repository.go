package trade

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SaleRepository provides read access to sales
type SaleRepository interface {
	// FindByID finds a sale with its items
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate locks the sale row so concurrent returns against the
	// same sale are checked one at a time.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)
}

// ReturnFilter narrows return listings
type ReturnFilter struct {
	shared.Filter
	Status     *ReturnStatus
	SaleID     *uuid.UUID
	CustomerID *uuid.UUID
	BranchID   *uuid.UUID
}

// ReturnRepository defines persistence for returns
type ReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Return, error)

	// FindByIDForUpdate finds a return and locks its row until the surrounding
	// transaction ends. Must be called inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Return, error)

	FindAll(ctx context.Context, filter ReturnFilter) ([]Return, int64, error)

	// SumReturnedQuantity sums the quantity of non-rejected returns for a sale
	// line, excluding the given return (uuid.Nil excludes nothing).
	SumReturnedQuantity(ctx context.Context, saleItemID, excludeReturnID uuid.UUID) (decimal.Decimal, error)

	Create(ctx context.Context, r *Return) error

	// UpdateStatus persists a status transition only if the stored status still
	// equals previous. Returns ErrReturnCannotRevert or CONCURRENCY_CONFLICT otherwise.
	UpdateStatus(ctx context.Context, r *Return, previous ReturnStatus) error

	// SaveWithLock persists field changes guarded by the aggregate version
	SaveWithLock(ctx context.Context, r *Return) error
}
