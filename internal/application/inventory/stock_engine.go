package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ErrInventoryNotFound is returned when the target inventory record does not exist
var ErrInventoryNotFound = shared.NewNotFoundError("INVENTORY_NOT_FOUND", "inventory record")

// StockRecorder receives committed ledger movements for metrics
type StockRecorder interface {
	RecordMovement(ctx context.Context, movementType string, branchID uuid.UUID, quantity decimal.Decimal)
}

// StockEngine applies stock mutations inside the caller's transaction.
// Every mutation follows the same steps: lock the record row, apply the
// domain method, persist with the version guard and append a ledger movement.
// Ledger writes fail the whole transaction.
type StockEngine struct {
	recorder StockRecorder
}

// NewStockEngine creates a StockEngine. recorder may be nil.
func NewStockEngine(recorder StockRecorder) *StockEngine {
	return &StockEngine{recorder: recorder}
}

// LockRecord reads and locks a record by ID
func (e *StockEngine) LockRecord(ctx context.Context, repos TransactionalRepositories, id uuid.UUID) (*inventory.InventoryRecord, error) {
	record, err := repos.InventoryRepo().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, mapRecordNotFound(err)
	}
	return record, nil
}

// LockRecordAt reads and locks the record of a product at a branch
func (e *StockEngine) LockRecordAt(ctx context.Context, repos TransactionalRepositories, productID, branchID uuid.UUID) (*inventory.InventoryRecord, error) {
	record, err := repos.InventoryRepo().FindByProductAndBranchForUpdate(ctx, productID, branchID)
	if err != nil {
		return nil, mapRecordNotFound(err)
	}
	return record, nil
}

// Seed persists a new record, adding its initial stock first when quantity is positive
func (e *StockEngine) Seed(ctx context.Context, repos TransactionalRepositories, record *inventory.InventoryRecord, movementType inventory.MovementType, quantity decimal.Decimal, unitCost *decimal.Decimal, note string, source inventory.MovementSource) (*inventory.StockMovement, error) {
	var change *inventory.StockChange
	if quantity.IsPositive() {
		var err error
		if change, err = record.AddStock(quantity, unitCost, note); err != nil {
			return nil, err
		}
	} else if note != "" {
		record.Notes = note
	}
	if err := repos.InventoryRepo().Create(ctx, record); err != nil {
		return nil, err
	}
	if change == nil {
		return nil, nil
	}
	return e.appendMovement(ctx, repos, record, movementType, change, source)
}

// Add adds stock to a locked record
func (e *StockEngine) Add(ctx context.Context, repos TransactionalRepositories, record *inventory.InventoryRecord, movementType inventory.MovementType, quantity decimal.Decimal, unitCost *decimal.Decimal, note string, source inventory.MovementSource) (*inventory.StockMovement, error) {
	change, err := record.AddStock(quantity, unitCost, note)
	if err != nil {
		return nil, err
	}
	return e.save(ctx, repos, record, movementType, change, source)
}

// Remove takes stock out of a locked record
func (e *StockEngine) Remove(ctx context.Context, repos TransactionalRepositories, record *inventory.InventoryRecord, movementType inventory.MovementType, quantity decimal.Decimal, note string, source inventory.MovementSource) (*inventory.StockMovement, error) {
	change, err := record.RemoveStock(quantity, note)
	if err != nil {
		return nil, err
	}
	return e.save(ctx, repos, record, movementType, change, source)
}

// Adjust applies a signed manual correction to a locked record
func (e *StockEngine) Adjust(ctx context.Context, repos TransactionalRepositories, record *inventory.InventoryRecord, delta decimal.Decimal, reason string, source inventory.MovementSource) (*inventory.StockMovement, error) {
	change, err := record.AdjustStock(delta, reason)
	if err != nil {
		return nil, err
	}
	return e.save(ctx, repos, record, inventory.MovementTypeAdjustment, change, source)
}

// Observe reports committed movements to the recorder. Call it after commit.
func (e *StockEngine) Observe(ctx context.Context, movements ...*inventory.StockMovement) {
	if e.recorder == nil {
		return
	}
	for _, m := range movements {
		if m == nil {
			continue
		}
		e.recorder.RecordMovement(ctx, m.MovementType.String(), m.BranchID, m.Quantity)
	}
}

func (e *StockEngine) save(ctx context.Context, repos TransactionalRepositories, record *inventory.InventoryRecord, movementType inventory.MovementType, change *inventory.StockChange, source inventory.MovementSource) (*inventory.StockMovement, error) {
	if err := repos.InventoryRepo().SaveWithLock(ctx, record); err != nil {
		return nil, err
	}
	return e.appendMovement(ctx, repos, record, movementType, change, source)
}

func (e *StockEngine) appendMovement(ctx context.Context, repos TransactionalRepositories, record *inventory.InventoryRecord, movementType inventory.MovementType, change *inventory.StockChange, source inventory.MovementSource) (*inventory.StockMovement, error) {
	movement, err := inventory.NewStockMovement(record, movementType, change, source)
	if err != nil {
		return nil, err
	}
	if err := repos.MovementRepo().Create(ctx, movement); err != nil {
		return nil, err
	}
	return movement, nil
}

func mapRecordNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return ErrInventoryNotFound
	}
	return err
}
