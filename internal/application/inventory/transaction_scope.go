package inventory

import (
	"context"

	"github.com/retail/backend/internal/domain/catalog"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/domain/trade"
)

// TransactionScope provides transactional access to the stock ledger repositories.
// All repository operations inside fn share one database transaction and are
// committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error (or ctx is cancelled) the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories bound to one transaction.
//
// Aggregate boundaries:
//   - InventoryRepo: InventoryRecord aggregate; every stock change goes through it.
//   - MovementRepo: append-only ledger, written alongside each stock change.
//   - ReturnRepo: Return aggregate; approval credits stock in the same transaction.
//   - BranchRepo, ProductRepo, SaleRepo: read-only lookups.
type TransactionalRepositories interface {
	InventoryRepo() inventory.InventoryRecordRepository
	MovementRepo() inventory.StockMovementRepository
	BranchRepo() partner.BranchRepository
	ProductRepo() catalog.ProductRepository
	SaleRepo() trade.SaleRepository
	ReturnRepo() trade.ReturnRepository
}

// Repositories is a plain TransactionalRepositories implementation
type Repositories struct {
	Inventory inventory.InventoryRecordRepository
	Movements inventory.StockMovementRepository
	Branches  partner.BranchRepository
	Products  catalog.ProductRepository
	Sales     trade.SaleRepository
	Returns   trade.ReturnRepository
}

func (r Repositories) InventoryRepo() inventory.InventoryRecordRepository { return r.Inventory }
func (r Repositories) MovementRepo() inventory.StockMovementRepository    { return r.Movements }
func (r Repositories) BranchRepo() partner.BranchRepository               { return r.Branches }
func (r Repositories) ProductRepo() catalog.ProductRepository             { return r.Products }
func (r Repositories) SaleRepo() trade.SaleRepository                     { return r.Sales }
func (r Repositories) ReturnRepo() trade.ReturnRepository                 { return r.Returns }

// NoOpTransactionScope runs fn against fixed repositories without a transaction.
// Used with in-memory fakes in tests.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s.repos)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = Repositories{}
)
