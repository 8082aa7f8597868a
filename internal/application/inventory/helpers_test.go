package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	appinv "github.com/retail/backend/internal/application/inventory"
	"github.com/retail/backend/internal/domain/catalog"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/retail/backend/internal/infrastructure/persistence/persistencetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) ofType(eventType string) []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.DomainEvent
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// mockStockRecorder is a testify mock of the movement metrics
type mockStockRecorder struct {
	mock.Mock
}

func (m *mockStockRecorder) RecordMovement(ctx context.Context, movementType string, branchID uuid.UUID, quantity decimal.Decimal) {
	m.Called(ctx, movementType, branchID, quantity)
}

type inventoryEnv struct {
	db        *gorm.DB
	fixtures  *persistencetest.Fixtures
	service   *appinv.InventoryService
	publisher *recordingPublisher
	recorder  *mockStockRecorder
	central   *partner.Branch
	store     *partner.Branch
	product   *catalog.Product
}

func setupInventory(t *testing.T) *inventoryEnv {
	t.Helper()
	db := persistencetest.NewSQLiteDB(t)
	fixtures := persistencetest.NewFixtures(t, db)

	recorder := &mockStockRecorder{}
	recorder.On("RecordMovement", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return().Maybe()

	service := appinv.NewInventoryService(
		persistence.NewGormTransactionScope(db),
		persistence.NewGormInventoryRecordRepository(db),
		persistence.NewGormStockMovementRepository(db),
		persistence.NewGormBranchRepository(db),
		persistence.NewGormProductRepository(db),
		appinv.NewStockEngine(recorder),
		inventory.NewBranchClassifier(""),
		zap.NewNop(),
	)
	publisher := &recordingPublisher{}
	service.SetEventPublisher(publisher)

	return &inventoryEnv{
		db:        db,
		fixtures:  fixtures,
		service:   service,
		publisher: publisher,
		recorder:  recorder,
		central:   fixtures.Branch(inventory.DefaultCentralBranchCode),
		store:     fixtures.Branch("SUC-001"),
		product:   fixtures.Product("SKU-001", nil),
	}
}

func actorWith(role identity.Role) identity.Actor {
	return identity.Actor{UserID: uuid.New(), Role: role}
}

var (
	owner      = actorWith(identity.RoleOwner)
	admin      = actorWith(identity.RoleAdmin)
	supervisor = actorWith(identity.RoleSupervisor)
	cashier    = actorWith(identity.RoleCashier)
)

func dec(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

// seedCentral creates the central record of the product with quantity units at unitCost
func (e *inventoryEnv) seedCentral(t *testing.T, quantity, unitCost float64) *appinv.InventoryResponse {
	t.Helper()
	resp, err := e.service.CreateInventory(context.Background(), owner, appinv.CreateInventoryRequest{
		ProductID: e.product.ID,
		BranchID:  e.central.ID,
		Quantity:  dec(quantity),
		UnitCost:  decPtr(unitCost),
	})
	require.NoError(t, err)
	return resp
}

// seedStore creates the store record of the product with quantity units
func (e *inventoryEnv) seedStore(t *testing.T, quantity float64) *appinv.InventoryResponse {
	t.Helper()
	resp, err := e.service.CreateInventory(context.Background(), supervisor, appinv.CreateInventoryRequest{
		ProductID: e.product.ID,
		BranchID:  e.store.ID,
		Quantity:  dec(quantity),
	})
	require.NoError(t, err)
	return resp
}

func requireCode(t *testing.T, err error, code string) *shared.DomainError {
	t.Helper()
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, code, domainErr.Code, domainErr.Message)
	return domainErr
}
