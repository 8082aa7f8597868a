package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/catalog"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InventoryService handles stock ledger operations
type InventoryService struct {
	txScope        TransactionScope
	inventoryRepo  inventory.InventoryRecordRepository
	movementRepo   inventory.StockMovementRepository
	branchRepo     partner.BranchRepository
	productRepo    catalog.ProductRepository
	engine         *StockEngine
	classifier     inventory.BranchClassifier
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewInventoryService creates a new InventoryService
func NewInventoryService(
	txScope TransactionScope,
	inventoryRepo inventory.InventoryRecordRepository,
	movementRepo inventory.StockMovementRepository,
	branchRepo partner.BranchRepository,
	productRepo catalog.ProductRepository,
	engine *StockEngine,
	classifier inventory.BranchClassifier,
	logger *zap.Logger,
) *InventoryService {
	if engine == nil {
		engine = NewStockEngine(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryService{
		txScope:       txScope,
		inventoryRepo: inventoryRepo,
		movementRepo:  movementRepo,
		branchRepo:    branchRepo,
		productRepo:   productRepo,
		engine:        engine,
		classifier:    classifier,
		logger:        logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *InventoryService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// CreateInventory creates the record of a product at a branch with optional initial stock.
// Initial stock at a non-central branch must be covered by the central branch
// record of the same product.
func (s *InventoryService) CreateInventory(ctx context.Context, actor identity.Actor, req CreateInventoryRequest) (*InventoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "create_inventory")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrBranchID, req.BranchID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
		telemetry.SpanAttrActorRole, actor.Role.String(),
	)

	if req.Quantity.IsNegative() {
		return nil, shared.NewValidationError("quantity", "Quantity cannot be negative")
	}
	if req.UnitCost != nil && req.UnitCost.IsNegative() {
		return nil, shared.NewValidationError("unit_cost", "Unit cost cannot be negative")
	}

	branch, err := s.findBranch(ctx, req.BranchID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	product, err := s.findProduct(ctx, req.ProductID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	policy := inventory.NewStockPolicy(actor, branch, s.classifier)
	if err := policy.AuthorizeCreate(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var record *inventory.InventoryRecord
	var movement *inventory.StockMovement
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.InventoryRepo().FindByProductAndBranch(ctx, req.ProductID, req.BranchID)
		if err == nil {
			return inventory.NewDuplicateRecordError(existing)
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		unitCost := req.UnitCost
		if !policy.IsCentral() {
			central, err := s.lockCentralRecord(ctx, repos, req.ProductID)
			if err != nil {
				return err
			}
			if err := policy.CheckAllocation(req.Quantity, central); err != nil {
				return err
			}
			cost := central.AverageCost
			unitCost = &cost
		}

		record, err = inventory.NewInventoryRecord(req.ProductID, req.BranchID)
		if err != nil {
			return err
		}
		if req.MinimumStock != nil {
			if err := record.SetThresholds(req.MinimumStock, nil); err != nil {
				return err
			}
		}
		movement, err = s.engine.Seed(ctx, repos, record, inventory.MovementTypeInitial, req.Quantity, unitCost, req.Notes,
			inventory.MovementSource{Type: inventory.SourceTypeInitialStock, OperatorID: actor.UserID})
		if err != nil {
			return err
		}
		record.AddDomainEvent(inventory.NewInventoryCreatedEvent(record, actor.UserID))
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrInventoryID, record.ID.String())
	s.afterCommit(ctx, actor, []*inventory.StockMovement{movement}, record)

	s.logger.Info("Inventory created",
		zap.String("inventory_id", record.ID.String()),
		zap.String("branch_code", branch.Code),
		zap.String("quantity", req.Quantity.String()),
	)
	response := ToInventoryResponse(record, product.MinStock)
	return &response, nil
}

// AdjustStock applies a signed manual correction to a record. A positive
// correction at a non-central branch must be covered by central stock.
func (s *InventoryService) AdjustStock(ctx context.Context, actor identity.Actor, inventoryID uuid.UUID, req AdjustStockRequest) (*InventoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "adjust_stock")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInventoryID, inventoryID.String(),
		telemetry.SpanAttrQuantity, req.Delta.String(),
		telemetry.SpanAttrActorRole, actor.Role.String(),
	)

	var record *inventory.InventoryRecord
	var movement *inventory.StockMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		policy, current, err := s.policyFor(ctx, repos, actor, inventoryID)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeAdjust(); err != nil {
			return err
		}

		if policy.RequiresCentralStock(req.Delta) {
			central, err := s.lockCentralRecord(ctx, repos, current.ProductID)
			if err != nil {
				return err
			}
			if err := policy.CheckAllocation(req.Delta, central); err != nil {
				return err
			}
		}

		if record, err = s.engine.LockRecord(ctx, repos, inventoryID); err != nil {
			return err
		}
		movement, err = s.engine.Adjust(ctx, repos, record, req.Delta, req.Reason,
			inventory.MovementSource{Type: inventory.SourceTypeManual, OperatorID: actor.UserID})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, actor, []*inventory.StockMovement{movement}, record)
	telemetry.AddEvent(span, "stock_adjusted",
		"balance_before", movement.BalanceBefore.String(),
		"balance_after", movement.BalanceAfter.String(),
	)
	return s.toResponse(ctx, record), nil
}

// ReceiveStock records purchased units at the central branch, updating the
// weighted average cost.
func (s *InventoryService) ReceiveStock(ctx context.Context, actor identity.Actor, inventoryID uuid.UUID, req ReceiveStockRequest) (*InventoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "receive_stock")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInventoryID, inventoryID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
		"unit_cost", req.UnitCost.String(),
	)

	var record *inventory.InventoryRecord
	var movement *inventory.StockMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if record, err = s.engine.LockRecord(ctx, repos, inventoryID); err != nil {
			return err
		}
		policy, err := s.policyForRecord(ctx, repos, actor, record)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeReceive(); err != nil {
			return err
		}
		cost := req.UnitCost
		movement, err = s.engine.Add(ctx, repos, record, inventory.MovementTypeInbound, req.Quantity, &cost, req.Note,
			inventory.MovementSource{Type: inventory.SourceTypeReceipt, ID: req.Reference, OperatorID: actor.UserID})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, actor, []*inventory.StockMovement{movement}, record)
	return s.toResponse(ctx, record), nil
}

// RemoveStock takes units out of a record. The average cost is unchanged.
func (s *InventoryService) RemoveStock(ctx context.Context, actor identity.Actor, inventoryID uuid.UUID, req RemoveStockRequest) (*InventoryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "remove_stock")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrInventoryID, inventoryID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	var record *inventory.InventoryRecord
	var movement *inventory.StockMovement
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if record, err = s.engine.LockRecord(ctx, repos, inventoryID); err != nil {
			return err
		}
		policy, err := s.policyForRecord(ctx, repos, actor, record)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeRemove(); err != nil {
			return err
		}
		movement, err = s.engine.Remove(ctx, repos, record, inventory.MovementTypeOutbound, req.Quantity, req.Reason,
			inventory.MovementSource{Type: inventory.SourceTypeManual, OperatorID: actor.UserID})
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, actor, []*inventory.StockMovement{movement}, record)
	return s.toResponse(ctx, record), nil
}

// TransferStock moves units from the central branch to another branch at the
// central average cost, creating the target record when it does not exist.
func (s *InventoryService) TransferStock(ctx context.Context, actor identity.Actor, req TransferStockRequest) (*TransferStockResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "inventory", "transfer_stock")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrBranchID, req.ToBranchID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	if !req.Quantity.IsPositive() {
		return nil, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	target, err := s.findBranch(ctx, req.ToBranchID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	policy := inventory.NewStockPolicy(actor, target, s.classifier)
	if policy.IsCentral() {
		return nil, shared.NewValidationError("to_branch_id", "Cannot transfer stock to the central branch")
	}
	if err := policy.AuthorizeTransfer(); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	transferID := uuid.New()
	source := inventory.MovementSource{Type: inventory.SourceTypeTransfer, ID: transferID.String(), OperatorID: actor.UserID}
	note := req.Note
	if note == "" {
		note = fmt.Sprintf("transfer %s", transferID)
	}

	var from, to *inventory.InventoryRecord
	var movements []*inventory.StockMovement
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if from, err = s.lockCentralRecord(ctx, repos, req.ProductID); err != nil {
			return err
		}
		if err := policy.CheckAllocation(req.Quantity, from); err != nil {
			return err
		}
		cost := from.AverageCost

		out, err := s.engine.Remove(ctx, repos, from, inventory.MovementTypeTransferOut, req.Quantity, note, source)
		if err != nil {
			return err
		}
		movements = append(movements, out)

		to, err = s.engine.LockRecordAt(ctx, repos, req.ProductID, req.ToBranchID)
		switch {
		case err == nil:
			in, err := s.engine.Add(ctx, repos, to, inventory.MovementTypeTransferIn, req.Quantity, &cost, note, source)
			if err != nil {
				return err
			}
			movements = append(movements, in)
		case errors.Is(err, ErrInventoryNotFound):
			if to, err = inventory.NewInventoryRecord(req.ProductID, req.ToBranchID); err != nil {
				return err
			}
			in, err := s.engine.Seed(ctx, repos, to, inventory.MovementTypeTransferIn, req.Quantity, &cost, note, source)
			if err != nil {
				return err
			}
			to.AddDomainEvent(inventory.NewInventoryCreatedEvent(to, actor.UserID))
			movements = append(movements, in)
		default:
			return err
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, actor, movements, from, to)
	s.logger.Info("Stock transferred",
		zap.String("transfer_id", transferID.String()),
		zap.String("product_id", req.ProductID.String()),
		zap.String("to_branch", target.Code),
		zap.String("quantity", req.Quantity.String()),
	)
	return &TransferStockResponse{
		TransferID: transferID,
		From:       *s.toResponse(ctx, from),
		To:         *s.toResponse(ctx, to),
	}, nil
}

// SetThresholds sets the branch-level minimum and maximum stock of a record
func (s *InventoryService) SetThresholds(ctx context.Context, actor identity.Actor, inventoryID uuid.UUID, req SetThresholdsRequest) (*InventoryResponse, error) {
	var record *inventory.InventoryRecord
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if record, err = s.engine.LockRecord(ctx, repos, inventoryID); err != nil {
			return err
		}
		policy, err := s.policyForRecord(ctx, repos, actor, record)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeAdjust(); err != nil {
			return err
		}
		if err := record.SetThresholds(req.MinimumStock, req.MaximumStock); err != nil {
			return err
		}
		return repos.InventoryRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	return s.toResponse(ctx, record), nil
}

// DeactivateInventory blocks further mutations and hides the record from active listings
func (s *InventoryService) DeactivateInventory(ctx context.Context, actor identity.Actor, inventoryID uuid.UUID) (*InventoryResponse, error) {
	return s.changeStatus(ctx, actor, inventoryID, func(r *inventory.InventoryRecord) error {
		return r.Deactivate(actor.UserID)
	})
}

// ReactivateInventory re-enables a deactivated record
func (s *InventoryService) ReactivateInventory(ctx context.Context, actor identity.Actor, inventoryID uuid.UUID) (*InventoryResponse, error) {
	return s.changeStatus(ctx, actor, inventoryID, func(r *inventory.InventoryRecord) error {
		return r.Activate(actor.UserID)
	})
}

func (s *InventoryService) changeStatus(ctx context.Context, actor identity.Actor, inventoryID uuid.UUID, apply func(*inventory.InventoryRecord) error) (*InventoryResponse, error) {
	var record *inventory.InventoryRecord
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		if record, err = s.engine.LockRecord(ctx, repos, inventoryID); err != nil {
			return err
		}
		policy, err := s.policyForRecord(ctx, repos, actor, record)
		if err != nil {
			return err
		}
		if err := policy.AuthorizeCreate(); err != nil {
			return err
		}
		if err := apply(record); err != nil {
			return err
		}
		return repos.InventoryRepo().SaveWithLock(ctx, record)
	})
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, actor, nil, record)
	return s.toResponse(ctx, record), nil
}

// GetInventory retrieves a record by ID
func (s *InventoryService) GetInventory(ctx context.Context, inventoryID uuid.UUID) (*InventoryResponse, error) {
	record, err := s.inventoryRepo.FindByID(ctx, inventoryID)
	if err != nil {
		return nil, mapRecordNotFound(err)
	}
	return s.toResponse(ctx, record), nil
}

// ListInventory lists records. An empty status selects active records.
func (s *InventoryService) ListInventory(ctx context.Context, filter InventoryListFilter) ([]InventoryResponse, int64, error) {
	status := inventory.StatusFilter(filter.Status)
	if status == "" {
		status = inventory.StatusFilterActive
	}
	if !status.IsValid() {
		return nil, 0, shared.NewValidationError("status", fmt.Sprintf("Invalid status filter: %s", filter.Status))
	}

	domainFilter := inventory.RecordFilter{
		Filter:    pageFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		Status:    status,
		BranchID:  filter.BranchID,
		ProductID: filter.ProductID,
	}
	records, total, err := s.inventoryRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	minimums := s.productMinimums(ctx, productIDs(records))
	responses := make([]InventoryResponse, len(records))
	for i := range records {
		responses[i] = ToInventoryResponse(&records[i], minimums[records[i].ProductID])
	}
	return responses, total, nil
}

// ListLowStock lists active records at or below their effective minimum
func (s *InventoryService) ListLowStock(ctx context.Context, filter LowStockFilter) ([]InventoryResponse, int64, error) {
	rows, total, err := s.inventoryRepo.FindLowStock(ctx, filter.BranchID, pageFilter(filter.Page, filter.PageSize, "", ""))
	if err != nil {
		return nil, 0, err
	}
	responses := make([]InventoryResponse, len(rows))
	for i := range rows {
		responses[i] = ToInventoryResponse(&rows[i].InventoryRecord, rows[i].ProductMinStock)
	}
	return responses, total, nil
}

// CountLowStock returns the number of active low-stock records across all branches
func (s *InventoryService) CountLowStock(ctx context.Context) (int64, error) {
	_, total, err := s.inventoryRepo.FindLowStock(ctx, nil, shared.Filter{Page: 1, PageSize: 1})
	return total, err
}

// ListMovements lists the ledger entries of a record, newest first
func (s *InventoryService) ListMovements(ctx context.Context, inventoryID uuid.UUID, filter MovementListFilter) ([]MovementResponse, int64, error) {
	if _, err := s.inventoryRepo.FindByID(ctx, inventoryID); err != nil {
		return nil, 0, mapRecordNotFound(err)
	}

	domainFilter := inventory.MovementFilter{
		Filter: pageFilter(filter.Page, filter.PageSize, "created_at", "desc"),
		From:   filter.From,
		To:     filter.To,
	}
	if filter.MovementType != "" {
		mt := inventory.MovementType(filter.MovementType)
		if !mt.IsValid() {
			return nil, 0, shared.NewValidationError("movement_type", fmt.Sprintf("Invalid movement type: %s", filter.MovementType))
		}
		domainFilter.MovementType = &mt
	}

	movements, total, err := s.movementRepo.FindByInventoryRecord(ctx, inventoryID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToMovementResponses(movements), total, nil
}

// lockCentralRecord locks the central branch record of a product.
// It returns a nil record, not an error, when the product has no central stock
// so that the allocation check can report it.
func (s *InventoryService) lockCentralRecord(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID) (*inventory.InventoryRecord, error) {
	central, err := repos.BranchRepo().FindByCode(ctx, s.classifier.CentralCode())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	record, err := repos.InventoryRepo().FindByProductAndBranchForUpdate(ctx, productID, central.ID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// policyFor reads the record without locking to find its branch and builds the policy
func (s *InventoryService) policyFor(ctx context.Context, repos TransactionalRepositories, actor identity.Actor, inventoryID uuid.UUID) (inventory.StockPolicy, *inventory.InventoryRecord, error) {
	record, err := repos.InventoryRepo().FindByID(ctx, inventoryID)
	if err != nil {
		return inventory.StockPolicy{}, nil, mapRecordNotFound(err)
	}
	policy, err := s.policyForRecord(ctx, repos, actor, record)
	return policy, record, err
}

func (s *InventoryService) policyForRecord(ctx context.Context, repos TransactionalRepositories, actor identity.Actor, record *inventory.InventoryRecord) (inventory.StockPolicy, error) {
	branch, err := repos.BranchRepo().FindByID(ctx, record.BranchID)
	if err != nil {
		return inventory.StockPolicy{}, mapBranchNotFound(err)
	}
	return inventory.NewStockPolicy(actor, branch, s.classifier), nil
}

func (s *InventoryService) findBranch(ctx context.Context, id uuid.UUID) (*partner.Branch, error) {
	branch, err := s.branchRepo.FindByID(ctx, id)
	if err != nil {
		return nil, mapBranchNotFound(err)
	}
	if !branch.IsActive() {
		return nil, shared.NewConflictError("BRANCH_INACTIVE", fmt.Sprintf("Branch %s is inactive", branch.Code))
	}
	return branch, nil
}

func (s *InventoryService) findProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewNotFoundError("PRODUCT_NOT_FOUND", "product")
		}
		return nil, err
	}
	return product, nil
}

func (s *InventoryService) toResponse(ctx context.Context, record *inventory.InventoryRecord) *InventoryResponse {
	var minimum *decimal.Decimal
	if product, err := s.productRepo.FindByID(ctx, record.ProductID); err == nil {
		minimum = product.MinStock
	}
	response := ToInventoryResponse(record, minimum)
	return &response
}

func (s *InventoryService) productMinimums(ctx context.Context, ids []uuid.UUID) map[uuid.UUID]*decimal.Decimal {
	minimums := make(map[uuid.UUID]*decimal.Decimal, len(ids))
	if len(ids) == 0 {
		return minimums
	}
	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Warn("Failed to load product minimums", zap.Error(err))
		return minimums
	}
	for id, p := range products {
		minimums[id] = p.MinStock
	}
	return minimums
}

func (s *InventoryService) afterCommit(ctx context.Context, actor identity.Actor, movements []*inventory.StockMovement, records ...*inventory.InventoryRecord) {
	s.engine.Observe(ctx, movements...)
	roots := make([]shared.AggregateRoot, 0, len(records))
	for _, r := range records {
		if r != nil {
			roots = append(roots, r)
		}
	}
	PublishDomainEvents(ctx, s.eventPublisher, s.logger, actor.UserID, roots...)
}

func mapBranchNotFound(err error) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError("BRANCH_NOT_FOUND", "branch")
	}
	return err
}

func productIDs(records []inventory.InventoryRecord) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(records))
	ids := make([]uuid.UUID, 0, len(records))
	for _, r := range records {
		if _, ok := seen[r.ProductID]; ok {
			continue
		}
		seen[r.ProductID] = struct{}{}
		ids = append(ids, r.ProductID)
	}
	return ids
}

func pageFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	if orderBy != "" {
		f.OrderBy = orderBy
	}
	if orderDir != "" {
		f.OrderDir = orderDir
	}
	return f
}
