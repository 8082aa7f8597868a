package trade

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	appinv "github.com/retail/backend/internal/application/inventory"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/domain/trade"
	"github.com/retail/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TransitionRecorder receives committed return status transitions
type TransitionRecorder interface {
	RecordReturnTransition(ctx context.Context, from, to string)
}

// ReturnService reconciles customer returns into branch stock
type ReturnService struct {
	txScope        appinv.TransactionScope
	returnRepo     trade.ReturnRepository
	engine         *appinv.StockEngine
	recorder       TransitionRecorder
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewReturnService creates a new ReturnService
func NewReturnService(
	txScope appinv.TransactionScope,
	returnRepo trade.ReturnRepository,
	engine *appinv.StockEngine,
	logger *zap.Logger,
) *ReturnService {
	if engine == nil {
		engine = appinv.NewStockEngine(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReturnService{
		txScope:    txScope,
		returnRepo: returnRepo,
		engine:     engine,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *ReturnService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetTransitionRecorder sets the recorder for transition metrics
func (s *ReturnService) SetTransitionRecorder(recorder TransitionRecorder) {
	s.recorder = recorder
}

// CreateReturn creates a pending return. No stock moves until it is approved.
func (s *ReturnService) CreateReturn(ctx context.Context, actor identity.Actor, req CreateReturnRequest) (*ReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "returns", "create_return")
	defer span.End()
	telemetry.SetAttributes(span,
		"sale_id", req.SaleID.String(),
		telemetry.SpanAttrProductID, req.ProductID.String(),
		telemetry.SpanAttrQuantity, req.Quantity.String(),
	)

	if actor.UserID == uuid.Nil {
		return nil, shared.ErrUnauthorized
	}

	var r *trade.Return
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, req.SaleID)
		if err != nil {
			return mapNotFound(err, "SALE_NOT_FOUND", "sale")
		}
		already, err := repos.ReturnRepo().SumReturnedQuantity(ctx, req.SaleItemID, uuid.Nil)
		if err != nil {
			return err
		}
		r, err = trade.NewReturn(trade.ReturnRequest{
			SaleID:     req.SaleID,
			SaleItemID: req.SaleItemID,
			CustomerID: req.CustomerID,
			ProductID:  req.ProductID,
			Quantity:   req.Quantity,
			Reason:     req.Reason,
		}, sale, already, actor.UserID)
		if err != nil {
			return err
		}
		return repos.ReturnRepo().Create(ctx, r)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrReturnID, r.ID.String())
	appinv.PublishDomainEvents(ctx, s.eventPublisher, s.logger, actor.UserID, r)
	response := ToReturnResponse(r)
	return &response, nil
}

// UpdateReturnStatus moves a return to the requested status. Approval credits
// the returned units to the sale's branch in the same transaction; an approved
// return can never change again.
func (s *ReturnService) UpdateReturnStatus(ctx context.Context, actor identity.Actor, returnID uuid.UUID, req UpdateReturnStatusRequest) (*ReturnResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "returns", "update_return_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrReturnID, returnID.String(),
		telemetry.SpanAttrReturnStatus, req.Status,
		telemetry.SpanAttrActorRole, actor.Role.String(),
	)

	target, err := trade.ParseReturnStatus(req.Status)
	if err != nil {
		return nil, err
	}

	var r *trade.Return
	var record *inventory.InventoryRecord
	var movement *inventory.StockMovement
	var previous trade.ReturnStatus
	err = s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		if r, err = repos.ReturnRepo().FindByIDForUpdate(ctx, returnID); err != nil {
			return mapNotFound(err, "RETURN_NOT_FOUND", "return")
		}
		previous = r.Status

		if err := r.TransitionTo(actor, target, req.RejectionReason); err != nil {
			return err
		}

		// A rejected return does not hold any quantity, so leaving rejected
		// must fit in what is still returnable on the sale line.
		if previous == trade.ReturnStatusRejected && target != trade.ReturnStatusRejected {
			if err := s.recheckQuantity(ctx, repos, r); err != nil {
				return err
			}
		}

		if target == trade.ReturnStatusApproved {
			if record, err = s.engine.LockRecordAt(ctx, repos, r.ProductID, r.BranchID); err != nil {
				return err
			}
			movement, err = s.engine.Add(ctx, repos, record, inventory.MovementTypeReturn, r.Quantity, nil,
				fmt.Sprintf("return %s approved", r.ID),
				inventory.MovementSource{Type: inventory.SourceTypeSaleReturn, ID: r.ID.String(), OperatorID: actor.UserID})
			if err != nil {
				return err
			}
		}

		return repos.ReturnRepo().UpdateStatus(ctx, r, previous)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.engine.Observe(ctx, movement)
	if s.recorder != nil {
		s.recorder.RecordReturnTransition(ctx, string(previous), string(r.Status))
	}
	roots := []shared.AggregateRoot{r}
	if record != nil {
		roots = append(roots, record)
	}
	appinv.PublishDomainEvents(ctx, s.eventPublisher, s.logger, actor.UserID, roots...)

	s.logger.Info("Return status changed",
		zap.String("return_id", r.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(r.Status)),
		zap.String("actor_id", actor.UserID.String()),
	)
	response := ToReturnResponse(r)
	return &response, nil
}

// UpdateReturn edits the quantity or reason of a return that is not approved
func (s *ReturnService) UpdateReturn(ctx context.Context, actor identity.Actor, returnID uuid.UUID, req UpdateReturnRequest) (*ReturnResponse, error) {
	var r *trade.Return
	err := s.txScope.Execute(ctx, func(repos appinv.TransactionalRepositories) error {
		var err error
		if r, err = repos.ReturnRepo().FindByIDForUpdate(ctx, returnID); err != nil {
			return mapNotFound(err, "RETURN_NOT_FOUND", "return")
		}
		if err := r.EnsureMutable(); err != nil {
			return err
		}

		var item *trade.SaleItem
		already := decimal.Zero
		if req.Quantity != nil {
			sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, r.SaleID)
			if err != nil {
				return mapNotFound(err, "SALE_NOT_FOUND", "sale")
			}
			item = sale.Item(r.SaleItemID)
			if already, err = repos.ReturnRepo().SumReturnedQuantity(ctx, r.SaleItemID, r.ID); err != nil {
				return err
			}
		}
		if err := r.UpdateDetails(actor, req.Quantity, req.Reason, item, already); err != nil {
			return err
		}
		return repos.ReturnRepo().SaveWithLock(ctx, r)
	})
	if err != nil {
		return nil, err
	}
	appinv.PublishDomainEvents(ctx, s.eventPublisher, s.logger, actor.UserID, r)
	response := ToReturnResponse(r)
	return &response, nil
}

// GetReturn retrieves a return by ID
func (s *ReturnService) GetReturn(ctx context.Context, returnID uuid.UUID) (*ReturnResponse, error) {
	r, err := s.returnRepo.FindByID(ctx, returnID)
	if err != nil {
		return nil, mapNotFound(err, "RETURN_NOT_FOUND", "return")
	}
	response := ToReturnResponse(r)
	return &response, nil
}

// ListReturns lists returns matching the filter
func (s *ReturnService) ListReturns(ctx context.Context, filter ReturnListFilter) ([]ReturnResponse, int64, error) {
	domainFilter := trade.ReturnFilter{
		Filter:     shared.DefaultFilter(),
		SaleID:     filter.SaleID,
		CustomerID: filter.CustomerID,
		BranchID:   filter.BranchID,
	}
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	if filter.Status != "" {
		status, err := trade.ParseReturnStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Status = &status
	}

	returns, total, err := s.returnRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToReturnResponses(returns), total, nil
}

func (s *ReturnService) recheckQuantity(ctx context.Context, repos appinv.TransactionalRepositories, r *trade.Return) error {
	sale, err := repos.SaleRepo().FindByIDForUpdate(ctx, r.SaleID)
	if err != nil {
		return mapNotFound(err, "SALE_NOT_FOUND", "sale")
	}
	already, err := repos.ReturnRepo().SumReturnedQuantity(ctx, r.SaleItemID, r.ID)
	if err != nil {
		return err
	}
	return r.CheckQuantity(sale.Item(r.SaleItemID), already)
}

func mapNotFound(err error, code, resource string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewNotFoundError(code, resource)
	}
	return err
}
