package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// ReturnStatus represents the status of a customer return
type ReturnStatus string

const (
	ReturnStatusPending  ReturnStatus = "pending"
	ReturnStatusApproved ReturnStatus = "approved"
	ReturnStatusRejected ReturnStatus = "rejected"
)

// ParseReturnStatus parses a status name, case-insensitively
func ParseReturnStatus(s string) (ReturnStatus, error) {
	status := ReturnStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", shared.NewValidationError("status", fmt.Sprintf("Invalid return status: %s", s))
	}
	return status, nil
}

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected:
		return true
	}
	return false
}

func (s ReturnStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further change is allowed. Only approval is
// terminal: the stock credit already happened and cannot be undone safely.
// Rejected returns may be corrected and reviewed again.
func (s ReturnStatus) IsTerminal() bool {
	return s == ReturnStatusApproved
}

// CanTransitionTo checks if a transition to the target status is valid
func (s ReturnStatus) CanTransitionTo(target ReturnStatus) bool {
	switch s {
	case ReturnStatusPending:
		return target == ReturnStatusApproved || target == ReturnStatusRejected
	case ReturnStatusRejected:
		return target == ReturnStatusPending || target == ReturnStatusApproved
	default:
		return false
	}
}

// ErrReturnCannotRevert is returned for any change to an approved return
var ErrReturnCannotRevert = shared.NewConflictError("RETURN_CANNOT_REVERT",
	"return has already been approved and cannot be reverted or modified")

// Return is a customer's request to give back units of one sale line.
// It is the aggregate root for return reconciliation.
type Return struct {
	shared.AuditedAggregateRoot
	SaleID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleItemID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	CustomerID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null"`
	BranchID        uuid.UUID       `gorm:"type:uuid;not null;index"` // branch of the sale, where stock is credited
	Quantity        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Reason          string          `gorm:"type:text;not null"`
	Status          ReturnStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	RejectionReason string          `gorm:"type:text"`
	ApprovedBy      *uuid.UUID      `gorm:"type:uuid"`
	RejectedBy      *uuid.UUID      `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	RejectedAt      *time.Time
}

// TableName returns the table name for GORM
func (Return) TableName() string {
	return "returns"
}

// ReturnRequest carries the caller-supplied fields of a new return
type ReturnRequest struct {
	SaleID     uuid.UUID
	SaleItemID uuid.UUID
	CustomerID uuid.UUID
	ProductID  uuid.UUID
	Quantity   decimal.Decimal
	Reason     string
}

// NewReturn validates the request against the sale and creates a pending return.
// alreadyReturned is the quantity of the same sale line held by other
// non-rejected returns.
func NewReturn(req ReturnRequest, sale *Sale, alreadyReturned decimal.Decimal, createdBy uuid.UUID) (*Return, error) {
	if sale == nil || sale.ID != req.SaleID {
		return nil, shared.NewNotFoundError("SALE_NOT_FOUND", "sale")
	}
	item := sale.Item(req.SaleItemID)
	if item == nil {
		return nil, shared.NewDomainError("SALE_ITEM_MISMATCH", "Sale item does not belong to the given sale").
			WithDetail("field", "sale_item_id")
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		return nil, shared.NewValidationError("reason", "Return reason is required")
	}
	if req.ProductID != item.ProductID {
		return nil, shared.NewDomainError("PRODUCT_MISMATCH", "Product does not match the sale item").
			WithDetail("field", "product_id")
	}
	if req.CustomerID != sale.CustomerID {
		return nil, shared.NewDomainError("CUSTOMER_MISMATCH", "Customer does not match the customer of the sale").
			WithDetail("field", "customer_id")
	}
	if err := checkReturnQuantity(req.Quantity, item, alreadyReturned); err != nil {
		return nil, err
	}

	r := &Return{
		AuditedAggregateRoot: shared.NewAuditedAggregateRoot(createdBy),
		SaleID:               sale.ID,
		SaleItemID:           item.ID,
		CustomerID:           sale.CustomerID,
		ProductID:            item.ProductID,
		BranchID:             sale.BranchID,
		Quantity:             req.Quantity,
		Reason:               reason,
		Status:               ReturnStatusPending,
	}
	r.AddDomainEvent(NewReturnCreatedEvent(r, createdBy))
	return r, nil
}

func checkReturnQuantity(quantity decimal.Decimal, item *SaleItem, alreadyReturned decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("quantity", "Return quantity must be positive")
	}
	returnable := item.Quantity.Sub(alreadyReturned)
	if quantity.GreaterThan(returnable) {
		return shared.NewDomainError("RETURN_QUANTITY_EXCEEDED",
			fmt.Sprintf("cannot return more than was purchased: purchased: %s, already returned: %s, requested: %s",
				item.Quantity, alreadyReturned, quantity)).
			WithDetail("field", "quantity").
			WithDetail("purchased", item.Quantity.String()).
			WithDetail("requested", quantity.String())
	}
	return nil
}

// CheckQuantity re-validates the return quantity against its sale line, for
// example before a rejected return is reviewed again.
func (r *Return) CheckQuantity(item *SaleItem, alreadyReturned decimal.Decimal) error {
	if item == nil || item.ID != r.SaleItemID {
		return shared.NewNotFoundError("SALE_ITEM_NOT_FOUND", "sale item")
	}
	return checkReturnQuantity(r.Quantity, item, alreadyReturned)
}

// IsApproved returns true once the stock credit has been applied
func (r *Return) IsApproved() bool {
	return r.Status == ReturnStatusApproved
}

// EnsureMutable fails for approved returns
func (r *Return) EnsureMutable() error {
	if r.Status.IsTerminal() {
		return ErrReturnCannotRevert.WithDetail("status", string(r.Status))
	}
	return nil
}

// Approve moves the return to approved. The caller credits stock in the same transaction.
func (r *Return) Approve(actor identity.Actor) error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if err := r.checkReviewer(actor); err != nil {
		return err
	}
	if err := r.transitionTo(ReturnStatusApproved); err != nil {
		return err
	}
	now := time.Now()
	r.ApprovedBy = &actor.UserID
	r.ApprovedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewReturnApprovedEvent(r, actor.UserID))
	return nil
}

// Reject moves the return to rejected. A reason is required.
func (r *Return) Reject(actor identity.Actor, reason string) error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if err := r.checkReviewer(actor); err != nil {
		return err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewValidationError("rejection_reason", "Rejection reason is required")
	}
	if err := r.transitionTo(ReturnStatusRejected); err != nil {
		return err
	}
	now := time.Now()
	r.RejectedBy = &actor.UserID
	r.RejectedAt = &now
	r.RejectionReason = reason
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewReturnRejectedEvent(r, actor.UserID))
	return nil
}

// Reopen puts a rejected return back into review
func (r *Return) Reopen(actor identity.Actor) error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if err := r.checkReviewer(actor); err != nil {
		return err
	}
	if err := r.transitionTo(ReturnStatusPending); err != nil {
		return err
	}
	r.RejectedBy = nil
	r.RejectedAt = nil
	r.RejectionReason = ""
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewReturnReopenedEvent(r, actor.UserID))
	return nil
}

// UpdateDetails changes quantity and/or reason of a return that is not approved.
// The new quantity is checked against the sale line again.
func (r *Return) UpdateDetails(actor identity.Actor, quantity *decimal.Decimal, reason *string, item *SaleItem, alreadyReturned decimal.Decimal) error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if actor.UserID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if quantity != nil {
		if item == nil || item.ID != r.SaleItemID {
			return shared.NewNotFoundError("SALE_ITEM_NOT_FOUND", "sale item")
		}
		if err := checkReturnQuantity(*quantity, item, alreadyReturned); err != nil {
			return err
		}
		r.Quantity = *quantity
	}
	if reason != nil {
		trimmed := strings.TrimSpace(*reason)
		if trimmed == "" {
			return shared.NewValidationError("reason", "Return reason is required")
		}
		r.Reason = trimmed
	}
	r.Touch()
	r.IncrementVersion()
	r.AddDomainEvent(NewReturnUpdatedEvent(r, actor.UserID))
	return nil
}

// TransitionTo dispatches a requested status change
func (r *Return) TransitionTo(actor identity.Actor, target ReturnStatus, rejectionReason string) error {
	switch target {
	case ReturnStatusApproved:
		return r.Approve(actor)
	case ReturnStatusRejected:
		return r.Reject(actor, rejectionReason)
	case ReturnStatusPending:
		return r.Reopen(actor)
	default:
		return shared.NewValidationError("status", fmt.Sprintf("Invalid return status: %s", target))
	}
}

func (r *Return) checkReviewer(actor identity.Actor) error {
	if actor.UserID == uuid.Nil {
		return shared.ErrUnauthorized
	}
	if !actor.Role.CanReviewReturns() {
		return shared.NewForbiddenError(fmt.Sprintf("Role %s cannot approve or reject returns", actor.Role))
	}
	return nil
}

func (r *Return) transitionTo(target ReturnStatus) error {
	if err := r.EnsureMutable(); err != nil {
		return err
	}
	if !r.Status.CanTransitionTo(target) {
		return shared.NewConflictError("INVALID_STATUS_TRANSITION",
			fmt.Sprintf("cannot change return from %s to %s", r.Status, target))
	}
	r.Status = target
	return nil
}
