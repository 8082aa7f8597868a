package inventory

import (
	"fmt"
	"strings"

	"github.com/retail/backend/internal/domain/identity"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// DefaultCentralBranchCode is used when no central branch code is configured
const DefaultCentralBranchCode = "CEDIS-000"

// BranchType distinguishes the central distribution branch from stores
type BranchType string

const (
	BranchTypeCentral BranchType = "central"
	BranchTypeStore   BranchType = "store"
)

// BranchClassifier decides which branch is the central distribution center.
// The code is resolved once at startup from configuration.
type BranchClassifier struct {
	centralCode string
}

// NewBranchClassifier creates a classifier for the given central branch code
func NewBranchClassifier(centralCode string) BranchClassifier {
	centralCode = strings.ToUpper(strings.TrimSpace(centralCode))
	if centralCode == "" {
		centralCode = DefaultCentralBranchCode
	}
	return BranchClassifier{centralCode: centralCode}
}

// CentralCode returns the configured central branch code
func (c BranchClassifier) CentralCode() string {
	return c.centralCode
}

// Classify returns the branch type of b
func (c BranchClassifier) Classify(b *partner.Branch) BranchType {
	if b != nil && strings.EqualFold(b.Code, c.centralCode) {
		return BranchTypeCentral
	}
	return BranchTypeStore
}

// StockPolicy decides what an actor may do to stock at one branch.
// Build one per operation with NewStockPolicy.
type StockPolicy struct {
	Role       identity.Role
	BranchType BranchType
}

// NewStockPolicy evaluates the actor's role against the branch type
func NewStockPolicy(actor identity.Actor, branch *partner.Branch, classifier BranchClassifier) StockPolicy {
	return StockPolicy{Role: actor.Role, BranchType: classifier.Classify(branch)}
}

// IsCentral reports whether the policy targets the central branch
func (p StockPolicy) IsCentral() bool {
	return p.BranchType == BranchTypeCentral
}

// AuthorizeCreate checks whether the role may create inventory at the branch.
// Only owners and admins may create stock at the central branch; supervisors
// may only distribute to stores.
func (p StockPolicy) AuthorizeCreate() error {
	return p.authorizeManage("create inventory")
}

// AuthorizeAdjust checks whether the role may manually correct stock at the branch
func (p StockPolicy) AuthorizeAdjust() error {
	return p.authorizeManage("adjust stock")
}

// AuthorizeReceive checks whether the role may receive purchased stock.
// Receiving from suppliers only happens at the central branch.
func (p StockPolicy) AuthorizeReceive() error {
	if !p.IsCentral() {
		return shared.NewForbiddenError("Stock can only be received at the central branch; other branches are supplied by transfer")
	}
	if !p.Role.IsPrivileged() {
		return shared.NewForbiddenError(fmt.Sprintf("Role %s cannot receive stock", p.Role))
	}
	return nil
}

// AuthorizeRemove checks whether the role may take stock out of the branch
func (p StockPolicy) AuthorizeRemove() error {
	return p.authorizeManage("remove stock")
}

// AuthorizeTransfer checks whether the role may ship stock out of the central branch
func (p StockPolicy) AuthorizeTransfer() error {
	if !p.Role.IsPrivileged() {
		return shared.NewForbiddenError(fmt.Sprintf("Role %s cannot transfer stock", p.Role))
	}
	return nil
}

func (p StockPolicy) authorizeManage(action string) error {
	switch {
	case p.Role.IsPrivileged():
		return nil
	case p.Role == identity.RoleSupervisor && !p.IsCentral():
		return nil
	case p.Role == identity.RoleSupervisor:
		return shared.NewForbiddenError(fmt.Sprintf("Supervisors cannot %s at the central branch", action))
	default:
		return shared.NewForbiddenError(fmt.Sprintf("Role %s cannot %s", p.Role, action))
	}
}

// RequiresCentralStock reports whether growing stock at this branch by
// quantity must be backed by central branch stock.
func (p StockPolicy) RequiresCentralStock(quantity decimal.Decimal) bool {
	return !p.IsCentral() && quantity.IsPositive()
}

// CheckAllocation verifies that requested units can be backed by the central
// branch record for the same product. Central branch requests are unrestricted.
// Elsewhere the central record must exist even when nothing is requested.
func (p StockPolicy) CheckAllocation(requested decimal.Decimal, central *InventoryRecord) error {
	if p.IsCentral() {
		return nil
	}
	if central == nil || !central.IsActive() {
		return shared.NewConflictError("NO_CENTRAL_STOCK",
			"cannot assign stock: product has no inventory in the central branch").
			WithDetail("requested", requested.String())
	}
	if requested.GreaterThan(central.StockCurrent) {
		return shared.NewConflictError("CENTRAL_STOCK_EXCEEDED",
			fmt.Sprintf("cannot assign more than available in central branch: available: %s, requested: %s",
				central.StockCurrent.String(), requested.String())).
			WithDetail("available", central.StockCurrent.String()).
			WithDetail("requested", requested.String())
	}
	return nil
}

// NewDuplicateRecordError reports a second creation for the same product and branch
func NewDuplicateRecordError(existing *InventoryRecord) *shared.DomainError {
	return shared.NewConflictError("ALREADY_EXISTS",
		"inventory already exists for this product at this branch; use stock adjustment to change it").
		WithDetail("inventory_id", existing.ID.String())
}
