package partner

import (
	"strings"

	"github.com/retail/backend/internal/domain/shared"
)

// BranchStatus represents the status of a branch
type BranchStatus string

const (
	BranchStatusActive   BranchStatus = "active"
	BranchStatusInactive BranchStatus = "inactive"
)

// Branch is a store or distribution site holding stock.
// Branches are maintained by the store administration module; this service only reads them.
type Branch struct {
	shared.BaseEntity
	Code    string       `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name    string       `gorm:"type:varchar(200);not null"`
	Address string       `gorm:"type:text"`
	Status  BranchStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (Branch) TableName() string {
	return "branches"
}

// NewBranch creates a branch. Codes are normalized to upper case.
func NewBranch(code, name string) (*Branch, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, shared.NewValidationError("code", "Branch code cannot be empty")
	}
	if len(code) > 50 {
		return nil, shared.NewValidationError("code", "Branch code cannot exceed 50 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewValidationError("name", "Branch name cannot be empty")
	}
	return &Branch{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		Status:     BranchStatusActive,
	}, nil
}

// IsActive returns true if the branch is operating
func (b *Branch) IsActive() bool {
	return b.Status == BranchStatusActive
}
