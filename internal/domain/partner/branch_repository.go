package partner

import (
	"context"

	"github.com/google/uuid"
)

// BranchRepository provides read access to branches
type BranchRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Branch, error)
	// FindByCode finds a branch by its (upper-case) code
	FindByCode(ctx context.Context, code string) (*Branch, error)
}
