package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/partner"
	"github.com/retail/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormBranchRepository reads branches using GORM
type GormBranchRepository struct {
	db *gorm.DB
}

// NewGormBranchRepository creates a new GormBranchRepository
func NewGormBranchRepository(db *gorm.DB) *GormBranchRepository {
	return &GormBranchRepository{db: db}
}

// FindByID finds a branch by ID
func (r *GormBranchRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Branch, error) {
	var branch partner.Branch
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&branch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// FindByCode finds a branch by its code, case-insensitively
func (r *GormBranchRepository) FindByCode(ctx context.Context, code string) (*partner.Branch, error) {
	var branch partner.Branch
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&branch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &branch, nil
}

// Save creates or updates a branch; used by seeding
func (r *GormBranchRepository) Save(ctx context.Context, branch *partner.Branch) error {
	return r.db.WithContext(ctx).Save(branch).Error
}

var _ partner.BranchRepository = (*GormBranchRepository)(nil)
