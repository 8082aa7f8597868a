package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/retail/backend/internal/domain/audit"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormAuditLogRepository implements audit.Repository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

// Create inserts a line, ignoring a line already stored for the same event
func (r *GormAuditLogRepository) Create(ctx context.Context, log *audit.Log) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "event_id"}}, DoNothing: true}).
		Create(log).Error
}

// FindByAggregate lists the trail of one aggregate, oldest first
func (r *GormAuditLogRepository) FindByAggregate(ctx context.Context, aggregateType string, aggregateID uuid.UUID) ([]audit.Log, error) {
	var logs []audit.Log
	err := r.db.WithContext(ctx).
		Where("aggregate_type = ? AND aggregate_id = ?", aggregateType, aggregateID).
		Order("occurred_at ASC").
		Find(&logs).Error
	return logs, err
}

var _ audit.Repository = (*GormAuditLogRepository)(nil)
