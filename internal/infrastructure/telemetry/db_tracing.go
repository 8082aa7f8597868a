package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound variables in statements; development only
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns the database tracing defaults
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "postgresql",
	}
}

type contextKey string

const queryStartTimeKey contextKey = "otel_query_start_time"

// RegisterDBTracing installs the otelgorm plugin plus slow query marking on db.
// Locking reads ("SELECT ... FOR UPDATE") show up as ordinary query spans and
// the wait for the lock counts toward the slow query threshold.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = DefaultDBTracingConfig().SlowQueryThresh
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	s := &slowQueryMarker{threshold: cfg.SlowQueryThresh}
	if err := s.register(db); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

type slowQueryMarker struct {
	threshold time.Duration
}

func (s *slowQueryMarker) before(db *gorm.DB) {
	if db.Statement.Context != nil {
		db.Statement.Context = context.WithValue(db.Statement.Context, queryStartTimeKey, time.Now())
	}
}

func (s *slowQueryMarker) after(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.SetStatus(codes.Error, db.Error.Error())
		span.RecordError(db.Error)
	}

	start, ok := ctx.Value(queryStartTimeKey).(time.Time)
	if !ok {
		return
	}
	if elapsed := time.Since(start); elapsed > s.threshold {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", s.threshold.Milliseconds()),
		))
	}
}

func (s *slowQueryMarker) register(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("otel_timing:before_create", s.before); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("otel_timing:before_query", s.before); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("otel_timing:before_update", s.before); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("otel_timing:before_delete", s.before); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("otel_timing:before_row", s.before); err != nil {
		return err
	}
	if err := cb.Raw().Before("gorm:raw").Register("otel_timing:before_raw", s.before); err != nil {
		return err
	}

	if err := cb.Create().After("gorm:create").Register("otel_timing:after_create", s.after); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("otel_timing:after_query", s.after); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("otel_timing:after_update", s.after); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("otel_timing:after_delete", s.after); err != nil {
		return err
	}
	if err := cb.Row().After("gorm:row").Register("otel_timing:after_row", s.after); err != nil {
		return err
	}
	return cb.Raw().After("gorm:raw").Register("otel_timing:after_raw", s.after)
}
