package logger

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	defaultSlowThreshold = 200 * time.Millisecond
	defaultLockThreshold = 50 * time.Millisecond
)

// GormLogger routes GORM's statement log through zap. Locking reads get
// their own threshold: stock mutations serialize on them, so a slow
// SELECT ... FOR UPDATE is contention on a record rather than a slow query.
type GormLogger struct {
	logger        *zap.Logger
	logLevel      gormlogger.LogLevel
	slowThreshold time.Duration
	lockThreshold time.Duration
	logNotFound   bool
}

// GormLoggerOption configures a GormLogger
type GormLoggerOption func(*GormLogger)

// WithSlowThreshold sets the duration after which a statement is logged as slow
func WithSlowThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.slowThreshold = threshold
	}
}

// WithLockWaitThreshold sets the duration after which a locking read is logged
// as contended
func WithLockWaitThreshold(threshold time.Duration) GormLoggerOption {
	return func(l *GormLogger) {
		l.lockThreshold = threshold
	}
}

// WithRecordNotFound logs not-found lookups as errors. They are expected on
// duplicate checks and skipped by default.
func WithRecordNotFound(enabled bool) GormLoggerOption {
	return func(l *GormLogger) {
		l.logNotFound = enabled
	}
}

// NewGormLogger creates a GORM logger backed by zap
func NewGormLogger(zapLogger *zap.Logger, level gormlogger.LogLevel, opts ...GormLoggerOption) *GormLogger {
	gl := &GormLogger{
		logger:        zapLogger.Named("gorm"),
		logLevel:      level,
		slowThreshold: defaultSlowThreshold,
		lockThreshold: defaultLockThreshold,
	}
	for _, opt := range opts {
		opt(gl)
	}
	return gl
}

// LogMode implements gormlogger.Interface
func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.logLevel = level
	return &clone
}

// Info implements gormlogger.Interface
func (l *GormLogger) Info(_ context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Info {
		l.logger.Sugar().Infof(msg, data...)
	}
}

// Warn implements gormlogger.Interface
func (l *GormLogger) Warn(_ context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Warn {
		l.logger.Sugar().Warnf(msg, data...)
	}
}

// Error implements gormlogger.Interface
func (l *GormLogger) Error(_ context.Context, msg string, data ...any) {
	if l.logLevel >= gormlogger.Error {
		l.logger.Sugar().Errorf(msg, data...)
	}
}

// Trace implements gormlogger.Interface
func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.logLevel <= gormlogger.Silent {
		return
	}
	if err != nil && !l.logNotFound && errors.Is(err, gormlogger.ErrRecordNotFound) {
		err = nil
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	op, locking := classifyStatement(sql)

	threshold := l.slowThreshold
	if locking {
		threshold = l.lockThreshold
	}
	slow := threshold > 0 && elapsed > threshold

	var level gormlogger.LogLevel
	switch {
	case err != nil:
		level = gormlogger.Error
	case slow:
		level = gormlogger.Warn
	default:
		level = gormlogger.Info
	}
	if l.logLevel < level {
		return
	}

	fields := []zap.Field{
		zap.String("op", op),
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}
	if locking {
		fields = append(fields, zap.Bool("row_lock", true))
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if actorID := GetActorID(ctx); actorID != "" {
		fields = append(fields, zap.String("actor_id", actorID))
	}
	fields = append(fields, TraceFields(ctx)...)

	switch level {
	case gormlogger.Error:
		l.logger.Error("SQL error", append(fields, zap.Error(err))...)
	case gormlogger.Warn:
		msg := "Slow SQL"
		if locking {
			msg = "Slow row lock"
		}
		l.logger.Warn(msg, append(fields, zap.Duration("threshold", threshold))...)
	default:
		l.logger.Debug("SQL", fields...)
	}
}

// classifyStatement returns the statement's leading verb and whether it takes
// row locks
func classifyStatement(sql string) (op string, locking bool) {
	trimmed := strings.TrimSpace(sql)
	if i := strings.IndexAny(trimmed, " \n\t"); i > 0 {
		op = strings.ToLower(trimmed[:i])
	} else {
		op = strings.ToLower(trimmed)
	}
	upper := strings.ToUpper(trimmed)
	locking = strings.Contains(upper, "FOR UPDATE") || strings.Contains(upper, "FOR SHARE")
	return op, locking
}

// MapGormLogLevel maps the application log level to GORM's. Statements are
// only traced at debug.
func MapGormLogLevel(level string) gormlogger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return gormlogger.Silent
	case "error":
		return gormlogger.Error
	case "debug":
		return gormlogger.Info
	default:
		return gormlogger.Warn
	}
}
