package cache

import (
	"context"
	"fmt"

	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// IdempotencyStoreFactory picks the idempotency backend from configuration
type IdempotencyStoreFactory struct {
	redis     config.RedisConfig
	keyPrefix string
	logger    *zap.Logger
	fallback  bool
}

// FactoryOption configures the factory
type FactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether an unreachable Redis degrades to the
// in-memory store. Enabled by default.
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.fallback = allow
	}
}

// NewIdempotencyStoreFactory creates a factory
func NewIdempotencyStoreFactory(redisCfg config.RedisConfig, eventCfg config.EventConfig, opts ...FactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		redis:     redisCfg,
		keyPrefix: eventCfg.IdempotencyPrefix,
		logger:    zap.NewNop(),
		fallback:  true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateStore returns a Redis store when Redis is enabled and reachable,
// otherwise an in-memory store.
func (f *IdempotencyStoreFactory) CreateStore(ctx context.Context) (shared.IdempotencyStore, error) {
	if !f.redis.Enabled {
		f.logger.Info("Using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(DefaultSweepInterval), nil
	}

	client, err := NewRedisClient(ctx, f.redis)
	if err == nil {
		f.logger.Info("Using Redis idempotency store", zap.String("addr", f.redis.Addr()))
		return NewRedisIdempotencyStore(client, f.keyPrefix), nil
	}
	if !f.fallback {
		return nil, fmt.Errorf("redis required for idempotency but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store",
		zap.String("addr", f.redis.Addr()),
		zap.Error(err),
	)
	return NewInMemoryIdempotencyStore(DefaultSweepInterval), nil
}
