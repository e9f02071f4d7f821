package cache

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/opsdesk/backend/internal/domain/shared"
	"github.com/opsdesk/backend/internal/infrastructure/config"
)

// IdempotencyStoreFactory creates idempotency stores based on configuration
type IdempotencyStoreFactory struct {
	idempotencyConfig     config.IdempotencyConfig
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// IdempotencyStoreFactoryOption is a functional option for configuring the factory
type IdempotencyStoreFactoryOption func(*IdempotencyStoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory storage when
// Redis is configured but unavailable. Default is true.
func WithInMemoryFallback(allow bool) IdempotencyStoreFactoryOption {
	return func(f *IdempotencyStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewIdempotencyStoreFactory creates a new factory
func NewIdempotencyStoreFactory(idemCfg config.IdempotencyConfig, redisCfg config.RedisConfig, opts ...IdempotencyStoreFactoryOption) *IdempotencyStoreFactory {
	f := &IdempotencyStoreFactory{
		idempotencyConfig:     idemCfg,
		redisConfig:           redisCfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateStore creates an idempotency store for the configured backend.
// Backend "redis" connects to Redis, falling back to in-memory storage if the
// connection fails and fallback is allowed; backend "memory" always uses the
// in-memory store.
func (f *IdempotencyStoreFactory) CreateStore() (shared.IdempotencyStore, error) {
	switch f.idempotencyConfig.Backend {
	case "redis":
		store, err := NewRedisIdempotencyStore(f.redisConfig)
		if err == nil {
			f.logger.Info("using Redis idempotency store",
				zap.String("host", f.redisConfig.Host),
				zap.Int("port", f.redisConfig.Port),
			)
			return store, nil
		}

		if !f.allowInMemoryFallback {
			return nil, fmt.Errorf("redis idempotency backend unavailable: %w", err)
		}

		f.logger.Warn("Redis unavailable, falling back to in-memory idempotency store. "+
			"Replayed requests may not be detected across instances.",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore(), nil

	case "memory":
		f.logger.Info("using in-memory idempotency store")
		return NewInMemoryIdempotencyStore(), nil

	default:
		return nil, fmt.Errorf("unknown idempotency backend %q", f.idempotencyConfig.Backend)
	}
}
