package runlock

import (
	"go.uber.org/zap"

	"github.com/modaretail/backend/internal/domain/integration"
	"github.com/modaretail/backend/internal/infrastructure/config"
)

// NewFromConfig builds the run lock implementation the configuration asks
// for. Redis is used when enabled and reachable; otherwise the in-memory
// lock serves single-instance deployments.
func NewFromConfig(cfg *config.RedisConfig, logger *zap.Logger) integration.RunLock {
	if cfg != nil && cfg.Enabled {
		lock, err := NewRedisRunLock(RedisConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			Password: cfg.Password,
			DB:       cfg.DB,
		})
		if err == nil {
			logger.Info("Using Redis run lock", zap.String("addr", cfg.Addr()))
			return lock
		}
		logger.Warn("Redis unavailable, falling back to in-memory run lock", zap.Error(err))
	}
	return NewInMemoryRunLock()
}
