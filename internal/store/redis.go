package store

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

// NewRedis connects the redis client backing intents, the wallet-address
// cache, and the reconciliation checkpoint.
func NewRedis(appConfig *config.AppConfig, logger *logger.Logger) *goredis.Client {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     appConfig.Redis.Addr,
		Password: appConfig.Redis.Pass,
		DB:       appConfig.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("failed to connect to redis", map[string]string{
			"addr":  appConfig.Redis.Addr,
			"error": err.Error(),
		})
	}

	logger.Info("redis connected")
	return rdb
}
