package store

import (
	goredis "github.com/redis/go-redis/v9"

	"github.com/hexpanel/usdt-reconciler/internal/store/checkpoint"
	"github.com/hexpanel/usdt-reconciler/internal/store/intent"
	"github.com/hexpanel/usdt-reconciler/internal/store/order"
	"github.com/hexpanel/usdt-reconciler/internal/store/walletcache"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

type Store struct {
	Order       order.IStore
	Intent      intent.IStore
	WalletCache walletcache.IStore
	Checkpoint  *checkpoint.Checkpoint
}

func New(rdb *goredis.Client, appConfig *config.AppConfig, logger *logger.Logger) *Store {
	return &Store{
		Order:       order.New(),
		Intent:      intent.New(rdb, appConfig.Payment.IntentTTL, logger),
		WalletCache: walletcache.New(rdb),
		Checkpoint:  checkpoint.New(rdb),
	}
}
