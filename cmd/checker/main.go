package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hexpanel/usdt-reconciler/internal/engine"
	"github.com/hexpanel/usdt-reconciler/internal/feed"
	"github.com/hexpanel/usdt-reconciler/internal/monitoring"
	"github.com/hexpanel/usdt-reconciler/internal/reconciler"
	"github.com/hexpanel/usdt-reconciler/internal/settlement"
	"github.com/hexpanel/usdt-reconciler/internal/store"
	pgstore "github.com/hexpanel/usdt-reconciler/internal/store/postgres"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

// checker runs a single reconciliation cycle and prints the result, for
// cron-driven deployments that do not keep the API server running.
func main() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	if err := appConfig.Validate(); err != nil {
		logger.Error("invalid configuration", map[string]string{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	db := pgstore.New(appConfig, logger)
	rdb := store.NewRedis(appConfig, logger)
	s := store.New(rdb, appConfig, logger)

	metrics := monitoring.NewMetrics(prometheus.NewRegistry())
	txFeed := monitoring.NewCircuitBreakerFeed(feed.New(appConfig, logger), logger)
	settler := settlement.New(db, s, logger)
	rec := reconciler.New(db, s, txFeed, engine.New(appConfig.Payment.Tolerance), settler, appConfig, logger, metrics)

	result, err := rec.RunCycle(context.Background())
	if err != nil {
		logger.Error("[main][RunCycle] cycle failed", map[string]string{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	out, _ := json.Marshal(result)
	fmt.Println(string(out))
}
