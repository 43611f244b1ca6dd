package server

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/robfig/cron/v3"

	"github.com/hexpanel/usdt-reconciler/internal/engine"
	"github.com/hexpanel/usdt-reconciler/internal/feed"
	"github.com/hexpanel/usdt-reconciler/internal/handler"
	"github.com/hexpanel/usdt-reconciler/internal/intake"
	"github.com/hexpanel/usdt-reconciler/internal/model"
	"github.com/hexpanel/usdt-reconciler/internal/monitoring"
	"github.com/hexpanel/usdt-reconciler/internal/reconciler"
	"github.com/hexpanel/usdt-reconciler/internal/settlement"
	"github.com/hexpanel/usdt-reconciler/internal/store"
	pgstore "github.com/hexpanel/usdt-reconciler/internal/store/postgres"
	"github.com/hexpanel/usdt-reconciler/internal/transport/http"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
	"github.com/hexpanel/usdt-reconciler/internal/utils/webhook"
	"github.com/hexpanel/usdt-reconciler/internal/walletissuer"
)

func Init() {
	appConfig := config.New()
	logger := logger.New(appConfig.Environment)

	if err := appConfig.Validate(); err != nil {
		logger.Fatal("invalid configuration", map[string]string{
			"error": err.Error(),
		})
	}

	db := pgstore.New(appConfig, logger)
	if err := db.AutoMigrate(&model.Order{}); err != nil {
		logger.Fatal("failed to migrate orders table", map[string]string{
			"error": err.Error(),
		})
	}

	rdb := store.NewRedis(appConfig, logger)
	s := store.New(rdb, appConfig, logger)

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(metricsRegistry)

	txFeed := monitoring.NewCircuitBreakerFeed(feed.New(appConfig, logger), logger)
	matchEngine := engine.New(appConfig.Payment.Tolerance)
	settler := settlement.New(db, s, logger)
	rec := reconciler.New(db, s, txFeed, matchEngine, settler, appConfig, logger, metrics)
	ingest := intake.New(s.Intent, matchEngine, logger)
	issuer := walletissuer.New(appConfig, logger)

	uptimeWebhook := webhook.New(logger)

	c := cron.New()
	c.AddFunc(fmt.Sprintf("@every %s", appConfig.Payment.CheckInterval), func() {
		ctx := context.Background()
		result, err := rec.RunCycle(ctx)
		if err != nil {
			logger.Error("scheduled reconciliation failed", map[string]string{
				"error": err.Error(),
			})
			return
		}
		uptimeWebhook.CallCycleWebhook(ctx, appConfig.Monitoring.UptimeWebhookURL, result.Status)
	})
	c.Start()
	defer c.Stop()

	h := handler.New(appConfig, logger, db, rdb, s, issuer, rec, ingest, settler, metricsRegistry)
	httpServer := http.NewHttpServer(appConfig, logger, h)

	logger.Info(fmt.Sprintf("listening on :%s", appConfig.ApiServer.Port))
	if err := httpServer.Run(":" + appConfig.ApiServer.Port); err != nil {
		logger.Fatal("http server stopped", map[string]string{
			"error": err.Error(),
		})
	}
}
