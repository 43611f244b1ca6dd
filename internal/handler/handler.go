package handler

import (
	goredis "github.com/redis/go-redis/v9"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/hexpanel/usdt-reconciler/internal/handler/health"
	"github.com/hexpanel/usdt-reconciler/internal/handler/metrics"
	"github.com/hexpanel/usdt-reconciler/internal/handler/payment"
	"github.com/hexpanel/usdt-reconciler/internal/intake"
	"github.com/hexpanel/usdt-reconciler/internal/reconciler"
	"github.com/hexpanel/usdt-reconciler/internal/settlement"
	"github.com/hexpanel/usdt-reconciler/internal/store"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
	"github.com/hexpanel/usdt-reconciler/internal/walletissuer"
)

type Handler struct {
	PaymentHandler payment.IHandler
	HealthHandler  health.IHealthHandler
	MetricsHandler *metrics.MetricsHandler
}

func New(appConfig *config.AppConfig, logger *logger.Logger,
	db *gorm.DB,
	rdb *goredis.Client,
	s *store.Store,
	issuer walletissuer.IService,
	rec reconciler.IReconciler,
	ingest intake.IIntake,
	settler settlement.IService,
	metricsRegistry *prometheus.Registry) *Handler {
	return &Handler{
		PaymentHandler: payment.New(appConfig, logger, db, s, issuer, rec, ingest, settler),
		HealthHandler:  health.New(appConfig, logger, db, rdb),
		MetricsHandler: metrics.NewMetricsHandler(metricsRegistry),
	}
}
