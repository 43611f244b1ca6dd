package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hexpanel/usdt-reconciler/internal/handler"
	"github.com/hexpanel/usdt-reconciler/internal/utils/config"
	"github.com/hexpanel/usdt-reconciler/internal/utils/logger"
)

func loadV1Routes(r *gin.Engine, h *handler.Handler, appConfig *config.AppConfig, logger *logger.Logger) {
	v1 := r.Group("/api/v1")

	payments := v1.Group("/payments")
	{
		payments.POST("", h.PaymentHandler.CreatePayment)
		payments.POST("/wallet-address", h.PaymentHandler.GetWalletAddress)
		payments.GET("/:trade_no/status", h.PaymentHandler.GetPaymentStatus)
		payments.POST("/notify", h.PaymentHandler.Notify)

		guarded := payments.Group("", apiKeyMiddleware(appConfig, logger))
		{
			guarded.POST("/check", h.PaymentHandler.TriggerCheck)
			guarded.POST("/:trade_no/confirm", h.PaymentHandler.ConfirmPayment)
		}
	}

	healthGroup := v1.Group("/health")
	{
		healthGroup.GET("/db", h.HealthHandler.Database)
		healthGroup.GET("/redis", h.HealthHandler.Redis)
	}

	// health check
	r.GET("/healthz", h.HealthHandler.Basic)

	// prometheus scrape endpoint
	r.GET("/metrics", h.MetricsHandler.Handler())
}
