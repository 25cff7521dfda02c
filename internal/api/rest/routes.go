package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thuanng/bookingpay/internal/api/rest/handlers"
	"github.com/thuanng/bookingpay/internal/app"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// SetupRoutes настраивает все маршруты API для Gin роутера
func SetupRoutes(router *gin.Engine, application *app.App, registry *prometheus.Registry, log *logger.Logger) {
	// Метрики Prometheus
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api/v1")
	{
		// Здоровье сервиса
		api.GET("/health", handlers.HealthCheck)

		payments := api.Group("/payments")
		{
			// Создать платежную попытку
			payments.POST("", application.PaymentHandler.CreatePayment)

			// Коллбэки шлюза: браузерный возврат и серверное уведомление.
			// Аутентификация каналов — подпись шлюза, не токены.
			payments.GET("/vnpay/return", application.CallbackHandler.HandleReturn)
			payments.GET("/vnpay/ipn", application.CallbackHandler.HandleIPN)

			// Статус платежа
			payments.GET("/:reference", application.PaymentHandler.GetPayment)
		}
	}

	log.Info("API routes successfully configured")
}
