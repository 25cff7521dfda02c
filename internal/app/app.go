package app

import (
	"github.com/gin-gonic/gin"
	"github.com/thuanng/bookingpay/internal/api/rest/handlers"
	"github.com/thuanng/bookingpay/internal/api/rest/middleware"
	"github.com/thuanng/bookingpay/internal/config"
	"github.com/thuanng/bookingpay/internal/gateway/vnpay"
	"github.com/thuanng/bookingpay/internal/metrics"
	"github.com/thuanng/bookingpay/internal/service"
	"github.com/thuanng/bookingpay/pkg/logger"
)

// App представляет собой контейнер для всех компонентов приложения
type App struct {
	Config           *config.Config
	PaymentService   *service.PaymentService
	Reconciler       *service.Reconciler
	PaymentHandler   *handlers.PaymentHandler
	CallbackHandler  *handlers.CallbackHandler
	LoggerMiddleware gin.HandlerFunc
	Logger           *logger.Logger
}

// NewApp создает и инициализирует новый экземпляр приложения
func NewApp(cfg *config.Config, payments *service.PaymentService, reconciler *service.Reconciler, verifier *vnpay.CallbackVerifier, m metrics.PaymentMetrics, log *logger.Logger) *App {
	paymentHandler := handlers.NewPaymentHandler(payments, log)
	callbackHandler := handlers.NewCallbackHandler(verifier, reconciler, m, log)
	loggerMiddleware := middleware.RequestLogger(log)

	return &App{
		Config:           cfg,
		PaymentService:   payments,
		Reconciler:       reconciler,
		PaymentHandler:   paymentHandler,
		CallbackHandler:  callbackHandler,
		LoggerMiddleware: loggerMiddleware,
		Logger:           log,
	}
}
