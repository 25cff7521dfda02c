package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/thuanng/bookingpay/internal/api/rest"
	"github.com/thuanng/bookingpay/internal/app"
	"github.com/thuanng/bookingpay/internal/config"
	"github.com/thuanng/bookingpay/internal/gateway/vnpay"
	"github.com/thuanng/bookingpay/internal/kafka"
	"github.com/thuanng/bookingpay/internal/kafka/producer"
	"github.com/thuanng/bookingpay/internal/metrics"
	"github.com/thuanng/bookingpay/internal/repository"
	"github.com/thuanng/bookingpay/internal/repository/postgres"
	"github.com/thuanng/bookingpay/internal/service"
	"github.com/thuanng/bookingpay/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	log := logger.New(logger.DEBUG)

	log.Info("Payment service starting up...")

	// Загружаем конфигурацию
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		log.Fatal("Failed to load configuration: %v", err)
	}

	if cfg.VNPay.HashSecret == "" {
		log.Fatal("VNPay hash secret is not set")
	}
	if cfg.VNPay.TmnCode == "" {
		log.Warn("VNPay merchant code is not set")
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Подключаемся к базе данных
	pool, err := postgres.NewConnection(ctx, cfg.Database.DSN, log)
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool, log)

	// Инициализируем Redis-кэш для пути отображения статусов
	var reader repository.PaymentReader = store
	redisCache, err := repository.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, log)
	if err != nil {
		// Не фатально: читаем напрямую из базы
		log.Warn("Failed to initialize Redis cache, continuing without caching: %v", err)
	} else {
		reader = repository.NewCachedPaymentReader(store, redisCache, log)
		defer func() {
			if err := redisCache.Close(); err != nil {
				log.Error("Error closing Redis connection: %v", err)
			}
		}()
	}

	// Инициализируем Kafka Producer
	var paymentProducer producer.PaymentProducer = producer.NoOpProducer{}
	syncProducer, err := kafka.NewSyncProducer(cfg.Kafka.Brokers, kafka.DefaultProducerConfig(), log)
	if err != nil {
		// События не критичны для платежного флоу
		log.Error("Failed to initialize Kafka producer, continuing without event publishing: %v", err)
	} else {
		paymentProducer = producer.NewKafkaPaymentProducer(syncProducer, log)
		defer func() {
			if err := paymentProducer.Close(); err != nil {
				log.Error("Error closing Kafka producer: %v", err)
			}
		}()
	}

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	paymentMetrics := metrics.NewPaymentMetrics(registry, log)

	// Платежный шлюз: движок подписи, билдер запросов, верификатор коллбэков
	signer := vnpay.NewSignatureEngine(cfg.VNPay.HashSecret)
	builder := vnpay.NewRequestBuilder(cfg.VNPay, signer, store, log)
	verifier := vnpay.NewCallbackVerifier(signer, log)

	// Service layer
	paymentService := service.NewPaymentService(builder, store, reader, paymentProducer, paymentMetrics, log)
	reconciler := service.NewReconciler(store, paymentProducer, paymentMetrics, log)

	application := app.NewApp(cfg, paymentService, reconciler, verifier, paymentMetrics, log)

	// HTTP сервер
	router := gin.New()
	router.Use(application.LoggerMiddleware)
	router.Use(gin.Recovery())
	rest.SetupRoutes(router, application, registry, log)

	httpServer := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server on port %s", cfg.App.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start HTTP server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down payment service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	log.Info("Payment service stopped")
}
