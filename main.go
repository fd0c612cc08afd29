package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ride-booking/config"
	"ride-booking/handlers"
	"ride-booking/internal/services/notify"
	"ride-booking/internal/services/payment"
	"ride-booking/monitoring"
	"ride-booking/services"
	"ride-booking/utils"
)

func main() {
	cfg := config.Load()

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	monitor := monitoring.NewMonitor()

	var redisClient *redis.Client
	var inventory services.SeatInventory
	var sessionStore services.SessionStore

	if cfg.RedisAddr != "" {
		redisClient = utils.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		inventory = services.NewRedisInventory(redisClient, logger, monitor)
		sessionStore = services.NewRedisSessionStore(redisClient)
		logger.Info("using redis inventory", zap.String("addr", cfg.RedisAddr))
	} else {
		memInv := services.NewMemoryInventory(logger, monitor)
		memInv.StartSweeper(ctx, cfg.HoldSweepInterval)
		inventory = memInv
		sessionStore = services.NewMemorySessionStore()
		logger.Info("using in-process inventory")
	}

	var repo services.BookingRepo
	if cfg.SQLitePath != "" {
		sqlRepo, err := services.NewSQLBookingRepo(cfg.SQLitePath)
		if err != nil {
			logger.Fatal("open booking store", zap.Error(err))
		}
		defer sqlRepo.Close()
		repo = sqlRepo
	} else {
		repo = services.NewMemoryBookingRepo()
	}

	var notifier notify.Notifier = notify.Noop{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		notifier = notify.NewPubNub(cfg.PubNubPublishKey, cfg.PubNubSubscribeKey, logger)
	}

	gateway, err := payment.New(payment.Provider(cfg.PaymentProvider), payment.Options{StripeKey: cfg.StripeKey}, logger)
	if err != nil {
		logger.Fatal("payment gateway", zap.Error(err))
	}
	defer gateway.Close(ctx)

	catalog := services.NewFixtureCatalog()
	bookings := services.NewBookingService(repo, inventory, notifier, logger, monitor)
	workflow := services.NewWorkflow(
		sessionStore,
		inventory,
		catalog,
		services.NewFareCalculator(),
		services.NewDiscountValidator(services.DefaultDiscountRules()),
		bookings,
		gateway,
		notifier,
		logger,
		monitor,
		services.WorkflowConfig{
			MaxSeatsPerBooking: cfg.MaxSeatsPerBooking,
			HoldTTL:            cfg.HoldTTL,
			SessionTTL:         cfg.SessionTTL,
			PaymentTimeout:     cfg.PaymentTimeout,
			Currency:           cfg.Currency,
		},
	)

	e := echo.New()
	handlers.NewSessionHandler(workflow).Register(e)
	handlers.NewBookingHandler(bookings).Register(e)

	e.GET("/metrics", func(c echo.Context) error {
		promhttp.Handler().ServeHTTP(c.Response(), c.Request())
		return nil
	})
	e.GET("/healthz", func(c echo.Context) error {
		if redisClient != nil {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
			}
		}
		return c.JSON(http.StatusOK, map[string]any{"status": "ok"})
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: e,
	}

	go func() {
		logger.Info("booking engine listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server run", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	logger, err := zcfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
