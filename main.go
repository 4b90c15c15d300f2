package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Victorbatista2/Projeto-Delivery-sub000/config"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/handlers"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/metrics"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/middleware"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/notify"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/orders"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/routes"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/store"
	"github.com/Victorbatista2/Projeto-Delivery-sub000/sweeper"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("log_level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
	}

	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := config.OpenDB(ctx, cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	if err := config.Migrate(db); err != nil {
		logger.WithError(err).Fatal("Failed to migrate database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.WithError(err).Fatal("Failed to access connection pool")
	}
	defer sqlDB.Close()
	logger.WithField("driver", cfg.Database.Driver).Info("Database connection established")

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Status changes go to dashboards and, when configured, to Kafka
	hub := notify.NewHub(logger)
	defer hub.Close()
	notifier := notify.Multi{hub}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher := notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.StatusTopic, logger)
		defer func() {
			if err := publisher.Close(); err != nil {
				logger.WithError(err).Error("Failed to close Kafka writer")
			}
		}()
		notifier = append(notifier, publisher)
		logger.WithField("topic", cfg.Kafka.StatusTopic).Info("Publishing status changes to Kafka")
	}

	orderStore := store.NewOrderStore(db)
	engine := orders.NewEngine(orderStore, logger,
		orders.WithAcceptWindow(cfg.OrderAcceptWindow),
		orders.WithNotifier(notifier),
		orders.WithMetrics(m),
	)
	query := orders.NewQueryService(orderStore, orders.QueryConfig{
		PendingWindow:  cfg.OrderAcceptWindow,
		FinalizedLimit: cfg.FinalizedLimit,
	})

	sw := sweeper.New(orderStore, notifier, m, logger, sweeper.Config{
		Interval: cfg.SweepInterval,
		MaxAge:   cfg.OrderAcceptWindow,
	})
	sw.Start(ctx)
	defer sw.Stop()

	if !cfg.AuthEnabled() {
		logger.Warn("JWT_SECRET is not set, API runs without authentication")
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logger), middleware.Metrics(m))

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, Idempotency-Key, X-Request-ID")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	routes.SetupRoutes(r, routes.Deps{
		Handler:   handlers.New(engine, query, store.NewCatalogStore(db), hub, logger),
		Metrics:   m,
		JWTSecret: cfg.JWTSecret,
		Ping: func() error {
			pctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return sqlDB.PingContext(pctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	// hijacked websocket connections are not tracked by Shutdown
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
	logger.Info("Server gracefully stopped")
}
