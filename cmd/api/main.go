package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/validation-api/internal/config"
	"github.com/jwalitptl/validation-api/internal/handler"
	validationHandler "github.com/jwalitptl/validation-api/internal/handler/validation"
	"github.com/jwalitptl/validation-api/internal/repository/postgres"
	"github.com/jwalitptl/validation-api/internal/router"
	validationService "github.com/jwalitptl/validation-api/internal/service/validation"
	"github.com/jwalitptl/validation-api/pkg/logger"
	"github.com/jwalitptl/validation-api/pkg/messaging"
	redisBroker "github.com/jwalitptl/validation-api/pkg/messaging/redis"
	"github.com/jwalitptl/validation-api/pkg/metrics"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.NewLogger(nil)
	appMetrics := metrics.NewMetrics("validation_api", "engine")

	// Initialize database
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Initialize repository and rule cache
	ruleRepo := postgres.NewRuleRepository(postgres.NewBaseRepository(db))
	ruleCache := validationService.NewRuleCache(ruleRepo, cfg.Cache.TTL(), cfg.Cache.FetchTimeout(), appLogger, appMetrics)

	// Redis is optional: without it invalidations stay instance-local and
	// cross-instance consistency relies on cache TTL alone.
	var broker messaging.Broker
	if cfg.Redis.Enabled {
		broker, err = redisBroker.NewRedisBroker(redisBroker.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	// Initialize validation engine
	validationSvc := validationService.NewService(ruleCache, broker, appLogger, appMetrics)

	listenCtx, cancelListen := context.WithCancel(context.Background())
	defer cancelListen()
	if err := validationSvc.ListenForInvalidations(listenCtx); err != nil {
		log.Fatal().Err(err).Msg("failed to subscribe to invalidation events")
	}

	// Initialize handlers
	h := handler.NewHandler(db)
	validationH := validationHandler.NewHandler(validationSvc)

	// Setup router
	r := router.NewRouter(h, validationH, router.Config{
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
		Timeout:        time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	})
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	// Start server
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
