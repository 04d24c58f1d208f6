// Package main is the entry point for the RKS Studio lead-capture bot.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/rksstudio/detailbot/internal/catalog"
	"github.com/rksstudio/detailbot/internal/clock"
	"github.com/rksstudio/detailbot/internal/config"
	"github.com/rksstudio/detailbot/internal/database"
	"github.com/rksstudio/detailbot/internal/engine"
	"github.com/rksstudio/detailbot/internal/handler"
	"github.com/rksstudio/detailbot/internal/logging"
	"github.com/rksstudio/detailbot/internal/metrics"
	"github.com/rksstudio/detailbot/internal/notify"
	"github.com/rksstudio/detailbot/internal/ratelimit"
	"github.com/rksstudio/detailbot/internal/repository"
	"github.com/rksstudio/detailbot/internal/service"
	"github.com/rksstudio/detailbot/internal/session"
	"github.com/rksstudio/detailbot/internal/shutdown"
	"github.com/rksstudio/detailbot/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logging.New(&logging.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Environment,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.Zap()
	defer func() { _ = logger.Sync() }()

	logger.Info("starting detailbot",
		zap.String("business", cfg.App.BusinessName),
		zap.String("env", cfg.Server.Environment),
		zap.String("timezone", cfg.App.Timezone),
	)

	// Database and schema
	ctx := context.Background()
	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	// Repositories
	leadRepo := repository.NewLeadRepository(db.Pool)
	operatorRepo := repository.NewOperatorRepository(db.Pool)

	// Observability
	m := metrics.New()
	events := metrics.NewBusinessEventLogger(logger)

	// Telegram transport
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("failed to connect to Telegram", zap.Error(err))
	}
	api.Debug = cfg.Telegram.Debug
	logger.Info("authorized on Telegram", zap.String("bot", api.Self.UserName))

	// Services
	notifier := notify.New(telegram.NewSender(api), logger)
	leadService := service.NewLeadService(leadRepo, operatorRepo, notifier, m, events, logger)
	operatorService, err := service.NewOperatorService(operatorRepo, cfg.Operator.Password, m, events, logger)
	if err != nil {
		logger.Fatal("failed to initialize operator service", zap.Error(err))
	}

	// Conversation engine, in the studio's local timezone so relative
	// appointment times resolve the way the client means them.
	clk := clock.NewInLocation(cfg.App.Location())
	eng := engine.New(catalog.Default(), operatorService, clk, logger)

	sessions := session.NewStore(session.Config{
		IdleTTL:         cfg.Session.IdleTTL,
		CleanupInterval: cfg.Session.CleanupInterval,
	}, clk, logger)

	limiter := ratelimit.New(ratelimit.DefaultConfig(), clk, logger)

	botHandler := telegram.NewHandler(api, eng, sessions, leadService, limiter, m, logger, cfg.Telegram.PollTimeout)

	// Operational HTTP server
	healthHandler := handler.NewHealthHandler(db, operatorService, logger)
	router := handler.NewRouter(healthHandler, m.Handler(), log, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("ops server listening", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("ops server failed", zap.Error(err))
		}
	}()

	shutdownCoord := shutdown.NewCoordinator(shutdown.DefaultTimeout, logger)

	// Session janitor (respects shutdown signal)
	janitorDone := make(chan struct{})
	go func() {
		defer close(janitorDone)
		ticker := time.NewTicker(sessions.CleanupInterval())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				evicted := sessions.EvictIdle()
				if evicted > 0 {
					m.SessionsEvicted.Add(float64(evicted))
				}
				m.SessionsActive.Set(float64(sessions.Active()))
				limiter.Sweep()
			case <-shutdownCoord.ShutdownCh():
				return
			}
		}
	}()

	// Update poller
	pollCtx, stopPolling := context.WithCancel(ctx)
	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		botHandler.Run(pollCtx)
	}()

	shutdownCoord.RegisterFunc(shutdown.PhaseDrain, "telegram-poller", func(ctx context.Context) error {
		stopPolling()
		select {
		case <-pollerDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdownCoord.RegisterFunc(shutdown.PhaseShutdown, "ops-server", func(ctx context.Context) error {
		return server.Shutdown(ctx)
	})
	shutdownCoord.RegisterFunc(shutdown.PhaseShutdown, "session-janitor", func(ctx context.Context) error {
		select {
		case <-janitorDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	shutdownCoord.RegisterFunc(shutdown.PhaseCleanup, "database", func(ctx context.Context) error {
		db.Close()
		return nil
	})

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("received shutdown signal")

	if err := shutdownCoord.Shutdown(ctx); err != nil {
		logger.Error("shutdown completed with errors", zap.Error(err))
	}
}
