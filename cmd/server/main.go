package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/azad-pos/api/internal/config"
	"github.com/azad-pos/api/internal/database"
	"github.com/azad-pos/api/internal/handler"
	"github.com/azad-pos/api/internal/loyalty"
	"github.com/azad-pos/api/internal/queue"
	"github.com/azad-pos/api/internal/router"
	"github.com/azad-pos/api/internal/service"
	"github.com/azad-pos/api/internal/split"
	"github.com/azad-pos/api/internal/ws"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// splitSweepInterval is how often abandoned bill splits are dropped.
const splitSweepInterval = 10 * time.Minute

func main() {
	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()
	zap.ReplaceGlobals(logger.Desugar())

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalw("invalid configuration", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalw("unable to create connection pool", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatalw("unable to ping database", "error", err)
	}
	logger.Info("connected to database")

	queries := database.New(pool)

	ledger, err := loyalty.NewLedger(cfg.LoyaltyRate)
	if err != nil {
		logger.Fatalw("invalid loyalty rate", "error", err)
	}

	newOrderStore := func(db database.DBTX) service.OrderStore {
		return database.New(db)
	}
	orderService := service.NewOrderService(pool, newOrderStore, queries, ledger, logger)

	hub := ws.NewHub(logger)
	go hub.Run(ctx)

	notifiers := service.Notifiers{hub}
	var tickets handler.TicketRequester
	if cfg.RabbitMQURL != "" {
		broker, err := queue.NewRabbitMQBroker(queue.DefaultConfig(cfg.RabbitMQURL), logger)
		if err != nil {
			logger.Fatalw("failed to connect to RabbitMQ", "error", err)
		}
		defer broker.Close()
		logger.Info("connected to RabbitMQ")

		publisher := queue.NewPublisher(broker)
		notifiers = append(notifiers, publisher)
		tickets = publisher
	} else {
		logger.Warn("RABBITMQ_URL not set, kitchen auto-print disabled")
	}
	orderService.SetNotifier(notifiers)

	splits := split.NewRegistry()
	go sweepSplits(ctx, splits, cfg.SplitSessionTTL, logger)

	r := router.New(cfg, router.Deps{
		Queries: queries,
		Orders:  orderService,
		Hub:     hub,
		Splits:  splits,
		Tickets: tickets,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Errorw("graceful shutdown failed", "error", err)
		}
	}()

	logger.Infow("starting server", "port", cfg.Port, "env", cfg.Env)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorw("server stopped", "error", err)
		os.Exit(1)
	}
}

func sweepSplits(ctx context.Context, splits *split.Registry, ttl time.Duration, logger *zap.SugaredLogger) {
	ticker := time.NewTicker(splitSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := splits.Sweep(now, ttl); n > 0 {
				logger.Infow("dropped abandoned split sessions", "count", n)
			}
		}
	}
}
