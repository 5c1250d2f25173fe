// Command cardkeeper-server starts the card HTTP API and the gRPC ops endpoint.
package main

import (
	"context"
	"errors"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/and161185/cardkeeper/internal/config"
	"github.com/and161185/cardkeeper/internal/limiter"
	"github.com/and161185/cardkeeper/internal/logger"
	"github.com/and161185/cardkeeper/internal/migrate"
	"github.com/and161185/cardkeeper/internal/repository/postgres"
	grpcserver "github.com/and161185/cardkeeper/internal/server/grpc"
	httpserver "github.com/and161185/cardkeeper/internal/server/http"
	"github.com/and161185/cardkeeper/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves until SIGINT/SIGTERM.
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		panic(err)
	}
	log, err := logger.New(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("http", cfg.HTTPAddr()),
		zap.String("ops", cfg.Ops.Addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Ops server first so health checks see NOT_SERVING while starting up.
	ops := grpcserver.NewOps(log)
	opsLis, err := net.Listen("tcp", cfg.Ops.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := ops.Serve(opsLis); err != nil {
			log.Error("ops server", zap.Error(err))
		}
	}()
	defer ops.Stop(cfg.HTTP.ShutdownTimeout)

	ver, err := migrate.Up(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	log.Info("schema ready", zap.Int64("version", ver))

	pool, err := postgres.Connect(ctx, cfg.Postgres.DSN, postgres.PoolOptions{
		MaxConns:       cfg.Postgres.MaxConns,
		MinConns:       cfg.Postgres.MinConns,
		ConnectTimeout: cfg.Postgres.ConnectTimeout,
	})
	if err != nil {
		return err
	}
	db := &postgres.DB{Pool: pool}
	defer db.Close()

	lim := limiter.NewPG(pool, limiter.Policy{
		Window:   cfg.Limiter.Window,
		MaxFails: cfg.Limiter.MaxFails,
		BlockFor: cfg.Limiter.BlockFor,
	})
	authSvc, err := service.NewAuthService(postgres.NewUserRepo(db), []byte(cfg.Auth.JWTKey),
		cfg.Auth.AccessTTL, lim, cfg.Auth.UserCacheSize)
	if err != nil {
		return err
	}
	cardSvc := service.NewCardService(postgres.NewCardRepo(db), log,
		cfg.Cards.DefaultPageSize, cfg.Cards.MaxPageSize)

	h := httpserver.NewHandler(cardSvc, authSvc, log, cfg.HTTP.RequestTimeout)
	app := httpserver.New(h, log, cfg.HTTP.RequestTimeout)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr()))
		errCh <- app.Listen(cfg.HTTPAddr())
	}()

	ops.SetServing(true)
	go ops.Watch(ctx, pool, cfg.Ops.PingInterval)

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	stop()
	ops.SetServing(false)

	if err := app.ShutdownWithTimeout(cfg.HTTP.ShutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		log.Warn("http shutdown", zap.Error(err), zap.Duration("timeout", cfg.HTTP.ShutdownTimeout))
	}
	return nil
}
