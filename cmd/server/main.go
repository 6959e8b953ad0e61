package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/olyamironova/auction-engine/internal/adapter/cache"
	"github.com/olyamironova/auction-engine/internal/adapter/in_memory"
	"github.com/olyamironova/auction-engine/internal/adapter/mongo"
	"github.com/olyamironova/auction-engine/internal/adapter/pg"
	grpcapi "github.com/olyamironova/auction-engine/internal/api/grpc"
	httpapi "github.com/olyamironova/auction-engine/internal/api/http"
	"github.com/olyamironova/auction-engine/internal/config"
	"github.com/olyamironova/auction-engine/internal/core"
	"github.com/olyamironova/auction-engine/internal/notify"
	"github.com/olyamironova/auction-engine/internal/port"
	"github.com/olyamironova/auction-engine/internal/seed"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults only when empty)")
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Parse()

	if err := config.LoadEnv(*envFile); err != nil {
		slog.Error("failed to load env file", "error", err)
		os.Exit(1)
	}
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(cfg.Level))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

type stores struct {
	items   port.ItemRepository
	bidders port.BidderRepository
	close   func()
}

func openStores(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*stores, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		logger.Info("connecting to postgres", "host", cfg.Postgres.Host, "database", cfg.Postgres.Name)
		st, err := pg.NewStore(ctx, cfg.Postgres.ConnString(), int32(cfg.Postgres.MaxConns))
		if err != nil {
			return nil, err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			st.Close()
			return nil, err
		}
		return &stores{items: st, bidders: st, close: st.Close}, nil
	case config.DriverMongo:
		logger.Info("connecting to mongo", "database", cfg.Mongo.Database)
		st, err := mongo.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		if err := st.EnsureIndexes(ctx); err != nil {
			_ = st.Close(context.Background())
			return nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := st.Close(ctx); err != nil {
				logger.Warn("mongo disconnect", "error", err)
			}
		}
		return &stores{items: st, bidders: st, close: closeFn}, nil
	default:
		logger.Info("using in-memory storage")
		return &stores{items: in_memory.NewItemRepo(), bidders: in_memory.NewBidderRepo(), close: func() {}}, nil
	}
}

func openCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (port.StateCache, func(), error) {
	if cfg.Driver != config.DriverRedis {
		return in_memory.NewCache(), func() {}, nil
	}
	rc := cache.NewRedisCache(cfg.Addr, cfg.Password, cfg.DB, cfg.TTL)
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, nil, fmt.Errorf("redis: ping %s: %w", cfg.Addr, err)
	}
	logger.Info("redis state cache enabled", "addr", cfg.Addr)
	return rc, func() { _ = rc.Close() }, nil
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := openStores(connectCtx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer st.close()

	stateCache, closeCache, err := openCache(connectCtx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	hub := notify.NewHub(cfg.Auction.SubscriberBuffer, logger)
	defer hub.Close()

	eng := core.NewEngine(core.Config{
		CountdownSeconds: cfg.Auction.CountdownSeconds,
		Increment:        cfg.Auction.Increment,
		MinOpeningBid:    cfg.Auction.MinOpeningBid,
		TickInterval:     cfg.Auction.TickInterval,
		OpTimeout:        cfg.Auction.OpTimeout,
		QueueSize:        cfg.Auction.QueueSize,
		DefaultBudget:    cfg.Auction.DefaultBudget,
	}, st.items, st.bidders, stateCache, hub, logger)
	dir := core.NewDirectory(eng)

	httpSrv, err := httpapi.NewHTTPServer(eng, dir, hub, httpapi.Options{
		DedupSize:    cfg.Auction.DedupSize,
		BidRateLimit: cfg.Server.RateLimit,
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	grpcSrv := grpcapi.NewGRPCServer(eng, hub, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(gctx) })
	if cfg.Seed.Enabled {
		g.Go(func() error { return seed.Load(gctx, dir, logger) })
	}
	g.Go(func() error { return httpSrv.Run(gctx, cfg.Server.HTTPAddr, cfg.Server.ShutdownTimeout) })
	if cfg.Server.GRPCAddr != "" {
		g.Go(func() error { return grpcSrv.Run(gctx, cfg.Server.GRPCAddr) })
	}

	logger.Info("auction server started",
		"http_addr", cfg.Server.HTTPAddr,
		"grpc_addr", cfg.Server.GRPCAddr,
		"storage", cfg.Storage.Driver,
		"cache", cfg.Cache.Driver,
	)

	err = g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("auction server stopped")
	return nil
}
