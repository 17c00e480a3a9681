// Package bootstrap turns a config into running cache components.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/unkn0wn-root/cachefront"
	"github.com/unkn0wn-root/cachefront/genstore"
	asynchook "github.com/unkn0wn-root/cachefront/hooks/async"
	promhook "github.com/unkn0wn-root/cachefront/hooks/prom"
	sloghook "github.com/unkn0wn-root/cachefront/hooks/slog"
	"github.com/unkn0wn-root/cachefront/internal/config"
	"github.com/unkn0wn-root/cachefront/internal/product"
	zaplog "github.com/unkn0wn-root/cachefront/log/zap"
	"github.com/unkn0wn-root/cachefront/repository"
	"github.com/unkn0wn-root/cachefront/store"
	bcstore "github.com/unkn0wn-root/cachefront/store/bigcache"
	boltstore "github.com/unkn0wn-root/cachefront/store/bolt"
	"github.com/unkn0wn-root/cachefront/store/memory"
	redisstore "github.com/unkn0wn-root/cachefront/store/redis"
	rstore "github.com/unkn0wn-root/cachefront/store/ristretto"
)

// App holds everything the demo server needs. Close releases it in reverse
// order of construction.
type App struct {
	Config   *config.Config
	Redis    redis.UniversalClient // nil when no component uses Redis
	Cache    cachefront.Cache[product.Product]
	Service  *product.Service
	Repo     *repository.Repository[product.Product]
	Registry *prometheus.Registry

	hooks     *asynchook.Hooks
	store     store.Store // owned until the cache takes it over
	stopSweep func()
	rdb       *redis.Client
}

func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{Config: cfg, Registry: prometheus.NewRegistry()}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close(context.Background())
		}
	}()

	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if cfg.UsesRedis() {
		rdb, err := NewRedis(ctx, cfg.Redis)
		if err != nil {
			return nil, err
		}
		app.Redis = rdb
		app.rdb = rdb
	}

	st, stop, err := NewStore(cfg, app.Redis, logger)
	if err != nil {
		return nil, err
	}
	app.store = st
	app.stopSweep = stop

	cd, err := product.Codec(cfg.Cache.Codec)
	if err != nil {
		return nil, err
	}

	ph, err := promhook.New(app.Registry, cfg.Cache.Namespace)
	if err != nil {
		return nil, err
	}
	app.hooks = asynchook.New(cachefront.ChainHooks(
		ph,
		sloghook.New(slog.Default(), sloghook.Options{SelfHealEvery: 10}),
	), 1, 4096)

	opts := cachefront.Options[product.Product]{
		Namespace:   cfg.Cache.Namespace,
		Store:       st,
		Codec:       cd,
		Logger:      zaplog.New(logger),
		Hooks:       app.hooks,
		DefaultTTL:  cfg.Cache.DefaultTTL,
		TTLOf:       product.CacheTTL,
		LoadTimeout: cfg.Cache.LoadTimeout,
		Disabled:    cfg.Cache.Disabled,
		GenStore:    NewGenStore(cfg, app.Redis),
	}
	if cfg.Cache.Backend == "ristretto" {
		opts.ComputeSetCost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}
	c, err := cachefront.New[product.Product](opts)
	if err != nil {
		return nil, err
	}
	app.Cache = c
	app.store = nil
	app.Service = product.NewService(c, logger.Sugar())

	var backend repository.Backend = repository.NewMemoryBackend()
	if cfg.Repository.Backend == "redis" {
		backend = repository.NewRedisBackend(app.Redis)
	}
	if app.Repo, err = product.NewRepository(backend); err != nil {
		return nil, err
	}

	ok = true
	return app, nil
}

// Close stops background sweeps before anything they touch is closed, then
// closes the cache (and its store), drains hooks and closes the Redis client.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.stopSweep != nil {
		a.stopSweep()
		a.stopSweep = nil
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close(ctx))
		a.Cache = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close(ctx))
		a.store = nil
	}
	if a.hooks != nil {
		a.hooks.Close()
		a.hooks = nil
	}
	if a.rdb != nil {
		errs = append(errs, a.rdb.Close())
		a.rdb = nil
	}
	return errors.Join(errs...)
}

// NewRedis connects using CF_REDIS_URL when set, CF_REDIS_ADDR otherwise.
func NewRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		var err error
		if opts, err = redis.ParseURL(cfg.URL); err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
	} else {
		opts = &redis.Options{Addr: cfg.Addr}
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewStore builds the configured byte store. stop, when non-nil, ends
// background work started for the store.
func NewStore(cfg *config.Config, rdb redis.UniversalClient, logger *zap.Logger) (st store.Store, stop func(), err error) {
	switch cfg.Cache.Backend {
	case "memory":
		return memory.New(memory.Config{Capacity: cfg.Cache.Capacity, Janitor: true}), nil, nil
	case "ristretto":
		s, err := rstore.New(rstore.Config{
			NumCounters: cfg.Ristretto.NumCounters,
			MaxCost:     cfg.Ristretto.MaxCost,
			BufferItems: cfg.Ristretto.BufferItems,
			Metrics:     true,
		})
		return s, nil, err
	case "bigcache":
		s, err := bcstore.New(bcstore.Config{
			LifeWindow:         cfg.BigCache.LifeWindow,
			CleanWindow:        cfg.BigCache.CleanWindow,
			Shards:             cfg.BigCache.Shards,
			HardMaxCacheSizeMB: cfg.BigCache.HardMaxMB,
		})
		return s, nil, err
	case "bolt":
		s, err := boltstore.Open(cfg.Bolt.Path, boltstore.Options{})
		if err != nil {
			return nil, nil, err
		}
		return s, startSweeper(s, cfg.Bolt.SweepInterval, logger), nil
	case "redis":
		s, err := redisstore.New(redisstore.Config{Client: rdb})
		return s, nil, err
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// NewGenStore returns nil for "local" so the cache builds its own.
func NewGenStore(cfg *config.Config, rdb redis.UniversalClient) genstore.GenStore {
	if cfg.Cache.GenStore != "redis" {
		return nil
	}
	return genstore.NewRedisGenStore(rdb, genstore.RedisOptions{
		Namespace: cfg.Cache.Namespace,
		TTL:       cfg.Redis.GenTTL,
	})
}

func startSweeper(s *boltstore.Store, interval time.Duration, logger *zap.Logger) func() {
	if interval <= 0 {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				n, err := s.Sweep(ctx)
				if err != nil {
					logger.Warn("bolt sweep failed", zap.Error(err))
					continue
				}
				if n > 0 {
					logger.Debug("bolt sweep", zap.Int("removed", n))
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
