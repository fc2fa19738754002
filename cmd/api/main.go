package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	rdb "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tasknest.dev/internal/auth"
	"tasknest.dev/internal/config"
	"tasknest.dev/internal/httpapi"
	"tasknest.dev/internal/obs"
	"tasknest.dev/internal/revocation"
	"tasknest.dev/internal/store/pg"
	"tasknest.dev/internal/todo"
	"tasknest.dev/internal/user"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := run(); err != nil {
		obs.L().Fatal("exit", zap.Error(err))
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("TASKNEST_CONFIG"))
	if err != nil {
		return err
	}

	obs.InitLogger(cfg.App.Env, cfg.App.LogLevel)
	defer obs.Sync()
	obs.Init()
	obs.InitBuildInfo(version, commit)
	log := obs.L()

	if cfg.Database.DSN == "" {
		return errors.New("TASKNEST_PG_DSN is required")
	}
	store, err := pg.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer store.Close()
	store.DB().SetMaxOpenConns(cfg.Database.MaxOpenConns)
	store.DB().SetMaxIdleConns(cfg.Database.MaxIdleConns)
	if lifetime, err := cfg.ConnMaxLifetime(); err == nil {
		store.DB().SetConnMaxLifetime(lifetime)
	}

	revocations, err := buildRevocationStore(cfg)
	if err != nil {
		return err
	}

	accessTTL, err := cfg.AccessTTL()
	if err != nil {
		return err
	}
	tokens, err := auth.NewTokenService(cfg.Auth.Secret,
		auth.WithIssuer(cfg.Auth.Issuer),
		auth.WithAccessTTL(accessTTL))
	if err != nil {
		return err
	}

	extractor, err := auth.NewExtractor(tokens, revocations, store.Memberships())
	if err != nil {
		return err
	}
	users, err := user.NewService(store.Users())
	if err != nil {
		return err
	}
	todos, err := todo.NewService(store.Todos())
	if err != nil {
		return err
	}

	api, err := httpapi.New(httpapi.Deps{
		Extractor:          extractor,
		Tokens:             tokens,
		Revocations:        revocations,
		Users:              users,
		Todos:              todos,
		ReadyProbe:         httpapi.ReadyProbe{DB: store.DB()},
		Version:            version,
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		MaxBodyBytes:       cfg.Server.MaxBodyBytes,
		RateLimitPerSec:    cfg.Server.RateLimitPerSecond,
		RateLimitBurst:     cfg.Server.RateLimitBurst,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting tasknest-api",
			zap.String("addr", srv.Addr),
			zap.String("version", version),
			zap.String("revocation_backend", cfg.Revocation.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}

// buildRevocationStore picks the configured backend. Memory is fine for
// a single instance; redis shares revocations across instances.
func buildRevocationStore(cfg *config.Config) (revocation.Store, error) {
	switch cfg.Revocation.Backend {
	case "redis":
		client := rdb.NewClient(&rdb.Options{
			Addr: cfg.Revocation.Redis.Addr,
			DB:   cfg.Revocation.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			return nil, err
		}
		return revocation.NewRedis(client, cfg.Revocation.Redis.Prefix), nil
	case "memory":
		return revocation.NewMemory(), nil
	default:
		return nil, errors.New("unsupported revocation backend " + cfg.Revocation.Backend)
	}
}
