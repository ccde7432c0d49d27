package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chalkdoc/chalkdoc"
	"github.com/chalkdoc/chalkdoc/internal/config"
	"github.com/chalkdoc/chalkdoc/internal/server"
	"github.com/chalkdoc/chalkdoc/internal/store"
)

const shutdownTimeout = 10 * time.Second

// backends is the store and cache selected by store.driver.
type backends struct {
	store store.TopicStore
	cache store.Cache
}

func (b backends) close(ctx context.Context) {
	if err := b.store.Close(ctx); err != nil {
		log.Printf("close store: %v", err)
	}
}

func openBackends(ctx context.Context, cfg config.Config) (backends, error) {
	switch cfg.StoreDriver {
	case config.DriverRedis:
		client, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return backends{}, err
		}
		return backends{store: store.NewRedisStore(client), cache: store.NewRedisCache(client)}, nil
	case config.DriverMongo:
		s, err := store.NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			return backends{}, err
		}
		return backends{store: s, cache: store.NewMemoryCache()}, nil
	default:
		return backends{store: store.NewMemoryStore(), cache: store.NewMemoryCache()}, nil
	}
}

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve generation, topics and tool calls over HTTP",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), *configPath)
		},
	}
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return configError{err}
	}
	logger := log.New(os.Stderr, "chalkdoc ", log.LstdFlags)

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	b, err := openBackends(connectCtx, cfg)
	cancel()
	if err != nil {
		return configError{err}
	}
	defer b.close(context.Background())

	limiter := server.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	defer limiter.Stop()

	srv := server.New(server.Config{
		Generator: chalkdoc.New(chalkdoc.Options{
			MaxCandidates: cfg.MaxCandidates,
			Workers:       cfg.Workers,
			Logger:        logger,
		}),
		Store:    b.store,
		Cache:    b.cache,
		CacheTTL: cfg.CacheTTL,
		Limiter:  limiter,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s (store %s)", cfg.Addr, cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	case <-ctx.Done():
		logger.Println("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Println("server exited")
	return nil
}
