package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/streamhub-systems/streamhub/common/logging"
	"github.com/streamhub-systems/streamhub/internal/config"
	"github.com/streamhub-systems/streamhub/internal/dapps"
	"github.com/streamhub-systems/streamhub/internal/engine"
	"github.com/streamhub-systems/streamhub/internal/handlers"
	"github.com/streamhub-systems/streamhub/internal/indexer"
	"github.com/streamhub-systems/streamhub/internal/publisher"
	"github.com/streamhub-systems/streamhub/internal/repository"
	"github.com/streamhub-systems/streamhub/internal/server"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the streamhub HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
}

func serve(parent context.Context) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.New(logging.ParseLevel(cfg.Logging.Level), cfg.Logging.Format)
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if !skipMigrations {
		logger.InfoContext(ctx, "applying database migrations")
		if err := runMigrations(cfg.Database.URL); err != nil {
			return err
		}
	}

	repo, err := repository.NewPostgresRepository(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer repo.Close()

	var cache *engine.FoldCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to ping redis: %w", err)
		}
		defer client.Close()
		cache = engine.NewFoldCache(client, cfg.Redis.TTL())
		logger.InfoContext(ctx, "fold cache enabled", "addr", cfg.Redis.Addr)
	}

	var pub *publisher.Publisher
	if cfg.NATS.Enabled {
		natsClient, err := publisher.NewClient(publisher.Config{
			URL:           cfg.NATS.URL,
			Name:          "streamhub",
			MaxReconnects: cfg.NATS.MaxReconnects,
			ReconnectWait: cfg.NATS.ReconnectWaitDuration(),
			Timeout:       cfg.Server.ReadTimeout(),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer natsClient.Drain()
		pub = publisher.NewPublisher(natsClient, logger)
		logger.InfoContext(ctx, "publisher enabled", "url", cfg.NATS.URL)
	}

	var mirror *indexer.Mirror
	if cfg.OpenSearch.Enabled {
		mirror, err = indexer.NewMirror(indexer.MirrorConfig{
			URL:      cfg.OpenSearch.URL,
			Username: cfg.OpenSearch.Username,
			Password: cfg.OpenSearch.Password,
			Insecure: cfg.OpenSearch.Insecure,
			Index:    cfg.OpenSearch.Index,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to opensearch: %w", err)
		}
		if err := mirror.Initialize(ctx); err != nil {
			return fmt.Errorf("failed to initialize signal index: %w", err)
		}
		logger.InfoContext(ctx, "signal mirror enabled", "index", cfg.OpenSearch.Index)
	}

	resolverCfg := engine.ResolverConfig{
		Repo:   repo,
		Cache:  cache,
		Logger: logger,
	}
	if pub != nil {
		resolverCfg.Announcer = pub
	}
	if mirror != nil {
		resolverCfg.Mirror = mirror
	}
	resolver := engine.NewResolver(resolverCfg)

	var dappAnnouncer dapps.DeployAnnouncer
	if pub != nil {
		dappAnnouncer = pub
	}
	dappSvc := dapps.NewService(dapps.NewPostgresRepository(repo.Pool()), dappAnnouncer, logger)

	handler := handlers.NewHandler(resolver, dappSvc, logger)
	router := server.NewRouter(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "streamhub listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.InfoContext(context.Background(), "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout())
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}
	return nil
}
