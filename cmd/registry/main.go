package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/feral-file/nft-benefit-registry/internal/adapter"
	"github.com/feral-file/nft-benefit-registry/internal/api/middleware"
	"github.com/feral-file/nft-benefit-registry/internal/api/server"
	"github.com/feral-file/nft-benefit-registry/internal/config"
	"github.com/feral-file/nft-benefit-registry/internal/logger"
	"github.com/feral-file/nft-benefit-registry/internal/ownership"
	"github.com/feral-file/nft-benefit-registry/internal/providers/jetstream"
	"github.com/feral-file/nft-benefit-registry/internal/registry"
	"github.com/feral-file/nft-benefit-registry/internal/store"
	"github.com/feral-file/nft-benefit-registry/internal/webhook"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadRegistryConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "benefit-registry",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting NFT Benefit Registry")

	// Initialize adapters
	clock := adapter.NewClock()
	jsonAdapter := adapter.NewJSON()

	// Initialize store
	var dataStore store.Store
	switch cfg.StoreBackend {
	case config.StoreBackendMemory:
		dataStore = store.NewMemoryStore(clock)
		logger.InfoCtx(ctx, "Using in-memory store")

	case config.StoreBackendPostgres:
		db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
			TranslateError: true,
		})
		if err != nil {
			logger.FatalCtx(ctx, "Failed to connect to database", zap.Error(err))
		}

		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.FatalCtx(ctx, "Failed to configure connection pool", zap.Error(err))
		}

		if err := store.Migrate(db); err != nil {
			logger.FatalCtx(ctx, "Failed to migrate database", zap.Error(err))
		}

		dataStore = store.NewPGStore(db, clock)
		logger.InfoCtx(ctx, "Connected to database",
			zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
			zap.Int("max_idle_conns", cfg.Database.MaxIdleConns),
		)
	}

	// Dial Ethereum RPC for the ownership provider
	ethClient, err := adapter.NewEthClientDialer().Dial(ctx, cfg.Ethereum.RPCURL)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to dial Ethereum RPC", zap.Error(err), zap.String("url", cfg.Ethereum.RPCURL))
	}

	ownershipProvider := ownership.NewEthereumProvider(ownership.Config{
		Chain:           cfg.Collection.ChainID,
		ContractAddress: cfg.Collection.ContractAddress,
		ExtraOperators:  cfg.Collection.ExtraOperators,
	}, ethClient)
	defer ownershipProvider.Close()

	// Initialize notifiers
	var notifiers []registry.Notifier

	if cfg.NATS.Enabled {
		publisher, err := jetstream.NewPublisher(jetstream.Config{
			URL:            cfg.NATS.URL,
			StreamName:     cfg.NATS.StreamName,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
		}, adapter.NewNatsJetStream(), jsonAdapter)
		if err != nil {
			logger.FatalCtx(ctx, "Failed to create NATS publisher", zap.Error(err))
		}
		defer publisher.Close()
		notifiers = append(notifiers, registry.NewNATSNotifier(publisher))
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	}

	dispatcher := webhook.NewDispatcher(webhook.DispatcherConfig{
		MaxWorkers:      cfg.Webhook.MaxWorkers,
		MaxQueueSize:    cfg.Webhook.MaxQueueSize,
		DeliveryTimeout: cfg.Webhook.DeliveryTimeout,
		MaxRetryElapsed: cfg.Webhook.MaxRetryElapsed,
	}, dataStore, adapter.NewHTTPClient(cfg.Webhook.DeliveryTimeout), jsonAdapter)
	defer dispatcher.Close()
	notifiers = append(notifiers, registry.NewWebhookNotifier(dispatcher))

	// Initialize registry
	reg, err := registry.New(
		cfg.Collection.ChainID,
		cfg.Collection.ContractAddress,
		registry.Options{
			MaxBenefitsPerToken: cfg.Registry.MaxBenefitsPerToken,
			AttachFeeWei:        cfg.Registry.AttachFeeWei,
		},
		ownershipProvider,
		dataStore,
		registry.NewMultiNotifier(notifiers...),
		clock,
	)
	if err != nil {
		logger.FatalCtx(ctx, "Failed to create registry", zap.Error(err))
	}

	// Create server config
	serverConfig := server.Config{
		Debug:        cfg.Debug,
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		Auth: middleware.AuthConfig{
			JWTPublicKey: cfg.Auth.JWTPublicKey,
			APIKeys:      cfg.Auth.APIKeys,
		},
	}

	// Create and start server
	srv := server.New(serverConfig, reg, dataStore, jsonAdapter)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
		cancel()
	}

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	logger.InfoCtx(shutdownCtx, "Shutting down server...")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.FatalCtx(shutdownCtx, "Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Registry server stopped")
}
