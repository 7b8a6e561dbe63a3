package main

import (
	"context"
	"fmt"
	"inbox-lab/auth"
	"inbox-lab/contract"
	"inbox-lab/directory"
	"inbox-lab/domain"
	"inbox-lab/observability"
	"inbox-lab/projection"
	"inbox-lab/repositories"
	"inbox-lab/runtime"
	"inbox-lab/runtime/workers"
	"inbox-lab/server"
	"inbox-lab/services"
	"inbox-lab/storage"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := config.validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Credential storage
	store, closeStore, err := openCredentialStore(config, log)
	if err != nil {
		return err
	}
	defer closeStore()

	// 3. Remote platform
	factory, err := newDirectoryFactory(config, log)
	if err != nil {
		return err
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervision
	sup := workers.NewSupervisor(log, config.RestartInterval)
	monitor := observability.NewMonitoringManager(log, config.MetricInterval)
	sup.Add(monitor)
	go sup.Run(ctx)

	clients := runtime.NewClientRegistry(log, factory, store, config.RemoteTimeout)
	watchers := runtime.NewWatcherRegistry(ctx, log, sup)
	inbox := services.NewInboxService(log, clients, watchers, projection.NewNormalizer(time.Now), monitor,
		services.InboxOptions{
			RemoteTimeout:    config.RemoteTimeout,
			ThreadLimit:      config.ThreadLimit,
			MessageLimit:     config.MessageLimit,
			MaxMessageLength: config.MaxMessageLength,
			Watcher: workers.WatcherConfig{
				Unit:         config.PollUnit,
				Floor:        config.PollFloor,
				Ceiling:      config.PollCeiling,
				FetchTimeout: config.RemoteTimeout,
				MessageLimit: config.MessageLimit,
			},
		})

	issuer, err := auth.NewTokenIssuer(config.AuthTokenSecret, config.AuthTokenDuration)
	if err != nil {
		return fmt.Errorf("token issuer: %w", err)
	}
	authService := services.NewAuthService(inbox, issuer)

	// 6. Servers
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := server.NewServer(address, server.NewHTTPServer(
		log, authService, inbox, clients, watchers, monitor, issuer,
	).Handler())

	healthAddress := fmt.Sprintf("%s:%d", config.Host, config.HealthPort)
	listener, err := net.Listen("tcp", healthAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", healthAddress, err)
	}
	health := server.NewHealthServer(log)

	errChan := make(chan error, 2)
	go func() {
		if err := health.Serve(listener); err != nil {
			errChan <- err
		}
	}()
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()
	health.SetServing(true)

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	health.SetServing(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	watchers.StopAll()
	health.Stop(shutdownCtx)
	sup.Wait()
	log.Info("Program stopped cleanly")
	return nil
}

func openCredentialStore(config Config, log *slog.Logger) (contract.CredentialStore, func(), error) {
	var (
		store     contract.CredentialStore
		closeFunc = func() {}
	)
	switch config.CredentialBackend {
	case "file":
		fileStore, err := storage.NewFileCredentialStore(config.SessionDir, log)
		if err != nil {
			return nil, nil, fmt.Errorf("session directory: %w", err)
		}
		store = fileStore
	default:
		db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, nil, fmt.Errorf("database opening failed: %w", err)
		}
		store = repositories.NewCredentialRepository(db, log)
		closeFunc = func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}
	}

	if config.CredentialSecret != "" {
		store = repositories.NewSealedStore(store, auth.DeriveCredentialKey(config.CredentialSecret), log)
	} else {
		log.Warn("CREDENTIAL_SECRET is empty, stored sessions are not encrypted")
	}
	return store, closeFunc, nil
}

func newDirectoryFactory(config Config, log *slog.Logger) (contract.DirectoryFactory, error) {
	if config.DirectoryMode == "gateway" {
		log.Info("Using remote gateway", "url", config.GatewayURL)
		return directory.NewGatewayFactory(config.GatewayURL, &http.Client{Timeout: config.RemoteTimeout}), nil
	}

	accounts, err := parseAccounts(config.SandboxAccounts)
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	platform := directory.NewPlatform(time.Now)
	var members []domain.UserID
	for _, account := range accounts {
		platform.AddAccount(domain.UserID(account.username), account.password)
		members = append(members, domain.UserID(account.username))
	}
	if len(members) > 1 {
		if err := platform.AddThread("lobby", members...); err != nil {
			return nil, err
		}
	}
	log.Info("Using sandbox platform", "accounts", len(accounts))
	return platform.Factory(), nil
}
