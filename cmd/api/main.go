package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/poke-market/api/internal/clients/fakestore"
	"github.com/poke-market/api/internal/clients/pokeapi"
	"github.com/poke-market/api/internal/handlers"
	"github.com/poke-market/api/internal/platform/config"
	"github.com/poke-market/api/internal/platform/observability"
	"github.com/poke-market/api/internal/services"
	"github.com/poke-market/api/internal/storage"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var validation *config.ValidationError
		if errors.As(err, &validation) {
			logger.Fatal("invalid configuration", zap.Strings("fields", validation.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	store, err := openStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to open storage", zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	pokeClient := pokeapi.NewClient(cfg.PokeAPI.BaseURL, cfg.PokeAPI.Timeout)
	fakeStoreClient := fakestore.NewClient(cfg.FakeStore.BaseURL, cfg.FakeStore.Timeout)

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Store:           store,
		TaxRate:         cfg.Shop.TaxRate,
		DefaultCurrency: cfg.Shop.Currency,
		Logger:          observability.EventLogger(logger.Named("cart")),
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	shopService, err := services.NewShopService(services.ShopServiceDeps{
		ManifestPath:    cfg.Shop.ManifestPath,
		PokeAPI:         pokeClient,
		FakeStore:       fakeStoreClient,
		DefaultCurrency: cfg.Shop.Currency,
		NotifyDelay:     cfg.Pokedex.SearchDebounce,
		Logger:          observability.EventLogger(logger.Named("shop")),
	})
	if err != nil {
		logger.Fatal("failed to initialise shop service", zap.Error(err))
	}

	pokedexService, err := services.NewPokedexService(services.PokedexServiceDeps{
		RosterPath: cfg.Pokedex.RosterPath,
		PokeAPI:    pokeClient,
		Store:      store,
		Logger:     observability.EventLogger(logger.Named("pokedex")),
	})
	if err != nil {
		logger.Fatal("failed to initialise pokedex service", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Cart:   cartService,
		Logger: observability.EventLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	contentService, err := services.NewContentService(services.ContentServiceDeps{
		Dir:    cfg.Content.Dir,
		Logger: observability.EventLogger(logger.Named("content")),
	})
	if err != nil {
		logger.Fatal("failed to initialise content service", zap.Error(err))
	}

	prefsService, err := services.NewPreferencesService(services.PreferencesServiceDeps{
		Store:  store,
		Logger: observability.EventLogger(logger.Named("prefs")),
	})
	if err != nil {
		logger.Fatal("failed to initialise preferences service", zap.Error(err))
	}

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
	}

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfoFromEnv(startedAt)),
		handlers.WithReadinessCheck("storage", func(ctx context.Context) error {
			_, err := store.Get(ctx, storage.NamespaceTheme, "mode")
			return err
		}),
	)

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithPokedexRoutes(handlers.NewPokedexHandlers(pokedexService).Routes),
		handlers.WithShopRoutes(handlers.NewShopHandlers(shopService).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(cartService).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(checkoutService, prefsService).Routes),
		handlers.WithPublicRoutes(handlers.NewPublicHandlers(contentService).Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("poke-market api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	// Warm the catalogs in the background so the first request does not pay
	// the fan-out cost.
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		if _, err := shopService.Reload(warmCtx); err != nil {
			logger.Warn("shop warm-up failed", zap.Error(err))
		}
		if _, err := pokedexService.Reload(warmCtx); err != nil {
			logger.Warn("pokedex warm-up failed", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(cfg config.StorageConfig) (storage.Store, error) {
	if cfg.InMemory {
		return storage.NewMemoryStore(), nil
	}
	return storage.OpenBolt(cfg.Path)
}

func buildInfoFromEnv(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("MARKET_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("MARKET_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	return handlers.BuildInfo{
		Version:   version,
		CommitSHA: commit,
		StartedAt: started,
	}
}
