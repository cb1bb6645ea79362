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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-cart/api/controllers"
	"github.com/angelmondragon/packfinderz-cart/api/routes"
	"github.com/angelmondragon/packfinderz-cart/internal/cart"
	"github.com/angelmondragon/packfinderz-cart/internal/catalog"
	"github.com/angelmondragon/packfinderz-cart/internal/events"
	"github.com/angelmondragon/packfinderz-cart/internal/storage"
	"github.com/angelmondragon/packfinderz-cart/pkg/config"
	"github.com/angelmondragon/packfinderz-cart/pkg/db"
	"github.com/angelmondragon/packfinderz-cart/pkg/enums"
	"github.com/angelmondragon/packfinderz-cart/pkg/instance"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
	"github.com/angelmondragon/packfinderz-cart/pkg/metrics"
	"github.com/angelmondragon/packfinderz-cart/pkg/migrate"
	"github.com/angelmondragon/packfinderz-cart/pkg/pubsub"
	"github.com/angelmondragon/packfinderz-cart/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error
	pingers := map[string]controllers.Pinger{}

	var dbClient *db.Client
	if cfg.Cart.UsesDB() || cfg.DB.DSN != "" {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		closers = append(closers, dbClient.Close)
		pingers["db"] = dbClient
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
		closers = append(closers, redisClient.Close)
		pingers["redis"] = redisClient
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.PubSub.Enabled() {
		psClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		requireResource(ctx, logg, "pubsub", err)
		cartPublisher := events.NewPubSubPublisher(psClient.CartPublisher(), logg)
		// publisher drains before the client closes
		closers = append(closers, psClient.Close, cartPublisher.Close)
		publisher = cartPublisher
		pingers["pubsub"] = psClient
	}

	products, err := buildCatalog(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "catalog", err)

	var gormDB *gorm.DB
	if dbClient != nil {
		gormDB = dbClient.DB()
	}
	store, err := storage.New(*cfg, storage.Deps{Redis: redisClient, DB: gormDB, Logger: logg})
	requireResource(ctx, logg, "cart storage", err)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	carts, err := cart.NewRegistry(cart.RegistryParams{
		BaseKey:        cfg.Cart.StorageKey,
		Slots:          func(key string) cart.Slot { return storage.NewSlot(store, key) },
		Currency:       enums.Currency(cfg.Cart.Currency),
		Logger:         logg,
		Metrics:        metrics.NewCartMetrics(registry),
		Events:         publisher,
		StorageTimeout: cfg.Cart.StorageTimeout,
		IdleTTL:        cfg.Cart.IdleTTL,
	})
	requireResource(ctx, logg, "cart registry", err)
	go carts.RunEviction(ctx, cfg.Cart.IdleTTL/2)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"storage": cfg.Cart.StorageBackend,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: otelhttp.NewHandler(routes.NewRouter(routes.RouterParams{
			Config:      cfg,
			Logger:      logg,
			Carts:       carts,
			Catalog:     products,
			Pingers:     pingers,
			HTTPMetrics: metrics.NewHTTPMetrics(registry),
			Gatherer:    registry,
		}), "packfinderz-cart-api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		logg.Error(logCtx, "api server stopped unexpectedly", err)
		exitCode = 1
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	for i := len(closers) - 1; i >= 0; i-- {
		shutdownErr = multierr.Append(shutdownErr, closers[i]())
	}
	if shutdownErr != nil {
		logg.Error(logCtx, "errors during shutdown", shutdownErr)
		exitCode = 1
	} else {
		logg.Info(logCtx, "api server stopped")
	}
	os.Exit(exitCode)
}

// buildCatalog returns the SQL catalog when a database is configured and the seeded
// in-memory catalog otherwise.
func buildCatalog(ctx context.Context, cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (catalog.Reader, error) {
	if dbClient == nil {
		return catalog.NewMemoryCatalog(catalog.SeedProducts()...), nil
	}
	if cfg.Cart.SeedCatalog {
		err := dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			repo := catalog.NewRepository(tx)
			for _, p := range catalog.SeedProducts() {
				if err := repo.Upsert(ctx, p); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		logg.Info(ctx, "catalog seeded")
	}
	return catalog.NewRepository(dbClient.DB()), nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
