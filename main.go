package main

// POST /auth/login, /auth/register, /auth/logout - Session for the calling client
// GET|PUT /auth/profile - Signed-in user profile
// GET /products, /products/{id}, /categories - Catalog with filters
// GET /cart, POST /cart/items, PUT|DELETE /cart/items/{id}, POST /cart/clear
// GET /wishlist, POST /wishlist/items, GET|DELETE /wishlist/items/{id}, POST /wishlist/clear
// GET /orders, POST /orders (checkout), GET /orders/{id}

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"storefront/auth"
	"storefront/config"
	"storefront/handler"
	"storefront/service"
	"storefront/store"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("STOREFRONT_CONFIG"), "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log := cfg.Logger(os.Stderr)
	slog.SetDefault(log)
	if cfg.UsesDevSecret() {
		log.Warn("TOKEN_SECRET not set, signing sessions with the built-in development secret")
	}

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Store ---
	kv, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer kv.Close()
	log.Info("store ready", "backend", cfg.Store.Backend)

	// --- Identity ---
	dir, err := auth.NewDirectory(ctx, kv, cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	tokens, err := auth.NewTokenManager(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}

	// --- Service ---
	svc := service.NewService(kv, dir, tokens, service.Options{
		Logger:  log,
		Latency: cfg.Auth.Latency,
	})
	var serviceInterface service.ServiceInterface = svc

	// --- Handlers ---
	h := handler.NewHandler(serviceInterface, handler.Options{
		Logger:            log,
		AuthRatePerMinute: cfg.Auth.RatePerMinute,
		AuthBurst:         cfg.Auth.RateBurst,
	})

	// --- Router ---
	r := mux.NewRouter()
	h.RegisterRoutes(r)

	// --- Server ---
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(r, "storefront"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info("server running", "addr", cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, c config.StoreConfig) (store.KV, error) {
	switch c.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "postgres":
		st, err := store.NewPostgresStore(c.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		return st, nil
	case "sqlite":
		return store.NewSQLiteStore(c.SQLitePath)
	case "redis":
		return store.NewRedisStore(ctx, store.RedisOptions{
			URL:       c.RedisURL,
			DB:        c.RedisDB,
			Namespace: c.RedisNamespace,
		})
	default:
		return nil, fmt.Errorf("unknown store backend %q", c.Backend)
	}
}
