package pantryservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/pantrylab/pantry-service/internal/aggregate"
	"github.com/pantrylab/pantry-service/internal/api"
	"github.com/pantrylab/pantry-service/internal/auth"
	"github.com/pantrylab/pantry-service/internal/config"
	"github.com/pantrylab/pantry-service/internal/factory"
	"github.com/pantrylab/pantry-service/internal/health"
	"github.com/pantrylab/pantry-service/internal/logger"
	"github.com/pantrylab/pantry-service/internal/metrics"
	"github.com/pantrylab/pantry-service/internal/services"
	"github.com/pantrylab/pantry-service/internal/store"
)

// Run starts the pantry service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("pantry-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Int("expiring_default_days", cfg.ExpiringDefaultDays).
		Bool("dev_mode", cfg.DevMode).
		Msg("Pantry service starting")

	// Create cancellable root context bound to SIGINT/SIGTERM
	ctx, stop := newServerContext()
	defer stop()

	// Initialize dependencies (store, authorizer)
	st, authorizer, err := initDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	// Build router
	router := buildRouter(st, authorizer, cfg, log)

	// Start health checkers and bind service health
	svcHealth := startHealthCheckers(ctx, cfg, log, st)

	// Block startup until dependencies report healthy; fail fast otherwise
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	// HTTP server and serve
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	// Graceful shutdown on context cancel or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// initDependencies constructs required components and enforces fail-fast on missing deps.
func initDependencies(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, auth.Authorizer, error) {
	st, err := factory.NewStore(ctx, cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("Store adapter unavailable")
		return nil, nil, err
	}

	authorizer, err := auth.NewAuthorizerFactory(cfg).CreateAuthorizer()
	if err != nil {
		log.Error().Stack().Err(err).Msg("Authorizer unavailable")
		return nil, nil, err
	}
	return st, authorizer, nil
}

// buildRouter wires HTTP routes to handlers.
func buildRouter(st store.Store, authorizer auth.Authorizer, cfg *config.Config, log zerolog.Logger) *mux.Router {
	root := mux.NewRouter()
	root.Use(api.Recover)
	root.Use(metrics.Middleware)

	// Locations
	locSvc := services.NewLocationService(st)
	location := api.NewLocationHandler(locSvc, authorizer)
	root.HandleFunc("/v0/locations", location.CreateLocation).Methods("POST")
	root.HandleFunc("/v0/locations", location.ListLocations).Methods("GET")
	root.HandleFunc("/v0/locations/{locationId}", location.GetLocation).Methods("GET")
	root.HandleFunc("/v0/locations/{locationId}", location.UpdateLocation).Methods("PATCH")
	root.HandleFunc("/v0/locations/{locationId}", location.DeleteLocation).Methods("DELETE")

	// Items. Specific routes must precede the {itemId} wildcard.
	itemSvc := services.NewItemService(st, aggregate.New(log), log, cfg.ExpiringDefaultDays)
	item := api.NewItemHandler(itemSvc, authorizer)
	root.HandleFunc("/v0/items/expiring", item.ExpiringItems).Methods("GET")
	root.HandleFunc("/v0/items/search", item.SearchItems).Methods("GET")
	root.HandleFunc("/v0/items/by-location/{locationId}", item.ItemsByLocation).Methods("GET")
	root.HandleFunc("/v0/items/by-tag/{tag}", item.ItemsByTag).Methods("GET")
	root.HandleFunc("/v0/items/by-name/{name}", item.ItemsByName).Methods("GET")
	root.HandleFunc("/v0/items", item.CreateItem).Methods("POST")
	root.HandleFunc("/v0/items", item.ListItems).Methods("GET")
	root.HandleFunc("/v0/items/{itemId}", item.GetItem).Methods("GET")
	root.HandleFunc("/v0/items/{itemId}", item.UpdateItem).Methods("PATCH")
	root.HandleFunc("/v0/items/{itemId}", item.DeleteItem).Methods("DELETE")

	// Stats
	stats := api.NewStatsHandler(itemSvc, authorizer)
	root.HandleFunc("/v0/stats/aggregate", stats.Aggregate).Methods("GET")

	// Health
	healthHandler := api.NewHealthHandler()
	root.HandleFunc("/v0/health", healthHandler.CheckHealth).Methods("GET")

	// Prometheus exposition
	root.Handle("/metrics", metrics.Handler()).Methods("GET")

	return root
}

// startHealthCheckers starts component checkers and service-level aggregator; binds health.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, st store.Store) *health.ServiceHealthChecker {
	var checkers []health.HealthChecker
	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second

	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	go storeChecker.Start(ctx, interval)
	checkers = append(checkers, storeChecker)

	svcHealth := health.NewServiceHealthChecker(log, checkers...)
	go svcHealth.Start(ctx, interval)
	api.BindServiceHealth(svcHealth.IsHealthy)
	api.BindComponentHealth(svcHealth.Components)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	// Allow extra time for health checkers to complete their first probe cycle
	// Health checkers start as unhealthy and need time to run their first check
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
