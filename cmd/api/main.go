package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/healthbridge/internal/api"
	"example.com/healthbridge/internal/auth"
	"example.com/healthbridge/internal/config"
	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/native"
	"example.com/healthbridge/internal/observability"
	"example.com/healthbridge/internal/outbox"
	"example.com/healthbridge/internal/store"
	"example.com/healthbridge/internal/store/postgres"
	httptransport "example.com/healthbridge/internal/transport/http"
	"example.com/healthbridge/internal/web"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if _, err := api.ConsentPrompter(cfg.ConsentPolicy, nil); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dispatcher *outbox.Dispatcher
	var plugins api.PluginFactory

	switch cfg.HealthBackend {
	case config.BackendWeb:
		plugin := observability.Instrument(web.New(), health.PlatformWeb)
		plugins = func(*auth.Claims) health.Plugin { return plugin }
	default:
		var st store.Store
		if cfg.StoreBackend == config.StoreMemory {
			st = store.NewMemory()
		} else {
			pool, err := pgxpool.New(ctx, cfg.PostgresURL)
			if err != nil {
				log.Fatalf("failed to connect to postgres: %v", err)
			}
			defer pool.Close()
			st = postgres.NewRepository(pool)

			producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
			defer producer.Close()
			registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
			dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
			go dispatcher.Start(ctx)
		}

		platform := health.Platform(cfg.HealthPlatform)
		plugins = func(claims *auth.Claims) health.Plugin {
			prompter, _ := api.ConsentPrompter(cfg.ConsentPolicy, claims)
			p := native.New(st, store.Owner{TenantID: claims.TenantID, UserID: claims.Subject},
				native.WithPrompter(prompter),
				native.WithPlatform(platform),
			)
			return observability.Instrument(p, platform)
		}
	}

	handler := api.NewHandler(plugins)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	limiter := httptransport.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, callerKey)
	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.Stack(mux, cfg.CORSAllowedOrigin, log.Default(), authMiddleware.Wrap, limiter))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("healthbridge api listening on %s (backend=%s, store=%s)", cfg.HTTPAddress, cfg.HealthBackend, cfg.StoreBackend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
}

// callerKey rate limits per authenticated caller, falling back to the client address.
func callerKey(r *http.Request) string {
	if claims, ok := auth.FromContext(r.Context()); ok {
		return claims.TenantID + ":" + claims.Subject
	}
	return httptransport.RemoteAddrKey(r)
}
