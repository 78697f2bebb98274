package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"

	"example.com/healthbridge/internal/config"
	"example.com/healthbridge/internal/consumer"
	"example.com/healthbridge/internal/store/postgres"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := postgres.NewRepository(pool)
	if err := repo.Ping(ctx); err != nil {
		log.Fatalf("postgres unreachable: %v", err)
	}
	handler := consumer.NewIngestHandler(repo)

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("ingest consumer metrics listening on %s", cfg.MetricsAddress)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("metrics server error: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for _, topic := range cfg.ConsumerTopics {
		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			consume(ctx, cfg, topic, handler)
		}(topic)
	}

	<-ctx.Done()
	log.Println("ingest consumer shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server shutdown error: %v", err)
	}

	wg.Wait()
}

// consume runs one consumer group member for topic until ctx is cancelled.
func consume(ctx context.Context, cfg config.Config, topic string, handler consumer.Handler) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		Topic:           topic,
		MinBytes:        1e3,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		ReadLagInterval: -1,
	})
	defer reader.Close()

	logger := log.New(log.Writer(), "[ingest "+topic+"] ", log.LstdFlags)
	proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(logger))

	logger.Printf("started (group=%s)", cfg.ConsumerGroupID)
	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("stopped with error: %v", err)
	}
}
