// predictval validates matured public predictions by fanning out to a
// search API and two LLM calls, then writes one of six outcomes back to
// storage.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/predictval/predictval/pkg/api"
	"github.com/predictval/predictval/pkg/chat"
	"github.com/predictval/predictval/pkg/config"
	"github.com/predictval/predictval/pkg/cost"
	"github.com/predictval/predictval/pkg/enhancer"
	"github.com/predictval/predictval/pkg/judge"
	"github.com/predictval/predictval/pkg/pipeline"
	"github.com/predictval/predictval/pkg/queue"
	"github.com/predictval/predictval/pkg/search"
	"github.com/predictval/predictval/pkg/store"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
		log.Printf("Continuing with existing environment variables...")
	}

	ctx := context.Background()

	dbCfg, err := store.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load database config: %v", err)
	}
	dbClient, err := store.NewClient(ctx, dbCfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbClient.Close()
	log.Println("connected to PostgreSQL database, schema migrated")

	chatCfg, err := chat.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load chat adapter config: %v", err)
	}
	searchCfg, err := search.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load search adapter config: %v", err)
	}
	queueCfg, err := queue.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Failed to load queue config: %v", err)
	}

	chatClient := chat.NewClient(chatCfg)
	searchClient := search.NewClient(searchCfg)

	leaser := store.NewPredictionStore(dbClient.Pool())
	resultStore := store.NewValidationResultStore()
	postFetcher := store.NewPostFetcher(dbClient.Pool())
	costLogStore := store.NewCostLogStore(getEnv("COST_LOG_PATH", "costs.json"))

	tracker := cost.New()
	if err := store.ReplayHistorical(getEnv("COST_LOG_PATH", "costs.json"), tracker.SeedHistorical); err != nil {
		log.Printf("Warning: could not replay historical cost log: %v", err)
	}

	registry := prometheus.NewRegistry()
	for _, c := range tracker.Collectors() {
		registry.MustRegister(c)
	}

	prefilterCfg, err := config.LoadPrefilterConfig(getEnv("PREFILTER_CONFIG_PATH", ""))
	if err != nil {
		log.Fatalf("Failed to load prefilter config: %v", err)
	}

	p := pipeline.New(
		enhancer.New(chatClient),
		searchClient,
		judge.New(chatClient),
		resultStore,
		postFetcher,
		pipeline.DefaultConfig(),
		prefilterCfg,
	)

	pool := queue.NewWorkerPool(dbClient.Pool(), leaser, resultStore, costLogStore, tracker, p, queueCfg)

	httpAddr := ":" + getEnv("HTTP_PORT", "8080")
	server := api.NewServer(getEnv("GIN_MODE", "release"), tracker, pool, func(pingCtx context.Context) error {
		conn, err := dbClient.Pool().Acquire(pingCtx)
		if err != nil {
			return err
		}
		defer conn.Release()
		return conn.Conn().Ping(pingCtx)
	}, registry)

	go func() {
		slog.Info("HTTP server listening", "addr", httpAddr)
		if err := server.Run(httpAddr); err != nil {
			slog.Error("HTTP server exited", "error", err)
		}
	}()

	supervisor := queue.NewSupervisor(pool)
	supervisor.Run(ctx)

	os.Exit(0)
}
