package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/recipify/diversity-guard/internal/adapters/database"
	"github.com/recipify/diversity-guard/internal/adapters/providers/embedding"
	"github.com/recipify/diversity-guard/internal/application/services"
	genaiclient "github.com/recipify/diversity-guard/internal/infrastructure/clients/genai"
	"github.com/recipify/diversity-guard/internal/infrastructure/clients/postgres"
	"github.com/recipify/diversity-guard/pkg/config"
)

func main() {
	var workers int

	flag.IntVar(&workers, "workers", 3, "Number of concurrent workers")
	flag.Parse()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup DB
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pgClient.Close()

	repo := database.NewAvoidListAdapter(pgClient, cfg.Guard.PerComboCap)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Setup embedder. Without an API key the factory falls back to the
	// mock provider, which still produces usable lexical vectors.
	var genaiClient *genaiclient.Client
	if cfg.GenAI.APIKey != "" {
		genaiClient, err = genaiclient.NewClient(ctx, &cfg.GenAI)
		if err != nil {
			log.Fatalf("Failed to create GenAI client: %v", err)
		}
		defer genaiClient.Close()
	}
	embedder := embedding.NewEmbeddingProvider(&cfg.GenAI, genaiClient, nil)

	svc := services.NewEmbeddingBackfillService(repo, embedder, workers)

	start := time.Now()
	log.Printf("Starting embedding backfill with %d workers...", workers)

	summary, err := svc.BackfillAll(ctx)
	if err != nil {
		log.Printf("Backfill failed: %v", err)
	}

	if summary != nil {
		log.Printf("Backfill complete in %s", time.Since(start))
		log.Printf("Total processed: %d", summary.TotalProcessed)
		log.Printf("Success: %d", summary.SuccessCount)
		log.Printf("Failed: %d", summary.FailureCount)
	}
}
