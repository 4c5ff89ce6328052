package main

import (
	"context"
	"log"
	"time"

	"bountyrank/internal/api"
	"bountyrank/internal/config"
	"bountyrank/internal/market"
	"bountyrank/internal/repository"
	"bountyrank/internal/reval"
	"bountyrank/internal/tenant"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}
	if cfg.TriggerAPIKey == "" || cfg.TriggerSecret == "" {
		log.Fatalf("TRIGGER_API_KEY and TRIGGER_SECRET are required for the trigger server")
	}

	log.Println("Initializing bountyrank service...")
	log.Printf("Quote endpoint: %s", cfg.QuoteURL)
	log.Printf("Bounty layout: %s", layoutName(cfg))
	log.Printf("Update threshold: %s%%", cfg.ThresholdPct)

	repo, err := repository.NewRepository(cfg.DatabaseURL, repository.Layout(cfg.BountyLayout))
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer repo.Close()

	job := buildJob(cfg, repo)

	if cfg.RunEvery > 0 {
		go runOnTicker(job, cfg.RunEvery)
	}

	server := api.NewServer(job, cfg.TriggerAPIKey, cfg.TriggerSecret)
	if err := server.ListenAndServe(cfg.APIPort); err != nil {
		log.Fatalf("server: %v", err)
	}
}

func buildJob(cfg *config.Config, repo *repository.Repository) *reval.Job {
	var resolver reval.SchemaResolver
	if cfg.DeploymentURL != "" {
		resolver = tenant.NewDeploymentResolver(cfg.DeploymentURL)
	} else {
		resolver = tenant.Fixed(cfg.Schema)
	}

	return &reval.Job{
		Store:        repo,
		Fetcher:      market.NewClient(cfg.QuoteURL),
		Resolver:     resolver,
		ThresholdPct: cfg.ThresholdPct,
	}
}

func runOnTicker(job *reval.Job, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for range ticker.C {
		if _, err := job.Run(context.Background()); err != nil {
			log.Printf("[ticker] revaluation failed: %v", err)
		}
	}
}

func layoutName(cfg *config.Config) string {
	if cfg.BountyLayout == "" {
		return string(repository.LayoutSchema)
	}
	return cfg.BountyLayout
}
