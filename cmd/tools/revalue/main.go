package main

import (
	"context"
	"flag"
	"log"
	"time"

	"bountyrank/internal/config"
	"bountyrank/internal/market"
	"bountyrank/internal/repository"
	"bountyrank/internal/reval"
	"bountyrank/internal/tenant"
)

// One-shot revaluation run, the cron entry point. Exits 0 on success
// (including the skip case) and 1 on any failure.
func main() {
	var migrate string
	flag.StringVar(&migrate, "migrate", "", "path to a schema file to apply before running")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[revalue] config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("[revalue] DATABASE_URL is required")
	}

	repo, err := repository.NewRepository(cfg.DatabaseURL, repository.Layout(cfg.BountyLayout))
	if err != nil {
		log.Fatalf("[revalue] failed to connect repository: %v", err)
	}
	defer repo.Close()

	if migrate != "" {
		log.Printf("[revalue] applying schema %s", migrate)
		if err := repo.Migrate(migrate); err != nil {
			log.Fatalf("[revalue] migration failed: %v", err)
		}
	}

	var resolver reval.SchemaResolver
	if cfg.DeploymentURL != "" {
		resolver = tenant.NewDeploymentResolver(cfg.DeploymentURL)
	} else {
		resolver = tenant.Fixed(cfg.Schema)
	}

	job := &reval.Job{
		Store:        repo,
		Fetcher:      market.NewClient(cfg.QuoteURL),
		Resolver:     resolver,
		ThresholdPct: cfg.ThresholdPct,
	}

	started := time.Now()
	res, err := job.Run(context.Background())
	if err != nil {
		log.Fatalf("[revalue] run failed: %v", err)
	}
	if res.Updated {
		log.Printf("[revalue] done in %s, %d rows updated", time.Since(started).Truncate(time.Millisecond), res.Rows)
	} else {
		log.Printf("[revalue] done in %s, skipped", time.Since(started).Truncate(time.Millisecond))
	}
}
