package main

import (
	"context"
	"log"
	"os"

	"bountyrank/internal/config"
	"bountyrank/internal/trigger"
)

// Remotely invokes a deployed revaluation instance with a signed request.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[trigger] config: %v", err)
	}
	if cfg.TriggerBaseURL == "" || cfg.TriggerAPIKey == "" || cfg.TriggerSecret == "" {
		log.Fatalf("[trigger] TRIGGER_BASE_URL, TRIGGER_API_KEY and TRIGGER_SECRET are required")
	}

	client := trigger.NewClient(cfg.TriggerBaseURL, cfg.TriggerAPIKey, cfg.TriggerSecret)
	body, err := client.Invoke(context.Background())
	if err != nil {
		log.Printf("[trigger] invocation failed: %v", err)
		os.Exit(1)
	}
	log.Printf("[trigger] response: %s", body)
}
