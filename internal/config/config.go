package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Config carries everything the binaries need. It is built once at process
// start and passed by parameter; nothing reads the environment after Load.
type Config struct {
	DatabaseURL string `yaml:"database_url"`

	// QuoteURL is the exchange-rates endpoint queried per currency symbol.
	QuoteURL string `yaml:"quote_url"`

	// ThresholdPct gates snapshot writes: a run only updates when either
	// currency moved by strictly more than this percentage.
	ThresholdPct decimal.Decimal `yaml:"-"`

	// BountyLayout selects the physical bounty storage: "schema" or "sidecar".
	BountyLayout string `yaml:"bounty_layout"`

	// Schema is the fixed schema name. Ignored when DeploymentURL is set,
	// in which case the schema is resolved per run.
	Schema        string `yaml:"schema"`
	DeploymentURL string `yaml:"deployment_url"`

	// Trigger server/client settings.
	APIPort        int    `yaml:"api_port"`
	TriggerAPIKey  string `yaml:"trigger_api_key"`
	TriggerSecret  string `yaml:"trigger_secret"`
	TriggerBaseURL string `yaml:"trigger_base_url"`

	// RunEvery, when positive, makes the service re-run the job on a timer
	// in addition to the HTTP trigger.
	RunEvery time.Duration `yaml:"-"`
}

const (
	defaultQuoteURL     = "https://api.coinbase.com/v2/exchange-rates"
	defaultThresholdPct = "10"
	defaultSchema       = "public"
	defaultAPIPort      = 8080
)

// Load builds the Config. Precedence: environment, then the optional YAML
// file named by CONFIG_FILE, then defaults. A local .env / .env.local is
// loaded first so dev runs behave like deployed ones.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		// Fall back to .env.local; absence of both is fine in production.
		_ = godotenv.Load(".env.local")
	}

	cfg := &Config{
		QuoteURL: defaultQuoteURL,
		Schema:   defaultSchema,
		APIPort:  defaultAPIPort,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.QuoteURL, "QUOTE_URL")
	setString(&cfg.BountyLayout, "BOUNTY_LAYOUT")
	setString(&cfg.Schema, "BOUNTY_SCHEMA")
	setString(&cfg.DeploymentURL, "DEPLOYMENT_URL")
	setString(&cfg.TriggerAPIKey, "TRIGGER_API_KEY")
	setString(&cfg.TriggerSecret, "TRIGGER_SECRET")
	setString(&cfg.TriggerBaseURL, "TRIGGER_BASE_URL")

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q", v)
		}
		cfg.APIPort = port
	}

	threshold := defaultThresholdPct
	if v := os.Getenv("PRICE_CHANGE_THRESHOLD_PCT"); v != "" {
		threshold = v
	}
	pct, err := decimal.NewFromString(threshold)
	if err != nil {
		return nil, fmt.Errorf("invalid PRICE_CHANGE_THRESHOLD_PCT %q: %w", threshold, err)
	}
	cfg.ThresholdPct = pct

	if v := os.Getenv("RUN_EVERY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid RUN_EVERY %q: %w", v, err)
		}
		cfg.RunEvery = d
	}

	return cfg, nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
