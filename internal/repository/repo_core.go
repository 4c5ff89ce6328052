package repository

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"bountyrank/internal/reval"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Layout selects how bounty rows are physically stored.
type Layout string

const (
	// LayoutSchema keeps amount_sort on the bounty table itself, inside a
	// per-deployment schema.
	LayoutSchema Layout = "schema"
	// LayoutSidecar keeps amount_sort in a separate extras table keyed by
	// (bounty_id, chain_id), with fixed table names.
	LayoutSidecar Layout = "sidecar"
)

type Repository struct {
	db     *pgxpool.Pool
	source bountySource
}

func NewRepository(dbURL string, layout Layout) (*Repository, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse db url: %w", err)
	}

	// Apply Pool Settings
	if maxConnStr := os.Getenv("DB_MAX_OPEN_CONNS"); maxConnStr != "" {
		if maxConn, err := strconv.Atoi(maxConnStr); err == nil {
			config.MaxConns = int32(maxConn)
		}
	}
	if minConnStr := os.Getenv("DB_MAX_IDLE_CONNS"); minConnStr != "" {
		if minConn, err := strconv.Atoi(minConnStr); err == nil {
			config.MinConns = int32(minConn)
		}
	}

	// Prevent stale connections from surviving across deployments.
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	source, err := sourceForLayout(layout)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Repository{db: pool, source: source}, nil
}

func sourceForLayout(layout Layout) (bountySource, error) {
	switch layout {
	case LayoutSchema, "":
		return schemaBounties{}, nil
	case LayoutSidecar:
		return sidecarBounties{}, nil
	default:
		return nil, fmt.Errorf("unknown bounty layout %q", layout)
	}
}

func (r *Repository) Migrate(schemaPath string) error {
	content, err := os.ReadFile(schemaPath)
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	// Execute the entire schema script
	_, err = r.db.Exec(context.Background(), string(content))
	if err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() {
	r.db.Close()
}

// Begin opens a revaluation transaction. The caller owns Commit/Rollback.
func (r *Repository) Begin(ctx context.Context) (reval.Tx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &RevalTx{tx: tx, source: r.source}, nil
}
