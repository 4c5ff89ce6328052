package repository

import (
	"context"
	"fmt"

	"bountyrank/internal/reval"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// RevalTx wraps a single pgx transaction with the statements one revaluation
// run needs. It performs no transaction control of its own beyond exposing
// Commit and Rollback to the job runner.
type RevalTx struct {
	tx     pgx.Tx
	source bountySource
}

// LatestSnapshot returns the most recently inserted snapshot, or nil when the
// table is empty (first run).
func (t *RevalTx) LatestSnapshot(ctx context.Context) (*reval.Snapshot, error) {
	var (
		s        reval.Snapshot
		ethStr   string
		degenStr string
	)
	err := t.tx.QueryRow(ctx, `
		SELECT id, eth_usd::text, degen_usd::text
		FROM price_snapshots
		ORDER BY id DESC
		LIMIT 1
	`).Scan(&s.ID, &ethStr, &degenStr)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if s.EthUSD, err = decimal.NewFromString(ethStr); err != nil {
		return nil, fmt.Errorf("parse eth_usd %q: %w", ethStr, err)
	}
	if s.DegenUSD, err = decimal.NewFromString(degenStr); err != nil {
		return nil, fmt.Errorf("parse degen_usd %q: %w", degenStr, err)
	}
	return &s, nil
}

func (t *RevalTx) InsertSnapshot(ctx context.Context, s reval.Snapshot) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO price_snapshots (eth_usd, degen_usd, created_at)
		VALUES ($1, $2, NOW())
	`, s.EthUSD.String(), s.DegenUSD.String())
	return err
}

// EnsureLiveQueryTable creates the bookkeeping table the live-query subsystem
// reads, if it does not exist yet. Infrastructure setup, not part of the
// price/amount invariants.
func (t *RevalTx) EnsureLiveQueryTable(ctx context.Context, schema string) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id         BIGSERIAL PRIMARY KEY,
			query      TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`, QualifyTable(schema, "bounty_live_queries"))
	_, err := t.tx.Exec(ctx, ddl)
	return err
}

func (t *RevalTx) FetchBounties(ctx context.Context, schema string) ([]reval.Bounty, error) {
	return t.source.fetchAll(ctx, t.tx, schema)
}

func (t *RevalTx) UpdateAmountSort(ctx context.Context, schema string, b reval.Bounty, amountSort decimal.Decimal) error {
	return t.source.updateSort(ctx, t.tx, schema, b, amountSort)
}

func (t *RevalTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *RevalTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
