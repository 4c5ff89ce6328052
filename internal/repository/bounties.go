package repository

import (
	"context"
	"fmt"

	"bountyrank/internal/reval"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// bountySource abstracts the two physical layouts bounty rows live in. Both
// expose the same logical entity: (id, chain_id, raw amount) plus a writable
// amount_sort.
type bountySource interface {
	fetchAll(ctx context.Context, tx pgx.Tx, schema string) ([]reval.Bounty, error)
	updateSort(ctx context.Context, tx pgx.Tx, schema string, b reval.Bounty, amountSort decimal.Decimal) error
}

// schemaBounties reads and writes a single schema-qualified bounty table.
type schemaBounties struct{}

func (schemaBounties) fetchAll(ctx context.Context, tx pgx.Tx, schema string) ([]reval.Bounty, error) {
	query := fmt.Sprintf(`SELECT id, amount, chain_id FROM %s`, QualifyTable(schema, "Bounties"))
	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBounties(rows)
}

func (schemaBounties) updateSort(ctx context.Context, tx pgx.Tx, schema string, b reval.Bounty, amountSort decimal.Decimal) error {
	query := fmt.Sprintf(`UPDATE %s SET amount_sort = $1 WHERE id = $2`, QualifyTable(schema, "Bounties"))
	tag, err := tx.Exec(ctx, query, amountSort.String(), b.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bounty %s not found in %s", b.ID, schema)
	}
	return nil
}

// sidecarBounties reads the fixed bounty table and writes amount_sort to the
// extras table keyed by (bounty_id, chain_id).
type sidecarBounties struct{}

func (sidecarBounties) fetchAll(ctx context.Context, tx pgx.Tx, schema string) ([]reval.Bounty, error) {
	rows, err := tx.Query(ctx, `SELECT id, amount, chain_id FROM "Bounties"`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanBounties(rows)
}

func (sidecarBounties) updateSort(ctx context.Context, tx pgx.Tx, schema string, b reval.Bounty, amountSort decimal.Decimal) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO "BountiesExtra" (bounty_id, chain_id, amount_sort)
		VALUES ($1, $2, $3)
		ON CONFLICT (bounty_id, chain_id) DO UPDATE SET
			amount_sort = EXCLUDED.amount_sort
	`, b.ID, b.ChainID, amountSort.String())
	return err
}

func scanBounties(rows pgx.Rows) ([]reval.Bounty, error) {
	var bounties []reval.Bounty
	for rows.Next() {
		var b reval.Bounty
		if err := rows.Scan(&b.ID, &b.RawAmount, &b.ChainID); err != nil {
			return nil, err
		}
		bounties = append(bounties, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bounties, nil
}
