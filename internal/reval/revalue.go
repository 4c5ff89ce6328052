package reval

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Revalue recomputes amount_sort for every bounty visible through tx, priced
// per chain, and returns the number of rows written. Any single-row failure
// aborts the pass so the caller rolls back the whole transaction.
func Revalue(ctx context.Context, tx Tx, schema string, prices PricePair) (int, error) {
	bounties, err := tx.FetchBounties(ctx, schema)
	if err != nil {
		return 0, fmt.Errorf("fetch bounties: %w", err)
	}

	for _, b := range bounties {
		amountSort, err := AmountSort(b, prices)
		if err != nil {
			return 0, fmt.Errorf("bounty %s (chain %d): %w", b.ID, b.ChainID, err)
		}
		if err := tx.UpdateAmountSort(ctx, schema, b, amountSort); err != nil {
			return 0, fmt.Errorf("update bounty %s (chain %d): %w", b.ID, b.ChainID, err)
		}
	}
	return len(bounties), nil
}

// AmountSort converts a bounty's raw base-unit amount (18 decimal places) to
// a token amount and prices it in USD, rounded half-away-from-zero to 5 places.
func AmountSort(b Bounty, prices PricePair) (decimal.Decimal, error) {
	raw, err := decimal.NewFromString(b.RawAmount)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse raw amount %q: %w", b.RawAmount, err)
	}
	tokens := raw.Shift(-tokenDecimals)
	return tokens.Mul(prices.PriceFor(b.ChainID)).Round(amountSortPlaces), nil
}
