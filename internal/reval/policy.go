package reval

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrZeroPreviousPrice guards the percent-change division. A recorded price of
// zero violates the snapshot invariant and should never happen in practice.
var ErrZeroPreviousPrice = errors.New("previous price is zero")

var hundred = decimal.NewFromInt(100)

// PercentChange returns abs((current-previous)/previous)*100.
func PercentChange(current, previous decimal.Decimal) (decimal.Decimal, error) {
	if previous.IsZero() {
		return decimal.Decimal{}, ErrZeroPreviousPrice
	}
	return current.Sub(previous).Div(previous).Abs().Mul(hundred), nil
}

// ShouldUpdate decides whether the fetched prices deviate enough from the last
// snapshot to justify a write. With no prior snapshot it always updates. The
// deviation must strictly exceed thresholdPct; a change exactly at the
// threshold is a skip.
func ShouldUpdate(current PricePair, previous *Snapshot, thresholdPct decimal.Decimal) (bool, error) {
	if previous == nil {
		return true, nil
	}

	ethChange, err := PercentChange(current.EthUSD, previous.EthUSD)
	if err != nil {
		return false, fmt.Errorf("eth percent change: %w", err)
	}
	degenChange, err := PercentChange(current.DegenUSD, previous.DegenUSD)
	if err != nil {
		return false, fmt.Errorf("degen percent change: %w", err)
	}

	return ethChange.GreaterThan(thresholdPct) || degenChange.GreaterThan(thresholdPct), nil
}
