package reval

import (
	"context"

	"github.com/shopspring/decimal"
)

// DegenChainID selects the DEGEN quote for a bounty; every other chain uses ETH.
const DegenChainID int64 = 666666666

// Snapshot is one recorded pair of USD prices. Rows are append-only; the
// snapshot with the highest ID is the latest.
type Snapshot struct {
	ID       int64
	EthUSD   decimal.Decimal
	DegenUSD decimal.Decimal
}

// PricePair holds the quotes fetched for the current run.
type PricePair struct {
	EthUSD   decimal.Decimal
	DegenUSD decimal.Decimal
}

// PriceFor returns the quote matching a bounty's chain.
func (p PricePair) PriceFor(chainID int64) decimal.Decimal {
	if chainID == DegenChainID {
		return p.DegenUSD
	}
	return p.EthUSD
}

// Bounty is the slice of a bounty row this job cares about: the base-unit
// amount it reads and the identity it writes amount_sort back under.
type Bounty struct {
	ID        string
	ChainID   int64
	RawAmount string
}

// PriceFetcher retrieves the current USD quote for a currency symbol.
type PriceFetcher interface {
	FetchUSD(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// SchemaResolver resolves the schema identifier a run should operate against.
type SchemaResolver interface {
	Resolve(ctx context.Context) (string, error)
}

// Store opens revaluation transactions against the backing database.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single revaluation transaction. All reads and writes happen inside
// it; nothing is visible to other connections until Commit.
type Tx interface {
	// LatestSnapshot returns the most recent snapshot, or nil when none exists.
	LatestSnapshot(ctx context.Context) (*Snapshot, error)
	InsertSnapshot(ctx context.Context, s Snapshot) error
	EnsureLiveQueryTable(ctx context.Context, schema string) error
	FetchBounties(ctx context.Context, schema string) ([]Bounty, error)
	UpdateAmountSort(ctx context.Context, schema string, b Bounty, amountSort decimal.Decimal) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
