package reval

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
)

type fakeTx struct {
	latest    *Snapshot
	latestErr error

	bounties  []Bounty
	fetchErr  error
	failAfter int // fail UpdateAmountSort once this many rows succeeded; -1 disables

	inserted   []Snapshot
	updates    map[string]decimal.Decimal
	ensured    []string
	committed  bool
	rolledBack bool
	commitErr  error
}

func newFakeTx() *fakeTx {
	return &fakeTx{failAfter: -1, updates: make(map[string]decimal.Decimal)}
}

func (f *fakeTx) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	return f.latest, f.latestErr
}

func (f *fakeTx) InsertSnapshot(ctx context.Context, s Snapshot) error {
	f.inserted = append(f.inserted, s)
	return nil
}

func (f *fakeTx) EnsureLiveQueryTable(ctx context.Context, schema string) error {
	f.ensured = append(f.ensured, schema)
	return nil
}

func (f *fakeTx) FetchBounties(ctx context.Context, schema string) ([]Bounty, error) {
	return f.bounties, f.fetchErr
}

func (f *fakeTx) UpdateAmountSort(ctx context.Context, schema string, b Bounty, amountSort decimal.Decimal) error {
	if f.failAfter >= 0 && len(f.updates) >= f.failAfter {
		return errors.New("injected update failure")
	}
	f.updates[b.ID] = amountSort
	return nil
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

type fakeStore struct {
	tx       *fakeTx
	beginErr error
}

func (f *fakeStore) Begin(ctx context.Context) (Tx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

type fakeFetcher struct {
	prices map[string]string
	errs   map[string]error
}

func (f *fakeFetcher) FetchUSD(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := f.errs[symbol]; err != nil {
		return decimal.Decimal{}, err
	}
	p, ok := f.prices[symbol]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("no price for %s", symbol)
	}
	return decimal.NewFromString(p)
}

type stubResolver string

func (s stubResolver) Resolve(ctx context.Context) (string, error) {
	return string(s), nil
}

type failingResolver struct{ err error }

func (f failingResolver) Resolve(ctx context.Context) (string, error) {
	return "", f.err
}

func newJob(tx *fakeTx, fetcher *fakeFetcher) (*Job, *fakeStore) {
	store := &fakeStore{tx: tx}
	return &Job{
		Store:        store,
		Fetcher:      fetcher,
		Resolver:     stubResolver("tenant_1"),
		ThresholdPct: decimal.NewFromInt(10),
	}, store
}

func TestRunSkipsBelowThreshold(t *testing.T) {
	tx := newFakeTx()
	tx.latest = &Snapshot{ID: 7, EthUSD: dec(t, "2000"), DegenUSD: dec(t, "0.01")}
	tx.bounties = []Bounty{{ID: "b1", ChainID: 1, RawAmount: "1000000000000000000"}}

	job, _ := newJob(tx, &fakeFetcher{prices: map[string]string{EthSymbol: "2150", DegenSymbol: "0.0101"}})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Updated {
		t.Error("expected skip")
	}
	if len(tx.inserted) != 0 {
		t.Errorf("skip inserted %d snapshots", len(tx.inserted))
	}
	if len(tx.updates) != 0 {
		t.Errorf("skip touched %d bounty rows", len(tx.updates))
	}
	if tx.committed {
		t.Error("skip must not commit")
	}
	if !tx.rolledBack {
		t.Error("skip must release the transaction via rollback")
	}
}

func TestRunFirstRunAlwaysUpdates(t *testing.T) {
	tx := newFakeTx()
	tx.bounties = []Bounty{
		{ID: "b1", ChainID: 1, RawAmount: "1000000000000000000"},
		{ID: "b2", ChainID: DegenChainID, RawAmount: "500000000000000000"},
	}

	job, _ := newJob(tx, &fakeFetcher{prices: map[string]string{EthSymbol: "2300", DegenSymbol: "0.02"}})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Updated || res.Rows != 2 {
		t.Fatalf("got %+v, want updated with 2 rows", res)
	}
	if len(tx.inserted) != 1 {
		t.Fatalf("inserted %d snapshots, want 1", len(tx.inserted))
	}
	if !tx.inserted[0].EthUSD.Equal(dec(t, "2300")) || !tx.inserted[0].DegenUSD.Equal(dec(t, "0.02")) {
		t.Errorf("snapshot = %+v", tx.inserted[0])
	}
	if !tx.committed {
		t.Error("expected commit")
	}

	if got := tx.updates["b1"]; !got.Equal(dec(t, "2300")) {
		t.Errorf("b1 amount_sort = %s, want 2300", got)
	}
	if got := tx.updates["b2"]; !got.Equal(dec(t, "0.01")) {
		t.Errorf("b2 amount_sort = %s, want 0.01", got)
	}
	if len(tx.ensured) != 1 || tx.ensured[0] != "tenant_1" {
		t.Errorf("ensured = %v, want [tenant_1]", tx.ensured)
	}
}

func TestRunUpdatesAboveThreshold(t *testing.T) {
	tx := newFakeTx()
	tx.latest = &Snapshot{ID: 3, EthUSD: dec(t, "2000"), DegenUSD: dec(t, "0.01")}
	tx.bounties = []Bounty{{ID: "b1", ChainID: 1, RawAmount: "1000000000000000000"}}

	job, _ := newJob(tx, &fakeFetcher{prices: map[string]string{EthSymbol: "2300", DegenSymbol: "0.01"}})

	res, err := job.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Updated || res.Rows != 1 {
		t.Fatalf("got %+v, want updated with 1 row", res)
	}
	if got := tx.updates["b1"]; !got.Equal(dec(t, "2300")) {
		t.Errorf("b1 amount_sort = %s, want 2300", got)
	}
}

func TestRunRollsBackOnRowFailure(t *testing.T) {
	tx := newFakeTx()
	tx.bounties = []Bounty{
		{ID: "b1", ChainID: 1, RawAmount: "1000000000000000000"},
		{ID: "b2", ChainID: 1, RawAmount: "2000000000000000000"},
		{ID: "b3", ChainID: 1, RawAmount: "3000000000000000000"},
	}
	tx.failAfter = 1 // second row fails

	job, _ := newJob(tx, &fakeFetcher{prices: map[string]string{EthSymbol: "2300", DegenSymbol: "0.02"}})

	_, err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if tx.committed {
		t.Error("must not commit after a row failure")
	}
	if !tx.rolledBack {
		t.Error("expected rollback")
	}
	if len(tx.updates) != 1 {
		t.Errorf("halted after %d updates, want fail-fast at 1", len(tx.updates))
	}
}

func TestRunRollsBackOnFetchFailure(t *testing.T) {
	tx := newFakeTx()
	job, _ := newJob(tx, &fakeFetcher{
		prices: map[string]string{EthSymbol: "2300"},
		errs:   map[string]error{DegenSymbol: errors.New("quote source down")},
	})

	_, err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected failure")
	}
	if !tx.rolledBack {
		t.Error("expected rollback")
	}
	if tx.committed || len(tx.inserted) != 0 {
		t.Error("nothing may be written when a fetch fails")
	}
}

func TestRunRollsBackOnResolverFailure(t *testing.T) {
	tx := newFakeTx()
	resolveErr := errors.New("deployment lookup failed")

	store := &fakeStore{tx: tx}
	job := &Job{
		Store:        store,
		Fetcher:      &fakeFetcher{prices: map[string]string{EthSymbol: "2300", DegenSymbol: "0.02"}},
		Resolver:     failingResolver{err: resolveErr},
		ThresholdPct: decimal.NewFromInt(10),
	}

	_, err := job.Run(context.Background())
	if !errors.Is(err, resolveErr) {
		t.Fatalf("expected resolver error, got %v", err)
	}
	if !tx.rolledBack || tx.committed {
		t.Error("resolver failure must roll back")
	}
	if len(tx.updates) != 0 {
		t.Error("no bounty rows may be touched when resolution fails")
	}
}

func TestRunCommitFailureSurfaces(t *testing.T) {
	tx := newFakeTx()
	tx.bounties = []Bounty{{ID: "b1", ChainID: 1, RawAmount: "1000000000000000000"}}
	tx.commitErr = errors.New("connection lost")

	job, _ := newJob(tx, &fakeFetcher{prices: map[string]string{EthSymbol: "2300", DegenSymbol: "0.02"}})

	_, err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected commit failure to surface")
	}
}

func TestRunBeginFailure(t *testing.T) {
	store := &fakeStore{beginErr: errors.New("no connection")}
	job := &Job{
		Store:        store,
		Fetcher:      &fakeFetcher{},
		Resolver:     stubResolver("public"),
		ThresholdPct: decimal.NewFromInt(10),
	}
	if _, err := job.Run(context.Background()); err == nil {
		t.Fatal("expected begin failure to surface")
	}
}
