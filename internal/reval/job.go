package reval

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"
)

// Symbols quoted by the job. The primary asset prices every chain except the
// Degen chain, which uses the secondary asset.
const (
	EthSymbol   = "ETH"
	DegenSymbol = "DEGEN"
)

// tokenDecimals is the fixed-point scale of raw bounty amounts (wei-style).
const tokenDecimals = 18

// amountSortPlaces is the rounding scale applied to the derived sort value.
const amountSortPlaces = 5

// Job runs one full revaluation pass: fetch quotes, decide against the last
// snapshot, and if the change clears the threshold, record the snapshot and
// recompute amount_sort for every bounty — all inside one transaction.
type Job struct {
	Store    Store
	Fetcher  PriceFetcher
	Resolver SchemaResolver

	// ThresholdPct is the percent-change gate; runs below it are skipped.
	ThresholdPct decimal.Decimal
}

// Result reports what a run did.
type Result struct {
	Updated bool
	Rows    int
}

// Run executes the job. The transaction is rolled back on every error and on
// the skip path; it commits only after all bounty rows are revalued.
func (j *Job) Run(ctx context.Context) (Result, error) {
	tx, err := j.Store.Begin(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("begin transaction: %w", err)
	}

	res, err := j.run(ctx, tx)
	if err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("[reval] rollback failed: %v", rbErr)
		}
		return Result{}, err
	}
	if !res.Updated {
		// Intentional no-op: nothing was written, release the transaction.
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("[reval] rollback failed: %v", rbErr)
		}
		log.Printf("[reval] price change below %s%%, skipping update", j.ThresholdPct.String())
		return res, nil
	}

	if err := tx.Commit(ctx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			log.Printf("[reval] rollback failed: %v", rbErr)
		}
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	log.Printf("[reval] updated amount_sort for %d bounties", res.Rows)
	return res, nil
}

func (j *Job) run(ctx context.Context, tx Tx) (Result, error) {
	prices, err := j.fetchPrices(ctx)
	if err != nil {
		return Result{}, err
	}

	previous, err := tx.LatestSnapshot(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("latest snapshot: %w", err)
	}

	update, err := ShouldUpdate(prices, previous, j.ThresholdPct)
	if err != nil {
		return Result{}, err
	}
	if !update {
		return Result{Updated: false}, nil
	}

	if err := tx.InsertSnapshot(ctx, Snapshot{EthUSD: prices.EthUSD, DegenUSD: prices.DegenUSD}); err != nil {
		return Result{}, fmt.Errorf("insert snapshot: %w", err)
	}

	schema, err := j.Resolver.Resolve(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := tx.EnsureLiveQueryTable(ctx, schema); err != nil {
		return Result{}, fmt.Errorf("ensure live query table: %w", err)
	}

	rows, err := Revalue(ctx, tx, schema, prices)
	if err != nil {
		return Result{}, err
	}
	return Result{Updated: true, Rows: rows}, nil
}

// fetchPrices retrieves both quotes concurrently; both must succeed.
func (j *Job) fetchPrices(ctx context.Context) (PricePair, error) {
	var (
		wg       sync.WaitGroup
		pair     PricePair
		ethErr   error
		degenErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		pair.EthUSD, ethErr = j.Fetcher.FetchUSD(ctx, EthSymbol)
	}()
	go func() {
		defer wg.Done()
		pair.DegenUSD, degenErr = j.Fetcher.FetchUSD(ctx, DegenSymbol)
	}()
	wg.Wait()

	if ethErr != nil {
		return PricePair{}, fmt.Errorf("fetch %s: %w", EthSymbol, ethErr)
	}
	if degenErr != nil {
		return PricePair{}, fmt.Errorf("fetch %s: %w", DegenSymbol, degenErr)
	}
	return pair, nil
}
