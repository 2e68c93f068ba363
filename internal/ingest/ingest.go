// Package ingest fetches price data from IEX Cloud and persists it.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/elbart/pecunia/internal/iexcloud"
	"github.com/elbart/pecunia/internal/model"
	"github.com/elbart/pecunia/internal/store"
)

const (
	// dateLayout is the range format accepted from callers.
	dateLayout = "2006-01-02"
	// wireDateLayout is the format the historical-prices endpoint expects.
	wireDateLayout = "20060102"
)

// ErrInvalidRange is returned when a batch date range is empty or inverted.
var ErrInvalidRange = errors.New("invalid date range")

// Fetcher is the slice of the IEX Cloud client the ingester needs.
type Fetcher interface {
	IntradayPrices(ctx context.Context, symbol string) ([]model.PriceObservation, iexcloud.UsageReport, error)
	HistoricalPrices(ctx context.Context, symbol, date string) ([]model.PriceObservation, iexcloud.UsageReport, error)
}

// Ingester fetches price observations and persists them through a Store.
type Ingester struct {
	fetcher     Fetcher
	store       store.Store
	concurrency int
}

// Option configures an Ingester.
type Option func(*Ingester)

// WithConcurrency allows up to n fetch/persist cycles of a batch to run in
// parallel. The default of 1 keeps the batch strictly sequential.
func WithConcurrency(n int) Option {
	return func(g *Ingester) {
		if n > 1 {
			g.concurrency = n
		}
	}
}

// New creates an Ingester.
func New(fetcher Fetcher, st store.Store, options ...Option) *Ingester {
	g := &Ingester{
		fetcher:     fetcher,
		store:       st,
		concurrency: 1,
	}
	for _, option := range options {
		option(g)
	}
	return g
}

// Intraday fetches and persists the current day's prices for one symbol.
func (g *Ingester) Intraday(ctx context.Context, symbol string) ([]model.PriceObservation, error) {
	observations, usage, err := g.fetcher.IntradayPrices(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("fetch intraday prices for %s: %w", symbol, err)
	}
	logUsage(symbol, usage)
	if err := g.store.UpsertPrices(ctx, symbol, observations); err != nil {
		return nil, fmt.Errorf("store intraday prices for %s: %w", symbol, err)
	}
	return observations, nil
}

// Historical fetches and persists one past day's prices for one symbol.
// The date must already be wire-formatted (YYYYMMDD).
func (g *Ingester) Historical(ctx context.Context, symbol, date string) ([]model.PriceObservation, error) {
	observations, usage, err := g.fetcher.HistoricalPrices(ctx, symbol, date)
	if err != nil {
		return nil, fmt.Errorf("fetch historical prices for %s on %s: %w", symbol, date, err)
	}
	logUsage(symbol, usage)
	if err := g.store.UpsertPrices(ctx, symbol, observations); err != nil {
		return nil, fmt.Errorf("store historical prices for %s on %s: %w", symbol, date, err)
	}
	return observations, nil
}

// HistoricalBatch fetches and persists historical prices for every symbol on
// every calendar day between from and to (both "2006-01-02", inclusive).
//
// The range is validated before any network or storage activity: from must be
// strictly before to. Days advance one at a time with no calendar awareness;
// the upstream returns empty data for non-trading days and that is accepted
// as-is. Symbols are processed in caller order, duplicates included. The
// result is ordered day-major, symbol-minor, one inner slice per (day,
// symbol) cycle.
//
// The first error aborts the whole batch with no partial result. Rows already
// written stay written; the idempotent upsert makes a restart from scratch
// safe.
func (g *Ingester) HistoricalBatch(ctx context.Context, symbols []string, from, to string) ([][]model.PriceObservation, error) {
	fromDay, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("parse from date %q: %w", from, err)
	}
	toDay, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("parse to date %q: %w", to, err)
	}
	if !fromDay.Before(toDay) {
		return nil, fmt.Errorf("%w: %s is not before %s", ErrInvalidRange, from, to)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols given")
	}

	if g.concurrency > 1 {
		return g.historicalBatchConcurrent(ctx, symbols, fromDay, toDay)
	}

	var results [][]model.PriceObservation
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		for _, symbol := range symbols {
			observations, err := g.Historical(ctx, symbol, day.Format(wireDateLayout))
			if err != nil {
				return nil, err
			}
			results = append(results, observations)
		}
	}
	return results, nil
}

// historicalBatchConcurrent runs the same batch with a bounded number of
// parallel fetch/persist cycles. Each cycle writes into its own result slot,
// so the day-major, symbol-minor ordering of the sequential path is
// preserved. The per-(time, ticker) upsert keeps concurrent writers safe.
func (g *Ingester) historicalBatchConcurrent(ctx context.Context, symbols []string, fromDay, toDay time.Time) ([][]model.PriceObservation, error) {
	days := int(toDay.Sub(fromDay).Hours()/24) + 1
	results := make([][]model.PriceObservation, days*len(symbols))

	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.concurrency)

	slot := 0
	for day := fromDay; !day.After(toDay); day = day.AddDate(0, 0, 1) {
		for _, symbol := range symbols {
			i, symbol, date := slot, symbol, day.Format(wireDateLayout)
			grp.Go(func() error {
				observations, err := g.Historical(ctx, symbol, date)
				if err != nil {
					return err
				}
				results[i] = observations
				return nil
			})
			slot++
		}
	}

	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func logUsage(symbol string, usage iexcloud.UsageReport) {
	log.Printf("[INFO] fetched %s (messages used: %d, credits used: %d, premium messages: %d, premium credits: %d)",
		symbol, usage.MessagesUsed, usage.CreditsUsed, usage.PremiumMessagesUsed, usage.PremiumCreditsUsed)
}
