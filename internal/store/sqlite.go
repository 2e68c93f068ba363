package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/elbart/pecunia/internal/model"
)

// SQLiteStore persists price observations to a SQLite database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteStore opens (or creates) the SQLite database and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrent read performance (inspection tools
	// read while an ingestion run writes).
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite store opened: %s", dbPath)
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS intraday_prices (
			time             INTEGER NOT NULL,
			ticker           TEXT    NOT NULL,
			high             REAL,
			low              REAL,
			open             REAL,
			close            REAL,
			average          REAL,
			volume           REAL,
			notional         REAL,
			number_of_trades INTEGER NOT NULL,
			change_over_time REAL,
			UNIQUE (time, ticker)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_intraday_ticker_time ON intraday_prices(ticker, time)`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// UpsertPrices writes one row per observation. The UNIQUE (time, ticker)
// constraint together with ON CONFLICT DO NOTHING makes the write idempotent:
// an already-ingested minute is skipped without an error. Any other failure
// aborts the remaining writes for this call.
func (s *SQLiteStore) UpsertPrices(ctx context.Context, symbol string, observations []model.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, obs := range observations {
		t, err := obs.Timestamp()
		if err != nil {
			return fmt.Errorf("observation %s %s for %s: %w", obs.Date, obs.Minute, symbol, err)
		}

		_, err = s.db.ExecContext(ctx, `INSERT INTO intraday_prices
			(time, ticker, high, low, open, close, average, volume,
			 notional, number_of_trades, change_over_time)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (time, ticker) DO NOTHING`,
			t.Unix(), symbol,
			obs.High, obs.Low, obs.Open, obs.Close, obs.Average,
			narrowVolume(obs.Volume), obs.Notional,
			narrowTradeCount(obs.NumberOfTrades), obs.ChangeOverTime,
		)
		if err != nil {
			return fmt.Errorf("insert observation %s %s for %s: %w", obs.Date, obs.Minute, symbol, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	log.Println("[INFO] closing sqlite store")
	return s.db.Close()
}

// The historical schema uses narrower numeric types than the wire format.
// Real market data stays well inside their ranges; the conversions below
// clamp instead of failing so an outlier can never corrupt a run silently.

// narrowVolume converts a wire volume to the float32 column width. The
// conversion loses precision above 2^24 but cannot overflow.
func narrowVolume(v *uint64) *float32 {
	if v == nil {
		return nil
	}
	f := float32(*v)
	return &f
}

// narrowTradeCount converts an unsigned wire trade count to the signed
// 32-bit column type, clamping at the maximum.
func narrowTradeCount(n uint64) int32 {
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int32(n)
}
