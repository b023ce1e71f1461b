package writer

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"solflow/trade"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := sql.Open("sqlite3", filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	schema := []string{
		`CREATE TABLE token_rolling_metrics (
			mint TEXT PRIMARY KEY, updated_at INTEGER NOT NULL,
			net_flow_60s REAL NOT NULL DEFAULT 0, net_flow_300s REAL NOT NULL DEFAULT 0,
			net_flow_900s REAL NOT NULL DEFAULT 0, net_flow_3600s REAL NOT NULL DEFAULT 0,
			net_flow_7200s REAL NOT NULL DEFAULT 0, net_flow_14400s REAL NOT NULL DEFAULT 0,
			unique_wallets_300s INTEGER NOT NULL DEFAULT 0, bot_wallets_300s INTEGER NOT NULL DEFAULT 0,
			bot_trades_300s INTEGER NOT NULL DEFAULT 0, bot_flow_300s REAL NOT NULL DEFAULT 0,
			dca_flow_300s REAL NOT NULL DEFAULT 0, dca_unique_wallets_300s INTEGER NOT NULL DEFAULT 0,
			dca_ratio_300s REAL NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE token_trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT, mint TEXT NOT NULL, timestamp INTEGER NOT NULL,
			wallet TEXT NOT NULL, side TEXT NOT NULL, sol_amount REAL NOT NULL,
			is_bot INTEGER NOT NULL DEFAULT 0, is_dca INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE token_signals (
			id INTEGER PRIMARY KEY AUTOINCREMENT, mint TEXT NOT NULL, signal_type TEXT NOT NULL,
			strength REAL NOT NULL, window TEXT NOT NULL, timestamp INTEGER NOT NULL, metadata TEXT NOT NULL
		)`,
	}
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("failed to create schema: %v", err)
		}
	}
	return db
}

// S6: 250 MetricsUpsert requests for 250 distinct mints, submitted
// rapidly, all land in token_rolling_metrics within a second.
func TestWriterBatchesUpserts(t *testing.T) {
	db := openTestDB(t)
	w := New(db, Config{QueueCapacity: 1000, BatchSize: 100, FlushInterval: 50 * time.Millisecond})
	w.Start()

	for i := 0; i < 250; i++ {
		w.Queue() <- trade.MetricsUpsert(trade.Metrics{Mint: fmt.Sprintf("mint-%d", i), UpdatedAt: int64(i)})
	}

	deadline := time.Now().Add(1 * time.Second)
	var count int
	for time.Now().Before(deadline) {
		row := db.QueryRow("SELECT COUNT(*) FROM token_rolling_metrics")
		if err := row.Scan(&count); err != nil {
			t.Fatalf("count query failed: %v", err)
		}
		if count == 250 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	w.Close()

	if count != 250 {
		t.Errorf("expected 250 rows within 1s, got %d", count)
	}
}

// A failing request within a batch (e.g. a signal whose metadata can't be
// marshalled) is logged and skipped; the rest of the batch still commits.
func TestWriterContinuesBatchAfterOneFailure(t *testing.T) {
	db := openTestDB(t)
	w := New(db, Config{QueueCapacity: 10, BatchSize: 10, FlushInterval: time.Hour})

	buf := []trade.WriteRequest{
		trade.MetricsUpsert(trade.Metrics{Mint: "mintA"}),
		trade.SignalAppend(trade.Signal{Mint: "mintA", Metadata: map[string]interface{}{"bad": make(chan int)}}),
		trade.TradeAppend(trade.Event{Mint: "mintA", Direction: trade.Buy, SolAmount: 1.0, UserAccount: "walletA"}),
	}
	w.flush(buf)

	var metricsCount, tradeCount int
	db.QueryRow("SELECT COUNT(*) FROM token_rolling_metrics").Scan(&metricsCount)
	db.QueryRow("SELECT COUNT(*) FROM token_trades").Scan(&tradeCount)

	if metricsCount != 1 {
		t.Errorf("expected 1 metrics row, got %d", metricsCount)
	}
	if tradeCount != 1 {
		t.Errorf("expected 1 trade row, got %d", tradeCount)
	}
}

// Re-flushing the same mint upserts rather than duplicating the metrics
// row, per the ON CONFLICT(mint) DO UPDATE clause.
func TestWriterUpsertReplacesPriorMetrics(t *testing.T) {
	db := openTestDB(t)
	w := New(db, Config{QueueCapacity: 10, BatchSize: 10, FlushInterval: time.Hour})

	w.flush([]trade.WriteRequest{trade.MetricsUpsert(trade.Metrics{Mint: "mintA", NetFlow60s: 1})})
	w.flush([]trade.WriteRequest{trade.MetricsUpsert(trade.Metrics{Mint: "mintA", NetFlow60s: 99})})

	var count int
	var netFlow float64
	db.QueryRow("SELECT COUNT(*) FROM token_rolling_metrics").Scan(&count)
	db.QueryRow("SELECT net_flow_60s FROM token_rolling_metrics WHERE mint = ?", "mintA").Scan(&netFlow)

	if count != 1 {
		t.Errorf("expected exactly 1 row for mintA, got %d", count)
	}
	if netFlow != 99 {
		t.Errorf("expected upsert to replace net_flow_60s with 99, got %f", netFlow)
	}
}
