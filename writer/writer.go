// Package writer implements the asynchronous write pipeline of spec.md
// §4.5: a bounded channel feeding a single long-lived writer task that
// batches heterogeneous WriteRequest values into one transaction per
// flush boundary (size or interval trigger). Directly grounded on
// handlers/running_trade.go's batchSaverWorker (ticker + size-check +
// done-channel final flush), generalized to the WriteRequest sum type.
package writer

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	"solflow/trade"
)

// Config tunes the batching thresholds; zero values fall back to the
// spec's defaults (capacity 1000, batch size 100, interval 100ms).
type Config struct {
	QueueCapacity int
	BatchSize     int
	FlushInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.QueueCapacity <= 0 {
		c.QueueCapacity = 1000
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = 100 * time.Millisecond
	}
	return c
}

// Writer owns one connection to the store and the single consumer
// goroutine draining the write queue.
type Writer struct {
	db     *sql.DB
	cfg    Config
	queue  chan trade.WriteRequest
	done   chan struct{}
	closed chan struct{}
}

// New creates a Writer. Call Start to begin the consumer goroutine and
// Queue() to obtain the producer-facing channel.
func New(db *sql.DB, cfg Config) *Writer {
	cfg = cfg.withDefaults()
	return &Writer{
		db:     db,
		cfg:    cfg,
		queue:  make(chan trade.WriteRequest, cfg.QueueCapacity),
		done:   make(chan struct{}),
		closed: make(chan struct{}),
	}
}

// Queue returns the producer-facing channel. Sends should be non-blocking
// (select with default) so a full queue is dropped with a warning rather
// than stalling the dispatcher, per spec.md §4.5/§7.
func (w *Writer) Queue() chan<- trade.WriteRequest {
	return w.queue
}

// Start launches the single writer goroutine.
func (w *Writer) Start() {
	go w.run()
}

// Close stops accepting new flush triggers and blocks until the final
// buffer has been committed, per spec.md §5's cooperative shutdown.
func (w *Writer) Close() {
	close(w.done)
	<-w.closed
}

func (w *Writer) run() {
	defer close(w.closed)

	buf := make([]trade.WriteRequest, 0, w.cfg.BatchSize)
	ticker := time.NewTicker(w.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case req := <-w.queue:
			buf = append(buf, req)
			if len(buf) >= w.cfg.BatchSize {
				buf = w.flush(buf)
			}

		case <-ticker.C:
			if len(buf) > 0 {
				buf = w.flush(buf)
			}

		case <-w.done:
			// Drain whatever is already queued before the final flush.
			for {
				select {
				case req := <-w.queue:
					buf = append(buf, req)
				default:
					if len(buf) > 0 {
						w.flush(buf)
					}
					return
				}
			}
		}
	}
}

// flush opens one transaction, dispatches every buffered request, and
// commits. A per-request failure is logged and the transaction continues;
// a commit failure discards the buffer rather than retrying, per §7.
func (w *Writer) flush(buf []trade.WriteRequest) []trade.WriteRequest {
	tx, err := w.db.Begin()
	if err != nil {
		log.Printf("❌ writer: failed to begin transaction: %v", err)
		return buf[:0]
	}

	for _, req := range buf {
		if err := applyRequest(tx, req); err != nil {
			log.Printf("⚠️  writer: request failed, continuing batch: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("❌ writer: commit failed, discarding batch of %d: %v", len(buf), err)
	}

	return buf[:0]
}

func applyRequest(tx *sql.Tx, req trade.WriteRequest) error {
	switch req.Kind {
	case trade.WriteMetricsUpsert:
		return upsertMetrics(tx, req.Metrics)
	case trade.WriteTradeAppend:
		return appendTrade(tx, req.Trade)
	case trade.WriteSignalAppend:
		return appendSignal(tx, req.Signal)
	}
	return nil
}

const upsertMetricsSQL = `
INSERT INTO token_rolling_metrics (
	mint, updated_at,
	net_flow_60s, net_flow_300s, net_flow_900s, net_flow_3600s, net_flow_7200s, net_flow_14400s,
	unique_wallets_300s, bot_wallets_300s, bot_trades_300s, bot_flow_300s,
	dca_flow_300s, dca_unique_wallets_300s, dca_ratio_300s
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(mint) DO UPDATE SET
	updated_at = excluded.updated_at,
	net_flow_60s = excluded.net_flow_60s,
	net_flow_300s = excluded.net_flow_300s,
	net_flow_900s = excluded.net_flow_900s,
	net_flow_3600s = excluded.net_flow_3600s,
	net_flow_7200s = excluded.net_flow_7200s,
	net_flow_14400s = excluded.net_flow_14400s,
	unique_wallets_300s = excluded.unique_wallets_300s,
	bot_wallets_300s = excluded.bot_wallets_300s,
	bot_trades_300s = excluded.bot_trades_300s,
	bot_flow_300s = excluded.bot_flow_300s,
	dca_flow_300s = excluded.dca_flow_300s,
	dca_unique_wallets_300s = excluded.dca_unique_wallets_300s,
	dca_ratio_300s = excluded.dca_ratio_300s
`

func upsertMetrics(tx *sql.Tx, m trade.Metrics) error {
	_, err := tx.Exec(upsertMetricsSQL,
		m.Mint, m.UpdatedAt,
		m.NetFlow60s, m.NetFlow300s, m.NetFlow900s, m.NetFlow3600s, m.NetFlow7200s, m.NetFlow14400s,
		m.UniqueWallets300s, m.BotWalletsCount300s, m.BotTradesCount300s, m.BotFlow300s,
		m.DCAFlow300s, m.DCAUniqueWallets300s, m.DCARatio300s,
	)
	return err
}

const appendTradeSQL = `
INSERT INTO token_trades (mint, timestamp, wallet, side, sol_amount, is_bot, is_dca)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

func appendTrade(tx *sql.Tx, e trade.Event) error {
	isBot := 0
	if e.IsBot {
		isBot = 1
	}
	isDCA := 0
	if e.IsDCA {
		isDCA = 1
	}
	_, err := tx.Exec(appendTradeSQL, e.Mint, e.Timestamp, e.UserAccount, string(e.Direction), e.SolAmount, isBot, isDCA)
	return err
}

const appendSignalSQL = `
INSERT INTO token_signals (mint, signal_type, strength, window, timestamp, metadata)
VALUES (?, ?, ?, ?, ?, ?)
`

func appendSignal(tx *sql.Tx, s trade.Signal) error {
	metadataJSON, err := json.Marshal(s.Metadata)
	if err != nil {
		return err
	}
	_, err = tx.Exec(appendSignalSQL, s.Mint, string(s.Type), s.Strength, s.Window, s.Timestamp, string(metadataJSON))
	return err
}
