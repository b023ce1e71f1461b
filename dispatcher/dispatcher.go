// Package dispatcher owns the set of per-mint rolling states and the
// seen-signature dedup set, per spec.md §4.2 and §5. It is the only place
// in the module where a TokenRollingState's per-mint lock is acquired.
package dispatcher

import (
	"hash/fnv"
	"log"
	"sync"

	"solflow/normalizer"
	"solflow/signals"
	"solflow/source"
	"solflow/state"
	"solflow/trade"
)

const shardCount = 16

type shard struct {
	mu     sync.Mutex
	states map[string]*state.TokenRollingState
}

// Dispatcher deduplicates by transaction signature and serializes
// operations on a given mint's rolling state behind a sharded lock map,
// the Go equivalent of the source pattern's concurrent-map entry API
// (spec.md §9).
type Dispatcher struct {
	shards      [shardCount]*shard
	signatures  SignatureSet
	registry    *normalizer.Registry
	sink        chan<- trade.WriteRequest
	metricsHook func(trade.Metrics) // optional, e.g. Redis mirror
	signalHook  func(trade.Signal)  // optional, e.g. dashboard broadcast
}

// New wires a Dispatcher to its normalizer registry and write-queue sink.
// metricsHook is invoked with every computed Metrics snapshot and may be
// nil.
func New(registry *normalizer.Registry, sink chan<- trade.WriteRequest, signatures SignatureSet, metricsHook func(trade.Metrics)) *Dispatcher {
	d := &Dispatcher{
		registry:    registry,
		sink:        sink,
		signatures:  signatures,
		metricsHook: metricsHook,
	}
	for i := range d.shards {
		d.shards[i] = &shard{states: make(map[string]*state.TokenRollingState)}
	}
	return d
}

// OnSignal registers a callback invoked with every freshly evaluated
// Signal, e.g. to fan it out to the realtime broker. Optional.
func (d *Dispatcher) OnSignal(hook func(trade.Signal)) {
	d.signalHook = hook
}

func (d *Dispatcher) shardFor(mint string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(mint))
	return d.shards[h.Sum32()%shardCount]
}

// Process implements §4.2's per-instruction pipeline: dedup, normalize,
// obtain-or-create state, add_trade, evict, snapshot, enqueue.
func (d *Dispatcher) Process(tuple source.InstructionTuple) {
	meta := tuple.Metadata.TransactionMetadata
	if meta.Signature != "" {
		if !d.signatures.AddIfAbsent(meta.Signature) {
			return
		}
	}

	logGrossDelta(meta)

	event, ok := d.registry.Normalize(meta, tuple.Decoded)
	if !ok {
		return
	}
	if event.Direction == trade.Unknown {
		return
	}

	sh := d.shardFor(event.Mint)
	sh.mu.Lock()
	st, exists := sh.states[event.Mint]
	if !exists {
		st = state.New(event.Mint)
		sh.states[event.Mint] = st
	}

	st.AddTrade(event)
	st.EvictOldTrades(event.Timestamp)
	metrics := st.ComputeRollingMetrics()
	st.VerifyMetrics(metrics)
	recent := append([]trade.Event(nil), st.RecentTrades300s()...)
	sh.mu.Unlock()

	if d.metricsHook != nil {
		d.metricsHook(metrics)
	}

	d.enqueue(trade.MetricsUpsert(metrics))
	d.enqueue(trade.TradeAppend(*event))

	for _, sig := range signals.Evaluate(event.Mint, metrics, recent, event.Timestamp) {
		d.enqueue(trade.SignalAppend(sig))
		if d.signalHook != nil {
			d.signalHook(sig)
		}
	}
}

func (d *Dispatcher) enqueue(req trade.WriteRequest) {
	select {
	case d.sink <- req:
	default:
		log.Printf("⚠️  write queue full, dropping %v request for mint %s", req.Kind, mintOf(req))
	}
}

func mintOf(req trade.WriteRequest) string {
	switch req.Kind {
	case trade.WriteMetricsUpsert:
		return req.Metrics.Mint
	case trade.WriteTradeAppend:
		return req.Trade.Mint
	case trade.WriteSignalAppend:
		return req.Signal.Mint
	}
	return ""
}

// logGrossDelta logs the gross fee-payer balance-delta flow as a
// diagnostic only, before the normalizer ever runs, per spec.md §4.2 step
// 1 and processor.rs's identical log-before-extract ordering: every
// non-duplicate instruction is logged here regardless of what the
// normalizer later does with it.
func logGrossDelta(meta source.TransactionMetadata) {
	var pre, post uint64
	if len(meta.PreBalances) > 0 {
		pre = meta.PreBalances[0]
	}
	if len(meta.PostBalances) > 0 {
		post = meta.PostBalances[0]
	}
	netFlowLamports := (int64(post) - int64(pre)) + int64(meta.Fee)
	netFlowSol := float64(netFlowLamports) / 1_000_000_000.0
	abs := netFlowSol
	if abs < 0 {
		abs = -abs
	}
	if abs > 0.01 {
		log.Printf("✅ NET FLOW | Slot: %d | Sig: %s | Amount: %.4f SOL", meta.Slot, meta.Signature, netFlowSol)
	}
}
