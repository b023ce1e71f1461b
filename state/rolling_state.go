// Package state implements the per-token rolling window statistics
// described in spec.md §4.3, directly grounded on the source project's
// TokenRollingState (state.rs): six nested trade windows, online bot
// classification, distinct-wallet tracking, and DCA-origin tracking.
//
// A TokenRollingState is owned exclusively by the caller holding its
// per-mint lock (see package dispatcher); it performs no internal
// synchronization of its own.
package state

import (
	"log"

	"solflow/trade"
)

// Windows is the fixed set of trailing durations, in seconds, every
// rolling sequence is kept for.
var Windows = [6]int64{60, 300, 900, 3600, 7200, 14400}

type walletActivity struct {
	count       int
	lastTradeTs int64
}

// TokenRollingState is the live, in-memory aggregate for one mint.
type TokenRollingState struct {
	Mint       string
	LastSeenTs int64

	trades60    []trade.Event
	trades300   []trade.Event
	trades900   []trade.Event
	trades3600  []trade.Event
	trades7200  []trade.Event
	trades14400 []trade.Event

	uniqueWallets300s map[string]struct{}
	botWallets300s    map[string]struct{}
	walletActivity60s map[string]*walletActivity
	tradesByProgram   map[string][]trade.Event

	dca60    []int64
	dca300   []int64
	dca900   []int64
	dca3600  []int64
	dca14400 []int64
}

// New creates an empty rolling state for mint. A state is created lazily
// on first trade and lives for the process lifetime (spec.md §3 lifecycle
// summary).
func New(mint string) *TokenRollingState {
	return &TokenRollingState{
		Mint:              mint,
		uniqueWallets300s: make(map[string]struct{}),
		botWallets300s:    make(map[string]struct{}),
		walletActivity60s: make(map[string]*walletActivity),
		tradesByProgram:   make(map[string][]trade.Event),
	}
}

const botThreshold = 3

// AddTrade ingests one normalized event, per spec.md §4.3's add_trade
// algorithm: bot classification happens against wallet_activity_60s
// before the event is appended, so the append carries the correct
// (possibly newly-set) IsBot flag into every sequence.
func (s *TokenRollingState) AddTrade(event *trade.Event) {
	s.LastSeenTs = event.Timestamp

	act, ok := s.walletActivity60s[event.UserAccount]
	if !ok {
		act = &walletActivity{}
		s.walletActivity60s[event.UserAccount] = act
	}
	act.count++
	act.lastTradeTs = event.Timestamp
	if act.count >= botThreshold {
		event.IsBot = true
		s.botWallets300s[event.UserAccount] = struct{}{}
	}

	s.uniqueWallets300s[event.UserAccount] = struct{}{}

	s.tradesByProgram[event.SourceProgram] = append(s.tradesByProgram[event.SourceProgram], *event)

	if event.SourceProgram == trade.DCAProgram && event.Direction == trade.Buy {
		s.dca60 = append(s.dca60, event.Timestamp)
		s.dca300 = append(s.dca300, event.Timestamp)
		s.dca900 = append(s.dca900, event.Timestamp)
		s.dca3600 = append(s.dca3600, event.Timestamp)
		s.dca14400 = append(s.dca14400, event.Timestamp)
	}

	s.trades60 = append(s.trades60, *event)
	s.trades300 = append(s.trades300, *event)
	s.trades900 = append(s.trades900, *event)
	s.trades3600 = append(s.trades3600, *event)
	s.trades7200 = append(s.trades7200, *event)
	s.trades14400 = append(s.trades14400, *event)
}

func retainSince(trades []trade.Event, cutoff int64) []trade.Event {
	out := trades[:0]
	for _, t := range trades {
		if t.Timestamp >= cutoff {
			out = append(out, t)
		}
	}
	return out
}

func popStaleFront(ts []int64, cutoff int64) []int64 {
	i := 0
	for i < len(ts) && ts[i] < cutoff {
		i++
	}
	return ts[i:]
}

// EvictOldTrades prunes every sequence against now, per spec.md §4.3's
// evict_old_trades. Callers MUST pass monotonically non-decreasing now
// values for a given mint; out-of-order timestamps within a window are
// otherwise accepted without reordering.
func (s *TokenRollingState) EvictOldTrades(now int64) {
	cutoff60 := now - Windows[0]
	cutoff300 := now - Windows[1]
	cutoff900 := now - Windows[2]
	cutoff3600 := now - Windows[3]
	cutoff7200 := now - Windows[4]
	cutoff14400 := now - Windows[5]

	s.trades60 = retainSince(s.trades60, cutoff60)
	s.trades300 = retainSince(s.trades300, cutoff300)
	s.trades900 = retainSince(s.trades900, cutoff900)
	s.trades3600 = retainSince(s.trades3600, cutoff3600)
	s.trades7200 = retainSince(s.trades7200, cutoff7200)
	s.trades14400 = retainSince(s.trades14400, cutoff14400)

	for wallet, act := range s.walletActivity60s {
		if act.lastTradeTs < cutoff60 {
			delete(s.walletActivity60s, wallet)
		}
	}

	s.dca60 = popStaleFront(s.dca60, cutoff60)
	s.dca300 = popStaleFront(s.dca300, cutoff300)
	s.dca900 = popStaleFront(s.dca900, cutoff900)
	s.dca3600 = popStaleFront(s.dca3600, cutoff3600)
	s.dca14400 = popStaleFront(s.dca14400, cutoff14400)

	for program, trades := range s.tradesByProgram {
		s.tradesByProgram[program] = retainSince(trades, cutoff14400)
	}

	uniq := make(map[string]struct{}, len(s.trades300))
	for _, t := range s.trades300 {
		uniq[t.UserAccount] = struct{}{}
	}
	s.uniqueWallets300s = uniq

	s.botWallets300s = make(map[string]struct{})
}

func windowFlow(trades []trade.Event) (netFlow float64, buyCount, sellCount int) {
	for _, t := range trades {
		switch t.Direction {
		case trade.Buy:
			netFlow += t.SolAmount
			buyCount++
		case trade.Sell:
			netFlow -= t.SolAmount
			sellCount++
		}
	}
	return
}

// ComputeRollingMetrics takes a snapshot per spec.md §4.3's
// compute_rolling_metrics: single-pass per-window accumulation plus the
// 300s-scoped bot and DCA aggregates.
func (s *TokenRollingState) ComputeRollingMetrics() trade.Metrics {
	netFlow60, buyCount60, sellCount60 := windowFlow(s.trades60)
	netFlow300, buyCount300, sellCount300 := windowFlow(s.trades300)
	netFlow900, buyCount900, sellCount900 := windowFlow(s.trades900)
	netFlow3600, _, _ := windowFlow(s.trades3600)
	netFlow7200, _, _ := windowFlow(s.trades7200)
	netFlow14400, _, _ := windowFlow(s.trades14400)

	var botTradesCount300 int
	var botFlow300 float64
	var dcaFlow300 float64
	dcaWallets300 := make(map[string]struct{})

	for _, t := range s.trades300 {
		if t.IsBot {
			botTradesCount300++
			if t.Direction == trade.Buy {
				botFlow300 += t.SolAmount
			} else if t.Direction == trade.Sell {
				botFlow300 -= t.SolAmount
			}
		}
		if t.IsDCA {
			if t.Direction == trade.Buy {
				dcaFlow300 += t.SolAmount
			} else if t.Direction == trade.Sell {
				dcaFlow300 -= t.SolAmount
			}
			dcaWallets300[t.UserAccount] = struct{}{}
		}
	}

	var dcaRatio300 float64
	if netFlow300 != 0 {
		abs := netFlow300
		if abs < 0 {
			abs = -abs
		}
		if abs > 0 {
			dcaRatio300 = dcaFlow300 / netFlow300
		}
	}

	m := trade.Metrics{
		Mint:                 s.Mint,
		UpdatedAt:            s.LastSeenTs,
		NetFlow60s:           netFlow60,
		NetFlow300s:          netFlow300,
		NetFlow900s:          netFlow900,
		NetFlow3600s:         netFlow3600,
		NetFlow7200s:         netFlow7200,
		NetFlow14400s:        netFlow14400,
		BuyCount60s:          buyCount60,
		SellCount60s:         sellCount60,
		BuyCount300s:         buyCount300,
		SellCount300s:        sellCount300,
		BuyCount900s:         buyCount900,
		SellCount900s:        sellCount900,
		UniqueWallets300s:    len(s.uniqueWallets300s),
		BotWalletsCount300s:  len(s.botWallets300s),
		BotTradesCount300s:   botTradesCount300,
		BotFlow300s:          botFlow300,
		DCAFlow300s:          dcaFlow300,
		DCAUniqueWallets300s: len(dcaWallets300),
		DCARatio300s:         dcaRatio300,
		DCABuys60s:           len(s.dca60),
		DCABuys300s:          len(s.dca300),
		DCABuys900s:          len(s.dca900),
		DCABuys3600s:         len(s.dca3600),
		DCABuys14400s:        len(s.dca14400),
	}
	return m
}

// VerifyMetrics runs the optional self-verification checks from spec.md
// §4.3: failures are logged as warnings and never alter behavior.
func (s *TokenRollingState) VerifyMetrics(m trade.Metrics) {
	if len(s.trades60) > 0 {
		first := s.trades60[0].Timestamp
		last := s.trades60[len(s.trades60)-1].Timestamp
		if first > last {
			log.Printf("⚠️  verify_metrics(%s): 60s sequence out of order (first=%d last=%d)", s.Mint, first, last)
		}
	}

	if m.UniqueWallets300s > m.BuyCount300s+m.SellCount300s {
		log.Printf("⚠️  verify_metrics(%s): unique_wallets_300s (%d) exceeds buy+sell count (%d)",
			s.Mint, m.UniqueWallets300s, m.BuyCount300s+m.SellCount300s)
	}

	dcaCount300 := 0
	for _, t := range s.trades300 {
		if t.IsDCA {
			dcaCount300++
		}
	}
	if dcaCount300 != m.DCABuys300s {
		log.Printf("⚠️  verify_metrics(%s): counted DCA trades in 300s sequence (%d) != dca_buys_300s (%d)",
			s.Mint, dcaCount300, m.DCABuys300s)
	}

	if m.BotTradesCount300s > m.BuyCount300s+m.SellCount300s {
		log.Printf("⚠️  verify_metrics(%s): bot_trades_count_300s (%d) exceeds buy+sell count (%d)",
			s.Mint, m.BotTradesCount300s, m.BuyCount300s+m.SellCount300s)
	}
}

// RecentTrades300s returns the current 300s window's trades, the input
// the signal evaluator runs over.
func (s *TokenRollingState) RecentTrades300s() []trade.Event {
	return s.trades300
}
