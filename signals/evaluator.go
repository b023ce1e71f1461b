// Package signals implements the five bounded-strength pattern detectors
// of spec.md §4.4, directly grounded on the source project's signals.rs
// (evaluate_breakout, evaluate_reaccumulation, evaluate_focused_buyers,
// evaluate_persistence, evaluate_flow_reversal). Every detector is a pure
// function of a Metrics snapshot plus the 300s window's recent trades.
package signals

import (
	"sort"

	"solflow/trade"
)

func max1(x float64) float64 {
	if x > 1 {
		return x
	}
	return 1
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Evaluate runs every detector over the snapshot and returns the signals
// that triggered.
func Evaluate(mint string, m trade.Metrics, recentTrades []trade.Event, now int64) []trade.Signal {
	var out []trade.Signal
	if s, ok := evaluateBreakout(mint, m, now); ok {
		out = append(out, s)
	}
	if s, ok := evaluateReaccumulation(mint, m, now); ok {
		out = append(out, s)
	}
	if s, ok := evaluateFocusedBuyers(mint, m, recentTrades, now); ok {
		out = append(out, s)
	}
	if s, ok := evaluatePersistence(mint, m, now); ok {
		out = append(out, s)
	}
	if s, ok := evaluateFlowReversal(mint, m, now); ok {
		out = append(out, s)
	}
	return out
}

func botRatio(m trade.Metrics) float64 {
	b := m.BuyCount300s + m.SellCount300s
	if b == 0 {
		return 0
	}
	return float64(m.BotTradesCount300s) / float64(b)
}

func evaluateBreakout(mint string, m trade.Metrics, now int64) (trade.Signal, bool) {
	br := botRatio(m)
	if !(m.NetFlow300s > m.NetFlow900s &&
		m.NetFlow300s > 0 &&
		m.NetFlow60s > m.NetFlow300s &&
		m.UniqueWallets300s >= 5 &&
		br <= 0.3) {
		return trade.Signal{}, false
	}

	strength := 0.3*minF(1, (m.NetFlow300s-m.NetFlow900s)/max1(m.NetFlow900s)) +
		0.3*minF(1, m.NetFlow60s/max1(m.NetFlow300s)) +
		0.2*minF(1, float64(m.UniqueWallets300s)/20) +
		0.2*maxF(0, 1-br)

	meta := map[string]interface{}{
		"net_flow_60s":       m.NetFlow60s,
		"net_flow_300s":      m.NetFlow300s,
		"net_flow_900s":      m.NetFlow900s,
		"unique_wallets_300s": m.UniqueWallets300s,
		"bot_ratio":          br,
	}
	return trade.NewSignal(mint, trade.Breakout, clamp01(strength), "300s", now, meta), true
}

func evaluateReaccumulation(mint string, m trade.Metrics, now int64) (trade.Signal, bool) {
	if !(m.DCAFlow300s > 0 &&
		m.DCAUniqueWallets300s >= 2 &&
		m.NetFlow300s > 0 &&
		m.NetFlow300s > m.NetFlow900s) {
		return trade.Signal{}, false
	}

	absNetFlow900 := m.NetFlow900s
	if absNetFlow900 < 0 {
		absNetFlow900 = -absNetFlow900
	}

	strength := 0.3*minF(1, m.DCAFlow300s/10) +
		0.2*minF(1, float64(m.DCAUniqueWallets300s)/5) +
		0.3*minF(1, m.NetFlow300s/50) +
		0.2*minF(1, (m.NetFlow300s-m.NetFlow900s)/max1(absNetFlow900))

	meta := map[string]interface{}{
		"dca_flow_300s":          m.DCAFlow300s,
		"dca_unique_wallets_300s": m.DCAUniqueWallets300s,
		"net_flow_300s":          m.NetFlow300s,
		"net_flow_900s":          m.NetFlow900s,
	}
	return trade.NewSignal(mint, trade.Reaccumulation, clamp01(strength), "300s", now, meta), true
}

func evaluateFocusedBuyers(mint string, m trade.Metrics, recentTrades []trade.Event, now int64) (trade.Signal, bool) {
	if m.NetFlow300s <= 0 || len(recentTrades) == 0 {
		return trade.Signal{}, false
	}

	inflow := make(map[string]float64)
	for _, t := range recentTrades {
		if t.Direction == trade.Buy {
			inflow[t.UserAccount] += t.SolAmount
		}
	}
	if len(inflow) == 0 {
		return trade.Signal{}, false
	}

	wallets := make([]string, 0, len(inflow))
	var total float64
	for w, amt := range inflow {
		wallets = append(wallets, w)
		total += amt
	}
	if total < 1 {
		return trade.Signal{}, false
	}

	sort.Slice(wallets, func(i, j int) bool { return inflow[wallets[i]] > inflow[wallets[j]] })

	target := 0.7 * total
	var cum float64
	k := 0
	for _, w := range wallets {
		cum += inflow[w]
		k++
		if cum >= target {
			break
		}
	}

	f := float64(k) / float64(len(wallets))
	if f > 0.35 {
		return trade.Signal{}, false
	}

	strength := 0.6*clamp01(1-f/0.35) + 0.4*minF(1, m.NetFlow300s/50)

	meta := map[string]interface{}{
		"wallet_count":   len(wallets),
		"concentration_k": k,
		"f":              f,
		"total_inflow":   total,
		"net_flow_300s":  m.NetFlow300s,
	}
	return trade.NewSignal(mint, trade.FocusedBuyers, clamp01(strength), "300s", now, meta), true
}

func evaluatePersistence(mint string, m trade.Metrics, now int64) (trade.Signal, bool) {
	br := botRatio(m)
	if !(m.NetFlow60s > 0 &&
		m.NetFlow300s > 0 &&
		m.NetFlow900s > 0 &&
		m.UniqueWallets300s >= 5 &&
		br <= 0.4) {
		return trade.Signal{}, false
	}

	diff := m.NetFlow60s - m.NetFlow300s
	if diff < 0 {
		diff = -diff
	}

	strength := 0.3*(1-minF(1, diff/max1(m.NetFlow300s))) +
		0.3*minF(1, m.NetFlow900s/100) +
		0.2*minF(1, float64(m.UniqueWallets300s)/20) +
		0.2*maxF(0, 1-br)

	meta := map[string]interface{}{
		"net_flow_60s":       m.NetFlow60s,
		"net_flow_300s":      m.NetFlow300s,
		"net_flow_900s":      m.NetFlow900s,
		"unique_wallets_300s": m.UniqueWallets300s,
		"bot_ratio":          br,
	}
	return trade.NewSignal(mint, trade.Persistence, clamp01(strength), "900s", now, meta), true
}

func evaluateFlowReversal(mint string, m trade.Metrics, now int64) (trade.Signal, bool) {
	total60 := m.BuyCount60s + m.SellCount60s
	var wpt float64
	if total60 > 0 {
		wpt = float64(m.UniqueWallets300s) / float64(total60)
	}

	if !(m.NetFlow60s < 0 && m.NetFlow300s > 0 && wpt < 0.5) {
		return trade.Signal{}, false
	}

	strength := 0.6*minF(1, (m.NetFlow300s-m.NetFlow60s)/max1(m.NetFlow300s)) +
		0.4*minF(1, m.NetFlow300s/50)

	meta := map[string]interface{}{
		"net_flow_60s":  m.NetFlow60s,
		"net_flow_300s": m.NetFlow300s,
		"wallets_per_trade": wpt,
		"total_60s":     total60,
	}
	return trade.NewSignal(mint, trade.FlowReversal, clamp01(strength), "60s", now, meta), true
}
