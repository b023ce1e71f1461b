// Package normalizer adapts heterogeneous per-program decoded instruction
// variants into the single trade.Event shape, per spec.md §4.1. Each
// Normalizer is a pure function: no I/O, no shared state, output fully
// determined by input.
package normalizer

import (
	"log"

	"solflow/source"
	"solflow/trade"
)

// Normalizer converts one decoded instruction variant into zero or one
// trade.Event.
type Normalizer interface {
	Normalize(meta source.TransactionMetadata, decoded source.DecodedVariant) (*trade.Event, bool)
}

// Registry dispatches by the decoded variant's program name, mirroring the
// register-by-key/lookup-by-key shape used elsewhere in this codebase for
// routing named handlers.
type Registry struct {
	byProgram map[string]Normalizer
}

func NewRegistry() *Registry {
	return &Registry{byProgram: make(map[string]Normalizer)}
}

// Register associates a program tag with the Normalizer responsible for
// its instruction family.
func (r *Registry) Register(program string, n Normalizer) {
	r.byProgram[program] = n
}

// Normalize looks up the normalizer for the tuple's program and invokes
// it. Returns (nil, false) if no normalizer is registered for the
// program, or if the registered normalizer drops the instruction.
func (r *Registry) Normalize(meta source.TransactionMetadata, decoded source.DecodedVariant) (*trade.Event, bool) {
	n, ok := r.byProgram[decoded.ProgramName()]
	if !ok {
		return nil, false
	}
	return n.Normalize(meta, decoded)
}

const lamportsPerSol = 1_000_000_000.0

// DirectNormalizer handles the direct Buy/Sell family: the declared bound
// amount IS the realized sol_amount.
type DirectNormalizer struct{}

func (DirectNormalizer) Normalize(meta source.TransactionMetadata, decoded source.DecodedVariant) (*trade.Event, bool) {
	v, ok := decoded.(*DirectSwap)
	if !ok {
		return nil, false
	}
	dir := trade.Sell
	if v.IsBuy {
		dir = trade.Buy
	}
	ts := int64(0)
	if meta.BlockTime != nil {
		ts = *meta.BlockTime
	}
	return &trade.Event{
		Timestamp:     ts,
		Mint:          v.Mint,
		Direction:     dir,
		SolAmount:     float64(v.AmountLamports) / lamportsPerSol,
		TokenAmount:   v.TokenAmount,
		TokenDecimals: v.TokenDecimals,
		UserAccount:   v.UserAccount,
		SourceProgram: v.Program,
		IsBot:         false,
		IsDCA:         false,
		TxSignature:   meta.Signature,
	}, true
}

// SwapDeltaNormalizer handles the pool-AMM family: the realized amount is
// derived from the transaction's pre/post base-currency balances for the
// user's account index, correcting for the transaction fee when the user
// is the fee payer (index 0).
type SwapDeltaNormalizer struct{}

func (SwapDeltaNormalizer) Normalize(meta source.TransactionMetadata, decoded source.DecodedVariant) (*trade.Event, bool) {
	v, ok := decoded.(*AMMSwap)
	if !ok {
		return nil, false
	}

	solAmount := float64(v.DeclaredAmountLamports) / lamportsPerSol

	idx := indexOf(meta.StaticAccountKeys, v.UserAccount)
	if idx < 0 {
		log.Printf("⚠️  swap normalizer: user account %s not found in static account keys, falling back to declared bound", v.UserAccount)
	} else if idx < len(meta.PreBalances) && idx < len(meta.PostBalances) {
		pre := int64(meta.PreBalances[idx])
		post := int64(meta.PostBalances[idx])
		delta := post - pre
		if idx == 0 {
			delta += int64(meta.Fee)
		}
		if delta < 0 {
			delta = -delta
		}
		solAmount = float64(delta) / lamportsPerSol
	}

	dir := trade.Sell
	if v.IsBuy {
		dir = trade.Buy
	}
	ts := int64(0)
	if meta.BlockTime != nil {
		ts = *meta.BlockTime
	}
	return &trade.Event{
		Timestamp:     ts,
		Mint:          v.Mint,
		Direction:     dir,
		SolAmount:     solAmount,
		TokenAmount:   v.TokenAmount,
		TokenDecimals: v.TokenDecimals,
		UserAccount:   v.UserAccount,
		SourceProgram: v.Program,
		IsBot:         false,
		IsDCA:         false,
		TxSignature:   meta.Signature,
	}, true
}

func indexOf(keys source.AccountKeys, key string) int {
	for i, k := range keys {
		if k == key {
			return i
		}
	}
	return -1
}

// DCANormalizer handles the DCA-program fill family: direction is
// inferred from which side of the swap matches the base-currency mint.
type DCANormalizer struct{}

func (DCANormalizer) Normalize(meta source.TransactionMetadata, decoded source.DecodedVariant) (*trade.Event, bool) {
	v, ok := decoded.(*DCAFill)
	if !ok {
		return nil, false
	}

	var dir trade.Direction
	var mint string
	var amountBase uint64

	switch {
	case v.InputMint == trade.BaseCurrencyMint:
		dir = trade.Buy
		mint = v.OutputMint
		amountBase = v.InAmountBase
	case v.OutputMint == trade.BaseCurrencyMint:
		dir = trade.Sell
		mint = v.InputMint
		amountBase = v.OutAmountBase
	default:
		return nil, false
	}

	ts := int64(0)
	if meta.BlockTime != nil {
		ts = *meta.BlockTime
	}
	return &trade.Event{
		Timestamp:     ts,
		Mint:          mint,
		Direction:     dir,
		SolAmount:     float64(amountBase) / lamportsPerSol,
		TokenAmount:   v.TokenAmount,
		TokenDecimals: v.TokenDecimals,
		UserAccount:   v.UserAccount,
		SourceProgram: v.Program,
		IsBot:         false,
		IsDCA:         true,
		TxSignature:   meta.Signature,
	}, true
}

// NewDefaultRegistry wires the three normalizer families to the program
// tags a real deployment would see: Pumpfun/Moonshot/BonkSwap on the
// direct family, PumpSwap on the balance-delta family, JupiterDCA on the
// DCA family.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	direct := DirectNormalizer{}
	r.Register("Pumpfun", direct)
	r.Register("Moonshot", direct)
	r.Register("BonkSwap", direct)
	r.Register("PumpSwap", SwapDeltaNormalizer{})
	r.Register(trade.DCAProgram, DCANormalizer{})
	return r
}
