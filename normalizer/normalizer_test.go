package normalizer

import (
	"testing"

	"solflow/source"
	"solflow/trade"
)

func blockTime(ts int64) *int64 { return &ts }

func TestDirectNormalizerUsesDeclaredAmount(t *testing.T) {
	n := DirectNormalizer{}
	meta := source.TransactionMetadata{Signature: "sig1", BlockTime: blockTime(1000)}
	decoded := &DirectSwap{
		Program: "Pumpfun", IsBuy: true, AmountLamports: 2_500_000_000,
		Mint: "mintA", UserAccount: "walletA",
	}

	event, ok := n.Normalize(meta, decoded)
	if !ok {
		t.Fatal("expected direct normalizer to produce an event")
	}
	if event.SolAmount != 2.5 {
		t.Errorf("expected sol_amount 2.5, got %f", event.SolAmount)
	}
	if event.Direction != trade.Buy {
		t.Errorf("expected Buy direction, got %s", event.Direction)
	}
	if event.IsDCA {
		t.Error("expected is_dca=false for the direct family")
	}
}

func TestDirectNormalizerRejectsWrongVariant(t *testing.T) {
	n := DirectNormalizer{}
	_, ok := n.Normalize(source.TransactionMetadata{}, &AMMSwap{Program: "PumpSwap"})
	if ok {
		t.Error("expected DirectNormalizer to reject an AMMSwap variant")
	}
}

func TestSwapDeltaNormalizerUsesBalanceDelta(t *testing.T) {
	n := SwapDeltaNormalizer{}
	meta := source.TransactionMetadata{
		Signature:         "sig1",
		BlockTime:         blockTime(1000),
		PreBalances:       []uint64{10_000_000_000, 5_000_000_000},
		PostBalances:      []uint64{9_000_000_000, 6_200_000_000},
		Fee:               5000,
		StaticAccountKeys: source.AccountKeys{"feePayer", "walletA"},
	}
	decoded := &AMMSwap{
		Program: "PumpSwap", IsBuy: true, DeclaredAmountLamports: 1_000_000_000,
		Mint: "mintA", UserAccount: "walletA",
	}

	event, ok := n.Normalize(meta, decoded)
	if !ok {
		t.Fatal("expected swap normalizer to produce an event")
	}
	// walletA is at index 1: delta = 6.2e9 - 5.0e9 = 1.2e9 lamports, no fee
	// correction since index != 0.
	if event.SolAmount != 1.2 {
		t.Errorf("expected sol_amount 1.2 from balance delta, got %f", event.SolAmount)
	}
}

func TestSwapDeltaNormalizerAppliesFeeCorrectionAtIndexZero(t *testing.T) {
	n := SwapDeltaNormalizer{}
	meta := source.TransactionMetadata{
		Signature:         "sig1",
		BlockTime:         blockTime(1000),
		PreBalances:       []uint64{10_000_000_000},
		PostBalances:      []uint64{9_000_000_000},
		Fee:               5000,
		StaticAccountKeys: source.AccountKeys{"walletA"},
	}
	decoded := &AMMSwap{
		Program: "PumpSwap", IsBuy: false, DeclaredAmountLamports: 1_000_000_000,
		Mint: "mintA", UserAccount: "walletA",
	}

	event, ok := n.Normalize(meta, decoded)
	if !ok {
		t.Fatal("expected swap normalizer to produce an event")
	}
	// delta = 9e9 - 10e9 = -1e9, fee-corrected (+5000) since index==0:
	// -999995000 -> abs 999995000 lamports.
	expected := 999995000.0 / 1_000_000_000.0
	if event.SolAmount != expected {
		t.Errorf("expected fee-corrected sol_amount %f, got %f", expected, event.SolAmount)
	}
}

func TestSwapDeltaNormalizerFallsBackWhenAccountNotFound(t *testing.T) {
	n := SwapDeltaNormalizer{}
	meta := source.TransactionMetadata{
		Signature:         "sig1",
		BlockTime:         blockTime(1000),
		PreBalances:       []uint64{10_000_000_000},
		PostBalances:      []uint64{9_000_000_000},
		StaticAccountKeys: source.AccountKeys{"someoneElse"},
	}
	decoded := &AMMSwap{
		Program: "PumpSwap", IsBuy: true, DeclaredAmountLamports: 3_000_000_000,
		Mint: "mintA", UserAccount: "walletA",
	}

	event, ok := n.Normalize(meta, decoded)
	if !ok {
		t.Fatal("expected swap normalizer to produce an event")
	}
	if event.SolAmount != 3.0 {
		t.Errorf("expected fallback to declared bound 3.0, got %f", event.SolAmount)
	}
}

func TestDCANormalizerInfersDirectionFromBaseCurrency(t *testing.T) {
	n := DCANormalizer{}
	meta := source.TransactionMetadata{Signature: "sig1", BlockTime: blockTime(1000)}

	buyDecoded := &DCAFill{
		Program: trade.DCAProgram, InputMint: trade.BaseCurrencyMint, OutputMint: "mintA",
		InAmountBase: 1_000_000_000, UserAccount: "walletA",
	}
	event, ok := n.Normalize(meta, buyDecoded)
	if !ok || event.Direction != trade.Buy || event.Mint != "mintA" || !event.IsDCA {
		t.Fatalf("expected a Buy, is_dca=true event on mintA, got %+v ok=%v", event, ok)
	}

	sellDecoded := &DCAFill{
		Program: trade.DCAProgram, InputMint: "mintB", OutputMint: trade.BaseCurrencyMint,
		OutAmountBase: 2_000_000_000, UserAccount: "walletA",
	}
	event, ok = n.Normalize(meta, sellDecoded)
	if !ok || event.Direction != trade.Sell || event.Mint != "mintB" {
		t.Fatalf("expected a Sell event on mintB, got %+v ok=%v", event, ok)
	}
}

func TestDCANormalizerDropsWhenNeitherSideIsBaseCurrency(t *testing.T) {
	n := DCANormalizer{}
	meta := source.TransactionMetadata{Signature: "sig1", BlockTime: blockTime(1000)}
	decoded := &DCAFill{
		Program: trade.DCAProgram, InputMint: "mintA", OutputMint: "mintB",
		UserAccount: "walletA",
	}
	if _, ok := n.Normalize(meta, decoded); ok {
		t.Error("expected DCA fill with neither side matching base currency to be dropped")
	}
}

func TestRegistryDispatchesByProgramName(t *testing.T) {
	r := NewDefaultRegistry()
	meta := source.TransactionMetadata{Signature: "sig1", BlockTime: blockTime(1000)}

	_, ok := r.Normalize(meta, &DirectSwap{Program: "Pumpfun", Mint: "mintA", UserAccount: "walletA"})
	if !ok {
		t.Error("expected Pumpfun to dispatch to the direct normalizer")
	}

	_, ok = r.Normalize(meta, &AMMSwap{Program: "UnknownProgram"})
	if ok {
		t.Error("expected an unregistered program to be dropped")
	}
}
