package normalizer

// Concrete DecodedVariant implementations for the three instruction
// families spec.md §4.1 names. A real decoder produces these (or their
// program-specific equivalents); solflow only consumes them.

// DirectSwap is the "direct Buy/Sell instruction" family: the program
// emits an explicit Buy or Sell variant carrying a slippage-bound amount
// that IS the realized amount (Pumpfun, Moonshot, BonkSwap).
type DirectSwap struct {
	Program        string
	IsBuy          bool
	AmountLamports uint64 // max_sol_cost (buy) or min_sol_output (sell), base units
	TokenAmount    float64
	TokenDecimals  int
	Mint           string
	UserAccount    string
}

func (d *DirectSwap) ProgramName() string { return d.Program }

// AMMSwap is the "swap instruction with user pre/post balance delta"
// family (PumpSwap and similar pool AMMs): the declared amount is only a
// slippage bound, the realized amount must be derived from the
// transaction's balance deltas.
type AMMSwap struct {
	Program             string
	IsBuy               bool
	DeclaredAmountLamports uint64 // fallback bound if the user's account index can't be located
	TokenAmount         float64
	TokenDecimals       int
	Mint                string
	UserAccount         string
}

func (a *AMMSwap) ProgramName() string { return a.Program }

// DCAFill is the DCA-program fill event family: direction is inferred
// from which side of the swap matches the base-currency mint.
type DCAFill struct {
	Program       string
	InputMint     string
	OutputMint    string
	InAmountBase  uint64 // lamports if input is the base currency
	OutAmountBase uint64 // lamports if output is the base currency
	TokenAmount   float64
	TokenDecimals int
	UserAccount   string
}

func (d *DCAFill) ProgramName() string { return d.Program }
