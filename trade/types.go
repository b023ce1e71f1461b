// Package trade defines the normalization boundary shared by every stage
// of the pipeline: the normalizer, the rolling state, the signal
// evaluator, and the writer all speak these types.
package trade

// Direction is the inferred flow direction of a trade.
type Direction string

const (
	Buy     Direction = "buy"
	Sell    Direction = "sell"
	Unknown Direction = "unknown"
)

// BaseCurrencyMint is the wire-protocol constant identifying the chain's
// native currency. Used only by the DCA normalizer to infer direction.
const BaseCurrencyMint = "So11111111111111111111111111111111111111112"

// DCAProgram is the source_program tag for the DCA-fill instruction family.
const DCAProgram = "JupiterDCA"

// Event is a single normalized trade, immutable once emitted by the
// normalizer. IsBot is the one field mutated after emission, by the
// rolling state during ingestion.
type Event struct {
	Timestamp      int64     `json:"timestamp"`
	Mint           string    `json:"mint"`
	Direction      Direction `json:"direction"`
	SolAmount      float64   `json:"sol_amount"`
	TokenAmount    float64   `json:"token_amount"`
	TokenDecimals  int       `json:"token_decimals"`
	UserAccount    string    `json:"user_account"`
	SourceProgram  string    `json:"source_program"`
	IsBot          bool      `json:"is_bot"`
	IsDCA          bool      `json:"is_dca"`
	TxSignature    string    `json:"tx_signature"`
}

// Metrics is a point-in-time snapshot produced by TokenRollingState.
type Metrics struct {
	Mint      string
	UpdatedAt int64

	NetFlow60s    float64
	NetFlow300s   float64
	NetFlow900s   float64
	NetFlow3600s  float64
	NetFlow7200s  float64
	NetFlow14400s float64

	BuyCount60s  int
	SellCount60s int

	BuyCount300s  int
	SellCount300s int

	BuyCount900s  int
	SellCount900s int

	UniqueWallets300s int

	BotWalletsCount300s int
	BotTradesCount300s  int
	BotFlow300s         float64

	DCAFlow300s          float64
	DCAUniqueWallets300s int
	DCARatio300s         float64

	DCABuys60s    int
	DCABuys300s   int
	DCABuys900s   int
	DCABuys3600s  int
	DCABuys14400s int
}

// SignalType enumerates the five detectors the evaluator runs.
type SignalType string

const (
	Breakout       SignalType = "BREAKOUT"
	Reaccumulation SignalType = "REACCUMULATION"
	FocusedBuyers  SignalType = "FOCUSED_BUYERS"
	Persistence    SignalType = "PERSISTENCE"
	FlowReversal   SignalType = "FLOW_REVERSAL"
)

// Signal is a discrete pattern-detection event derived from a Metrics
// snapshot. Strength is clamped to [0, 1] at construction.
type Signal struct {
	Mint      string                 `json:"mint"`
	Type      SignalType             `json:"signal_type"`
	Strength  float64                `json:"strength"`
	Window    string                 `json:"window"`
	Timestamp int64                  `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata"`
}

// NewSignal clamps strength to [0, 1] before returning the Signal.
func NewSignal(mint string, t SignalType, strength float64, window string, ts int64, metadata map[string]interface{}) Signal {
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	return Signal{
		Mint:      mint,
		Type:      t,
		Strength:  strength,
		Window:    window,
		Timestamp: ts,
		Metadata:  metadata,
	}
}

// WriteKind tags the variant of a WriteRequest.
type WriteKind int

const (
	WriteMetricsUpsert WriteKind = iota
	WriteTradeAppend
	WriteSignalAppend
)

// WriteRequest is the sum type carried on the write queue. Exactly one of
// Metrics, Trade, Signal is populated, selected by Kind.
type WriteRequest struct {
	Kind    WriteKind
	Metrics Metrics
	Trade   Event
	Signal  Signal
}

func MetricsUpsert(m Metrics) WriteRequest {
	return WriteRequest{Kind: WriteMetricsUpsert, Metrics: m}
}

func TradeAppend(e Event) WriteRequest {
	return WriteRequest{Kind: WriteTradeAppend, Trade: e}
}

func SignalAppend(s Signal) WriteRequest {
	return WriteRequest{Kind: WriteSignalAppend, Signal: s}
}
