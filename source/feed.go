// Package source describes the upstream collaborator's interface without
// implementing it: the real deployment's block/transaction feed (a
// Yellowstone gRPC stream) and its per-program instruction decoders are
// out of scope. This package only fixes the shape the dispatcher consumes.
package source

// AccountKeys is the ordered static account key list for a transaction,
// used by the swap normalizer to locate the user's balance index.
type AccountKeys []string

// TransactionMetadata carries the fields the normalizer needs out of a
// decoded transaction envelope. Field names mirror the source input
// contract: signature, slot, block_time, pre/post balances, fee, and the
// static account key list.
type TransactionMetadata struct {
	Signature        string
	Slot             uint64
	BlockTime        *int64
	PreBalances      []uint64
	PostBalances     []uint64
	Fee              uint64
	StaticAccountKeys AccountKeys
}

// Metadata wraps the TransactionMetadata the way the real decoder's
// envelope does: metadata.transaction_metadata in the source contract.
type Metadata struct {
	TransactionMetadata TransactionMetadata
}

// DecodedVariant is a program-specific tagged instruction variant. The
// concrete shape is decoder-specific; normalizers type-switch on
// implementations they recognize and ignore the rest.
type DecodedVariant interface {
	ProgramName() string
}

// InstructionTuple is the (metadata, decoded, nested, raw) contract a
// single instruction arrives as. Nested and Raw are opaque to solflow and
// carried only so a real decoder can attach richer context.
type InstructionTuple struct {
	Metadata Metadata
	Decoded  DecodedVariant
	Nested   interface{}
	Raw      []byte
}

// Feed is the upstream streaming source, satisfied in a real deployment by
// a Yellowstone-gRPC client wired to GEYSER_URL/X_TOKEN. solflow only
// consumes from it; it never constructs one.
type Feed interface {
	// Instructions yields decoded instruction tuples until the feed closes
	// or the supplied channel's receiver stops draining it.
	Instructions() <-chan InstructionTuple
	Close() error
}
