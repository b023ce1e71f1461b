package source

import "log"

// StubFeed is a placeholder Feed that never yields instructions. It exists
// so main.go has a concrete Feed to wire the dispatcher to without
// standing up the out-of-scope Yellowstone-gRPC client: swapping it for a
// real feed is a one-line change at the call site in main.go.
type StubFeed struct {
	ch chan InstructionTuple
}

// NewStubFeed builds a Feed bound to geyserURL/xToken in name only — no
// network connection is made. A real implementation would dial
// geyserURL, authenticate with xToken, decode each per-program
// instruction into a DecodedVariant via TransactionMetadataProto.ToMetadata,
// and push InstructionTuple values onto the returned channel.
func NewStubFeed(geyserURL, xToken string) *StubFeed {
	log.Printf("ℹ️  source: stub feed configured for %s (real Yellowstone-gRPC client out of scope)", geyserURL)
	return &StubFeed{ch: make(chan InstructionTuple)}
}

func (f *StubFeed) Instructions() <-chan InstructionTuple {
	return f.ch
}

func (f *StubFeed) Close() error {
	close(f.ch)
	return nil
}
