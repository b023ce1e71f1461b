package source

import (
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TransactionMetadataProto is the wire shape a Yellowstone-gRPC deployment
// would actually decode transaction envelopes into: block_time arrives as
// a protobuf well-known Timestamp, not a bare epoch integer. ToMetadata
// adapts it to the plain TransactionMetadata the normalizer consumes, so
// the protobuf dependency stays confined to this one adapter rather than
// leaking into the normalization boundary.
type TransactionMetadataProto struct {
	Signature         string
	Slot              uint64
	BlockTime         *timestamppb.Timestamp
	PreBalances       []uint64
	PostBalances      []uint64
	Fee               uint64
	StaticAccountKeys []string
}

// ToMetadata converts the protobuf-shaped envelope to the plain struct the
// rest of the pipeline consumes.
func (p *TransactionMetadataProto) ToMetadata() TransactionMetadata {
	var blockTime *int64
	if p.BlockTime != nil {
		t := p.BlockTime.AsTime().Unix()
		blockTime = &t
	}
	return TransactionMetadata{
		Signature:         p.Signature,
		Slot:              p.Slot,
		BlockTime:         blockTime,
		PreBalances:       p.PreBalances,
		PostBalances:      p.PostBalances,
		Fee:               p.Fee,
		StaticAccountKeys: AccountKeys(p.StaticAccountKeys),
	}
}
