package ledger

import "context"

// FundingSource lists outputs the signing key may spend.
type FundingSource interface {
	// ListSpendable returns the unspent outputs held at addr. An address that
	// has never been funded yields an empty list, not an error.
	ListSpendable(ctx context.Context, addr Address) ([]Input, error)
}

// Submitter hands a signed transaction to the network.
type Submitter interface {
	// Submit returns the id the network assigned. Rejections are reported
	// as *SubmissionError.
	Submit(ctx context.Context, tx []byte) (TxID, error)
}

// MetadataSource reads metadata back from confirmed transactions.
type MetadataSource interface {
	// FetchMetadata returns every metadata entry of tx, or ErrTxNotFound.
	FetchMetadata(ctx context.Context, tx TxID) ([]MetadataEntry, error)
}

// ParamsSource reports current protocol parameters.
type ParamsSource interface {
	ProtocolParams(ctx context.Context) (Params, error)
}

// Ledger is the full set of capabilities the anchoring protocol needs.
type Ledger interface {
	FundingSource
	Submitter
	MetadataSource
	ParamsSource
}

// Sum returns the total amount held by inputs.
func Sum(inputs []Input) uint64 {
	var total uint64
	for _, in := range inputs {
		total += in.Amount
	}
	return total
}
