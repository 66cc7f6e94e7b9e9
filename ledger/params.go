package ledger

// Params are the protocol parameters that bound an anchor transaction.
type Params struct {
	// MinFeeA is the fee per transaction byte, in lovelace.
	MinFeeA uint64 `json:"min_fee_a" yaml:"min_fee_a"`
	// MinFeeB is the constant fee component, in lovelace.
	MinFeeB uint64 `json:"min_fee_b" yaml:"min_fee_b"`
	// CoinsPerUTxOByte prices the ledger space an output occupies.
	CoinsPerUTxOByte uint64 `json:"coins_per_utxo_byte" yaml:"coins_per_utxo_byte"`
	// MaxTxSize is the largest accepted encoded transaction.
	MaxTxSize int `json:"max_tx_size" yaml:"max_tx_size"`
}

// DefaultParams mirror the current public networks.
var DefaultParams = Params{
	MinFeeA:          44,
	MinFeeB:          155381,
	CoinsPerUTxOByte: 4310,
	MaxTxSize:        16384,
}

// utxoEntryOverhead is the fixed per-entry size the ledger adds to an
// output when pricing it.
const utxoEntryOverhead = 160

// MinFee returns the minimum fee for a transaction of size bytes.
func (p Params) MinFee(size int) uint64 {
	return p.MinFeeA*uint64(size) + p.MinFeeB
}

// MinOutput returns the smallest amount out may carry.
func (p Params) MinOutput(out Output) uint64 {
	b, err := encMode.Marshal(out)
	if err != nil {
		return 0
	}
	return p.CoinsPerUTxOByte * uint64(utxoEntryOverhead+len(b))
}

// Validate reports parameters that could never produce a valid transaction.
func (p Params) Validate() error {
	if p.MaxTxSize <= 0 {
		return &ParamsError{Field: "max_tx_size", Reason: "must be positive"}
	}
	if p.MinFeeA == 0 && p.MinFeeB == 0 {
		return &ParamsError{Field: "min_fee_a", Reason: "fee parameters are both zero"}
	}
	return nil
}

type ParamsError struct {
	Field  string
	Reason string
}

func (e *ParamsError) Error() string { return "ledger: params: " + e.Field + " " + e.Reason }
