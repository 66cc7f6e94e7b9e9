package anchor

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/fingerprint"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
)

// Signer authorizes spending the inputs of an anchor transaction.
type Signer interface {
	Address(net ledger.Network) ledger.Address
	Owns(addr ledger.Address) bool
	Witness(id ledger.TxID) ledger.VKeyWitness
}

// Selection chooses which spendable outputs fund a transaction.
type Selection int

const (
	// SelectAll spends every input, consolidating them into the change
	// output.
	SelectAll Selection = iota
	// SelectLargestFirst spends the fewest inputs, largest first, that
	// cover the fee and a valid change output.
	SelectLargestFirst
)

func (s Selection) String() string {
	switch s {
	case SelectAll:
		return "all"
	case SelectLargestFirst:
		return "largest-first"
	default:
		return fmt.Sprintf("Selection(%d)", int(s))
	}
}

// ParseSelection accepts the names printed by String.
func ParseSelection(s string) (Selection, error) {
	switch s {
	case "", "all":
		return SelectAll, nil
	case "largest-first":
		return SelectLargestFirst, nil
	default:
		return 0, fmt.Errorf("anchor: unknown input selection %q", s)
	}
}

// Builder assembles and signs anchor transactions. It holds no state
// between calls; building twice for the same record yields two distinct
// anchors if both are submitted.
type Builder struct {
	Params    ledger.Params
	Label     uint64
	Selection Selection
}

// Dummy witness sizes used while the fee is not yet known.
const (
	draftVKeySize = 32
	draftSigSize  = 64
)

// maxFeeRounds bounds the fee fixed point. Fees only grow, and the encoded
// size of a fee changes at most a handful of times.
const maxFeeRounds = 8

// BuildAndSign returns a signed transaction that spends inputs, commits rec
// as metadata under b.Label and returns everything but the fee to change.
func (b Builder) BuildAndSign(inputs []ledger.Input, change ledger.Address, rec Record, key Signer) (*ledger.Tx, error) {
	if len(inputs) == 0 {
		return nil, newError(KindNoFunds, "ANCHOR-FUND-001", "no spendable inputs").About(change.String())
	}
	if rec.Fingerprint == "" {
		return nil, newError(KindMissingField, "ANCHOR-BUILD-001", "record has no fingerprint")
	}
	if rec.StorageHandle == "" {
		return nil, newError(KindMissingField, "ANCHOR-BUILD-002", "record has no storage handle")
	}
	if !fingerprint.Valid(rec.Fingerprint) {
		return nil, newError(KindEncoding, "ANCHOR-BUILD-003", "record fingerprint is not a sha-256 hex digest").About(rec.Fingerprint)
	}
	if err := b.Params.Validate(); err != nil {
		return nil, wrapError(KindConfig, "ANCHOR-BUILD-004", "invalid protocol parameters", err)
	}
	if key == nil {
		return nil, newError(KindSigning, "ANCHOR-SIGN-001", "no signing key")
	}
	if !key.Owns(change) {
		return nil, newError(KindSigning, "ANCHOR-SIGN-002", "change address does not belong to the signing key").About(change.String())
	}

	inputs = dedupe(inputs)
	for _, in := range inputs {
		if !key.Owns(in.Address) {
			return nil, newError(KindSigning, "ANCHOR-SIGN-003", "input is not spendable by the signing key").About(in.Ref.String())
		}
	}

	md := ledger.Metadata{b.Label: rec.Metadatum()}
	auxHash, err := (&ledger.Tx{Metadata: md}).AuxDataHash()
	if err != nil {
		return nil, wrapError(KindEncoding, "ANCHOR-BUILD-005", "record cannot be encoded as metadata", err)
	}

	var tx *ledger.Tx
	switch b.Selection {
	case SelectLargestFirst:
		byAmount := append([]ledger.Input(nil), inputs...)
		sort.SliceStable(byAmount, func(i, j int) bool { return byAmount[i].Amount > byAmount[j].Amount })
		for n := 1; n <= len(byAmount); n++ {
			tx, err = b.balance(dedupe(byAmount[:n]), change, md, auxHash)
			if err == nil || !IsKind(err, KindInsufficientFunds) {
				break
			}
		}
	default:
		tx, err = b.balance(inputs, change, md, auxHash)
	}
	if err != nil {
		return nil, err
	}

	if err := tx.Seal(); err != nil {
		return nil, wrapError(KindEncoding, "ANCHOR-BUILD-006", "transaction cannot be encoded", err)
	}
	id, err := tx.ID()
	if err != nil {
		return nil, wrapError(KindEncoding, "ANCHOR-BUILD-006", "transaction cannot be encoded", err)
	}
	tx.Witnesses = ledger.WitnessSet{VKeys: []ledger.VKeyWitness{key.Witness(id)}}

	log.Debugf("Built anchor %s: %d inputs, fee %d, change %d",
		id, len(tx.Body.Inputs), tx.Body.Fee, tx.Body.Outputs[0].Amount)
	return tx, nil
}

// balance finds the fee for spending inputs and returns the unsigned
// transaction.
func (b Builder) balance(inputs []ledger.Input, change ledger.Address, md ledger.Metadata, auxHash []byte) (*ledger.Tx, error) {
	refs := make([]ledger.OutRef, len(inputs))
	for i, in := range inputs {
		refs[i] = in.Ref
	}
	sum := ledger.Sum(inputs)

	tx := &ledger.Tx{
		Body: ledger.TxBody{
			Inputs:      refs,
			Outputs:     []ledger.Output{{Address: change}},
			AuxDataHash: auxHash,
		},
		Metadata: md,
		Witnesses: ledger.WitnessSet{VKeys: []ledger.VKeyWitness{{
			VKey:      make([]byte, draftVKeySize),
			Signature: make([]byte, draftSigSize),
		}}},
	}

	var (
		fee  uint64
		size int
	)
	for round := 0; ; round++ {
		if round == maxFeeRounds {
			return nil, newError(KindEncoding, "ANCHOR-FEE-002", "fee did not converge")
		}
		tx.Body.Fee = fee
		tx.Body.Outputs[0].Amount = 0
		if sum > fee {
			tx.Body.Outputs[0].Amount = sum - fee
		}
		var err error
		size, err = tx.Size()
		if err != nil {
			return nil, wrapError(KindEncoding, "ANCHOR-BUILD-006", "transaction cannot be encoded", err)
		}
		need := b.Params.MinFee(size)
		if need <= fee {
			break
		}
		fee = need
	}

	if size > b.Params.MaxTxSize {
		return nil, newError(KindEncoding, "ANCHOR-BUILD-007",
			fmt.Sprintf("transaction is %d bytes, limit is %d", size, b.Params.MaxTxSize))
	}
	if sum < fee {
		return nil, newError(KindInsufficientFunds, "ANCHOR-FEE-001",
			fmt.Sprintf("inputs hold %d lovelace, fee is %d", sum, fee))
	}
	out := tx.Body.Outputs[0]
	if floor := b.Params.MinOutput(out); out.Amount < floor {
		return nil, newError(KindInsufficientFunds, "ANCHOR-FEE-003",
			fmt.Sprintf("change of %d lovelace is below the minimum output of %d", out.Amount, floor))
	}
	tx.Witnesses = ledger.WitnessSet{}
	return tx, nil
}

// dedupe drops repeated output references and orders inputs the way the
// ledger sorts them.
func dedupe(inputs []ledger.Input) []ledger.Input {
	seen := make(map[ledger.OutRef]struct{}, len(inputs))
	out := make([]ledger.Input, 0, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.Ref]; ok {
			continue
		}
		seen[in.Ref] = struct{}{}
		out = append(out, in)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := bytes.Compare(out[i].Ref.TxID[:], out[j].Ref.TxID[:]); c != 0 {
			return c < 0
		}
		return out[i].Ref.Index < out[j].Ref.Index
	})
	return out
}
