package ledger

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// TxIDSize is the length of a transaction id.
const TxIDSize = 32

// TxID identifies a transaction: blake2b-256 of its body bytes.
type TxID [TxIDSize]byte

// ParseTxID decodes a 64-character hex transaction id.
func ParseTxID(s string) (TxID, error) {
	var id TxID
	if len(s) != 2*TxIDSize {
		return id, fmt.Errorf("ledger: transaction id must be %d hex characters, got %d", 2*TxIDSize, len(s))
	}
	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return id, fmt.Errorf("ledger: transaction id: %w", err)
	}
	return id, nil
}

func (id TxID) String() string { return hex.EncodeToString(id[:]) }

func (id TxID) IsZero() bool { return id == TxID{} }

func (id TxID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *TxID) UnmarshalText(b []byte) error {
	parsed, err := ParseTxID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// OutRef points at one output of a prior transaction.
type OutRef struct {
	_     struct{} `cbor:",toarray"`
	TxID  TxID
	Index uint32
}

func (r OutRef) String() string {
	return r.TxID.String() + "#" + strconv.FormatUint(uint64(r.Index), 10)
}

// ParseOutRef parses "txid#index".
func ParseOutRef(s string) (OutRef, error) {
	id, idx, ok := strings.Cut(s, "#")
	if !ok {
		return OutRef{}, fmt.Errorf("ledger: output reference %q: missing '#'", s)
	}
	txid, err := ParseTxID(id)
	if err != nil {
		return OutRef{}, err
	}
	n, err := strconv.ParseUint(idx, 10, 32)
	if err != nil {
		return OutRef{}, fmt.Errorf("ledger: output reference %q: %w", s, err)
	}
	return OutRef{TxID: txid, Index: uint32(n)}, nil
}

// Output pays Amount lovelace to Address.
type Output struct {
	_       struct{} `cbor:",toarray"`
	Address Address
	Amount  uint64
}

// Input is an unspent output the signing key may spend.
type Input struct {
	Ref     OutRef
	Address Address
	Amount  uint64
}

// TxBody holds the body fields the anchoring protocol uses.
type TxBody struct {
	Inputs      []OutRef `cbor:"0,keyasint"`
	Outputs     []Output `cbor:"1,keyasint"`
	Fee         uint64   `cbor:"2,keyasint"`
	AuxDataHash []byte   `cbor:"7,keyasint,omitempty"`
}

// VKeyWitness is an ed25519 signature over the transaction id.
type VKeyWitness struct {
	_         struct{} `cbor:",toarray"`
	VKey      []byte
	Signature []byte
}

type WitnessSet struct {
	VKeys []VKeyWitness `cbor:"0,keyasint,omitempty"`
}

// Tx is a transaction: body, witnesses and metadata.
//
// Decoded transactions keep the original body and metadata bytes so that
// ID and AuxDataHash reproduce what the signer hashed.
type Tx struct {
	Body      TxBody
	Witnesses WitnessSet
	Metadata  Metadata

	bodyRaw cbor.RawMessage
	auxRaw  cbor.RawMessage
}

type wireTx struct {
	_         struct{} `cbor:",toarray"`
	Body      cbor.RawMessage
	Witnesses WitnessSet
	Valid     bool
	AuxData   cbor.RawMessage
}

var cborNull = []byte{0xf6}

// BodyBytes returns the CBOR encoding of the body.
func (tx *Tx) BodyBytes() ([]byte, error) {
	if tx.bodyRaw != nil {
		return tx.bodyRaw, nil
	}
	return encMode.Marshal(tx.Body)
}

// AuxDataBytes returns the CBOR encoding of the metadata, or nil when the
// transaction carries none.
func (tx *Tx) AuxDataBytes() ([]byte, error) {
	if tx.auxRaw != nil {
		return tx.auxRaw, nil
	}
	if len(tx.Metadata) == 0 {
		return nil, nil
	}
	return tx.Metadata.Encode()
}

// AuxDataHash returns blake2b-256 of the metadata bytes, or nil without
// metadata.
func (tx *Tx) AuxDataHash() ([]byte, error) {
	aux, err := tx.AuxDataBytes()
	if err != nil || aux == nil {
		return nil, err
	}
	sum := blake2b.Sum256(aux)
	return sum[:], nil
}

// ID returns the transaction id.
func (tx *Tx) ID() (TxID, error) {
	body, err := tx.BodyBytes()
	if err != nil {
		return TxID{}, err
	}
	return blake2b.Sum256(body), nil
}

// Seal fixes the body and metadata bytes. Call it after the body and
// metadata are final and before signing.
func (tx *Tx) Seal() error {
	tx.bodyRaw, tx.auxRaw = nil, nil
	aux, err := tx.AuxDataBytes()
	if err != nil {
		return err
	}
	body, err := encMode.Marshal(tx.Body)
	if err != nil {
		return err
	}
	tx.auxRaw, tx.bodyRaw = aux, body
	return nil
}

// Encode returns the signed transaction bytes accepted by submit endpoints.
func (tx *Tx) Encode() ([]byte, error) {
	body, err := tx.BodyBytes()
	if err != nil {
		return nil, fmt.Errorf("ledger: encode body: %w", err)
	}
	aux, err := tx.AuxDataBytes()
	if err != nil {
		return nil, fmt.Errorf("ledger: encode metadata: %w", err)
	}
	return encMode.Marshal(wireTx{
		Body:      body,
		Witnesses: tx.Witnesses,
		Valid:     true,
		AuxData:   aux,
	})
}

// DecodeTx parses signed transaction bytes.
func DecodeTx(b []byte) (*Tx, error) {
	var w wireTx
	if err := decMode.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("ledger: decode transaction: %w", err)
	}
	if !w.Valid {
		return nil, errors.New("ledger: decode transaction: phase-2 invalid transactions are not supported")
	}
	tx := &Tx{Witnesses: w.Witnesses, bodyRaw: w.Body}
	if err := decMode.Unmarshal(w.Body, &tx.Body); err != nil {
		return nil, fmt.Errorf("ledger: decode transaction body: %w", err)
	}
	if len(w.AuxData) > 0 && string(w.AuxData) != string(cborNull) {
		md, err := DecodeMetadata(w.AuxData)
		if err != nil {
			return nil, err
		}
		tx.Metadata = md
		tx.auxRaw = w.AuxData
	}
	return tx, nil
}

// Size returns the encoded size of tx in bytes.
func (tx *Tx) Size() (int, error) {
	b, err := tx.Encode()
	if err != nil {
		return 0, err
	}
	return len(b), nil
}
