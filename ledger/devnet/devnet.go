// Package devnet is a single-node, LevelDB-backed ledger for development and
// tests. It accepts the same signed transactions as the public networks and
// enforces the rules anchoring depends on: inputs must exist and be unspent,
// every spent output must be witnessed by its key, value must balance, fees
// and outputs must meet the protocol minimums and the metadata must match
// the hash committed in the body.
package devnet

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/bits"
	"sync"

	"github.com/cloudflare/circl/sign/ed25519"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_storage "github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
	"golang.org/x/crypto/blake2b"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
)

const currentVersion = 1

var (
	versionKey    = []byte("version")
	faucetKey     = []byte("faucet")
	utxoPrefix    = []byte("u/")
	txPrefix      = []byte("t/")
	errBadVersion = errors.New("devnet: incompatible database version")
)

// Ledger is a local ledger. It is safe for concurrent use; submissions are
// applied one at a time.
type Ledger struct {
	mu     sync.Mutex
	db     *leveldb.DB
	params ledger.Params
}

var _ ledger.Ledger = (*Ledger)(nil)

// Open opens (creating if needed) the ledger database at path. An empty
// path keeps the ledger in memory.
func Open(path string, params ledger.Params) (*Ledger, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var (
		db  *leveldb.DB
		err error
	)
	if path == "" {
		db, err = leveldb.Open(ldb_storage.NewMemStorage(), nil)
	} else {
		db, err = leveldb.OpenFile(path, &ldb_opt.Options{ErrorIfExist: false})
	}
	if err != nil {
		return nil, fmt.Errorf("devnet: open %q: %w", path, err)
	}

	v, err := db.Get(versionKey, nil)
	switch {
	case errors.Is(err, leveldb.ErrNotFound):
		buf := make([]byte, 4)
		binary.BigEndian.PutUint32(buf, currentVersion)
		if err := db.Put(versionKey, buf, nil); err != nil {
			db.Close()
			return nil, err
		}
	case err != nil:
		db.Close()
		return nil, err
	case len(v) != 4 || binary.BigEndian.Uint32(v) != currentVersion:
		db.Close()
		return nil, errBadVersion
	}
	return &Ledger{db: db, params: params}, nil
}

func (l *Ledger) Close() error { return l.db.Close() }

// Fund creates a new output paying amount to addr out of thin air.
func (l *Ledger) Fund(ctx context.Context, addr ledger.Address, amount uint64) (ledger.OutRef, error) {
	if err := ctx.Err(); err != nil {
		return ledger.OutRef{}, err
	}
	if len(addr) == 0 {
		return ledger.OutRef{}, ledger.ErrInvalidAddress
	}
	if floor := l.params.MinOutput(ledger.Output{Address: addr, Amount: amount}); amount < floor {
		return ledger.OutRef{}, fmt.Errorf("devnet: faucet amount %d below minimum output %d", amount, floor)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var n uint64
	if b, err := l.db.Get(faucetKey, nil); err == nil && len(b) == 8 {
		n = binary.BigEndian.Uint64(b)
	} else if err != nil && !errors.Is(err, leveldb.ErrNotFound) {
		return ledger.OutRef{}, err
	}
	n++
	seq := make([]byte, 8)
	binary.BigEndian.PutUint64(seq, n)

	ref := ledger.OutRef{TxID: blake2b.Sum256(append([]byte("devnet faucet "), seq...))}
	batch := new(leveldb.Batch)
	batch.Put(faucetKey, seq)
	batch.Put(utxoKey(ref), encodeOutput(ledger.Output{Address: addr, Amount: amount}))
	if err := l.db.Write(batch, &ldb_opt.WriteOptions{Sync: true}); err != nil {
		return ledger.OutRef{}, err
	}
	log.Infof("faucet: %d lovelace to %s (%s)", amount, addr, ref)
	return ref, nil
}

func (l *Ledger) ListSpendable(ctx context.Context, addr ledger.Address) ([]ledger.Input, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iter := l.db.NewIterator(util.BytesPrefix(utxoPrefix), nil)
	defer iter.Release()

	var out []ledger.Input
	for iter.Next() {
		ref, err := decodeUTxOKey(iter.Key())
		if err != nil {
			return nil, err
		}
		o, err := decodeOutput(iter.Value())
		if err != nil {
			return nil, err
		}
		if o.Address.Equal(addr) {
			out = append(out, ledger.Input{Ref: ref, Address: o.Address, Amount: o.Amount})
		}
	}
	return out, iter.Error()
}

func (l *Ledger) ProtocolParams(context.Context) (ledger.Params, error) {
	return l.params, nil
}

func (l *Ledger) FetchMetadata(ctx context.Context, id ledger.TxID) ([]ledger.MetadataEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := l.db.Get(txKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ledger.ErrTxNotFound
	}
	if err != nil {
		return nil, err
	}
	tx, err := ledger.DecodeTx(raw)
	if err != nil {
		return nil, err
	}
	return tx.Metadata.Entries(), nil
}

// Submit validates and applies a signed transaction.
func (l *Ledger) Submit(ctx context.Context, raw []byte) (ledger.TxID, error) {
	if err := ctx.Err(); err != nil {
		return ledger.TxID{}, &ledger.SubmissionError{Transient: true, Err: err}
	}
	tx, err := ledger.DecodeTx(raw)
	if err != nil {
		return ledger.TxID{}, reject("DeserialiseFailure", err)
	}
	id, err := tx.ID()
	if err != nil {
		return ledger.TxID{}, reject("DeserialiseFailure", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	spent, err := l.validate(tx, id, len(raw))
	if err != nil {
		log.Debugf("rejected %s: %v", id, err)
		return ledger.TxID{}, err
	}

	batch := new(leveldb.Batch)
	for _, ref := range spent {
		batch.Delete(utxoKey(ref))
	}
	for i, o := range tx.Body.Outputs {
		batch.Put(utxoKey(ledger.OutRef{TxID: id, Index: uint32(i)}), encodeOutput(o))
	}
	batch.Put(txKey(id), raw)
	if err := l.db.Write(batch, &ldb_opt.WriteOptions{Sync: true}); err != nil {
		return ledger.TxID{}, &ledger.SubmissionError{Transient: true, Err: err}
	}
	log.Infof("accepted %s: %d inputs, fee %d, %d metadata labels",
		id, len(spent), tx.Body.Fee, len(tx.Metadata))
	return id, nil
}

func (l *Ledger) validate(tx *ledger.Tx, id ledger.TxID, size int) ([]ledger.OutRef, error) {
	p := l.params
	if size > p.MaxTxSize {
		return nil, reject("MaxTxSizeUTxO", fmt.Errorf("size %d exceeds %d", size, p.MaxTxSize))
	}
	if len(tx.Body.Inputs) == 0 {
		return nil, reject("InputSetEmptyUTxO", nil)
	}
	if _, err := l.db.Get(txKey(id), nil); err == nil {
		return nil, &ledger.SubmissionError{Status: 400, Reason: "BadInputsUTxO: transaction already applied", Err: ledger.ErrDoubleSpend}
	}

	seen := make(map[ledger.OutRef]struct{}, len(tx.Body.Inputs))
	var in uint64
	owners := map[[ledger.KeyHashSize]byte]struct{}{}
	for _, ref := range tx.Body.Inputs {
		if _, dup := seen[ref]; dup {
			return nil, reject("DuplicateInput", fmt.Errorf("%s listed twice", ref))
		}
		seen[ref] = struct{}{}
		b, err := l.db.Get(utxoKey(ref), nil)
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, &ledger.SubmissionError{Status: 400, Reason: "BadInputsUTxO: " + ref.String(), Err: ledger.ErrDoubleSpend}
		}
		if err != nil {
			return nil, &ledger.SubmissionError{Transient: true, Err: err}
		}
		o, err := decodeOutput(b)
		if err != nil {
			return nil, &ledger.SubmissionError{Transient: true, Err: err}
		}
		kh, ok := o.Address.PaymentKeyHash()
		if !ok {
			return nil, reject("ScriptWitnessNotValidatingUTXOW", fmt.Errorf("%s is locked by a script", ref))
		}
		owners[kh] = struct{}{}
		var carry uint64
		if in, carry = bits.Add64(in, o.Amount, 0); carry != 0 {
			return nil, reject("ValueNotConservedUTxO", errors.New("consumed value overflows"))
		}
	}

	if err := checkWitnesses(tx, id, owners); err != nil {
		return nil, err
	}

	want, err := tx.AuxDataHash()
	if err != nil {
		return nil, reject("InvalidMetadata", err)
	}
	if !bytes.Equal(want, tx.Body.AuxDataHash) {
		return nil, reject("ConflictingMetadataHash", nil)
	}

	if min := p.MinFee(size); tx.Body.Fee < min {
		return nil, reject("FeeTooSmallUTxO", fmt.Errorf("fee %d below minimum %d", tx.Body.Fee, min))
	}
	out := tx.Body.Fee
	for _, o := range tx.Body.Outputs {
		if min := p.MinOutput(o); o.Amount < min {
			return nil, reject("BabbageOutputTooSmallUTxO", fmt.Errorf("output of %d below minimum %d", o.Amount, min))
		}
		var carry uint64
		if out, carry = bits.Add64(out, o.Amount, 0); carry != 0 {
			return nil, reject("ValueNotConservedUTxO", errors.New("produced value overflows"))
		}
	}
	if in != out {
		return nil, reject("ValueNotConservedUTxO", fmt.Errorf("consumed %d, produced %d", in, out))
	}
	return tx.Body.Inputs, nil
}

func checkWitnesses(tx *ledger.Tx, id ledger.TxID, owners map[[ledger.KeyHashSize]byte]struct{}) error {
	signed := make(map[[ledger.KeyHashSize]byte]struct{}, len(tx.Witnesses.VKeys))
	for _, w := range tx.Witnesses.VKeys {
		if len(w.VKey) != ed25519.PublicKeySize || len(w.Signature) != ed25519.SignatureSize {
			return reject("InvalidWitnessesUTXOW", errors.New("malformed witness"))
		}
		if !ed25519.Verify(ed25519.PublicKey(w.VKey), id[:], w.Signature) {
			return reject("InvalidWitnessesUTXOW", fmt.Errorf("bad signature by %x", ledger.KeyHash(w.VKey)))
		}
		signed[ledger.KeyHash(w.VKey)] = struct{}{}
	}
	for kh := range owners {
		if _, ok := signed[kh]; !ok {
			return reject("MissingVKeyWitnessesUTXOW", fmt.Errorf("no witness for key hash %x", kh))
		}
	}
	return nil
}

func reject(rule string, err error) error {
	reason := rule
	if err != nil {
		reason += ": " + err.Error()
	}
	return &ledger.SubmissionError{Status: 400, Reason: reason, Err: err}
}

func utxoKey(ref ledger.OutRef) []byte {
	k := make([]byte, 0, len(utxoPrefix)+ledger.TxIDSize+4)
	k = append(k, utxoPrefix...)
	k = append(k, ref.TxID[:]...)
	return binary.BigEndian.AppendUint32(k, ref.Index)
}

func decodeUTxOKey(k []byte) (ledger.OutRef, error) {
	var ref ledger.OutRef
	k = bytes.TrimPrefix(k, utxoPrefix)
	if len(k) != ledger.TxIDSize+4 {
		return ref, fmt.Errorf("devnet: corrupt utxo key %x", k)
	}
	copy(ref.TxID[:], k[:ledger.TxIDSize])
	ref.Index = binary.BigEndian.Uint32(k[ledger.TxIDSize:])
	return ref, nil
}

func txKey(id ledger.TxID) []byte { return append(append([]byte(nil), txPrefix...), id[:]...) }

// Outputs are stored as an 8-byte big-endian amount followed by the address.
func encodeOutput(o ledger.Output) []byte {
	b := make([]byte, 8, 8+len(o.Address))
	binary.BigEndian.PutUint64(b, o.Amount)
	return append(b, o.Address...)
}

func decodeOutput(b []byte) (ledger.Output, error) {
	if len(b) < 9 {
		return ledger.Output{}, fmt.Errorf("devnet: corrupt output record")
	}
	return ledger.Output{
		Amount:  binary.BigEndian.Uint64(b[:8]),
		Address: append(ledger.Address(nil), b[8:]...),
	}, nil
}
