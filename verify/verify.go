// Package verify checks anchored proposals against the ledger.
//
// A run moves through a fixed sequence of states:
//
//	Start → MetadataFetched → ContentRetrieved → HashRecomputed → Match | Mismatch
//
// Failing to reach HashRecomputed is an error. Reaching it and finding a
// different fingerprint is not: a mismatch is a result, reported with the
// reason the content could not be confirmed.
package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/fingerprint"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/proposal"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

type State string

const (
	StateStart            State = "Start"
	StateMetadataFetched  State = "MetadataFetched"
	StateContentRetrieved State = "ContentRetrieved"
	StateHashRecomputed   State = "HashRecomputed"
	StateMatch            State = "Match"
	StateMismatch         State = "Mismatch"
)

// Verifier recomputes the fingerprint of anchored content and compares it
// with the one committed on chain. It never writes to the ledger or stores.
type Verifier struct {
	Ledger ledger.MetadataSource
	// Stores picks the backend for a record's storage kind.
	Stores storage.Resolver
	// Label is the metadata label records are read from. Zero means
	// anchor.DefaultLabel.
	Label uint64
}

// Result is the outcome of a completed verification.
type Result struct {
	TxID  ledger.TxID
	Label uint64
	State State
	Match bool

	OnChainFingerprint  string
	ComputedFingerprint string
	StorageHandle       storage.Handle
	StorageURL          string
	Record              anchor.Record
	// RawRecord is the metadata value Record was decoded from, as the
	// ledger reported it.
	RawRecord any

	// Payload holds the retrieved bytes, when any were retrieved.
	Payload []byte
	// Content is the parsed payload, when it parsed.
	Content *proposal.Content
	// Reason explains a mismatch.
	Reason string
}

func (v *Verifier) label() uint64 {
	if v.Label == 0 {
		return anchor.DefaultLabel
	}
	return v.Label
}

// Verify checks the anchor carried by transaction id.
func (v *Verifier) Verify(ctx context.Context, id ledger.TxID) (*Result, error) {
	if v.Ledger == nil || v.Stores == nil {
		return nil, anchor.NewError(anchor.KindConfig, "VERIFY-CFG-001", "verifier needs a ledger and a store resolver", nil)
	}
	label := v.label()
	txid := id.String()

	entries, err := v.Ledger.FetchMetadata(ctx, id)
	switch {
	case errors.Is(err, ledger.ErrTxNotFound):
		return nil, anchor.NewError(anchor.KindRecordNotFound, "VERIFY-META-001", "transaction not found", err).About(txid)
	case err != nil:
		return nil, anchor.NewError(anchor.KindLedger, "VERIFY-META-002", "transaction metadata unavailable", err).About(txid)
	}
	raw, ok := anchor.FindRecord(entries, label)
	if !ok {
		return nil, anchor.NewError(anchor.KindRecordNotFound, "VERIFY-META-003",
			fmt.Sprintf("no anchor record under label %d", label), nil).About(txid)
	}
	rec, err := anchor.DecodeRecord(raw)
	if err != nil {
		var ae *anchor.Error
		if errors.As(err, &ae) {
			ae.About(txid)
		}
		return nil, err
	}
	log.Debugf("Found record in %s: fingerprint %s, %s handle %s", txid, rec.Fingerprint, rec.StorageKind, rec.StorageHandle)

	store, err := v.Stores.Resolve(rec.StorageKind)
	if err != nil {
		return nil, anchor.NewError(anchor.KindRetrieval, "VERIFY-FETCH-001",
			fmt.Sprintf("no store for %q handles", rec.StorageKind), err).About(string(rec.StorageHandle))
	}
	data, err := store.Get(ctx, rec.StorageHandle)
	var res *Result
	switch {
	case errors.Is(err, storage.ErrHandleMismatch):
		res = newResult(rec)
		res.State = StateMismatch
		res.Reason = "store returned bytes that do not match the handle"
	case err != nil:
		return nil, anchor.NewError(anchor.KindRetrieval, "VERIFY-FETCH-002", "content unavailable", err).About(string(rec.StorageHandle))
	default:
		res = Check(rec, data)
	}
	res.TxID, res.Label, res.RawRecord = id, label, raw

	if res.Match {
		log.Infof("Verified %s: fingerprint %s matches", txid, rec.Fingerprint)
	} else {
		log.Warnf("Mismatch for %s: %s", txid, res.Reason)
	}
	return res, nil
}

func newResult(rec anchor.Record) *Result {
	return &Result{
		State:              StateMetadataFetched,
		OnChainFingerprint: rec.Fingerprint,
		StorageHandle:      rec.StorageHandle,
		StorageURL:         rec.StorageURL,
		Record:             rec,
	}
}

// Check recomputes the fingerprint of data, the payload retrieved for rec,
// and compares it with the fingerprint rec commits to. Bytes that do not
// parse as a proposal are a mismatch.
func Check(rec anchor.Record, data []byte) *Result {
	res := newResult(rec)
	res.State = StateContentRetrieved
	res.Payload = data

	content, err := proposal.Parse(data)
	if err != nil {
		res.State = StateMismatch
		res.Reason = "retrieved content is not a proposal: " + err.Error()
		return res
	}
	res.Content = content
	computed, err := fingerprint.Of(content)
	if err != nil {
		res.State = StateMismatch
		res.Reason = "retrieved content cannot be canonicalized: " + err.Error()
		return res
	}
	res.State = StateHashRecomputed
	res.ComputedFingerprint = computed

	res.Match = fingerprint.Equal(computed, rec.Fingerprint)
	if res.Match {
		res.State = StateMatch
		return res
	}
	res.State = StateMismatch
	res.Reason = "recomputed fingerprint differs from the anchored one"
	return res
}
