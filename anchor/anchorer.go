package anchor

import (
	"context"
	"errors"
	"time"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/canon"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/fingerprint"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/proposal"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// Retry bounds resubmission after transient submit failures.
type Retry struct {
	// Attempts is the total number of submissions, including the first.
	Attempts int
	// Backoff is the wait before the first resubmission; it doubles after
	// each further failure.
	Backoff time.Duration
	// MaxBackoff caps the wait between submissions.
	MaxBackoff time.Duration
}

// DefaultRetry is used when Anchorer.Retry is the zero value.
var DefaultRetry = Retry{Attempts: 3, Backoff: 2 * time.Second, MaxBackoff: 30 * time.Second}

// Anchorer publishes proposals and commits their fingerprints to a ledger.
type Anchorer struct {
	Store   storage.Store
	Ledger  ledger.Ledger
	Key     Signer
	Network ledger.Network
	// Label is the metadata label records are written under. Zero means
	// DefaultLabel.
	Label uint64
	// Params overrides the ledger's protocol parameters when MaxTxSize is
	// set.
	Params    ledger.Params
	Selection Selection
	Retry     Retry
	// AppVersion is recorded in the storage tags.
	AppVersion string
	// Clock stamps records. Nil means time.Now.
	Clock func() time.Time
}

// Result describes a submitted anchor.
type Result struct {
	TxID          ledger.TxID
	Fingerprint   string
	StorageHandle storage.Handle
	StorageURL    string
	StorageKind   string
	Label         uint64
	Record        Record
	// Payload is the stored content bytes.
	Payload []byte
	Fee     uint64
	// Attempts is the number of submissions made.
	Attempts int
}

func (a *Anchorer) label() uint64 {
	if a.Label == 0 {
		return DefaultLabel
	}
	return a.Label
}

func (a *Anchorer) now() time.Time {
	if a.Clock == nil {
		return time.Now()
	}
	return a.Clock()
}

func (a *Anchorer) retry() Retry {
	r := a.Retry
	if r.Attempts <= 0 {
		r = DefaultRetry
	}
	return r
}

// Anchor validates and fingerprints content, stores it, and submits a
// transaction carrying the anchor record. The content is stored before any
// transaction is built, so a record never points at a missing handle.
//
// Transient submission failures are retried up to Retry.Attempts times.
// Each attempt lists spendable outputs afresh: the signed transaction is
// resubmitted while its inputs are unspent and rebuilt otherwise.
// Validation rejections, including spent inputs, end the attempt at once.
func (a *Anchorer) Anchor(ctx context.Context, content *proposal.Content) (*Result, error) {
	if a.Store == nil || a.Ledger == nil {
		return nil, newError(KindConfig, "ANCHOR-CFG-001", "anchorer needs a store and a ledger")
	}
	if a.Key == nil {
		return nil, newError(KindSigning, "ANCHOR-SIGN-001", "no signing key")
	}
	if content == nil {
		return nil, newError(KindValidation, "ANCHOR-VAL-001", "no proposal content")
	}
	if err := content.Validate(); err != nil {
		return nil, wrapError(KindValidation, "ANCHOR-VAL-002", "proposal content is invalid", err)
	}

	canonical, err := canon.Canonicalize(content)
	if err != nil {
		return nil, wrapError(KindEncoding, "ANCHOR-ENC-001", "proposal cannot be canonicalized", err)
	}
	fp := fingerprint.Sum(canonical)

	payload, err := content.Pretty()
	if err != nil {
		return nil, wrapError(KindEncoding, "ANCHOR-ENC-002", "proposal cannot be serialized", err)
	}

	handle, err := a.Store.Put(ctx, payload, content.Tags(a.AppVersion))
	if err != nil {
		return nil, wrapError(KindStorage, "ANCHOR-STORE-001", "content could not be stored", err)
	}
	log.Infof("Stored proposal %s as %s (%s)", fp, handle, a.Store.Kind())

	rec := Record{
		Fingerprint:   fp,
		StorageHandle: handle,
		StorageURL:    a.Store.URL(handle),
		StorageKind:   a.Store.Kind(),
		CreatedAt:     a.now().Unix(),
		RecordType:    RecordType,
	}

	params := a.Params
	if params.MaxTxSize == 0 {
		params, err = a.Ledger.ProtocolParams(ctx)
		if err != nil {
			return nil, wrapError(KindLedger, "ANCHOR-LEDGER-001", "protocol parameters unavailable", err)
		}
	}

	b := Builder{Params: params, Label: a.label(), Selection: a.Selection}
	addr := a.Key.Address(a.Network)
	r := a.retry()
	wait := r.Backoff

	var (
		tx      *ledger.Tx
		raw     []byte
		id      ledger.TxID
		retried bool
	)
	for attempt := 1; ; attempt++ {
		inputs, err := a.Ledger.ListSpendable(ctx, addr)
		if err != nil {
			return nil, wrapError(KindLedger, "ANCHOR-LEDGER-002", "spendable outputs unavailable", err).About(addr.String())
		}
		log.Debugf("Found %d spendable outputs holding %d lovelace at %s", len(inputs), ledger.Sum(inputs), addr)

		if tx == nil || !spendable(tx, inputs) {
			if tx != nil && a.landed(ctx, id) {
				log.Infof("Transaction %s was accepted by an earlier attempt", id)
				return a.result(id, rec, b.Label, payload, tx.Body.Fee, attempt-1), nil
			}
			if tx, raw, id, err = build(b, inputs, addr, rec, a.Key); err != nil {
				return nil, err
			}
		}

		got, err := a.Ledger.Submit(ctx, raw)
		if err == nil {
			if !got.IsZero() {
				id = got
			}
			log.Infof("Anchored %s in %s under label %d", fp, id, b.Label)
			return a.result(id, rec, b.Label, payload, tx.Body.Fee, attempt), nil
		}
		if !ledger.IsTransient(err) {
			// The inputs of a resubmitted transaction may have been spent
			// by an earlier attempt that did land.
			if retried && errors.Is(err, ledger.ErrDoubleSpend) && a.landed(ctx, id) {
				log.Infof("Transaction %s was accepted by an earlier attempt", id)
				return a.result(id, rec, b.Label, payload, tx.Body.Fee, attempt), nil
			}
			return nil, wrapError(KindSubmission, "ANCHOR-SUBMIT-001", "transaction rejected", err).About(id.String())
		}
		if attempt >= r.Attempts {
			return nil, wrapError(KindSubmission, "ANCHOR-SUBMIT-002", "submission failed after retries", err).About(id.String())
		}

		log.Warnf("Submission attempt %d of %d failed: %v; retrying in %v", attempt, r.Attempts, err, wait)
		if err := sleep(ctx, wait); err != nil {
			return nil, wrapError(KindSubmission, "ANCHOR-SUBMIT-003", "submission interrupted", err).About(id.String())
		}
		retried = true
		wait *= 2
		if r.MaxBackoff > 0 && wait > r.MaxBackoff {
			wait = r.MaxBackoff
		}
	}
}

func (a *Anchorer) result(id ledger.TxID, rec Record, label uint64, payload []byte, fee uint64, attempts int) *Result {
	return &Result{
		TxID:          id,
		Fingerprint:   rec.Fingerprint,
		StorageHandle: rec.StorageHandle,
		StorageURL:    rec.StorageURL,
		StorageKind:   rec.StorageKind,
		Label:         label,
		Record:        rec,
		Payload:       payload,
		Fee:           fee,
		Attempts:      attempts,
	}
}

func build(b Builder, inputs []ledger.Input, change ledger.Address, rec Record, key Signer) (*ledger.Tx, []byte, ledger.TxID, error) {
	tx, err := b.BuildAndSign(inputs, change, rec, key)
	if err != nil {
		return nil, nil, ledger.TxID{}, err
	}
	raw, err := tx.Encode()
	if err != nil {
		return nil, nil, ledger.TxID{}, wrapError(KindEncoding, "ANCHOR-BUILD-006", "transaction cannot be encoded", err)
	}
	id, err := tx.ID()
	if err != nil {
		return nil, nil, ledger.TxID{}, wrapError(KindEncoding, "ANCHOR-BUILD-006", "transaction cannot be encoded", err)
	}
	return tx, raw, id, nil
}

// spendable reports whether every input of tx is still listed in inputs.
func spendable(tx *ledger.Tx, inputs []ledger.Input) bool {
	live := make(map[ledger.OutRef]struct{}, len(inputs))
	for _, in := range inputs {
		live[in.Ref] = struct{}{}
	}
	for _, ref := range tx.Body.Inputs {
		if _, ok := live[ref]; !ok {
			return false
		}
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (a *Anchorer) landed(ctx context.Context, id ledger.TxID) bool {
	_, err := a.Ledger.FetchMetadata(ctx, id)
	return err == nil
}
