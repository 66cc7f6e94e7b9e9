package anchor

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/fingerprint"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/ledger"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/storage"
)

// DefaultLabel is the metadata label anchor records are written under.
const DefaultLabel uint64 = 1337

// RecordType marks community proposal anchors.
const RecordType = "community_proposal"

// Record keys as written on chain.
const (
	keyFingerprint   = "fingerprint"
	keyStorageHandle = "storage_handle"
	keyStorageURL    = "storage_url"
	keyStorageKind   = "storage_kind"
	keyCreatedAt     = "created_at"
	keyRecordType    = "record_type"
)

// Keys written by the earlier Arweave-only tooling. Records using them are
// still readable.
const (
	legacyFingerprint = "proposal_hash"
	legacyArweaveID   = "arweave_tx_id"
	legacyIPFSCID     = "ipfs_cid"
	legacyURL         = "arweave_url"
	legacyTimestamp   = "timestamp"
	legacyType        = "type"
	legacyStorage     = "storage"
)

// Record is the anchor committed to the ledger: a fingerprint plus the
// pointer needed to fetch the content it was computed from.
type Record struct {
	Fingerprint   string         `json:"fingerprint"`
	StorageHandle storage.Handle `json:"storage_handle"`
	StorageURL    string         `json:"storage_url,omitempty"`
	StorageKind   string         `json:"storage_kind,omitempty"`
	CreatedAt     int64          `json:"created_at"`
	RecordType    string         `json:"record_type"`
}

// Metadatum returns the record as a metadata map.
func (r Record) Metadatum() map[string]any {
	m := map[string]any{
		keyFingerprint:   r.Fingerprint,
		keyStorageHandle: string(r.StorageHandle),
		keyCreatedAt:     r.CreatedAt,
		keyRecordType:    r.RecordType,
	}
	if r.StorageURL != "" {
		m[keyStorageURL] = r.StorageURL
	}
	if r.StorageKind != "" {
		m[keyStorageKind] = r.StorageKind
	}
	return m
}

// FindRecord returns the metadata value stored under label.
func FindRecord(entries []ledger.MetadataEntry, label uint64) (any, bool) {
	for _, e := range entries {
		if e.Label == label {
			return e.Value, true
		}
	}
	return nil, false
}

// DecodeRecord reads a record from a metadata value. Only the fingerprint
// and storage handle are required; a missing one is reported as
// KindMissingField. Text split into chunks on chain is joined back.
func DecodeRecord(v any) (Record, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return Record{}, newError(KindMissingField, "ANCHOR-REC-001",
			fmt.Sprintf("anchor record is %T, not a map", v))
	}

	get := func(keys ...string) (string, error) {
		for _, k := range keys {
			raw, ok := m[k]
			if !ok {
				continue
			}
			s, ok := text(raw)
			if !ok {
				return "", newError(KindMissingField, "ANCHOR-REC-002",
					fmt.Sprintf("anchor record field %q is %T, not text", k, raw))
			}
			return s, nil
		}
		return "", nil
	}
	opt := func(keys ...string) string {
		s, _ := get(keys...)
		return s
	}

	var r Record
	fp, err := get(keyFingerprint, legacyFingerprint)
	if err != nil {
		return Record{}, err
	}
	if fp == "" {
		return Record{}, newError(KindMissingField, "ANCHOR-REC-003", "anchor record has no fingerprint")
	}
	r.Fingerprint = fp

	handle, err := get(keyStorageHandle, legacyArweaveID, legacyIPFSCID)
	if err != nil {
		return Record{}, err
	}
	if handle == "" {
		return Record{}, newError(KindMissingField, "ANCHOR-REC-004", "anchor record has no storage handle")
	}
	r.StorageHandle = storage.Handle(handle)

	r.StorageURL = opt(keyStorageURL, legacyURL)
	r.RecordType = opt(keyRecordType, legacyType)
	r.StorageKind = opt(keyStorageKind, legacyStorage)
	if r.StorageKind == "" {
		switch {
		case m[legacyArweaveID] != nil:
			r.StorageKind = "arweave"
		case m[legacyIPFSCID] != nil:
			r.StorageKind = "ipfs"
		}
	}

	for _, k := range []string{keyCreatedAt, legacyTimestamp} {
		if ts, ok := integer(m[k]); ok {
			r.CreatedAt = ts
			break
		}
	}
	return r, nil
}

// Valid reports whether the fingerprint has the expected shape.
func (r Record) Valid() bool { return fingerprint.Valid(r.Fingerprint) }

func text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []any:
		var b strings.Builder
		for _, c := range x {
			s, ok := c.(string)
			if !ok {
				return "", false
			}
			b.WriteString(s)
		}
		return b.String(), true
	default:
		return "", false
	}
}

func integer(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case uint64:
		return int64(x), true
	case int:
		return int64(x), true
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(x, 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}
