package model

import "encoding/json"

// AnchorResult is printed after a proposal is anchored.
type AnchorResult struct {
	TransactionID string `json:"transaction_id"`
	Fingerprint   string `json:"fingerprint"`
	StorageHandle string `json:"storage_handle"`
	StorageURL    string `json:"storage_url"`
	StorageKind   string `json:"storage_kind,omitempty"`
	MetadataLabel uint64 `json:"metadata_label"`
	FeeLovelace   uint64 `json:"fee_lovelace"`
}

// VerificationReport is printed by verify.
//
// Timestamp is the anchor record's creation time in Unix seconds.
type VerificationReport struct {
	TransactionID          string          `json:"transaction_id"`
	VerificationSuccessful bool            `json:"verification_successful"`
	OnChainHash            string          `json:"on_chain_hash"`
	ComputedHash           string          `json:"computed_hash"`
	StorageHandle          string          `json:"storage_handle"`
	StorageURL             string          `json:"storage_url,omitempty"`
	Timestamp              int64           `json:"timestamp"`
	State                  string          `json:"state"`
	Reason                 string          `json:"reason,omitempty"`
	Proposal               json.RawMessage `json:"proposal,omitempty"`
	Metadata               any             `json:"metadata,omitempty"`
}

// Check is one line of a status report.
type Check struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// StatusReport summarizes whether the configured key, ledger and stores
// are ready to anchor.
type StatusReport struct {
	Network         string   `json:"network"`
	Ledger          string   `json:"ledger"`
	MetadataLabel   uint64   `json:"metadata_label"`
	Address         string   `json:"address,omitempty"`
	BalanceLovelace uint64   `json:"balance_lovelace"`
	UTxOs           int      `json:"utxos"`
	TipHeight       uint64   `json:"tip_height,omitempty"`
	Backends        []string `json:"backends"`
	Checks          []Check  `json:"checks"`
	Ready           bool     `json:"ready"`
}

// BundleReport lists the outcome of checking every anchor in an evidence
// bundle.
type BundleReport struct {
	Anchors  []VerificationReport `json:"anchors"`
	AllMatch bool                 `json:"all_match"`
}
