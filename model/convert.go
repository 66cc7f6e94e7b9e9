package model

import (
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/verify"
)

// FromAnchor projects an anchoring result.
func FromAnchor(res *anchor.Result) AnchorResult {
	return AnchorResult{
		TransactionID: res.TxID.String(),
		Fingerprint:   res.Fingerprint,
		StorageHandle: string(res.StorageHandle),
		StorageURL:    res.StorageURL,
		StorageKind:   res.StorageKind,
		MetadataLabel: res.Label,
		FeeLovelace:   res.Fee,
	}
}

// ReportOptions selects the optional parts of a verification report.
type ReportOptions struct {
	// IncludeProposal embeds the retrieved content.
	IncludeProposal bool
	// IncludeMetadata embeds the anchor record as read from the ledger,
	// legacy key names included.
	IncludeMetadata bool
}

// FromVerification projects a verification result.
func FromVerification(res *verify.Result, opts ReportOptions) VerificationReport {
	r := VerificationReport{
		TransactionID:          res.TxID.String(),
		VerificationSuccessful: res.Match,
		OnChainHash:            res.OnChainFingerprint,
		ComputedHash:           res.ComputedFingerprint,
		StorageHandle:          string(res.StorageHandle),
		StorageURL:             res.StorageURL,
		Timestamp:              res.Record.CreatedAt,
		State:                  string(res.State),
		Reason:                 res.Reason,
	}
	if opts.IncludeProposal && res.Content != nil {
		if b, err := res.Content.MarshalJSON(); err == nil {
			r.Proposal = b
		}
	}
	if opts.IncludeMetadata {
		r.Metadata = res.RawRecord
		if r.Metadata == nil {
			r.Metadata = res.Record.Metadatum()
		}
	}
	return r
}

// FromBundle projects the checks of an evidence bundle.
func FromBundle(results []*verify.Result) BundleReport {
	out := BundleReport{Anchors: make([]VerificationReport, 0, len(results)), AllMatch: len(results) > 0}
	for _, res := range results {
		out.Anchors = append(out.Anchors, FromVerification(res, ReportOptions{}))
		if !res.Match {
			out.AllMatch = false
		}
	}
	return out
}
