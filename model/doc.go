// Package model defines the result objects printed by the command line and
// written to --output files.
//
// Field names are a stable JSON boundary shared with the earlier tooling;
// anchoring and verification semantics live in packages anchor and verify.
package model
