package anchor

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind/RuleID rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
type Kind string

const (
	KindEncoding          Kind = "Encoding"
	KindValidation        Kind = "Validation"
	KindStorage           Kind = "Storage"
	KindLedger            Kind = "Ledger"
	KindNoFunds           Kind = "NoFunds"
	KindInsufficientFunds Kind = "InsufficientFunds"
	KindSubmission        Kind = "Submission"
	KindRecordNotFound    Kind = "RecordNotFound"
	KindMissingField      Kind = "MissingField"
	KindRetrieval         Kind = "Retrieval"
	KindConfig            Kind = "Config"
	KindSigning           Kind = "Signing"
)

// Error is the structured error returned by anchoring and verification.
//
// RuleID is a stable identifier (e.g. ANCHOR-FUND-001) naming the failed
// step. ID names the object involved: a transaction id, storage handle or
// output reference. Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	RuleID  string
	ID      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.ID != "" {
		msg += " [" + e.ID + "]"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// NewError returns a structured error. cause may be nil.
func NewError(kind Kind, ruleID, msg string, cause error) *Error {
	return &Error{Kind: kind, RuleID: ruleID, Message: msg, Cause: cause}
}

func newError(kind Kind, ruleID, msg string) *Error {
	return NewError(kind, ruleID, msg, nil)
}

func wrapError(kind Kind, ruleID, msg string, cause error) *Error {
	return NewError(kind, ruleID, msg, cause)
}

// About sets the identifier involved in the failure and returns e.
func (e *Error) About(id string) *Error {
	e.ID = id
	return e
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}

// RuleID returns the stable RuleID for a structured error, or "" if unknown.
func RuleID(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.RuleID
}
