package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrTxNotFound is returned when a transaction is unknown to the ledger.
	ErrTxNotFound = errors.New("ledger: transaction not found")
	// ErrDoubleSpend is wrapped by submission errors for inputs that are
	// already spent or never existed.
	ErrDoubleSpend = errors.New("ledger: input already spent or unknown")
)

// SubmissionError is a rejected or failed submission.
//
// Transient errors (rate limiting, unavailability, network failures) may
// succeed if the same transaction is resubmitted. Everything else is a
// validation rejection and will not.
type SubmissionError struct {
	Transient bool
	// Status is the HTTP status of the submit endpoint, if any.
	Status int
	Reason string
	Err    error
}

func (e *SubmissionError) Error() string {
	kind := "rejected"
	if e.Transient {
		kind = "failed"
	}
	msg := "ledger: submission " + kind
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil && e.Reason == "" {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a submission failure worth retrying.
func IsTransient(err error) bool {
	var se *SubmissionError
	return errors.As(err, &se) && se.Transient
}
