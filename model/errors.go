package model

import (
	"errors"
	"fmt"

	"github.com/SingularityNET-Archive/Cardano-Proposal-Anchoring-Prototype/anchor"
)

type ErrorCode string

const (
	ErrInvalidRequest    ErrorCode = "INVALID_REQUEST"
	ErrConfig            ErrorCode = "CONFIG"
	ErrValidation        ErrorCode = "VALIDATION"
	ErrEncoding          ErrorCode = "ENCODING"
	ErrStorage           ErrorCode = "STORAGE"
	ErrLedger            ErrorCode = "LEDGER"
	ErrNoFunds           ErrorCode = "NO_FUNDS"
	ErrInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrSigning           ErrorCode = "SIGNING"
	ErrSubmission        ErrorCode = "SUBMISSION"
	ErrRecordNotFound    ErrorCode = "RECORD_NOT_FOUND"
	ErrMissingField      ErrorCode = "MISSING_FIELD"
	ErrRetrieval         ErrorCode = "RETRIEVAL"
	ErrInternal          ErrorCode = "INTERNAL"
)

var kindCodes = map[anchor.Kind]ErrorCode{
	anchor.KindConfig:            ErrConfig,
	anchor.KindValidation:        ErrValidation,
	anchor.KindEncoding:          ErrEncoding,
	anchor.KindStorage:           ErrStorage,
	anchor.KindLedger:            ErrLedger,
	anchor.KindNoFunds:           ErrNoFunds,
	anchor.KindInsufficientFunds: ErrInsufficientFunds,
	anchor.KindSigning:           ErrSigning,
	anchor.KindSubmission:        ErrSubmission,
	anchor.KindRecordNotFound:    ErrRecordNotFound,
	anchor.KindMissingField:      ErrMissingField,
	anchor.KindRetrieval:         ErrRetrieval,
}

// CodedError is a stable error with a machine-readable code and a human message.
type CodedError struct {
	Code    ErrorCode `json:"code"`
	Rule    string    `json:"rule,omitempty"`
	ID      string    `json:"id,omitempty"`
	Message string    `json:"message"`
}

func (e *CodedError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewError(code ErrorCode, message string) *CodedError {
	return &CodedError{Code: code, Message: message}
}

// FromError maps err to a coded error. Structured anchoring errors keep
// their kind and rule; anything else is INTERNAL.
func FromError(err error) *CodedError {
	if err == nil {
		return nil
	}
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce
	}
	var ae *anchor.Error
	if errors.As(err, &ae) {
		code, ok := kindCodes[ae.Kind]
		if !ok {
			code = ErrInternal
		}
		return &CodedError{Code: code, Rule: ae.RuleID, ID: ae.ID, Message: err.Error()}
	}
	return &CodedError{Code: ErrInternal, Message: err.Error()}
}
