package storage

import "errors"

var (
	ErrNotFound       = errors.New("storage: not found")
	ErrInvalidHandle  = errors.New("storage: invalid handle")
	ErrHandleMismatch = errors.New("storage: handle does not match content")
	ErrImmutable      = errors.New("storage: immutable object mismatch")
	ErrReadOnly       = errors.New("storage: backend is read-only")
	ErrNoBackend      = errors.New("storage: no backend for kind")
)

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
