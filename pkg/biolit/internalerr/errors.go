package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrBadPayload       = errors.New("payload failed validation")
	ErrLowQuality       = errors.New("extracted text below quality threshold")
	ErrInsufficientData = errors.New("insufficient data")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrInvalidConfig    = errors.New("invalid configuration")
)
