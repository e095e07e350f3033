package types

import "errors"

// Domain errors
var (
	// Store errors, isolated per IDE variant
	ErrNotFound = errors.New("store not found")
	ErrParse    = errors.New("malformed store")

	// Session errors
	ErrStaleResult      = errors.New("result superseded by a newer query")
	ErrActivationFailed = errors.New("activation failed")

	// Record validation
	ErrMissingVariant = errors.New("record variant is required")
	ErrInvalidPath    = errors.New("record path must be absolute")
)
