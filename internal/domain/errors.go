package domain

import "errors"

var (
	// ErrDatasetNotFound is fatal to a pass: nothing renders without the primary dataset.
	ErrDatasetNotFound = errors.New("infraboard: dataset not found")
	// ErrMissingColumn marks an optional output that was skipped.
	ErrMissingColumn = errors.New("infraboard: missing column")
	// ErrInsufficientData marks a fit that had too few points.
	ErrInsufficientData = errors.New("infraboard: insufficient data")
	// ErrUnknownStrategy is a configuration error.
	ErrUnknownStrategy = errors.New("infraboard: unknown forecast strategy")
	// ErrInvalidFilter rejects a filter whose predicates contradict each other.
	ErrInvalidFilter = errors.New("infraboard: invalid filter")
)
