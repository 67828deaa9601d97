package service

import (
	"errors"
)

// Error taxonomy. Handlers map these onto HTTP statuses; everything else
// is an internal error.
var (
	// ErrConfiguration invalid or empty selection sets, rejected before
	// any provider call.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation malformed evaluation submission; no state change.
	ErrValidation = errors.New("validation error")

	// ErrDuplicateEvaluation a second judgment for an already-evaluated
	// generation; no state change.
	ErrDuplicateEvaluation = errors.New("duplicate evaluation")

	// ErrPersistence a storage failure. The run stays resumable from the
	// last successfully persisted record.
	ErrPersistence = errors.New("persistence error")

	// ErrInvalidState an operation not permitted in the experiment's
	// current lifecycle phase.
	ErrInvalidState = errors.New("invalid experiment state")

	// ErrNotFound a missing experiment, task or blind identifier.
	ErrNotFound = errors.New("not found")
)
