package results

import "errors"

// Sentinel errors for result handling. Check them with errors.Is.
var (
	// ErrValidation indicates an artifact, evidence item or step result with
	// a missing name or an empty value.
	ErrValidation = errors.New("validation failed")

	// ErrTypeMismatch indicates a value that is not what the caller required,
	// such as a nil step result or a snapshot that does not hold a workflow.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrPersistence wraps any I/O or encoding failure while writing or
	// reading snapshots and reports.
	ErrPersistence = errors.New("persistence failed")
)
