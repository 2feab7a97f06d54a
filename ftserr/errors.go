// Package ftserr defines the typed error kinds surfaced across the search
// engine. Every caller-driven failure is one of these sentinels, wrapped
// with context via fmt.Errorf("...: %w", err) so callers can use
// errors.Is/errors.As instead of string matching.
package ftserr

import "errors"

var (
	// ErrInvalidDocument is returned when a document is missing a
	// non-empty id, or otherwise fails structural validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidQuery is returned for a malformed query tree or an
	// unknown leaf tag.
	ErrInvalidQuery = errors.New("invalid query")

	// ErrInvalidParameter is returned when a component is constructed
	// with an out-of-range parameter, e.g. a negative average document
	// length passed to the BM25 scorer.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrNotFound is returned for operations against an unknown index
	// or document.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate names the "id already exists" case. AddDocuments does
	// not return it: re-adding an existing id overwrites the document
	// and reports WasAdded=false.
	ErrDuplicate = errors.New("duplicate id")

	// ErrTimeout is returned when a dispatched task exceeds its
	// deadline.
	ErrTimeout = errors.New("task timeout")

	// ErrWorkerCrash names the "worker exited abnormally" case. No code
	// path in this module currently returns it.
	ErrWorkerCrash = errors.New("worker crashed")

	// ErrPersistenceIO is returned when a snapshot write or read
	// fails.
	ErrPersistenceIO = errors.New("persistence I/O failure")

	// ErrValidationFailure names the "mappings validator rejects a field
	// value" case. Mappings.Validate returns its own plain error and
	// does not wrap this sentinel.
	ErrValidationFailure = errors.New("validation failure")
)
