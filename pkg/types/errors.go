package types

import (
	"errors"
	"fmt"
	"net/http"
)

// Outcome classes. Callers branch on these with errors.Is.
var (
	ErrPrecondition      = errors.New("precondition violation")
	ErrNotFound          = errors.New("identifier not found")
	ErrIntegrityConflict = errors.New("identifier already exists")
	ErrStorage           = errors.New("storage failure")
)

// Precondition refinements. Each wraps ErrPrecondition and is raised before
// any storage access.
var (
	ErrMissingIdentifier = fmt.Errorf("%w: object has no identifier", ErrPrecondition)
	ErrAlreadyIdentified = fmt.Errorf("%w: object already has an identifier", ErrPrecondition)
	ErrEmptyIdentifier   = fmt.Errorf("%w: generator returned no identifier", ErrPrecondition)
	ErrNilObject         = fmt.Errorf("%w: object is nil", ErrPrecondition)
)

// Backend lifecycle errors.
var (
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// StorageError reports a connectivity, serialization, or engine failure.
// It matches ErrStorage under errors.Is and unwraps to the original cause.
type StorageError struct {
	Op  string // repository operation, e.g. "load"
	ID  string // identifier involved, if any
	Err error
}

func (e *StorageError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is reports ErrStorage as a match so callers need not type-assert.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Outcome is the tri-state (plus precondition and conflict) result of a
// repository operation.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomePrecondition
	OutcomeConflict
	OutcomeStorage
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomePrecondition:
		return "precondition_violation"
	case OutcomeConflict:
		return "integrity_conflict"
	default:
		return "storage_error"
	}
}

// HTTPStatus maps an outcome to the response code a gateway must use.
// NotFound and storage failures never share a code.
func (o Outcome) HTTPStatus() int {
	switch o {
	case OutcomeOK:
		return http.StatusOK
	case OutcomeNotFound:
		return http.StatusNotFound
	case OutcomePrecondition:
		return http.StatusBadRequest
	case OutcomeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Classify maps err onto an Outcome. Unrecognised errors are storage
// failures.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrPrecondition):
		return OutcomePrecondition
	case errors.Is(err, ErrIntegrityConflict):
		return OutcomeConflict
	default:
		return OutcomeStorage
	}
}
