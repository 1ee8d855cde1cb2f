package explore

import (
	"errors"
	"fmt"

	"github.com/dd0wney/sclgraph/pkg/schema"
)

// Expansion error taxonomy. UnknownKind is a programmer error and never
// retried; StoreUnavailable wraps a transport cause and is safe to retry
// at the caller; MalformedResult is a data-integrity failure surfaced
// rather than skipped. An empty child list is success, not an error.
var (
	// ErrUnknownKind aliases the schema sentinel so both layers match
	// with errors.Is.
	ErrUnknownKind = schema.ErrUnknownKind

	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMalformedResult  = errors.New("malformed store result")
)

// ExpandError provides structured context for a failed expansion.
type ExpandError struct {
	Op    string      // operation that failed ("expand", "map")
	Kind  schema.Kind // parent kind of the call
	ID    string      // parent identifier
	Cause error       // sentinel, possibly wrapping a transport cause
}

// Error implements the error interface.
func (e *ExpandError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Kind, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ExpandError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *ExpandError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func unknownKindError(op string, kind schema.Kind, id string, cause error) error {
	return &ExpandError{Op: op, Kind: kind, ID: id, Cause: cause}
}

func storeUnavailableError(op string, kind schema.Kind, id string, cause error) error {
	return &ExpandError{
		Op:    op,
		Kind:  kind,
		ID:    id,
		Cause: fmt.Errorf("%w: %w", ErrStoreUnavailable, cause),
	}
}

// IsRetryable reports whether the error marks a transient store failure
// that a caller may retry with backoff.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}
