package listing

import (
	"errors"
	"fmt"
)

// Listing error taxonomy. BadGroupBy is a caller error and never reaches
// the store; StoreUnavailable wraps a transport cause and is retryable;
// MalformedResult marks rows violating the identifier contract. An empty
// listing is success.
var (
	ErrBadGroupBy       = errors.New("unsupported grouping")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrMalformedResult  = errors.New("malformed store result")
)

// ListError provides structured context for a failed listing.
type ListError struct {
	Op      string  // operation that failed ("list")
	GroupBy GroupBy // requested grouping
	Cause   error   // sentinel, possibly wrapping a transport cause
}

// Error implements the error interface.
func (e *ListError) Error() string {
	if e.GroupBy != "" {
		return fmt.Sprintf("%s by %s: %v", e.Op, e.GroupBy, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ListError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error's cause.
func (e *ListError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func badGroupByError(groupBy GroupBy) error {
	return &ListError{
		Op:      "list",
		GroupBy: groupBy,
		Cause:   fmt.Errorf("%w: %q", ErrBadGroupBy, string(groupBy)),
	}
}

func storeUnavailableError(groupBy GroupBy, cause error) error {
	return &ListError{
		Op:      "list",
		GroupBy: groupBy,
		Cause:   fmt.Errorf("%w: %w", ErrStoreUnavailable, cause),
	}
}

func listMalformedRow(row int) error {
	return fmt.Errorf("%w: row %d has no identifier binding", ErrMalformedResult, row)
}
