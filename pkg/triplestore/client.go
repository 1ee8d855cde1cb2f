package triplestore

import (
	"context"
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	// ErrUnavailable marks transport or execution failures that a caller
	// may retry with backoff. The concrete cause is wrapped underneath.
	ErrUnavailable = errors.New("triple store unavailable")
	// ErrClosed is returned by operations on a closed client.
	ErrClosed = errors.New("triple store client closed")
	// ErrBadQuery marks a query the backend cannot render or execute.
	ErrBadQuery = errors.New("malformed query")
)

// Client is the read-only boundary to a triple store. Select returns the
// full result set or an error, never both: a cancelled or failed call
// must not expose partial rows. Implementations are safe for concurrent
// use.
type Client interface {
	Select(ctx context.Context, q SelectQuery) (*ResultSet, error)
	Ping(ctx context.Context) error
	Close() error
}

// StoreError carries structured context for a failed store operation.
type StoreError struct {
	Op      string // operation that failed ("select", "ping", "connect")
	Backend string // backend name ("memory", "sparql", "postgres")
	Cause   error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.Backend != "" {
		return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *StoreError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target matches this error's cause.
func (e *StoreError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// Unavailable wraps a transport cause so callers can match ErrUnavailable
// while retaining the original error chain.
func Unavailable(op, backend string, cause error) error {
	return &StoreError{
		Op:      op,
		Backend: backend,
		Cause:   fmt.Errorf("%w: %w", ErrUnavailable, cause),
	}
}

// IsUnavailable reports whether the error marks a retryable store failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
