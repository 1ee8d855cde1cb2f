package health

import (
	"context"
	"fmt"
)

// Common health check functions

// SimpleCheck creates a check that always reports healthy. Useful as a
// liveness probe: if the process can answer, it is alive.
func SimpleCheck(name string) CheckFunc {
	return func(ctx context.Context) Check {
		return Check{
			Name:   name,
			Status: StatusHealthy,
		}
	}
}

// StoreCheck creates a health check for triple store connectivity
func StoreCheck(backend string, ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "store",
			Details: map[string]any{"backend": backend},
		}

		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}

		return check
	}
}

// SchemaCheck creates a health check for the kind registry
func SchemaCheck(kindCount func() int) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "schema",
			Details: make(map[string]any),
		}

		n := kindCount()
		check.Details["kinds"] = n

		if n == 0 {
			check.Status = StatusUnhealthy
			check.Message = "No kinds registered"
		} else {
			check.Status = StatusHealthy
			check.Message = fmt.Sprintf("%d kinds registered", n)
		}

		return check
	}
}

// SessionCheck creates an informational check for open tree sessions
func SessionCheck(open func() int) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "sessions",
			Status:  StatusHealthy,
			Details: make(map[string]any),
		}
		check.Details["open"] = open()
		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()

		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		usagePercent := float64(alloc) / float64(sys) * 100

		if usagePercent > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
