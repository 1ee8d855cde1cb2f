package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func healthyCheck(name string) CheckFunc {
	return func(ctx context.Context) Check {
		return Check{Name: name, Status: StatusHealthy}
	}
}

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker()

	if hc == nil {
		t.Fatal("NewHealthChecker returned nil")
	}
	if hc.checks == nil {
		t.Error("checks map not initialized")
	}
	if hc.readyChecks == nil {
		t.Error("readyChecks map not initialized")
	}
	if hc.liveChecks == nil {
		t.Error("liveChecks map not initialized")
	}
}

func TestRegisterCheck(t *testing.T) {
	hc := NewHealthChecker()

	called := false
	hc.RegisterCheck("test", func(ctx context.Context) Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	resp := hc.Check(context.Background())
	if !called {
		t.Error("registered check was not called")
	}
	if _, exists := resp.Checks["test"]; !exists {
		t.Error("check result not in response")
	}
}

func TestRegisterReadinessCheck(t *testing.T) {
	hc := NewHealthChecker()

	called := false
	hc.RegisterReadinessCheck("ready-test", func(ctx context.Context) Check {
		called = true
		return Check{Status: StatusHealthy}
	})

	// Should not be called for regular Check()
	hc.Check(context.Background())
	if called {
		t.Error("readiness check should not be called for Check()")
	}

	resp := hc.CheckReadiness(context.Background())
	if !called {
		t.Error("readiness check was not called")
	}
	if _, exists := resp.Checks["ready-test"]; !exists {
		t.Error("readiness check result not in response")
	}
}

func TestWorstStatusWins(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("ok", healthyCheck("ok"))
	hc.RegisterCheck("slow", func(ctx context.Context) Check {
		return Check{Name: "slow", Status: StatusDegraded}
	})

	if got := hc.Check(context.Background()).Status; got != StatusDegraded {
		t.Errorf("status = %s, want %s", got, StatusDegraded)
	}

	hc.RegisterCheck("down", func(ctx context.Context) Check {
		return Check{Name: "down", Status: StatusUnhealthy}
	})

	if got := hc.Check(context.Background()).Status; got != StatusUnhealthy {
		t.Errorf("status = %s, want %s", got, StatusUnhealthy)
	}
}

func TestEmptyCheckerIsHealthy(t *testing.T) {
	hc := NewHealthChecker()
	resp := hc.Check(context.Background())
	if resp.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", resp.Status, StatusHealthy)
	}
	if len(resp.Checks) != 0 {
		t.Errorf("checks = %d, want none", len(resp.Checks))
	}
}

func TestCheckContextReachesProbe(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "probe")

	hc := NewHealthChecker()
	hc.RegisterCheck("ctx", func(got context.Context) Check {
		if got.Value(key{}) != "probe" {
			t.Error("check did not receive the caller context")
		}
		return Check{Status: StatusHealthy}
	})
	hc.Check(ctx)
}

func TestStoreCheck(t *testing.T) {
	ok := StoreCheck("memory", func(ctx context.Context) error { return nil })
	check := ok(context.Background())
	if check.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", check.Status, StatusHealthy)
	}
	if check.Details["backend"] != "memory" {
		t.Errorf("backend detail = %v, want memory", check.Details["backend"])
	}

	down := StoreCheck("sparql", func(ctx context.Context) error {
		return errors.New("endpoint unreachable")
	})
	check = down(context.Background())
	if check.Status != StatusUnhealthy {
		t.Errorf("status = %s, want %s", check.Status, StatusUnhealthy)
	}
	if check.Message != "endpoint unreachable" {
		t.Errorf("message = %q", check.Message)
	}
}

func TestSchemaCheck(t *testing.T) {
	check := SchemaCheck(func() int { return 14 })(context.Background())
	if check.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", check.Status, StatusHealthy)
	}
	if check.Details["kinds"] != 14 {
		t.Errorf("kinds detail = %v, want 14", check.Details["kinds"])
	}

	check = SchemaCheck(func() int { return 0 })(context.Background())
	if check.Status != StatusUnhealthy {
		t.Errorf("empty registry status = %s, want %s", check.Status, StatusUnhealthy)
	}
}

func TestSessionCheck(t *testing.T) {
	check := SessionCheck(func() int { return 3 })(context.Background())
	if check.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", check.Status, StatusHealthy)
	}
	if check.Details["open"] != 3 {
		t.Errorf("open detail = %v, want 3", check.Details["open"])
	}
}

func TestMemoryCheck(t *testing.T) {
	normal := MemoryCheck(func() (uint64, uint64) { return 100, 1000 })(context.Background())
	if normal.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", normal.Status, StatusHealthy)
	}

	high := MemoryCheck(func() (uint64, uint64) { return 950, 1000 })(context.Background())
	if high.Status != StatusDegraded {
		t.Errorf("status = %s, want %s", high.Status, StatusDegraded)
	}
}

func TestHTTPHandler(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("store", StoreCheck("memory", func(ctx context.Context) error { return nil }))

	rec := httptest.NewRecorder()
	hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("status = %s, want %s", resp.Status, StatusHealthy)
	}
	if _, ok := resp.Checks["store"]; !ok {
		t.Error("store check missing from response")
	}
}

func TestHTTPHandlerUnhealthy(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("store", StoreCheck("sparql", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	rec := httptest.NewRecorder()
	hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestHTTPHandlerDegradedIsStillOK(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterCheck("memory", MemoryCheck(func() (uint64, uint64) { return 950, 1000 }))

	rec := httptest.NewRecorder()
	hc.HTTPHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestReadinessHandlerDegradedIsNotReady(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterReadinessCheck("memory", MemoryCheck(func() (uint64, uint64) { return 950, 1000 }))

	rec := httptest.NewRecorder()
	hc.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestLivenessHandler(t *testing.T) {
	hc := NewHealthChecker()
	hc.RegisterLivenessCheck("server", SimpleCheck("server"))

	rec := httptest.NewRecorder()
	hc.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusOK)
	}
}
