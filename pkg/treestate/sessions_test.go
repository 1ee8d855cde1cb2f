package treestate

import (
	"testing"
	"time"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/schema"
)

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager(ManagerConfig{Metrics: metrics.NewRegistry()})
	defer m.Close()

	root := testNode("r", schema.KindIED)
	id := m.Create(root)
	if id == "" {
		t.Fatal("empty session id")
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	tree, ok := m.Get(id)
	if !ok {
		t.Fatal("session not found after create")
	}
	if tree.Root().ID != "r" {
		t.Errorf("root = %+v", tree.Root())
	}

	if !m.Delete(id) {
		t.Error("delete reported missing session")
	}
	if _, ok := m.Get(id); ok {
		t.Error("session readable after delete")
	}
	if m.Delete(id) {
		t.Error("second delete reported success")
	}
}

func TestManager_GetUnknown(t *testing.T) {
	m := NewManager(ManagerConfig{})
	defer m.Close()

	if _, ok := m.Get("no-such-session"); ok {
		t.Error("unknown session id resolved")
	}
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := NewManager(ManagerConfig{})
	defer m.Close()

	a := m.Create(testNode("rootA", schema.KindIED))
	b := m.Create(testNode("rootB", schema.KindIED))
	if a == b {
		t.Fatal("duplicate session ids")
	}

	treeA, _ := m.Get(a)
	treeB, _ := m.Get(b)
	if treeA == treeB {
		t.Error("sessions share a tree")
	}
	if treeA.Root().ID != "rootA" || treeB.Root().ID != "rootB" {
		t.Errorf("roots = %s, %s", treeA.Root().ID, treeB.Root().ID)
	}
}

func TestManager_SweepExpiresIdleSessions(t *testing.T) {
	// Sweep manually with a fabricated clock; the janitor interval is
	// set high enough to stay out of the way.
	m := NewManager(ManagerConfig{
		TTL:        time.Minute,
		SweepEvery: time.Hour,
		Metrics:    metrics.NewRegistry(),
	})
	defer m.Close()

	id := m.Create(testNode("r", schema.KindIED))

	m.sweep(time.Now().Add(30 * time.Second))
	if _, ok := m.Get(id); !ok {
		t.Fatal("session expired before its TTL")
	}

	m.sweep(time.Now().Add(2 * time.Minute))
	if _, ok := m.Get(id); ok {
		t.Error("session survived past its TTL")
	}
	if m.Len() != 0 {
		t.Errorf("Len = %d, want 0", m.Len())
	}
}

func TestManager_GetKeepsSessionAlive(t *testing.T) {
	m := NewManager(ManagerConfig{
		TTL:        time.Minute,
		SweepEvery: time.Hour,
	})
	defer m.Close()

	id := m.Create(testNode("r", schema.KindIED))
	backdate := func(d time.Duration) {
		m.mu.Lock()
		m.sessions[id].lastSeen = time.Now().Add(-d)
		m.mu.Unlock()
	}

	// Idle past the TTL, but touched just before the sweep.
	backdate(90 * time.Second)
	if _, ok := m.Get(id); !ok {
		t.Fatal("session missing")
	}
	m.sweep(time.Now())
	if _, ok := m.Get(id); !ok {
		t.Fatal("touched session expired")
	}

	// Idle past the TTL with no touch.
	backdate(90 * time.Second)
	m.sweep(time.Now())
	if _, ok := m.Get(id); ok {
		t.Error("idle session survived the sweep")
	}
}

func TestManager_CloseIsIdempotent(t *testing.T) {
	m := NewManager(ManagerConfig{})
	m.Close()
	m.Close()

	// The manager stays usable; only expiry stops.
	id := m.Create(testNode("r", schema.KindIED))
	if _, ok := m.Get(id); !ok {
		t.Error("manager unusable after close")
	}
}

var _ Expander = (*explore.Navigator)(nil)
