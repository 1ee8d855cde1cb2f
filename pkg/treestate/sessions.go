package treestate

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
)

const (
	// DefaultSessionTTL is the idle lifetime of a server-hosted tree.
	DefaultSessionTTL = 30 * time.Minute

	defaultSweepEvery = time.Minute
)

// ManagerConfig configures the session manager. Zero values fall back to
// the defaults above, a nop logger, and no metrics.
type ManagerConfig struct {
	TTL        time.Duration
	SweepEvery time.Duration
	Logger     logging.Logger
	Metrics    *metrics.Registry
}

type session struct {
	tree     *Tree
	lastSeen time.Time
}

// Manager hosts one Tree per session for clients that cannot hold their
// own cache, keyed by opaque UUIDs. Sessions expire after an idle TTL;
// any Get keeps a session alive.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session
	ttl      time.Duration
	logger   logging.Logger
	metrics  *metrics.Registry
	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager starts a manager and its expiry janitor.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultSessionTTL
	}
	if cfg.SweepEvery <= 0 {
		cfg.SweepEvery = defaultSweepEvery
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	m := &Manager{
		sessions: make(map[string]*session),
		ttl:      cfg.TTL,
		logger:   cfg.Logger.With(logging.Component("sessions")),
		metrics:  cfg.Metrics,
		stop:     make(chan struct{}),
	}
	go m.janitor(cfg.SweepEvery)
	return m
}

// Create opens a session rooted at the given node and returns its key.
func (m *Manager) Create(root explore.Node) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &session{tree: NewTree(root), lastSeen: time.Now()}
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SessionOpened()
	}
	m.logger.Info("session created",
		logging.Session(id),
		logging.NodeID(root.ID),
	)
	return id
}

// Get returns the session's tree and refreshes its idle deadline.
func (m *Manager) Get(id string) (*Tree, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	s.lastSeen = time.Now()
	return s.tree, true
}

// Delete removes a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		if m.metrics != nil {
			m.metrics.SessionClosed()
		}
		m.logger.Info("session deleted", logging.Session(id))
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close stops the janitor. Live sessions stay readable until deleted.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Manager) janitor(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.sweep(time.Now())
		case <-m.stop:
			return
		}
	}
}

func (m *Manager) sweep(now time.Time) {
	m.mu.Lock()
	var expired []string
	for id, s := range m.sessions {
		if now.Sub(s.lastSeen) > m.ttl {
			delete(m.sessions, id)
			expired = append(expired, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		if m.metrics != nil {
			m.metrics.SessionExpired()
		}
		m.logger.Info("session expired", logging.Session(id))
	}
}
