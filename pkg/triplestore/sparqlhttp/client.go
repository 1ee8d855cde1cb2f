// Package sparqlhttp implements the triple store client against a
// SPARQL 1.1 Protocol endpoint over HTTP, with a lightweight lease pool
// to bound concurrent queries against the endpoint.
package sparqlhttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

const backendName = "sparql"

const (
	defaultTimeout     = 30 * time.Second
	defaultConnections = 8
)

// Config configures the endpoint connection. Username/Password enable
// basic auth when set. Zero values fall back to the defaults above.
type Config struct {
	Endpoint       string
	Timeout        time.Duration
	MaxConnections int
	Username       string
	Password       string
	Logger         logging.Logger
	Metrics        *metrics.Registry
}

// Client talks to one SPARQL endpoint. Availability is advisory state
// for health checks: queries are always attempted, and their outcome
// flips the flag.
type Client struct {
	cfg        Config
	httpClient *http.Client
	transport  *http.Transport
	endpoint   string
	logger     logging.Logger
	metrics    *metrics.Registry

	pool      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once

	mu        sync.RWMutex
	available bool
}

var _ triplestore.Client = (*Client)(nil)

// New constructs a client and pings the endpoint once. A failed ping is
// logged and reflected in Available, not returned: the caller decides
// whether to serve degraded or give up.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("sparql endpoint required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = defaultConnections
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxConnections,
		MaxIdleConnsPerHost: cfg.MaxConnections,
	}
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout, Transport: transport},
		transport:  transport,
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		logger:     cfg.Logger.With(logging.Component("sparql")),
		metrics:    cfg.Metrics,
		pool:       make(chan struct{}, cfg.MaxConnections),
		closing:    make(chan struct{}),
	}
	for i := 0; i < cfg.MaxConnections; i++ {
		c.pool <- struct{}{}
	}
	c.setAvailable(true)

	if err := c.Ping(ctx); err != nil {
		c.logger.Warn("endpoint ping failed",
			logging.String("endpoint", c.endpoint),
			logging.Error(err),
		)
	} else {
		c.logger.Info("endpoint ready", logging.String("endpoint", c.endpoint))
	}
	return c, nil
}

// Available reports the outcome of the most recent endpoint contact.
func (c *Client) Available() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

// Select renders the query to SPARQL and executes it under a pool lease.
func (c *Client) Select(ctx context.Context, q triplestore.SelectQuery) (*triplestore.ResultSet, error) {
	release, err := c.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	rs, err := c.query(ctx, renderSelect(q))
	if err != nil {
		c.record("error", start)
		return nil, err
	}
	c.record("ok", start)
	return rs, nil
}

// Ping issues an ASK probe against the endpoint.
func (c *Client) Ping(ctx context.Context) error {
	select {
	case <-c.closing:
		return &triplestore.StoreError{Op: "ping", Backend: backendName, Cause: triplestore.ErrClosed}
	default:
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := c.newRequest(ctx, "ASK {}")
	if err != nil {
		return &triplestore.StoreError{Op: "ping", Backend: backendName, Cause: err}
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setAvailable(false)
		return triplestore.Unavailable("ping", backendName, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		c.setAvailable(false)
		return triplestore.Unavailable("ping", backendName, fmt.Errorf("status %d", resp.StatusCode))
	}
	c.setAvailable(true)
	return nil
}

// Close stops the client. In-flight queries finish; later calls fail
// with ErrClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closing)
		c.setAvailable(false)
		c.transport.CloseIdleConnections()
	})
	return nil
}

func (c *Client) newRequest(ctx context.Context, text string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(text))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}
	return req, nil
}

func (c *Client) query(ctx context.Context, text string) (*triplestore.ResultSet, error) {
	req, err := c.newRequest(ctx, text)
	if err != nil {
		return nil, &triplestore.StoreError{Op: "select", Backend: backendName, Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.setAvailable(false)
		return nil, triplestore.Unavailable("select", backendName, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		c.setAvailable(false)
		return nil, triplestore.Unavailable("select", backendName, fmt.Errorf("status %d", resp.StatusCode))
	case resp.StatusCode >= 400:
		// The endpoint rejected the query itself; the service is up.
		return nil, &triplestore.StoreError{
			Op:      "select",
			Backend: backendName,
			Cause:   fmt.Errorf("%w: status %d", triplestore.ErrBadQuery, resp.StatusCode),
		}
	}

	var decoded sparqlResults
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		c.setAvailable(false)
		return nil, triplestore.Unavailable("select", backendName, fmt.Errorf("decode response: %w", err))
	}

	c.setAvailable(true)
	return decoded.toResultSet(), nil
}

// acquire takes a lease from the pool, respecting cancellation and
// shutdown. The returned release is idempotent.
func (c *Client) acquire(ctx context.Context) (func(), error) {
	select {
	case <-ctx.Done():
		return nil, triplestore.Unavailable("select", backendName, ctx.Err())
	case <-c.closing:
		return nil, &triplestore.StoreError{Op: "select", Backend: backendName, Cause: triplestore.ErrClosed}
	case <-c.pool:
	}

	if c.metrics != nil {
		c.metrics.PoolLeaseAcquired(backendName)
	}
	var once sync.Once
	return func() {
		once.Do(func() {
			c.pool <- struct{}{}
			if c.metrics != nil {
				c.metrics.PoolLeaseReleased(backendName)
			}
		})
	}, nil
}

func (c *Client) record(status string, start time.Time) {
	if c.metrics != nil {
		c.metrics.RecordStoreQuery(backendName, status, time.Since(start))
	}
}

func (c *Client) setAvailable(ready bool) {
	c.mu.Lock()
	c.available = ready
	c.mu.Unlock()
	if c.metrics != nil {
		c.metrics.SetStoreAvailable(backendName, ready)
	}
}

// sparqlResults is the application/sparql-results+json envelope.
type sparqlResults struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]sparqlTerm `json:"bindings"`
	} `json:"results"`
}

type sparqlTerm struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (r *sparqlResults) toResultSet() *triplestore.ResultSet {
	rs := &triplestore.ResultSet{
		Vars: r.Head.Vars,
		Rows: make([]triplestore.Row, 0, len(r.Results.Bindings)),
	}
	for _, binding := range r.Results.Bindings {
		row := make(triplestore.Row, len(binding))
		for name, term := range binding {
			kind := triplestore.ValueLiteral
			if term.Type == "uri" {
				kind = triplestore.ValueIRI
			}
			row[name] = &triplestore.Value{Kind: kind, Text: term.Value}
		}
		rs.Rows = append(rs.Rows, row)
	}
	return rs
}
