package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dd0wney/sclgraph/pkg/auth"
	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/export"
	"github.com/dd0wney/sclgraph/pkg/graphql"
	"github.com/dd0wney/sclgraph/pkg/health"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/treestate"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/memstore"
)

const (
	fixtureBCU    = memstore.FixtureBCU
	fixtureExtRef = memstore.FixtureBase + "POSTE4BUIS1BCU1/AP1/S1/LD1/PROTPTOC1/Inputs/ExtRef1"
)

// stubClient lets tests force store failures and malformed results.
type stubClient struct {
	selectErr error
	resultSet *triplestore.ResultSet
}

func (c *stubClient) Select(context.Context, triplestore.SelectQuery) (*triplestore.ResultSet, error) {
	if c.selectErr != nil {
		return nil, c.selectErr
	}
	return c.resultSet, nil
}
func (c *stubClient) Ping(context.Context) error { return c.selectErr }
func (c *stubClient) Close() error               { return nil }

func newTestServer(t *testing.T, mutate ...func(*Config)) *Server {
	t.Helper()
	store := memstore.NewFixture()
	sessions := treestate.NewManager(treestate.ManagerConfig{})
	t.Cleanup(sessions.Close)

	cfg := Config{
		Navigator: explore.NewNavigator(explore.Config{Store: store}),
		Listing:   listing.NewEngine(listing.Config{Store: store}),
		Sessions:  sessions,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return NewServer(cfg)
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return out
}

func TestExpandGet(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/expand?id="+fixtureBCU+"&kind=IED", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[ExpandResponse](t, rec)
	if resp.Count != 1 || len(resp.Nodes) != 1 {
		t.Fatalf("count = %d, nodes %v", resp.Count, resp.Nodes)
	}
	if resp.Nodes[0].Label != "PROCESS_AP" {
		t.Errorf("label = %q", resp.Nodes[0].Label)
	}
	if resp.Nodes[0].Kind != "AccessPoint" {
		t.Errorf("kind = %q", resp.Nodes[0].Kind)
	}
}

func TestExpandPost(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodPost, "/expand", map[string]string{
		"id":   fixtureBCU,
		"kind": "IED",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[ExpandResponse](t, rec)
	if resp.Parent != fixtureBCU || resp.Count != 1 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestExpandValidation(t *testing.T) {
	h := newTestServer(t).Handler()

	tests := []struct {
		name string
		path string
	}{
		{"missing id", "/expand?kind=IED"},
		{"missing kind", "/expand?id=x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, h, http.MethodGet, tt.path, nil)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}
}

func TestExpandUnknownKind(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/expand?id=x&kind=Bay", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
	resp := decodeBody[ErrorResponse](t, rec)
	if !strings.Contains(resp.Message, "unknown node kind") {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestExpandLeafIsEmptyArray(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/expand?id="+fixtureExtRef+"&kind=ExternalReference", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"nodes":[]`) {
		t.Errorf("leaf nodes not an empty array: %s", rec.Body)
	}
}

func TestExpandStoreUnavailable(t *testing.T) {
	h := newTestServer(t, func(cfg *Config) {
		cfg.Navigator = explore.NewNavigator(explore.Config{
			Store: &stubClient{selectErr: errors.New("connection refused")},
		})
	}).Handler()

	rec := doRequest(t, h, http.MethodGet, "/expand?id="+fixtureBCU+"&kind=IED", nil)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestExpandMalformedResult(t *testing.T) {
	h := newTestServer(t, func(cfg *Config) {
		cfg.Navigator = explore.NewNavigator(explore.Config{
			Store: &stubClient{resultSet: &triplestore.ResultSet{
				Vars: []string{"id", "kind"},
				Rows: []triplestore.Row{{}},
			}},
		})
	}).Handler()

	rec := doRequest(t, h, http.MethodGet, "/expand?id="+fixtureBCU+"&kind=IED", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListDefault(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/list", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[ListResponse](t, rec)
	if resp.GroupBy != "type" {
		t.Errorf("groupBy = %q", resp.GroupBy)
	}
	if resp.TotalCount != 2 {
		t.Errorf("totalCount = %d", resp.TotalCount)
	}
	if len(resp.Groups["BCU"]) != 1 || len(resp.Groups["SCU"]) != 1 {
		t.Errorf("groups = %v", resp.Groups)
	}
}

func TestListGroupByBay(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/list?groupBy=bay", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[ListResponse](t, rec)
	if len(resp.Groups["E01"]) != 1 {
		t.Errorf("bay group = %v", resp.Groups)
	}
	if len(resp.Groups[listing.SentinelGroup]) != 1 {
		t.Errorf("sentinel group = %v", resp.Groups)
	}
}

func TestListSearch(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/list?search=scu", nil)
	resp := decodeBody[ListResponse](t, rec)
	if resp.TotalCount != 1 {
		t.Errorf("totalCount = %d", resp.TotalCount)
	}
}

func TestListBadGroupBy(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/list?groupBy=vendor", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestListMethodNotAllowed(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodPost, "/list", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func createSession(t *testing.T, h http.Handler) SessionResponse {
	t.Helper()
	rec := doRequest(t, h, http.MethodPost, "/sessions", map[string]string{
		"rootId":   fixtureBCU,
		"rootKind": "IED",
		"label":    "POSTE4BUIS1BCU1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status = %d, body %s", rec.Code, rec.Body)
	}
	return decodeBody[SessionResponse](t, rec)
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t).Handler()

	created := createSession(t, h)
	if created.SessionID == "" {
		t.Fatal("empty session id")
	}
	if created.Root.ID != fixtureBCU || !created.Root.Expandable {
		t.Errorf("root = %+v", created.Root)
	}

	// Expand the root inside the session.
	rec := doRequest(t, h, http.MethodPost, "/sessions/"+created.SessionID+"/expand",
		map[string]string{"id": fixtureBCU})
	if rec.Code != http.StatusOK {
		t.Fatalf("session expand: status = %d, body %s", rec.Code, rec.Body)
	}
	expanded := decodeBody[ExpandResponse](t, rec)
	if expanded.Count != 1 {
		t.Errorf("count = %d", expanded.Count)
	}

	// Snapshot shows the loaded nodes.
	rec = doRequest(t, h, http.MethodGet, "/sessions/"+created.SessionID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("snapshot: status = %d", rec.Code)
	}
	snap := decodeBody[treestate.Snapshot](t, rec)
	if snap.RootID != fixtureBCU {
		t.Errorf("snapshot root = %q", snap.RootID)
	}
	if len(snap.Children[fixtureBCU]) != 1 {
		t.Errorf("snapshot children = %v", snap.Children)
	}

	// Delete, then the session is gone.
	rec = doRequest(t, h, http.MethodDelete, "/sessions/"+created.SessionID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodGet, "/sessions/"+created.SessionID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status = %d", rec.Code)
	}
}

func TestSessionValidation(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodPost, "/sessions", map[string]string{"rootKind": "IED"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing rootId: status = %d", rec.Code)
	}

	rec = doRequest(t, h, http.MethodPost, "/sessions", map[string]string{
		"rootId":   "x",
		"rootKind": "Bay",
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown rootKind: status = %d", rec.Code)
	}
}

func TestSessionExpandUnknownNode(t *testing.T) {
	h := newTestServer(t).Handler()
	created := createSession(t, h)

	rec := doRequest(t, h, http.MethodPost, "/sessions/"+created.SessionID+"/expand",
		map[string]string{"id": "urn:not-in-tree"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestSessionNotFound(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodPost, "/sessions/nope/expand", map[string]string{"id": "x"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expand: status = %d", rec.Code)
	}
	rec = doRequest(t, h, http.MethodDelete, "/sessions/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete: status = %d", rec.Code)
	}
}

func TestSessionExport(t *testing.T) {
	dir := t.TempDir()
	sink, err := export.NewDirSink(dir)
	if err != nil {
		t.Fatalf("NewDirSink: %v", err)
	}
	h := newTestServer(t, func(cfg *Config) {
		cfg.Exporter = export.NewExporter(export.Config{Sink: sink})
	}).Handler()

	created := createSession(t, h)
	rec := doRequest(t, h, http.MethodPost, "/sessions/"+created.SessionID+"/export",
		map[string]string{"name": "bcu-tree"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	resp := decodeBody[ExportResponse](t, rec)
	if resp.Receipt == nil || resp.Receipt.Name != "bcu-tree.json.sz" {
		t.Fatalf("receipt = %+v", resp.Receipt)
	}

	env, err := export.ReadFile(resp.Receipt.Location)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if env.Tree.RootID != fixtureBCU {
		t.Errorf("exported root = %q", env.Tree.RootID)
	}
}

func TestSessionExportNotConfigured(t *testing.T) {
	h := newTestServer(t).Handler()
	created := createSession(t, h)

	rec := doRequest(t, h, http.MethodPost, "/sessions/"+created.SessionID+"/export", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestGraphQLRoute(t *testing.T) {
	store := memstore.NewFixture()
	gqlSchema, err := graphql.BuildSchema(graphql.Config{
		Navigator: explore.NewNavigator(explore.Config{Store: store}),
		Listing:   listing.NewEngine(listing.Config{Store: store}),
	})
	if err != nil {
		t.Fatalf("BuildSchema: %v", err)
	}
	h := newTestServer(t, func(cfg *Config) {
		cfg.GraphQL = graphql.NewHandler(gqlSchema)
	}).Handler()

	rec := doRequest(t, h, http.MethodPost, "/graphql", map[string]string{"query": "{ health }"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), `"health":"ok"`) {
		t.Errorf("body = %s", rec.Body)
	}
}

func TestGraphQLNotConfigured(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodPost, "/graphql", map[string]string{"query": "{ health }"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	checker := health.NewHealthChecker()
	checker.RegisterCheck("store", health.StoreCheck("memory", func(context.Context) error { return nil }))
	h := newTestServer(t, func(cfg *Config) {
		cfg.Health = checker
	}).Handler()

	for _, path := range []string{"/health", "/ready", "/live"} {
		rec := doRequest(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t, func(cfg *Config) {
		cfg.Metrics = metrics.NewRegistry()
	}).Handler()

	// A request through the chain populates the HTTP metrics.
	doRequest(t, h, http.MethodGet, "/list", nil)

	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "sclgraph_http_requests_total") {
		t.Error("http request counter missing from scrape")
	}
}

func TestMetricsNotConfigured(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAuthDisabledPassesThrough(t *testing.T) {
	h := newTestServer(t).Handler()

	rec := doRequest(t, h, http.MethodGet, "/list", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}

func newAuthedServer(t *testing.T) (http.Handler, *auth.JWTManager) {
	t.Helper()
	manager, err := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	h := newTestServer(t, func(cfg *Config) {
		cfg.JWT = manager
	}).Handler()
	return h, manager
}

func TestAuthMissingCredentials(t *testing.T) {
	h, _ := newAuthedServer(t)

	rec := doRequest(t, h, http.MethodGet, "/list", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d", rec.Code)
	}
	resp := decodeBody[ErrorResponse](t, rec)
	want := "Missing authentication (Bearer token or X-API-Key header required)"
	if resp.Message != want {
		t.Errorf("message = %q", resp.Message)
	}
}

func TestAuthValidToken(t *testing.T) {
	h, manager := newAuthedServer(t)

	token, err := manager.GenerateToken("operator@substation")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, body %s", rec.Code, rec.Body)
	}
}

func TestAuthBadToken(t *testing.T) {
	h, _ := newAuthedServer(t)

	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set("Authorization", "Bearer not.a.token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestAuthProbesStayPublic(t *testing.T) {
	h, _ := newAuthedServer(t)

	for _, path := range []string{"/health", "/ready", "/live"} {
		rec := doRequest(t, h, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", path, rec.Code)
		}
	}
}

func TestAuthAPIKey(t *testing.T) {
	hash, err := auth.HashAPIKey("sk-test-123")
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}
	h := newTestServer(t, func(cfg *Config) {
		cfg.APIKeys = auth.NewAPIKeyVerifier([]string{hash})
	}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set("X-API-Key", "sk-test-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/list", nil)
	req.Header.Set("X-API-Key", "sk-wrong")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong key: status = %d", rec.Code)
	}
}
