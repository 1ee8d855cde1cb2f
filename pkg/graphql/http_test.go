package graphql

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dd0wney/sclgraph/pkg/triplestore/memstore"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	return NewHandler(newTestSchema(t))
}

func postQuery(t *testing.T, h *Handler, req Request) (*httptest.ResponseRecorder, Response) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body)))

	var resp Response
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, resp
}

func TestHandlerExpand(t *testing.T) {
	h := newTestHandler(t)

	rec, resp := postQuery(t, h, Request{
		Query: `{ expand(id: "` + memstore.FixtureBCU + `", kind: "IED") { label } }`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}
	data := resp.Data.(map[string]any)
	children := data["expand"].([]any)
	if label := children[0].(map[string]any)["label"]; label != "PROCESS_AP" {
		t.Errorf("label = %v", label)
	}
}

func TestHandlerVariables(t *testing.T) {
	h := newTestHandler(t)

	_, resp := postQuery(t, h, Request{
		Query:     `query($term: String) { roots(search: $term) { totalCount } }`,
		Variables: map[string]any{"term": "bcu"},
	})
	if len(resp.Errors) != 0 {
		t.Fatalf("errors = %v", resp.Errors)
	}
	roots := resp.Data.(map[string]any)["roots"].(map[string]any)
	if roots["totalCount"] != float64(1) {
		t.Errorf("totalCount = %v", roots["totalCount"])
	}
}

func TestHandlerExecutionErrorIsStill200(t *testing.T) {
	h := newTestHandler(t)

	rec, resp := postQuery(t, h, Request{
		Query: `{ expand(id: "x", kind: "Bay") { id } }`,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(resp.Errors) == 0 {
		t.Fatal("expected execution errors")
	}
	if !strings.Contains(resp.Errors[0].Message, "unknown node kind") {
		t.Errorf("error = %q", resp.Errors[0].Message)
	}
}

func TestHandlerRejectsGet(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/graphql", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHandlerRejectsBadBody(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}
