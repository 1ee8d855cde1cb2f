package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/export"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/validation"
)

// handleSessions creates a session: POST /sessions with rootId, rootKind
// and an optional display label.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req validation.SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidateSessionRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind, err := schema.ParseKind(req.RootKind)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	label := req.Label
	if label == "" {
		label = req.RootID
	}
	root := explore.Node{
		ID:         req.RootID,
		Kind:       kind,
		Label:      label,
		Expandable: s.navigator.Registry().Expandable(kind),
	}

	id := s.sessions.Create(root)
	s.respondJSON(w, http.StatusCreated, SessionResponse{SessionID: id, Root: root})
}

// handleSession dispatches /sessions/{id}, /sessions/{id}/expand and
// /sessions/{id}/export.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/sessions/")
	parts := strings.SplitN(rest, "/", 2)
	id := parts[0]
	if id == "" {
		s.respondError(w, http.StatusNotFound, "Session id required")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleSessionSnapshot(w, r, id)
		case http.MethodDelete:
			s.handleSessionDelete(w, r, id)
		default:
			s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
		return
	}

	if r.Method != http.MethodPost {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	switch parts[1] {
	case "expand":
		s.handleSessionExpand(w, r, id)
	case "export":
		s.handleSessionExport(w, r, id)
	default:
		s.respondError(w, http.StatusNotFound, "Not found")
	}
}

func (s *Server) handleSessionSnapshot(w http.ResponseWriter, _ *http.Request, id string) {
	tree, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	s.respondJSON(w, http.StatusOK, tree.Snapshot())
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, _ *http.Request, id string) {
	if !s.sessions.Delete(id) {
		s.respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type sessionExpandRequest struct {
	ID string `json:"id"`
}

// handleSessionExpand expands a node inside a session tree. The tree
// already knows each node's kind, so the request carries only the id.
func (s *Server) handleSessionExpand(w http.ResponseWriter, r *http.Request, id string) {
	var req sessionExpandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		s.respondError(w, http.StatusBadRequest, "ID: field is required")
		return
	}

	tree, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	nodes, err := tree.Expand(r.Context(), s.navigator, req.ID)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ExpandResponse{
		Parent: req.ID,
		Nodes:  emptyIfNil(nodes),
		Count:  len(nodes),
	})
}

// handleSessionExport stores the loaded slice of a session tree through
// the configured sink. The body is optional; an empty or absent name
// gets a timestamped one.
func (s *Server) handleSessionExport(w http.ResponseWriter, r *http.Request, id string) {
	if s.exporter == nil {
		s.respondError(w, http.StatusServiceUnavailable, "Export not configured")
		return
	}

	var req validation.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validation.ValidateExportRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	tree, ok := s.sessions.Get(id)
	if !ok {
		s.respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	receipt, err := s.exporter.ExportTree(r.Context(), req.Name, tree.Snapshot())
	if err != nil {
		if errors.Is(err, export.ErrBadName) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "Export failed")
		return
	}

	s.respondJSON(w, http.StatusOK, ExportResponse{SessionID: id, Receipt: receipt})
}
