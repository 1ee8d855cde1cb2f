package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/export"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/treestate"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// ExpandResponse carries the children of one expansion. Nodes is empty,
// never null, when the parent is a leaf or simply has no children.
type ExpandResponse struct {
	Parent string         `json:"parent,omitempty"`
	Nodes  []explore.Node `json:"nodes"`
	Count  int            `json:"count"`
}

// ListResponse is the root listing envelope.
type ListResponse struct {
	GroupBy    string                      `json:"groupBy"`
	Groups     map[string][]listing.Entity `json:"groups"`
	TotalCount int                         `json:"totalCount"`
}

// SessionResponse is returned on session creation.
type SessionResponse struct {
	SessionID string       `json:"sessionId"`
	Root      explore.Node `json:"root"`
}

// ExportResponse wraps the export receipt.
type ExportResponse struct {
	SessionID string          `json:"sessionId"`
	Receipt   *export.Receipt `json:"receipt"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("Failed to encode JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondDomainError maps engine errors onto HTTP statuses. Unknown
// kinds and missing session nodes are addressing mistakes (404), a bad
// grouping is a caller error (400), an unreachable store is an upstream
// failure (502), and a malformed store result is an internal one (500).
func (s *Server) respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schema.ErrUnknownKind),
		errors.Is(err, treestate.ErrNodeNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, listing.ErrBadGroupBy):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, explore.ErrStoreUnavailable),
		errors.Is(err, listing.ErrStoreUnavailable),
		errors.Is(err, triplestore.ErrUnavailable):
		s.respondError(w, http.StatusBadGateway, "Store unavailable")
	case errors.Is(err, explore.ErrMalformedResult),
		errors.Is(err, listing.ErrMalformedResult):
		s.respondError(w, http.StatusInternalServerError, "Malformed store result")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}
