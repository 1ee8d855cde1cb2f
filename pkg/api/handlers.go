package api

import (
	"encoding/json"
	"net/http"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/validation"
)

// handleExpand expands one node. GET takes id and kind query
// parameters; POST takes the same pair as a JSON body.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	var req validation.ExpandRequest

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.ID = q.Get("id")
		req.Kind = q.Get("kind")
	case http.MethodPost:
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	default:
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if err := validation.ValidateExpandRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind, err := schema.ParseKind(req.Kind)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	nodes, err := s.navigator.Expand(r.Context(), req.ID, kind)
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

// handleList serves the root listing: GET /list?groupBy=type|bay&search=term.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	req := validation.ListRequest{
		GroupBy: q.Get("groupBy"),
		Search:  q.Get("search"),
	}
	if err := validation.ValidateListRequest(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	groupBy, err := listing.ParseGroupBy(req.GroupBy)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	result, err := s.listing.List(r.Context(), groupBy, req.Search)
	if err != nil {
		s.respondDomainError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ListResponse{
		GroupBy:    string(groupBy),
		Groups:     result.Groups,
		TotalCount: result.TotalCount,
	})
}

// emptyIfNil keeps JSON arrays as [] rather than null.
func emptyIfNil(nodes []explore.Node) []explore.Node {
	if nodes == nil {
		return []explore.Node{}
	}
	return nodes
}
