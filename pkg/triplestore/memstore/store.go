// Package memstore provides an in-memory triple store that evaluates the
// query IR directly. It backs the test suites, the demo fixture, and the
// offline modes of the terminal clients.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// Triple is one stored fact. ObjectIRI distinguishes references to other
// nodes from literal attribute values.
type Triple struct {
	Subject   string
	Predicate string
	Object    string
	ObjectIRI bool
}

// Store holds a triple set indexed by predicate. All query shapes used by
// the engine carry concrete predicates, so the index keeps evaluation
// linear in the matching triples rather than the whole store.
type Store struct {
	mu          sync.RWMutex
	triples     []Triple
	byPredicate map[string][]int
	closed      bool
}

var _ triplestore.Client = (*Store)(nil)

// New returns a store seeded with the given triples.
func New(triples ...Triple) *Store {
	s := &Store{byPredicate: make(map[string][]int)}
	s.Add(triples...)
	return s
}

// Add appends triples to the store.
func (s *Store) Add(triples ...Triple) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range triples {
		s.byPredicate[t.Predicate] = append(s.byPredicate[t.Predicate], len(s.triples))
		s.triples = append(s.triples, t)
	}
}

// Len returns the number of stored triples.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.triples)
}

// Select evaluates the query against the current triple set.
func (s *Store) Select(ctx context.Context, q triplestore.SelectQuery) (*triplestore.ResultSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, &triplestore.StoreError{Op: "select", Backend: "memory", Cause: triplestore.ErrClosed}
	}

	var rows []binding
	for _, br := range q.Branches {
		if err := ctx.Err(); err != nil {
			return nil, triplestore.Unavailable("select", "memory", err)
		}
		rows = append(rows, s.evalBranch(br)...)
	}

	if q.Filter != nil && q.Filter.Needle != "" {
		needle := strings.ToLower(q.Filter.Needle)
		kept := make([]binding, 0, len(rows))
		for _, row := range rows {
			if v, ok := row[q.Filter.Var]; ok && strings.Contains(strings.ToLower(v.Text), needle) {
				kept = append(kept, row)
			}
		}
		rows = kept
	}

	if len(q.OrderBy) > 0 {
		sortRows(rows, q.OrderBy)
	}

	if q.Limit > 0 && len(rows) > q.Limit {
		rows = rows[:q.Limit]
	}

	// Final cancellation check so a cancelled call never returns rows.
	if err := ctx.Err(); err != nil {
		return nil, triplestore.Unavailable("select", "memory", err)
	}

	return project(rows, q.Vars), nil
}

// Ping reports whether the store accepts queries.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return &triplestore.StoreError{Op: "ping", Backend: "memory", Cause: triplestore.ErrClosed}
	}
	return ctx.Err()
}

// Close marks the store closed. Further queries fail with ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// binding is one partial solution: variable name to bound value.
type binding map[string]triplestore.Value

func cloneBinding(b binding) binding {
	out := make(binding, len(b)+2)
	for k, v := range b {
		out[k] = v
	}
	return out
}

func (s *Store) evalBranch(br triplestore.Branch) []binding {
	solutions := []binding{{}}
	for _, p := range br.Patterns {
		solutions = s.joinPattern(solutions, p)
		if len(solutions) == 0 {
			return nil
		}
	}

	for _, group := range br.Optional {
		next := make([]binding, 0, len(solutions))
		for _, sol := range solutions {
			matches := []binding{sol}
			for _, p := range group {
				matches = s.joinPattern(matches, p)
				if len(matches) == 0 {
					break
				}
			}
			if len(matches) == 0 {
				next = append(next, sol)
			} else {
				next = append(next, matches...)
			}
		}
		solutions = next
	}

	if len(br.Bindings) > 0 {
		for i, sol := range solutions {
			ext := cloneBinding(sol)
			for _, b := range br.Bindings {
				ext[b.Var] = triplestore.Value{Kind: triplestore.ValueLiteral, Text: b.Value}
			}
			solutions[i] = ext
		}
	}
	return solutions
}

func (s *Store) joinPattern(solutions []binding, p triplestore.TriplePattern) []binding {
	candidates := s.candidates(p)
	var out []binding
	for _, sol := range solutions {
		for _, idx := range candidates {
			if ext, ok := matchPattern(sol, p, s.triples[idx]); ok {
				out = append(out, ext)
			}
		}
	}
	return out
}

// candidates narrows the scan through the predicate index when the
// pattern's predicate is concrete.
func (s *Store) candidates(p triplestore.TriplePattern) []int {
	if p.Predicate.Kind == triplestore.TermIRI {
		return s.byPredicate[p.Predicate.Value]
	}
	all := make([]int, len(s.triples))
	for i := range all {
		all[i] = i
	}
	return all
}

func matchPattern(sol binding, p triplestore.TriplePattern, t Triple) (binding, bool) {
	ext := sol
	cloned := false

	bind := func(term triplestore.Term, text string, kind triplestore.ValueKind) bool {
		switch term.Kind {
		case triplestore.TermIRI:
			return kind == triplestore.ValueIRI && term.Value == text
		case triplestore.TermLiteral:
			return kind == triplestore.ValueLiteral && term.Value == text
		case triplestore.TermVar:
			if v, ok := ext[term.Value]; ok {
				return v.Kind == kind && v.Text == text
			}
			if !cloned {
				ext = cloneBinding(ext)
				cloned = true
			}
			ext[term.Value] = triplestore.Value{Kind: kind, Text: text}
			return true
		}
		return false
	}

	if !bind(p.Subject, t.Subject, triplestore.ValueIRI) {
		return nil, false
	}
	if !bind(p.Predicate, t.Predicate, triplestore.ValueIRI) {
		return nil, false
	}
	objectKind := triplestore.ValueLiteral
	if t.ObjectIRI {
		objectKind = triplestore.ValueIRI
	}
	if !bind(p.Object, t.Object, objectKind) {
		return nil, false
	}
	return ext, true
}

// sortRows orders rows by the given variables ascending. Unbound values
// sort before bound ones; the sort is stable so store insertion order
// breaks remaining ties.
func sortRows(rows []binding, orderBy []string) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, v := range orderBy {
			a, aok := rows[i][v]
			b, bok := rows[j][v]
			if !aok && !bok {
				continue
			}
			if !aok {
				return true
			}
			if !bok {
				return false
			}
			if a.Text != b.Text {
				return a.Text < b.Text
			}
		}
		return false
	})
}

func project(rows []binding, vars []string) *triplestore.ResultSet {
	rs := &triplestore.ResultSet{
		Vars: append([]string(nil), vars...),
		Rows: make([]triplestore.Row, 0, len(rows)),
	}
	for _, row := range rows {
		out := make(triplestore.Row, len(vars))
		for _, v := range vars {
			if val, ok := row[v]; ok {
				bound := val
				out[v] = &bound
			}
		}
		rs.Rows = append(rs.Rows, out)
	}
	return rs
}
