// Package listing implements the root listing engine: every IED in the
// store, grouped by device type or by bay association, optionally
// narrowed by a case-insensitive substring of the name attribute.
package listing

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// Config carries the engine's collaborators. Store is required. A zero
// Vocabulary resolves against the default namespace, Logger defaults to
// the no-op logger, and a nil Metrics disables recording.
type Config struct {
	Store      triplestore.Client
	Vocabulary schema.Vocabulary
	Logger     logging.Logger
	Metrics    *metrics.Registry
}

// Engine lists root devices. Like the navigator it is stateless and safe
// for concurrent use; only the store call blocks.
type Engine struct {
	store   triplestore.Client
	voc     schema.Vocabulary
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewEngine wires a listing engine from its collaborators.
func NewEngine(cfg Config) *Engine {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Engine{
		store:   cfg.Store,
		voc:     cfg.Vocabulary,
		logger:  cfg.Logger.With(logging.Component("listing")),
		metrics: cfg.Metrics,
	}
}

// List returns every IED matching the search term, bucketed under the
// requested group key. Entities missing the group key land in the
// Unknown group; an entity associated with several bays appears once,
// under the lexicographically smallest bay name. A non-empty search term
// never matches an entity without a name attribute. The store filter is
// re-checked after mapping so the result does not depend on backend
// filter fidelity.
func (e *Engine) List(ctx context.Context, groupBy GroupBy, searchTerm string) (*Result, error) {
	start := time.Now()

	switch groupBy {
	case GroupByType, GroupByBay:
	default:
		e.recordListing(groupBy, "bad_group_by", start, 0)
		return nil, badGroupByError(groupBy)
	}

	rs, err := e.store.Select(ctx, buildRootsQuery(e.voc, searchTerm))
	if err != nil {
		e.logger.Error("root query failed",
			logging.GroupBy(string(groupBy)),
			logging.Error(err),
		)
		e.recordListing(groupBy, "store_unavailable", start, 0)
		return nil, storeUnavailableError(groupBy, err)
	}

	entries, err := mapRoots(rs)
	if err != nil {
		e.logger.Error("store returned malformed rows",
			logging.GroupBy(string(groupBy)),
			logging.Error(err),
		)
		e.recordListing(groupBy, "malformed_result", start, 0)
		return nil, &ListError{Op: "list", GroupBy: groupBy, Cause: err}
	}

	needle := strings.ToLower(searchTerm)
	result := &Result{Groups: make(map[string][]Entity)}
	for _, entry := range entries {
		if !entry.matches(needle) {
			continue
		}
		key := entry.groupKey(groupBy)
		result.Groups[key] = append(result.Groups[key], entry.entity)
		result.TotalCount++
	}
	for _, group := range result.Groups {
		sortEntities(group)
	}

	e.logger.Debug("listed roots",
		logging.GroupBy(string(groupBy)),
		logging.Count(result.TotalCount),
		logging.Latency(time.Since(start)),
	)
	e.recordListing(groupBy, "ok", start, result.TotalCount)
	return result, nil
}

func (e *Engine) recordListing(groupBy GroupBy, status string, start time.Time, entities int) {
	if e.metrics != nil {
		e.metrics.RecordListing(string(groupBy), status, time.Since(start), entities)
	}
}

// rootEntry aggregates one entity across result rows: the bay optional
// group yields one row per association, so a multi-bay device arrives as
// several rows sharing an identifier.
type rootEntry struct {
	entity Entity
	bays   []string
}

func (r *rootEntry) addBay(name string) {
	for _, b := range r.bays {
		if b == name {
			return
		}
	}
	r.bays = append(r.bays, name)
}

// matches reports whether the entity name contains the lowercased
// needle. The empty needle matches everything; a non-empty needle never
// matches an entity without a name.
func (r *rootEntry) matches(needle string) bool {
	if needle == "" {
		return true
	}
	if r.entity.Name == nil {
		return false
	}
	return strings.Contains(strings.ToLower(*r.entity.Name), needle)
}

func (r *rootEntry) groupKey(groupBy GroupBy) string {
	if groupBy == GroupByBay {
		if len(r.bays) == 0 {
			return SentinelGroup
		}
		min := r.bays[0]
		for _, b := range r.bays[1:] {
			if b < min {
				min = b
			}
		}
		return min
	}
	if r.entity.Type != nil && *r.entity.Type != "" {
		return *r.entity.Type
	}
	return SentinelGroup
}

// mapRoots folds result rows into one entry per entity, first row wins
// for attributes. Every row must bind the identifier variable.
func mapRoots(rs *triplestore.ResultSet) ([]*rootEntry, error) {
	entries := make([]*rootEntry, 0, len(rs.Rows))
	index := make(map[string]*rootEntry, len(rs.Rows))

	for i, row := range rs.Rows {
		id := row.Text(varID)
		if id == nil || *id == "" {
			return nil, listMalformedRow(i)
		}

		entry, ok := index[*id]
		if !ok {
			entry = &rootEntry{entity: Entity{
				ID:           *id,
				Name:         row.Text(varName),
				Type:         row.Text(varType),
				Manufacturer: row.Text(varManufacturer),
				Desc:         row.Text(varDesc),
			}}
			index[*id] = entry
			entries = append(entries, entry)
		}

		if bay := row.Text(varBayName); bay != nil && *bay != "" {
			entry.addBay(*bay)
		}
	}
	return entries, nil
}

func sortEntities(entities []Entity) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := displayName(entities[i]), displayName(entities[j])
		if a != b {
			return a < b
		}
		return entities[i].ID < entities[j].ID
	})
}

func displayName(e Entity) string {
	if e.Name != nil {
		return *e.Name
	}
	return ""
}
