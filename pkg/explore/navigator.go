package explore

import (
	"context"
	"time"

	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// Config carries the navigator's collaborators. Store is required.
// Registry defaults to schema.DefaultRegistry(), a zero Vocabulary
// resolves against the default namespace, Logger defaults to the no-op
// logger, and a nil Metrics disables recording.
type Config struct {
	Store      triplestore.Client
	Registry   *schema.Registry
	Vocabulary schema.Vocabulary
	Logger     logging.Logger
	Metrics    *metrics.Registry
}

// Navigator is the hierarchy engine's public entry point. It is stateless
// and purely functional given store contents: no retries, no caching, no
// shared mutable state, safe for concurrent use.
type Navigator struct {
	store    triplestore.Client
	registry *schema.Registry
	voc      schema.Vocabulary
	logger   logging.Logger
	metrics  *metrics.Registry
}

// NewNavigator wires a navigator from its collaborators.
func NewNavigator(cfg Config) *Navigator {
	if cfg.Registry == nil {
		cfg.Registry = schema.DefaultRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Navigator{
		store:    cfg.Store,
		registry: cfg.Registry,
		voc:      cfg.Vocabulary,
		logger:   cfg.Logger.With(logging.Component("navigator")),
		metrics:  cfg.Metrics,
	}
}

// Registry returns the schema registry the navigator consults.
func (n *Navigator) Registry() *schema.Registry {
	return n.registry
}

// Expand returns the children of the given parent node in display order.
// Leaf kinds return an empty list without a store round trip. Failures
// follow the expansion taxonomy: ErrUnknownKind for kinds outside the
// schema, ErrStoreUnavailable wrapping the transport cause, and
// ErrMalformedResult for rows violating the identifier contract.
func (n *Navigator) Expand(ctx context.Context, parentID string, parentKind schema.Kind) ([]Node, error) {
	start := time.Now()

	relations, err := n.registry.Lookup(parentKind)
	if err != nil {
		n.logger.Warn("expand called with unknown kind",
			logging.Kind(string(parentKind)),
			logging.NodeID(parentID),
		)
		n.recordExpand(parentKind, "unknown_kind", start, 0)
		return nil, unknownKindError("expand", parentKind, parentID, err)
	}

	if len(relations) == 0 {
		// Known leaf kind: empty result, no store call.
		if n.metrics != nil {
			n.metrics.RecordLeafExpansion()
		}
		n.recordExpand(parentKind, "leaf", start, 0)
		return []Node{}, nil
	}

	query := buildChildrenQuery(n.registry, n.voc, parentID, relations)

	rs, err := n.store.Select(ctx, query)
	if err != nil {
		n.logger.Error("store query failed",
			logging.Kind(string(parentKind)),
			logging.NodeID(parentID),
			logging.Error(err),
		)
		n.recordExpand(parentKind, "store_unavailable", start, 0)
		return nil, storeUnavailableError("expand", parentKind, parentID, err)
	}

	nodes, err := mapChildren(n.registry, rs)
	if err != nil {
		n.logger.Error("store returned malformed rows",
			logging.Kind(string(parentKind)),
			logging.NodeID(parentID),
			logging.Error(err),
		)
		n.recordExpand(parentKind, "malformed_result", start, 0)
		return nil, &ExpandError{Op: "expand", Kind: parentKind, ID: parentID, Cause: err}
	}

	n.logger.Debug("expanded node",
		logging.Kind(string(parentKind)),
		logging.NodeID(parentID),
		logging.Count(len(nodes)),
		logging.Latency(time.Since(start)),
	)
	n.recordExpand(parentKind, "ok", start, len(nodes))
	return nodes, nil
}

func (n *Navigator) recordExpand(kind schema.Kind, status string, start time.Time, children int) {
	if n.metrics != nil {
		n.metrics.RecordExpansion(string(kind), status, time.Since(start), children)
	}
}
