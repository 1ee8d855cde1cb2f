// Package explore implements the schema-driven navigation engine: it
// turns (parent id, parent kind) into a store query via the registry,
// maps the bindings back into normalized nodes, formats display labels,
// and decides expandability per child. The navigator is stateless; all
// per-tree memoization lives with the caller.
package explore

import (
	"github.com/dd0wney/sclgraph/pkg/schema"
)

// Node is the unit returned by expansion: a stable identifier into the
// graph, the child's kind, its computed display label, whether its kind
// can expand further, and the raw attribute values the label was derived
// from. Attrs values are nil when the store had no binding; nil and the
// empty string are distinct.
type Node struct {
	ID         string             `json:"id"`
	Kind       schema.Kind        `json:"kind"`
	Label      string             `json:"label"`
	Expandable bool               `json:"expandable"`
	Attrs      map[string]*string `json:"attributes,omitempty"`
}

// Attr returns the value of a raw attribute, or "" when absent. Use the
// Attrs map directly when absence must be distinguished from empty.
func (n *Node) Attr(name string) string {
	if v, ok := n.Attrs[name]; ok && v != nil {
		return *v
	}
	return ""
}
