package explore

import (
	"fmt"
	"sort"

	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// mappedChild pairs a node with its branch category. The category exists
// only for ordering and never reaches the returned Node.
type mappedChild struct {
	node     Node
	category string
}

// mapChildren normalizes raw bindings into Nodes. Every row must bind the
// identifier and kind variables; a row without either is a malformed
// result, surfaced rather than dropped. Attribute absence maps to nil,
// never to the empty string. Rows sharing an identifier collapse to the
// first occurrence. Expandability comes from the child's own kind. The
// final stable re-sort by (category, kind, label) runs after label
// formatting because the label is the user-facing key for same-kind
// siblings.
func mapChildren(reg *schema.Registry, rs *triplestore.ResultSet) ([]Node, error) {
	children := make([]mappedChild, 0, len(rs.Rows))
	seen := make(map[string]bool, len(rs.Rows))

	for i, row := range rs.Rows {
		id := row.Text(varID)
		if id == nil || *id == "" {
			return nil, fmt.Errorf("%w: row %d has no identifier binding", ErrMalformedResult, i)
		}
		kindText := row.Text(varKind)
		if kindText == nil {
			return nil, fmt.Errorf("%w: row %d has no kind binding", ErrMalformedResult, i)
		}
		kind, err := schema.ParseKind(*kindText)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d kind %q outside the schema", ErrMalformedResult, i, *kindText)
		}

		if seen[*id] {
			continue
		}
		seen[*id] = true

		attrs := make(map[string]*string)
		for _, name := range reg.Attributes(kind) {
			attrs[name] = row.Text(name)
		}

		category := ""
		if c := row.Text(varCategory); c != nil {
			category = *c
		}

		children = append(children, mappedChild{
			node: Node{
				ID:         *id,
				Kind:       kind,
				Label:      FormatLabel(kind, *id, attrs),
				Expandable: reg.Expandable(kind),
				Attrs:      attrs,
			},
			category: category,
		})
	}

	sort.SliceStable(children, func(i, j int) bool {
		a, b := children[i], children[j]
		if a.category != b.category {
			return a.category < b.category
		}
		if a.node.Kind != b.node.Kind {
			return a.node.Kind < b.node.Kind
		}
		return a.node.Label < b.node.Label
	})

	nodes := make([]Node, len(children))
	for i, c := range children {
		nodes[i] = c.node
	}
	return nodes, nil
}
