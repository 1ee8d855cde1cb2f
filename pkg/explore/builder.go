package explore

import (
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// Reserved variable names of the children query. Attribute variables are
// named after the attribute itself, so these must not collide with any
// declared attribute name.
const (
	varID       = "id"
	varKind     = "kind"
	varCategory = "category"
)

// BuildChildrenQuery emits the query retrieving every child of the given
// parent: one union branch per registered relation, each branch binding
// the resulting child kind (and category, when the relation declares one)
// as literal constants and left-joining each declared attribute of the
// child kind. The store is asked to pre-sort by (category, kind, name);
// the mapper still re-sorts defensively because store ordering on absent
// optionals is not guaranteed stable.
//
// Kinds outside the closed set fail with ErrUnknownKind. A known leaf
// kind yields a query with no branches; the navigator never sends one.
func BuildChildrenQuery(reg *schema.Registry, voc schema.Vocabulary, parentID string, parentKind schema.Kind) (triplestore.SelectQuery, error) {
	relations, err := reg.Lookup(parentKind)
	if err != nil {
		return triplestore.SelectQuery{}, err
	}
	return buildChildrenQuery(reg, voc, parentID, relations), nil
}

// buildChildrenQuery assembles the query from relations the caller has
// already looked up, so the navigator pays for one registry lookup per
// expand.
func buildChildrenQuery(reg *schema.Registry, voc schema.Vocabulary, parentID string, relations []schema.ChildRelation) triplestore.SelectQuery {
	vars := []string{varID, varKind, varCategory}
	seen := map[string]bool{varID: true, varKind: true, varCategory: true}

	branches := make([]triplestore.Branch, 0, len(relations))
	for _, rel := range relations {
		branch := triplestore.Branch{
			Patterns: []triplestore.TriplePattern{{
				Subject:   triplestore.IRI(parentID),
				Predicate: triplestore.IRI(voc.IRI(rel.Predicate)),
				Object:    triplestore.Var(varID),
			}},
			Bindings: []triplestore.Binding{{Var: varKind, Value: string(rel.Child)}},
		}
		if rel.Category != "" {
			branch.Bindings = append(branch.Bindings, triplestore.Binding{
				Var:   varCategory,
				Value: rel.Category,
			})
		}

		for _, attr := range reg.Attributes(rel.Child) {
			branch.Optional = append(branch.Optional, triplestore.OptionalGroup{{
				Subject:   triplestore.Var(varID),
				Predicate: triplestore.IRI(voc.IRI(attr)),
				Object:    triplestore.Var(attr),
			}})
			if !seen[attr] {
				seen[attr] = true
				vars = append(vars, attr)
			}
		}

		branches = append(branches, branch)
	}

	return triplestore.SelectQuery{
		Vars:     vars,
		Branches: branches,
		OrderBy:  []string{varCategory, varKind, schema.AttrName},
	}
}
