package listing

import (
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// Variable names of the root listing query. lnode and bay are join
// intermediates and stay out of the projection.
const (
	varID           = "id"
	varName         = "name"
	varType         = "type"
	varManufacturer = "manufacturer"
	varDesc         = "desc"
	varBayName      = "bayName"
	varLNode        = "lnode"
	varBay          = "bay"
)

// buildRootsQuery selects every IED with its display attributes and, when
// the section model links one, the name of the bay it serves. The bay
// traversal is a single three-pattern optional group so a partially
// modeled association never half-binds: either the LNode reference, the
// bay membership, and the bay name all resolve, or the entity simply has
// no bay. A non-empty search term filters on the name attribute at the
// store; the engine re-checks the match after mapping.
func buildRootsQuery(voc schema.Vocabulary, searchTerm string) triplestore.SelectQuery {
	id := triplestore.Var(varID)

	attr := func(attrName, varName string) triplestore.OptionalGroup {
		return triplestore.OptionalGroup{{
			Subject:   id,
			Predicate: triplestore.IRI(voc.IRI(attrName)),
			Object:    triplestore.Var(varName),
		}}
	}

	bayGroup := triplestore.OptionalGroup{
		{
			Subject:   triplestore.Var(varLNode),
			Predicate: triplestore.IRI(voc.IRI(schema.PredIEDRef)),
			Object:    id,
		},
		{
			Subject:   triplestore.Var(varBay),
			Predicate: triplestore.IRI(voc.IRI(schema.PredHasLNode)),
			Object:    triplestore.Var(varLNode),
		},
		{
			Subject:   triplestore.Var(varBay),
			Predicate: triplestore.IRI(voc.IRI(schema.AttrName)),
			Object:    triplestore.Var(varBayName),
		},
	}

	query := triplestore.SelectQuery{
		Vars: []string{varID, varName, varType, varManufacturer, varDesc, varBayName},
		Branches: []triplestore.Branch{{
			Patterns: []triplestore.TriplePattern{{
				Subject:   id,
				Predicate: triplestore.IRI(schema.RDFType),
				Object:    triplestore.IRI(voc.ClassIRI(schema.KindIED)),
			}},
			Optional: []triplestore.OptionalGroup{
				attr(schema.AttrName, varName),
				attr(schema.AttrType, varType),
				attr(schema.AttrManufacturer, varManufacturer),
				attr(schema.AttrDesc, varDesc),
				bayGroup,
			},
		}},
		OrderBy: []string{varName, varID},
	}

	if searchTerm != "" {
		query.Filter = &triplestore.SubstringFilter{Var: varName, Needle: searchTerm}
	}
	return query
}
