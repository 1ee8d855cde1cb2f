package sparqlhttp

import (
	"testing"

	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

func TestRenderSelect_UnionWithOptionalAndFilter(t *testing.T) {
	q := triplestore.SelectQuery{
		Vars: []string{"id", "kind", "name"},
		Branches: []triplestore.Branch{
			{
				Patterns: []triplestore.TriplePattern{{
					Subject:   triplestore.IRI("http://x#parent"),
					Predicate: triplestore.IRI("http://x#hasChild"),
					Object:    triplestore.Var("id"),
				}},
				Bindings: []triplestore.Binding{{Var: "kind", Value: "DataSet"}},
				Optional: []triplestore.OptionalGroup{{{
					Subject:   triplestore.Var("id"),
					Predicate: triplestore.IRI("http://x#name"),
					Object:    triplestore.Var("name"),
				}}},
			},
			{
				Patterns: []triplestore.TriplePattern{{
					Subject:   triplestore.IRI("http://x#parent"),
					Predicate: triplestore.IRI("http://x#hasOther"),
					Object:    triplestore.Var("id"),
				}},
				Bindings: []triplestore.Binding{{Var: "kind", Value: "GooseControl"}},
			},
		},
		Filter:  &triplestore.SubstringFilter{Var: "name", Needle: "BCU"},
		OrderBy: []string{"kind", "name"},
		Limit:   100,
	}

	want := `SELECT ?id ?kind ?name
WHERE {
  {
    <http://x#parent> <http://x#hasChild> ?id .
    BIND("DataSet" AS ?kind)
    OPTIONAL {
      ?id <http://x#name> ?name .
    }
  }
  UNION
  {
    <http://x#parent> <http://x#hasOther> ?id .
    BIND("GooseControl" AS ?kind)
  }
  FILTER(CONTAINS(LCASE(STR(?name)), "bcu"))
}
ORDER BY ?kind ?name
LIMIT 100
`

	if got := renderSelect(q); got != want {
		t.Errorf("rendered query mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderSelect_Minimal(t *testing.T) {
	q := triplestore.SelectQuery{
		Vars: []string{"s"},
		Branches: []triplestore.Branch{{
			Patterns: []triplestore.TriplePattern{{
				Subject:   triplestore.Var("s"),
				Predicate: triplestore.IRI("http://x#p"),
				Object:    triplestore.Literal("v"),
			}},
		}},
	}

	want := `SELECT ?s
WHERE {
  {
    ?s <http://x#p> "v" .
  }
}
`

	if got := renderSelect(q); got != want {
		t.Errorf("rendered query mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderSelect_MultiPatternOptionalGroup(t *testing.T) {
	q := triplestore.SelectQuery{
		Vars: []string{"id", "bayName"},
		Branches: []triplestore.Branch{{
			Patterns: []triplestore.TriplePattern{{
				Subject:   triplestore.Var("id"),
				Predicate: triplestore.IRI("http://x#type"),
				Object:    triplestore.IRI("http://x#IED"),
			}},
			Optional: []triplestore.OptionalGroup{{
				{
					Subject:   triplestore.Var("lnode"),
					Predicate: triplestore.IRI("http://x#iedRef"),
					Object:    triplestore.Var("id"),
				},
				{
					Subject:   triplestore.Var("bay"),
					Predicate: triplestore.IRI("http://x#hasLNode"),
					Object:    triplestore.Var("lnode"),
				},
				{
					Subject:   triplestore.Var("bay"),
					Predicate: triplestore.IRI("http://x#name"),
					Object:    triplestore.Var("bayName"),
				},
			}},
		}},
	}

	want := `SELECT ?id ?bayName
WHERE {
  {
    ?id <http://x#type> <http://x#IED> .
    OPTIONAL {
      ?lnode <http://x#iedRef> ?id .
      ?bay <http://x#hasLNode> ?lnode .
      ?bay <http://x#name> ?bayName .
    }
  }
}
`

	if got := renderSelect(q); got != want {
		t.Errorf("rendered query mismatch\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderTerm_LiteralEscaping(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`plain`, `"plain"`},
		{`say "hi"`, `"say \"hi\""`},
		{`back\slash`, `"back\\slash"`},
		{"line\nbreak", `"line\nbreak"`},
		{"tab\there", `"tab\there"`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := renderTerm(triplestore.Literal(tt.in)); got != tt.want {
				t.Errorf("renderTerm = %s, want %s", got, tt.want)
			}
		})
	}
}
