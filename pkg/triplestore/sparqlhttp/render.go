package sparqlhttp

import (
	"strconv"
	"strings"

	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func renderTerm(t triplestore.Term) string {
	switch t.Kind {
	case triplestore.TermIRI:
		return "<" + t.Value + ">"
	case triplestore.TermLiteral:
		return `"` + literalEscaper.Replace(t.Value) + `"`
	default:
		return "?" + t.Value
	}
}

func renderPattern(b *strings.Builder, indent string, p triplestore.TriplePattern) {
	b.WriteString(indent)
	b.WriteString(renderTerm(p.Subject))
	b.WriteString(" ")
	b.WriteString(renderTerm(p.Predicate))
	b.WriteString(" ")
	b.WriteString(renderTerm(p.Object))
	b.WriteString(" .\n")
}

func renderBranch(b *strings.Builder, br triplestore.Branch) {
	b.WriteString("  {\n")
	for _, p := range br.Patterns {
		renderPattern(b, "    ", p)
	}
	for _, bind := range br.Bindings {
		b.WriteString(`    BIND("`)
		b.WriteString(literalEscaper.Replace(bind.Value))
		b.WriteString(`" AS ?`)
		b.WriteString(bind.Var)
		b.WriteString(")\n")
	}
	for _, group := range br.Optional {
		b.WriteString("    OPTIONAL {\n")
		for _, p := range group {
			renderPattern(b, "      ", p)
		}
		b.WriteString("    }\n")
	}
	b.WriteString("  }")
}

// renderSelect turns the query IR into SPARQL text. The output is
// deterministic for a given query, which keeps request-level tests and
// store logs stable.
func renderSelect(q triplestore.SelectQuery) string {
	var b strings.Builder

	b.WriteString("SELECT")
	for _, v := range q.Vars {
		b.WriteString(" ?")
		b.WriteString(v)
	}
	b.WriteString("\nWHERE {\n")

	for i, br := range q.Branches {
		if i > 0 {
			b.WriteString("\n  UNION\n")
		}
		renderBranch(&b, br)
	}
	if len(q.Branches) > 0 {
		b.WriteString("\n")
	}

	if q.Filter != nil && q.Filter.Needle != "" {
		b.WriteString("  FILTER(CONTAINS(LCASE(STR(?")
		b.WriteString(q.Filter.Var)
		b.WriteString(`)), "`)
		b.WriteString(literalEscaper.Replace(strings.ToLower(q.Filter.Needle)))
		b.WriteString("\"))\n")
	}

	b.WriteString("}")

	if len(q.OrderBy) > 0 {
		b.WriteString("\nORDER BY")
		for _, v := range q.OrderBy {
			b.WriteString(" ?")
			b.WriteString(v)
		}
	}
	if q.Limit > 0 {
		b.WriteString("\nLIMIT ")
		b.WriteString(strconv.Itoa(q.Limit))
	}
	b.WriteString("\n")
	return b.String()
}
