package pgstore

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dd0wney/sclgraph/pkg/triplestore"
)

// varRef carries the SQL expressions for one bound variable: the text
// value and a boolean telling whether that value is an IRI.
type varRef struct {
	expr    string
	iriExpr string
}

type sqlBuilder struct {
	params []any
}

func (b *sqlBuilder) param(v any) string {
	b.params = append(b.params, v)
	return "$" + strconv.Itoa(len(b.params))
}

// renderSelect compiles the query IR into one SQL statement over the
// triples table. Each branch becomes a sub-select over self-joined
// triples, optional groups become LEFT JOINs against a grouped
// subquery, branches are combined with UNION ALL, and filter, ordering
// and limit apply to the union. Unbound values are NULL and sort first,
// matching the client contract.
func renderSelect(q triplestore.SelectQuery) (string, []any) {
	b := &sqlBuilder{}

	branches := make([]string, len(q.Branches))
	for i, br := range q.Branches {
		branches[i] = renderBranch(b, br, q.Vars)
	}

	var sb strings.Builder
	sb.WriteString("SELECT * FROM (\n")
	for i, branch := range branches {
		if i > 0 {
			sb.WriteString("\nUNION ALL\n")
		}
		sb.WriteString(branch)
	}
	sb.WriteString("\n) u")

	if q.Filter != nil && q.Filter.Needle != "" {
		needle := b.param(strings.ToLower(q.Filter.Needle))
		fmt.Fprintf(&sb, "\nWHERE position(%s in lower(u.%q)) > 0", needle, q.Filter.Var)
	}

	if len(q.OrderBy) > 0 {
		sb.WriteString("\nORDER BY ")
		for i, v := range q.OrderBy {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "u.%q ASC NULLS FIRST", v)
		}
	}
	if q.Limit > 0 {
		fmt.Fprintf(&sb, "\nLIMIT %d", q.Limit)
	}

	return sb.String(), b.params
}

func renderBranch(b *sqlBuilder, br triplestore.Branch, projected []string) string {
	refs := make(map[string]varRef)
	var conds []string
	var from strings.Builder

	bindPos := func(alias, col string, term triplestore.Term, isObject bool) {
		switch term.Kind {
		case triplestore.TermIRI, triplestore.TermLiteral:
			conds = append(conds, fmt.Sprintf("%s.%s = %s", alias, col, b.param(term.Value)))
			if isObject {
				if term.Kind == triplestore.TermIRI {
					conds = append(conds, alias+".object_is_iri")
				} else {
					conds = append(conds, "NOT "+alias+".object_is_iri")
				}
			}
		case triplestore.TermVar:
			expr := alias + "." + col
			if ref, ok := refs[term.Value]; ok {
				conds = append(conds, expr+" = "+ref.expr)
				return
			}
			iri := "TRUE"
			if isObject {
				iri = alias + ".object_is_iri"
			}
			refs[term.Value] = varRef{expr: expr, iriExpr: iri}
		}
	}

	for i, p := range br.Patterns {
		alias := "t" + strconv.Itoa(i)
		if i == 0 {
			from.WriteString("triples " + alias)
		} else {
			from.WriteString(" CROSS JOIN triples " + alias)
		}
		bindPos(alias, "subject", p.Subject, false)
		bindPos(alias, "predicate", p.Predicate, false)
		bindPos(alias, "object", p.Object, true)
	}

	for k, group := range br.Optional {
		renderOptionalGroup(b, &from, refs, k, group)
	}

	for _, bind := range br.Bindings {
		refs[bind.Var] = varRef{expr: b.param(bind.Value) + "::text", iriExpr: "FALSE"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	for i, v := range projected {
		if i > 0 {
			sb.WriteString(", ")
		}
		if ref, ok := refs[v]; ok {
			fmt.Fprintf(&sb, "%s AS %q, %s AS %q", ref.expr, v, ref.iriExpr, v+"__iri")
		} else {
			fmt.Fprintf(&sb, "NULL::text AS %q, NULL::boolean AS %q", v, v+"__iri")
		}
	}
	sb.WriteString("\nFROM ")
	sb.WriteString(from.String())
	if len(conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}
	return sb.String()
}

// renderOptionalGroup appends one LEFT JOIN whose subquery matches the
// whole group, so a partial match leaves every group variable NULL.
func renderOptionalGroup(b *sqlBuilder, from *strings.Builder, outer map[string]varRef, k int, group triplestore.OptionalGroup) {
	alias := "o" + strconv.Itoa(k)
	inner := make(map[string]varRef)
	var conds []string
	var tables strings.Builder

	bindPos := func(galias, col string, term triplestore.Term, isObject bool) {
		switch term.Kind {
		case triplestore.TermIRI, triplestore.TermLiteral:
			conds = append(conds, fmt.Sprintf("%s.%s = %s", galias, col, b.param(term.Value)))
			if isObject {
				if term.Kind == triplestore.TermIRI {
					conds = append(conds, galias+".object_is_iri")
				} else {
					conds = append(conds, "NOT "+galias+".object_is_iri")
				}
			}
		case triplestore.TermVar:
			expr := galias + "." + col
			if ref, ok := inner[term.Value]; ok {
				conds = append(conds, expr+" = "+ref.expr)
				return
			}
			iri := "TRUE"
			if isObject {
				iri = galias + ".object_is_iri"
			}
			inner[term.Value] = varRef{expr: expr, iriExpr: iri}
		}
	}

	for i, p := range group {
		galias := "g" + strconv.Itoa(i)
		if i == 0 {
			tables.WriteString("triples " + galias)
		} else {
			tables.WriteString(" CROSS JOIN triples " + galias)
		}
		bindPos(galias, "subject", p.Subject, false)
		bindPos(galias, "predicate", p.Predicate, false)
		bindPos(galias, "object", p.Object, true)
	}

	// Shared variables join the group to the outer patterns; fresh ones
	// become nullable columns of the branch.
	var cols []string
	var joins []string
	for _, v := range sortedVarNames(inner) {
		ref := inner[v]
		if out, ok := outer[v]; ok {
			cols = append(cols, fmt.Sprintf("%s AS %q", ref.expr, v))
			joins = append(joins, fmt.Sprintf("%s.%q = %s", alias, v, out.expr))
			continue
		}
		cols = append(cols, fmt.Sprintf("%s AS %q, %s AS %q", ref.expr, v, ref.iriExpr, v+"__iri"))
		outer[v] = varRef{
			expr:    fmt.Sprintf("%s.%q", alias, v),
			iriExpr: fmt.Sprintf("%s.%q", alias, v+"__iri"),
		}
	}

	on := "TRUE"
	if len(joins) > 0 {
		on = strings.Join(joins, " AND ")
	}
	where := ""
	if len(conds) > 0 {
		where = "\n  WHERE " + strings.Join(conds, " AND ")
	}

	fmt.Fprintf(from, "\nLEFT JOIN (\n  SELECT %s\n  FROM %s%s\n) %s ON %s",
		strings.Join(cols, ", "), tables.String(), where, alias, on)
}

func sortedVarNames(refs map[string]varRef) []string {
	names := make([]string, 0, len(refs))
	for v := range refs {
		names = append(names, v)
	}
	sort.Strings(names)
	return names
}
