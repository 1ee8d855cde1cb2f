// Package triplestore defines the narrow query/response contract between
// the navigation engine and a subject-predicate-object store. Queries are
// built as a small structural IR (conjunctive patterns, optional patterns,
// unioned branches, one substring filter) that each backend renders into
// its native language: SPARQL text, SQL, or direct evaluation in memory.
package triplestore

// TermKind discriminates the three positions a pattern term can take.
type TermKind int

const (
	TermIRI TermKind = iota
	TermLiteral
	TermVar
)

// Term is one position of a triple pattern: a concrete IRI, a literal
// value, or a variable to be bound by the store.
type Term struct {
	Kind  TermKind
	Value string
}

// IRI returns a concrete IRI term.
func IRI(s string) Term {
	return Term{Kind: TermIRI, Value: s}
}

// Literal returns a concrete literal term.
func Literal(s string) Term {
	return Term{Kind: TermLiteral, Value: s}
}

// Var returns a variable term. The name carries no leading marker; the
// backend adds whatever its language requires.
func Var(name string) Term {
	return Term{Kind: TermVar, Value: name}
}

// TriplePattern matches triples whose positions unify with its terms.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// Binding assigns a literal constant to a variable within one branch.
// Branches bind the child kind (and category) this way because the store
// itself has no notion of a node's kind beyond the relation traversed.
type Binding struct {
	Var   string
	Value string
}

// OptionalGroup is a set of patterns that left-joins as a unit: either
// the whole group matches and extends the row, or the row passes through
// with the group's variables unbound. Attribute retrieval uses groups of
// one pattern; the bay association traversal uses a three-pattern group.
type OptionalGroup []TriplePattern

// Branch is one alternative of a union: its required patterns must all
// match, each optional group left-joins independently, and its bindings
// attach constants to the branch's rows.
type Branch struct {
	Patterns []TriplePattern
	Optional []OptionalGroup
	Bindings []Binding
}

// SubstringFilter keeps only rows whose value for Var contains Needle,
// compared case-insensitively. Rows where Var is unbound never match a
// non-empty needle.
type SubstringFilter struct {
	Var    string
	Needle string
}

// SelectQuery is the complete read request sent to a store. Vars is the
// projection in output order. OrderBy lists variables sorted ascending;
// unbound values sort before bound ones. Limit of zero means no limit.
type SelectQuery struct {
	Vars     []string
	Branches []Branch
	Filter   *SubstringFilter
	OrderBy  []string
	Limit    int
}
