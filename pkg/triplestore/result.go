package triplestore

// ValueKind discriminates bound result values.
type ValueKind int

const (
	ValueIRI ValueKind = iota
	ValueLiteral
)

// Value is one bound cell of a result row.
type Value struct {
	Kind ValueKind
	Text string
}

// IsIRI reports whether the value is an IRI rather than a literal.
func (v *Value) IsIRI() bool {
	return v != nil && v.Kind == ValueIRI
}

// Row maps variable names to their bound values. A missing key or a nil
// value both mean the variable is unbound in this row; consumers must
// treat unbound as distinct from the empty string.
type Row map[string]*Value

// Text returns the row's value for a variable, or nil when unbound.
func (r Row) Text(name string) *string {
	v, ok := r[name]
	if !ok || v == nil {
		return nil
	}
	s := v.Text
	return &s
}

// ResultSet is an ordered sequence of rows as returned by the store.
type ResultSet struct {
	Vars []string
	Rows []Row
}
