package schema

import (
	"fmt"
	"sync"
)

// Child category tags. Only LogicalNode0 declares them; they exist purely
// so its five unioned branches sort communication blocks apart from data.
const (
	CategoryData          = "data"
	CategoryCommunication = "communication"
)

// ChildRelation is one edge in the kind hierarchy: following Predicate
// from a node of the parent kind reaches children of kind Child.
// Category is empty unless the parent orders its children by category.
type ChildRelation struct {
	Predicate string
	Child     Kind
	Category  string
}

// Registry is the static dispatch table the whole engine consults: which
// relations produce children for a kind, and which attributes each kind
// declares. Built once, never mutated afterwards.
type Registry struct {
	relations  map[Kind][]ChildRelation
	attributes map[Kind][]string
}

// NewRegistry builds the full SCL hierarchy table.
func NewRegistry() *Registry {
	r := &Registry{
		relations:  make(map[Kind][]ChildRelation),
		attributes: make(map[Kind][]string),
	}

	r.relations[KindIED] = []ChildRelation{
		{Predicate: PredHasAccessPoint, Child: KindAccessPoint},
	}
	r.relations[KindAccessPoint] = []ChildRelation{
		{Predicate: PredHasServer, Child: KindServer},
	}
	r.relations[KindServer] = []ChildRelation{
		{Predicate: PredHasLogicalDevice, Child: KindLogicalDevice},
	}
	r.relations[KindLogicalDevice] = []ChildRelation{
		{Predicate: PredHasLN0, Child: KindLogicalNode0},
		{Predicate: PredHasLN, Child: KindLogicalNode},
	}
	r.relations[KindLogicalNode0] = []ChildRelation{
		{Predicate: PredHasDataSet, Child: KindDataSet, Category: CategoryData},
		{Predicate: PredHasGSEControl, Child: KindGooseControl, Category: CategoryCommunication},
		{Predicate: PredHasSVControl, Child: KindSampledValueControl, Category: CategoryCommunication},
		{Predicate: PredHasReportControl, Child: KindReportControl, Category: CategoryCommunication},
		{Predicate: PredHasDOI, Child: KindDataObjectInstance, Category: CategoryData},
	}
	r.relations[KindLogicalNode] = []ChildRelation{
		{Predicate: PredHasDOI, Child: KindDataObjectInstance},
		{Predicate: PredHasInputs, Child: KindInputs},
	}
	r.relations[KindDataSet] = []ChildRelation{
		{Predicate: PredHasFCDA, Child: KindFunctionalConstraint},
	}
	r.relations[KindInputs] = []ChildRelation{
		{Predicate: PredHasExtRef, Child: KindExternalReference},
	}

	r.attributes[KindIED] = []string{AttrName, AttrType, AttrManufacturer, AttrDesc}
	r.attributes[KindAccessPoint] = []string{AttrName}
	r.attributes[KindServer] = nil
	r.attributes[KindLogicalDevice] = []string{AttrInst, AttrLDName}
	r.attributes[KindLogicalNode0] = []string{AttrPrefix, AttrLNClass, AttrInst}
	r.attributes[KindLogicalNode] = []string{AttrPrefix, AttrLNClass, AttrInst}
	r.attributes[KindDataSet] = []string{AttrName}
	r.attributes[KindGooseControl] = []string{AttrName}
	r.attributes[KindSampledValueControl] = []string{AttrName}
	r.attributes[KindReportControl] = []string{AttrName}
	r.attributes[KindDataObjectInstance] = []string{AttrName}
	r.attributes[KindInputs] = nil
	r.attributes[KindExternalReference] = []string{
		AttrIEDName, AttrLDInst, AttrPrefix, AttrLNClass, AttrLNInst, AttrDOName, AttrDAName,
	}
	r.attributes[KindFunctionalConstraint] = []string{
		AttrLDInst, AttrPrefix, AttrLNClass, AttrLNInst, AttrDOName, AttrDAName, AttrFC,
	}

	return r
}

// Lookup returns the child relations of a kind. A known leaf kind returns
// an empty slice and no error; kinds outside the closed set return
// ErrUnknownKind. The returned slice is a copy.
func (r *Registry) Lookup(k Kind) ([]ChildRelation, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, string(k))
	}
	rels := r.relations[k]
	out := make([]ChildRelation, len(rels))
	copy(out, rels)
	return out, nil
}

// Expandable reports whether the kind has at least one child relation.
// Unknown kinds are not expandable.
func (r *Registry) Expandable(k Kind) bool {
	return len(r.relations[k]) > 0
}

// Attributes returns the declared optional attribute names of a kind, in
// declaration order. Unknown kinds return nil.
func (r *Registry) Attributes(k Kind) []string {
	attrs := r.attributes[k]
	out := make([]string, len(attrs))
	copy(out, attrs)
	return out
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the process-wide registry instance.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
