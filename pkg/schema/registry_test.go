package schema

import (
	"errors"
	"testing"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    Kind
		wantErr bool
	}{
		{"IED", KindIED, false},
		{"AccessPoint", KindAccessPoint, false},
		{"LogicalNode0", KindLogicalNode0, false},
		{"FunctionalConstraintAttr", KindFunctionalConstraint, false},
		{"ied", "", true}, // names are case-sensitive
		{"Bay", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownKind) {
					t.Fatalf("ParseKind(%q) error = %v, want ErrUnknownKind", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestRegistryLookup_UnknownKind(t *testing.T) {
	r := NewRegistry()

	_, err := r.Lookup(Kind("Bay"))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("Lookup(Bay) error = %v, want ErrUnknownKind", err)
	}
}

func TestRegistryLookup_LeafKinds(t *testing.T) {
	r := NewRegistry()

	leaves := []Kind{
		KindGooseControl,
		KindSampledValueControl,
		KindReportControl,
		KindDataObjectInstance,
		KindExternalReference,
		KindFunctionalConstraint,
	}

	for _, k := range leaves {
		t.Run(string(k), func(t *testing.T) {
			rels, err := r.Lookup(k)
			if err != nil {
				t.Fatalf("Lookup(%v) unexpected error: %v", k, err)
			}
			if len(rels) != 0 {
				t.Errorf("Lookup(%v) = %d relations, want 0 (leaf)", k, len(rels))
			}
			if r.Expandable(k) {
				t.Errorf("Expandable(%v) = true, want false", k)
			}
		})
	}
}

func TestRegistryLookup_RelationTable(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		parent Kind
		want   []ChildRelation
	}{
		{KindIED, []ChildRelation{
			{Predicate: PredHasAccessPoint, Child: KindAccessPoint},
		}},
		{KindAccessPoint, []ChildRelation{
			{Predicate: PredHasServer, Child: KindServer},
		}},
		{KindServer, []ChildRelation{
			{Predicate: PredHasLogicalDevice, Child: KindLogicalDevice},
		}},
		{KindLogicalDevice, []ChildRelation{
			{Predicate: PredHasLN0, Child: KindLogicalNode0},
			{Predicate: PredHasLN, Child: KindLogicalNode},
		}},
		{KindLogicalNode0, []ChildRelation{
			{Predicate: PredHasDataSet, Child: KindDataSet, Category: CategoryData},
			{Predicate: PredHasGSEControl, Child: KindGooseControl, Category: CategoryCommunication},
			{Predicate: PredHasSVControl, Child: KindSampledValueControl, Category: CategoryCommunication},
			{Predicate: PredHasReportControl, Child: KindReportControl, Category: CategoryCommunication},
			{Predicate: PredHasDOI, Child: KindDataObjectInstance, Category: CategoryData},
		}},
		{KindLogicalNode, []ChildRelation{
			{Predicate: PredHasDOI, Child: KindDataObjectInstance},
			{Predicate: PredHasInputs, Child: KindInputs},
		}},
		{KindDataSet, []ChildRelation{
			{Predicate: PredHasFCDA, Child: KindFunctionalConstraint},
		}},
		{KindInputs, []ChildRelation{
			{Predicate: PredHasExtRef, Child: KindExternalReference},
		}},
	}

	for _, tt := range tests {
		t.Run(string(tt.parent), func(t *testing.T) {
			got, err := r.Lookup(tt.parent)
			if err != nil {
				t.Fatalf("Lookup(%v) unexpected error: %v", tt.parent, err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Lookup(%v) = %d relations, want %d", tt.parent, len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Lookup(%v)[%d] = %+v, want %+v", tt.parent, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Every kind except IED must be reachable through exactly one parent: the
// kind hierarchy is a tree, not a DAG.
func TestRegistry_KindHierarchyIsATree(t *testing.T) {
	r := NewRegistry()

	parents := make(map[Kind]int)
	for _, parent := range Kinds() {
		rels, err := r.Lookup(parent)
		if err != nil {
			t.Fatalf("Lookup(%v): %v", parent, err)
		}
		for _, rel := range rels {
			parents[rel.Child]++
		}
	}

	for _, k := range Kinds() {
		if k == KindIED {
			if parents[k] != 0 {
				t.Errorf("root kind %v has %d parents, want 0", k, parents[k])
			}
			continue
		}
		if parents[k] != 1 {
			t.Errorf("kind %v has %d parent relations, want exactly 1", k, parents[k])
		}
	}
}

func TestRegistry_LookupReturnsCopy(t *testing.T) {
	r := NewRegistry()

	first, err := r.Lookup(KindLogicalDevice)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	first[0].Predicate = "mutated"

	second, err := r.Lookup(KindLogicalDevice)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if second[0].Predicate != PredHasLN0 {
		t.Errorf("registry contents changed through a returned slice: %+v", second[0])
	}
}

func TestRegistryAttributes(t *testing.T) {
	r := NewRegistry()

	tests := []struct {
		kind Kind
		want []string
	}{
		{KindIED, []string{AttrName, AttrType, AttrManufacturer, AttrDesc}},
		{KindAccessPoint, []string{AttrName}},
		{KindServer, nil},
		{KindLogicalDevice, []string{AttrInst, AttrLDName}},
		{KindLogicalNode0, []string{AttrPrefix, AttrLNClass, AttrInst}},
		{KindLogicalNode, []string{AttrPrefix, AttrLNClass, AttrInst}},
		{KindInputs, nil},
		{KindFunctionalConstraint, []string{AttrLDInst, AttrPrefix, AttrLNClass, AttrLNInst, AttrDOName, AttrDAName, AttrFC}},
		{KindExternalReference, []string{AttrIEDName, AttrLDInst, AttrPrefix, AttrLNClass, AttrLNInst, AttrDOName, AttrDAName}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got := r.Attributes(tt.kind)
			if len(got) != len(tt.want) {
				t.Fatalf("Attributes(%v) = %v, want %v", tt.kind, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Attributes(%v)[%d] = %q, want %q", tt.kind, i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestDefaultRegistry_Singleton(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() returned distinct instances")
	}
}

func TestVocabulary(t *testing.T) {
	t.Run("default namespace", func(t *testing.T) {
		v := NewVocabulary("")
		want := "http://www.iec.ch/61850/2003/SCL#hasAccessPoint"
		if got := v.IRI(PredHasAccessPoint); got != want {
			t.Errorf("IRI() = %q, want %q", got, want)
		}
	})

	t.Run("custom namespace", func(t *testing.T) {
		v := NewVocabulary("http://example.org/scl#")
		if got := v.IRI(AttrName); got != "http://example.org/scl#name" {
			t.Errorf("IRI() = %q", got)
		}
		if got := v.ClassIRI(KindIED); got != "http://example.org/scl#IED" {
			t.Errorf("ClassIRI() = %q", got)
		}
	})

	t.Run("zero value resolves against default", func(t *testing.T) {
		var v Vocabulary
		if got := v.Namespace(); got != DefaultNamespace {
			t.Errorf("Namespace() = %q, want default", got)
		}
	})
}
