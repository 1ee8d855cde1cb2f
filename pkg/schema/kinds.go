// Package schema holds the static description of the SCL node hierarchy:
// the closed set of node kinds, the child-producing relation table, the
// per-kind attribute declarations, and the vocabulary that maps short
// names to IRIs at the store boundary. Everything here is immutable after
// process start; the rest of the engine only reads it.
package schema

import (
	"errors"
	"fmt"
)

// Kind identifies the type of a node in the substation hierarchy.
// The set is closed: values outside the enumeration fail ParseKind
// and registry lookups.
type Kind string

const (
	KindIED                  Kind = "IED"
	KindAccessPoint          Kind = "AccessPoint"
	KindServer               Kind = "Server"
	KindLogicalDevice        Kind = "LogicalDevice"
	KindLogicalNode0         Kind = "LogicalNode0"
	KindLogicalNode          Kind = "LogicalNode"
	KindDataSet              Kind = "DataSet"
	KindGooseControl         Kind = "GooseControl"
	KindSampledValueControl  Kind = "SampledValueControl"
	KindReportControl        Kind = "ReportControl"
	KindDataObjectInstance   Kind = "DataObjectInstance"
	KindInputs               Kind = "Inputs"
	KindExternalReference    Kind = "ExternalReference"
	KindFunctionalConstraint Kind = "FunctionalConstraintAttr"
)

// ErrUnknownKind is returned for kind values outside the closed set.
// A known leaf kind is not an unknown kind.
var ErrUnknownKind = errors.New("unknown node kind")

// allKinds lists every member of the closed set, in hierarchy order.
var allKinds = []Kind{
	KindIED,
	KindAccessPoint,
	KindServer,
	KindLogicalDevice,
	KindLogicalNode0,
	KindLogicalNode,
	KindDataSet,
	KindGooseControl,
	KindSampledValueControl,
	KindReportControl,
	KindDataObjectInstance,
	KindInputs,
	KindExternalReference,
	KindFunctionalConstraint,
}

var kindSet = func() map[Kind]struct{} {
	s := make(map[Kind]struct{}, len(allKinds))
	for _, k := range allKinds {
		s[k] = struct{}{}
	}
	return s
}()

// String returns the kind's wire name.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k belongs to the closed kind set.
func (k Kind) Valid() bool {
	_, ok := kindSet[k]
	return ok
}

// ParseKind converts a wire name to a Kind. Unknown names return
// ErrUnknownKind; the schema is closed and parsing never guesses.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Kinds returns the closed kind set in hierarchy order. The returned
// slice is a copy and safe to mutate.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}
