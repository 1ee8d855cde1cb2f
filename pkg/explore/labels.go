package explore

import (
	"strings"

	"github.com/dd0wney/sclgraph/pkg/schema"
)

// FormatLabel derives the display label for a node of the given kind from
// its raw attributes. It is total and never fails: absent or empty parts
// drop out of the composed label, and a fully empty composition degrades
// to the kind's documented fallback. A bad label must never block
// navigation of an otherwise valid subtree.
func FormatLabel(kind schema.Kind, id string, attrs map[string]*string) string {
	get := func(name string) string {
		if v, ok := attrs[name]; ok && v != nil {
			return *v
		}
		return ""
	}

	switch kind {
	case schema.KindServer:
		return "Server"
	case schema.KindInputs:
		return "Inputs"
	case schema.KindLogicalDevice:
		return labelLogicalDevice(get)
	case schema.KindLogicalNode0, schema.KindLogicalNode:
		return labelLogicalNode(get)
	case schema.KindFunctionalConstraint:
		return labelFCDA(get, id)
	case schema.KindExternalReference:
		return labelExtRef(get, id)
	default:
		// IED, AccessPoint, DataSet, control blocks, DataObjectInstance:
		// the name verbatim, falling back to the identifier's trailing
		// path segment.
		if name := get(schema.AttrName); name != "" {
			return name
		}
		return trailingSegment(id)
	}
}

func labelLogicalDevice(get func(string) string) string {
	inst := get(schema.AttrInst)
	ldName := get(schema.AttrLDName)
	switch {
	case inst == "" && ldName == "":
		return "Unknown LD"
	case ldName == "":
		return inst
	case inst == "":
		return "(" + ldName + ")"
	default:
		return inst + " (" + ldName + ")"
	}
}

func labelLogicalNode(get func(string) string) string {
	label := get(schema.AttrPrefix) + get(schema.AttrLNClass) + get(schema.AttrInst)
	if label == "" {
		return "Unknown LN"
	}
	return label
}

func labelFCDA(get func(string) string, id string) string {
	segments := make([]string, 0, 4)
	for _, s := range []string{
		get(schema.AttrLDInst),
		get(schema.AttrPrefix) + get(schema.AttrLNClass) + get(schema.AttrLNInst),
		get(schema.AttrDOName),
		get(schema.AttrDAName),
	} {
		if s != "" {
			segments = append(segments, s)
		}
	}

	label := strings.Join(segments, ".")
	if label == "" {
		label = trailingSegment(id)
	}
	if fc := get(schema.AttrFC); fc != "" {
		label += " [" + fc + "]"
	}
	return label
}

func labelExtRef(get func(string) string, id string) string {
	segments := make([]string, 0, 5)
	for _, s := range []string{
		get(schema.AttrIEDName),
		get(schema.AttrLDInst),
		get(schema.AttrPrefix) + get(schema.AttrLNClass) + get(schema.AttrLNInst),
		get(schema.AttrDOName),
		get(schema.AttrDAName),
	} {
		if s != "" {
			segments = append(segments, s)
		}
	}

	if len(segments) == 0 {
		return trailingSegment(id)
	}
	return strings.Join(segments, "/")
}

// trailingSegment extracts the last path segment of an identifier IRI,
// the shared fallback for nodes whose naming attributes are all absent.
func trailingSegment(id string) string {
	trimmed := strings.TrimRight(id, "/#")
	if i := strings.LastIndexAny(trimmed, "/#"); i >= 0 {
		return trimmed[i+1:]
	}
	if trimmed == "" {
		return id
	}
	return trimmed
}
