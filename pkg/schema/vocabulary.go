package schema

// Short predicate names for the child-producing relations. Code deals in
// short names everywhere; IRIs are minted only when a query is rendered
// for a concrete store backend.
const (
	PredHasAccessPoint   = "hasAccessPoint"
	PredHasServer        = "hasServer"
	PredHasLogicalDevice = "hasLogicalDevice"
	PredHasLN0           = "hasLN0"
	PredHasLN            = "hasLN"
	PredHasDataSet       = "hasDataSet"
	PredHasGSEControl    = "hasGSEControl"
	PredHasSVControl     = "hasSVControl"
	PredHasReportControl = "hasReportControl"
	PredHasDOI           = "hasDOI"
	PredHasInputs        = "hasInputs"
	PredHasFCDA          = "hasFCDA"
	PredHasExtRef        = "hasExtRef"

	// Bay association predicates, used only by root listing's bay grouping.
	PredIEDRef   = "iedRef"
	PredHasLNode = "hasLNode"
)

// Short attribute names, shared by the registry declarations, the query
// builders and the label formatters.
const (
	AttrName         = "name"
	AttrType         = "type"
	AttrManufacturer = "manufacturer"
	AttrDesc         = "desc"
	AttrInst         = "inst"
	AttrLDName       = "ldName"
	AttrPrefix       = "prefix"
	AttrLNClass      = "lnClass"
	AttrLNInst       = "lnInst"
	AttrLDInst       = "ldInst"
	AttrDOName       = "doName"
	AttrDAName       = "daName"
	AttrFC           = "fc"
	AttrIEDName      = "iedName"
)

// DefaultNamespace is the base IRI under which all SCL vocabulary terms
// live unless a deployment overrides it.
const DefaultNamespace = "http://www.iec.ch/61850/2003/SCL#"

// RDFType is the rdf:type predicate IRI, used to select root entities.
const RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Vocabulary resolves short predicate, attribute and class names to full
// IRIs for one configured namespace.
type Vocabulary struct {
	namespace string
}

// NewVocabulary returns a vocabulary rooted at the given namespace, or at
// DefaultNamespace when namespace is empty.
func NewVocabulary(namespace string) Vocabulary {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return Vocabulary{namespace: namespace}
}

// Namespace returns the base IRI this vocabulary resolves against.
func (v Vocabulary) Namespace() string {
	if v.namespace == "" {
		return DefaultNamespace
	}
	return v.namespace
}

// IRI resolves a short predicate or attribute name to its full IRI.
func (v Vocabulary) IRI(short string) string {
	return v.Namespace() + short
}

// ClassIRI resolves a kind to the class IRI used as the object of
// rdf:type triples.
func (v Vocabulary) ClassIRI(k Kind) string {
	return v.Namespace() + string(k)
}
