package memstore

import (
	"github.com/dd0wney/sclgraph/pkg/schema"
)

// FixtureBase is the identifier namespace of the demo substation.
const FixtureBase = "http://example.org/scd#"

// Well-known fixture identifiers, handy for tests and the demo clients.
const (
	FixtureBCU = FixtureBase + "POSTE4BUIS1BCU1"
	FixtureSCU = FixtureBase + "POSTE4BUIS1SCU1"
	FixtureBay = FixtureBase + "E01"
)

// NewFixture returns a store pre-loaded with one small substation: a bay
// control unit with its full hierarchy down to FCDAs and external
// references, a second shallower IED, and one bay association. The
// terminal clients default to it so the explorer works out of the box.
func NewFixture() *Store {
	voc := schema.NewVocabulary("")
	s := New()

	ref := func(subj, pred, obj string) {
		s.Add(Triple{Subject: subj, Predicate: voc.IRI(pred), Object: obj, ObjectIRI: true})
	}
	lit := func(subj, attr, val string) {
		s.Add(Triple{Subject: subj, Predicate: voc.IRI(attr), Object: val})
	}
	typed := func(subj string, k schema.Kind) {
		s.Add(Triple{Subject: subj, Predicate: schema.RDFType, Object: voc.ClassIRI(k), ObjectIRI: true})
	}

	bcu := FixtureBCU
	scu := FixtureSCU

	typed(bcu, schema.KindIED)
	lit(bcu, schema.AttrName, "POSTE4BUIS1BCU1")
	lit(bcu, schema.AttrType, "BCU")
	lit(bcu, schema.AttrManufacturer, "GE")
	lit(bcu, schema.AttrDesc, "Bay control unit")

	typed(scu, schema.KindIED)
	lit(scu, schema.AttrName, "POSTE4BUIS1SCU1")
	lit(scu, schema.AttrType, "SCU")
	lit(scu, schema.AttrManufacturer, "GE")

	ap1 := FixtureBase + "POSTE4BUIS1BCU1/AP1"
	ref(bcu, schema.PredHasAccessPoint, ap1)
	lit(ap1, schema.AttrName, "PROCESS_AP")

	ap2 := FixtureBase + "POSTE4BUIS1SCU1/AP1"
	ref(scu, schema.PredHasAccessPoint, ap2)
	lit(ap2, schema.AttrName, "ADMIN_AP")

	srv := ap1 + "/S1"
	ref(ap1, schema.PredHasServer, srv)

	ld1 := srv + "/LD1"
	ref(srv, schema.PredHasLogicalDevice, ld1)
	lit(ld1, schema.AttrInst, "LDAGSA1")
	lit(ld1, schema.AttrLDName, "AgentServerLD")

	ld2 := srv + "/LD2"
	ref(srv, schema.PredHasLogicalDevice, ld2)
	lit(ld2, schema.AttrInst, "LDTM1")

	ln0 := ld1 + "/LLN0"
	ref(ld1, schema.PredHasLN0, ln0)
	lit(ln0, schema.AttrLNClass, "LLN0")

	lphd := ld1 + "/LPHD0"
	ref(ld1, schema.PredHasLN, lphd)
	lit(lphd, schema.AttrLNClass, "LPHD")
	lit(lphd, schema.AttrInst, "0")

	ptoc := ld1 + "/PROTPTOC1"
	ref(ld1, schema.PredHasLN, ptoc)
	lit(ptoc, schema.AttrPrefix, "PROT")
	lit(ptoc, schema.AttrLNClass, "PTOC")
	lit(ptoc, schema.AttrInst, "1")

	ds := ln0 + "/MeasFlt"
	ref(ln0, schema.PredHasDataSet, ds)
	lit(ds, schema.AttrName, "MeasFlt")

	rc := ln0 + "/urcbMeas"
	ref(ln0, schema.PredHasReportControl, rc)
	lit(rc, schema.AttrName, "urcbMeas")

	gc := ln0 + "/gcbTrip"
	ref(ln0, schema.PredHasGSEControl, gc)
	lit(gc, schema.AttrName, "gcbTrip")

	svc := ln0 + "/MSVCB01"
	ref(ln0, schema.PredHasSVControl, svc)
	lit(svc, schema.AttrName, "MSVCB01")

	doi0 := ln0 + "/Mod"
	ref(ln0, schema.PredHasDOI, doi0)
	lit(doi0, schema.AttrName, "Mod")

	doi1 := ptoc + "/Str"
	ref(ptoc, schema.PredHasDOI, doi1)
	lit(doi1, schema.AttrName, "Str")

	inputs := ptoc + "/Inputs"
	ref(ptoc, schema.PredHasInputs, inputs)

	extRef := inputs + "/ExtRef1"
	ref(inputs, schema.PredHasExtRef, extRef)
	lit(extRef, schema.AttrIEDName, "POSTE4BUIS1SCU1")
	lit(extRef, schema.AttrLDInst, "LDTM1")
	lit(extRef, schema.AttrLNClass, "TCTR")
	lit(extRef, schema.AttrLNInst, "1")
	lit(extRef, schema.AttrDOName, "AmpSv")
	lit(extRef, schema.AttrDAName, "instMag")

	fcda1 := ds + "/FCDA1"
	ref(ds, schema.PredHasFCDA, fcda1)
	lit(fcda1, schema.AttrLDInst, "LDAGSA1")
	lit(fcda1, schema.AttrPrefix, "PROT")
	lit(fcda1, schema.AttrLNClass, "PTOC")
	lit(fcda1, schema.AttrLNInst, "1")
	lit(fcda1, schema.AttrDOName, "Str")
	lit(fcda1, schema.AttrDAName, "general")
	lit(fcda1, schema.AttrFC, "ST")

	fcda2 := ds + "/FCDA2"
	ref(ds, schema.PredHasFCDA, fcda2)
	lit(fcda2, schema.AttrLDInst, "LDAGSA1")
	lit(fcda2, schema.AttrLNClass, "LLN0")
	lit(fcda2, schema.AttrDOName, "Mod")
	lit(fcda2, schema.AttrFC, "ST")

	// One bay associated with the BCU through an LNode; the SCU has no
	// bay and lists under the sentinel group.
	lnode := FixtureBay + "/LNode1"
	lit(FixtureBay, schema.AttrName, "E01")
	ref(FixtureBay, schema.PredHasLNode, lnode)
	ref(lnode, schema.PredIEDRef, bcu)

	return s
}
