package openmm

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Systems are exchanged in the engine's XML serialization format.
// Documents are handled as generic element trees, which each force
// converts to and from its own representation. Forces of classes not known
// here are kept as trees, so they are written back unchanged.

const (
	xmlSystemVersion = "1"
	openmmVersion    = "8.1"
)

type xmlNode struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Nodes   []xmlNode  `xml:",any"`
}

// newNode returns an element with the given name and attributes, given as
// name, value pairs.
func newNode(name string, attrs ...string) *xmlNode {
	n := &xmlNode{XMLName: xml.Name{Local: name}}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.set(attrs[i], attrs[i+1])
	}
	return n
}

func (n *xmlNode) set(name, value string) {
	for i, a := range n.Attrs {
		if a.Name.Local == name {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

func (n *xmlNode) get(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) add(children ...*xmlNode) {
	for _, c := range children {
		n.Nodes = append(n.Nodes, *c)
	}
}

// child returns the first child element with the given name, or an empty
// element if there is none.
func (n *xmlNode) child(name string) *xmlNode {
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			return &n.Nodes[i]
		}
	}
	return newNode(name)
}

// children returns the child elements with the given name.
func (n *xmlNode) children(name string) []*xmlNode {
	var ret []*xmlNode
	for i := range n.Nodes {
		if n.Nodes[i].XMLName.Local == name {
			ret = append(ret, &n.Nodes[i])
		}
	}
	return ret
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func btoa(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// attrReader reads typed attributes from an element. The first error is
// kept, and later reads are no-ops.
type attrReader struct {
	n   *xmlNode
	err error
}

func (a *attrReader) raw(name string, required bool) (string, bool) {
	if a.err != nil {
		return "", false
	}
	v, ok := a.n.get(name)
	if !ok && required {
		a.err = fmt.Errorf("element %s lacks attribute %s", a.n.XMLName.Local, name)
	}
	return v, ok
}

func (a *attrReader) str(name string, required bool) string {
	v, _ := a.raw(name, required)
	return v
}

func (a *attrReader) float(name string, required bool, def float64) float64 {
	v, ok := a.raw(name, required)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		a.err = fmt.Errorf("attribute %s of %s: %w", name, a.n.XMLName.Local, err)
	}
	return f
}

func (a *attrReader) int(name string, required bool, def int) int {
	v, ok := a.raw(name, required)
	if !ok {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		a.err = fmt.Errorf("attribute %s of %s: %w", name, a.n.XMLName.Local, err)
	}
	return i
}

func (a *attrReader) bool(name string) bool {
	return a.int(name, false, 0) != 0
}

// forceNode returns the Force element with the attributes shared by all the forces.
func (b *base) forceNode(version string, attrs ...string) *xmlNode {
	n := newNode("Force", "type", b.class, "forceGroup", strconv.Itoa(b.group), "name", b.Name(), "version", version)
	for i := 0; i+1 < len(attrs); i += 2 {
		n.set(attrs[i], attrs[i+1])
	}
	return n
}

func (b *base) readCommon(a *attrReader) {
	b.group = a.int("forceGroup", false, 0)
	if name := a.str("name", false); name != b.class {
		b.name = name
	}
}

func globalsNode(globals []GlobalParameter) *xmlNode {
	g := newNode("GlobalParameters")
	for _, p := range globals {
		g.add(newNode("Parameter", "default", ftoa(p.Default), "name", p.Name))
	}
	return g
}

func readGlobals(n *xmlNode) ([]GlobalParameter, error) {
	var ret []GlobalParameter
	for _, p := range n.child("GlobalParameters").children("Parameter") {
		a := &attrReader{n: p}
		g := GlobalParameter{Name: a.str("name", true), Default: a.float("default", true, 0)}
		if a.err != nil {
			return nil, a.err
		}
		ret = append(ret, g)
	}
	return ret, nil
}

func paramNamesNode(tag string, names []string) *xmlNode {
	ret := newNode(tag)
	for _, v := range names {
		ret.add(newNode("Parameter", "name", v))
	}
	return ret
}

func readParamNames(n *xmlNode, tag string) ([]string, error) {
	var ret []string
	for _, p := range n.child(tag).children("Parameter") {
		a := &attrReader{n: p}
		ret = append(ret, a.str("name", true))
		if a.err != nil {
			return nil, a.err
		}
	}
	return ret, nil
}

// sets the param1, param2... attributes of n.
func setParams(n *xmlNode, params []float64) {
	for i, v := range params {
		n.set(fmt.Sprintf("param%d", i+1), ftoa(v))
	}
}

func readParams(a *attrReader, n int) []float64 {
	if n == 0 {
		return nil
	}
	ret := make([]float64, n)
	for i := range ret {
		ret[i] = a.float(fmt.Sprintf("param%d", i+1), true, 0)
	}
	return ret
}

func (F *CustomBondedForce) toXML() *xmlNode {
	n := F.forceNode("3", "energy", F.energy, "usesPeriodic", btoa(F.pbc))
	terms := newNode(F.kind.listTag)
	for _, t := range F.terms {
		item := newNode(F.kind.itemTag)
		for j, p := range t.Particles {
			item.set(F.kind.particles[j], strconv.Itoa(p))
		}
		setParams(item, t.Params)
		terms.add(item)
	}
	n.add(paramNamesNode(F.kind.perTag, F.perTerm), globalsNode(F.globals), newNode("EnergyParameterDerivatives"), terms)
	return n
}

func customBondedFromXML(class string, n *xmlNode) (Force, error) {
	a := &attrReader{n: n}
	F, err := NewCustomBondedForce(class, a.str("energy", true))
	if a.err != nil {
		return nil, a.err
	}
	if err != nil {
		return nil, err
	}
	F.readCommon(a)
	F.pbc = a.bool("usesPeriodic")
	if a.err != nil {
		return nil, a.err
	}
	if F.perTerm, err = readParamNames(n, F.kind.perTag); err != nil {
		return nil, err
	}
	if F.globals, err = readGlobals(n); err != nil {
		return nil, err
	}
	for _, item := range n.child(F.kind.listTag).children(F.kind.itemTag) {
		ia := &attrReader{n: item}
		t := Term{Particles: make([]int, F.kind.arity)}
		for j, name := range F.kind.particles {
			t.Particles[j] = ia.int(name, true, 0)
		}
		t.Params = readParams(ia, len(F.perTerm))
		if ia.err != nil {
			return nil, ia.err
		}
		F.terms = append(F.terms, t)
	}
	return F, nil
}

func (F *NonbondedForce) toXML() *xmlNode {
	n := F.forceNode("4", "method", strconv.Itoa(F.method), "cutoff", ftoa(F.cutoff),
		"ewaldTolerance", ftoa(F.ewaldTol), "dispersionCorrection", btoa(F.dispersionCor))
	parts := newNode("Particles")
	for _, p := range F.particles {
		parts.add(newNode("Particle", "eps", ftoa(p.Epsilon), "q", ftoa(p.Charge), "sig", ftoa(p.Sigma)))
	}
	excs := newNode("Exceptions")
	for _, e := range F.exceptions {
		excs.add(newNode("Exception", "eps", ftoa(e.Epsilon), "p1", strconv.Itoa(e.P1), "p2", strconv.Itoa(e.P2), "q", ftoa(e.ChargeProd), "sig", ftoa(e.Sigma)))
	}
	n.add(newNode("GlobalParameters"), parts, excs)
	return n
}

func nonbondedFromXML(class string, n *xmlNode) (Force, error) {
	F := NewNonbondedForce()
	a := &attrReader{n: n}
	F.readCommon(a)
	F.method = a.int("method", false, NoCutoff)
	F.cutoff = a.float("cutoff", false, defaultCutoff)
	F.ewaldTol = a.float("ewaldTolerance", false, F.ewaldTol)
	F.dispersionCor = a.int("dispersionCorrection", false, 1) != 0
	if a.err != nil {
		return nil, a.err
	}
	for _, p := range n.child("Particles").children("Particle") {
		pa := &attrReader{n: p}
		F.particles = append(F.particles, NBParticle{Charge: pa.float("q", true, 0), Sigma: pa.float("sig", true, 0), Epsilon: pa.float("eps", true, 0)})
		if pa.err != nil {
			return nil, pa.err
		}
	}
	for _, e := range n.child("Exceptions").children("Exception") {
		ea := &attrReader{n: e}
		F.exceptions = append(F.exceptions, NBException{
			P1: ea.int("p1", true, 0), P2: ea.int("p2", true, 0),
			ChargeProd: ea.float("q", true, 0), Sigma: ea.float("sig", true, 0), Epsilon: ea.float("eps", true, 0),
		})
		if ea.err != nil {
			return nil, ea.err
		}
	}
	return F, nil
}

func (F *CustomNonbondedForce) toXML() *xmlNode {
	n := F.forceNode("3", "energy", F.energy, "method", strconv.Itoa(F.method), "cutoff", ftoa(F.cutoff),
		"switchingDistance", ftoa(F.switchDistance), "useSwitchingFunction", btoa(F.switching),
		"useLongRangeCorrection", btoa(F.longRange))
	parts := newNode("Particles")
	for _, p := range F.particles {
		item := newNode("Particle")
		setParams(item, p)
		parts.add(item)
	}
	excl := newNode("Exclusions")
	for _, e := range F.exclusions {
		excl.add(newNode("Exclusion", "p1", strconv.Itoa(e[0]), "p2", strconv.Itoa(e[1])))
	}
	n.add(paramNamesNode("PerParticleParameters", F.perParticle), globalsNode(F.globals),
		newNode("ComputedValues"), newNode("EnergyParameterDerivatives"), parts, excl,
		newNode("Functions"), newNode("InteractionGroups"))
	return n
}

func customNonbondedFromXML(class string, n *xmlNode) (Force, error) {
	a := &attrReader{n: n}
	F, err := NewCustomNonbondedForce(a.str("energy", true))
	if a.err != nil {
		return nil, a.err
	}
	if err != nil {
		return nil, err
	}
	F.readCommon(a)
	F.method = a.int("method", false, NoCutoff)
	F.cutoff = a.float("cutoff", false, defaultCutoff)
	F.switchDistance = a.float("switchingDistance", false, -1)
	F.switching = a.bool("useSwitchingFunction")
	F.longRange = a.bool("useLongRangeCorrection")
	if a.err != nil {
		return nil, a.err
	}
	if F.perParticle, err = readParamNames(n, "PerParticleParameters"); err != nil {
		return nil, err
	}
	if F.globals, err = readGlobals(n); err != nil {
		return nil, err
	}
	for _, p := range n.child("Particles").children("Particle") {
		pa := &attrReader{n: p}
		params := readParams(pa, len(F.perParticle))
		if pa.err != nil {
			return nil, pa.err
		}
		F.particles = append(F.particles, params)
	}
	for _, e := range n.child("Exclusions").children("Exclusion") {
		ea := &attrReader{n: e}
		F.exclusions = append(F.exclusions, [2]int{ea.int("p1", true, 0), ea.int("p2", true, 0)})
		if ea.err != nil {
			return nil, ea.err
		}
	}
	return F, nil
}

func (F *HarmonicBondForce) toXML() *xmlNode {
	n := F.forceNode("2", "usesPeriodic", btoa(F.pbc))
	bonds := newNode("Bonds")
	for _, b := range F.bonds {
		bonds.add(newNode("Bond", "d", ftoa(b.Length), "k", ftoa(b.K), "p1", strconv.Itoa(b.P1), "p2", strconv.Itoa(b.P2)))
	}
	n.add(bonds)
	return n
}

func harmonicBondFromXML(class string, n *xmlNode) (Force, error) {
	F := NewHarmonicBondForce()
	a := &attrReader{n: n}
	F.readCommon(a)
	F.pbc = a.bool("usesPeriodic")
	if a.err != nil {
		return nil, a.err
	}
	for _, b := range n.child("Bonds").children("Bond") {
		ba := &attrReader{n: b}
		F.bonds = append(F.bonds, HarmonicBond{P1: ba.int("p1", true, 0), P2: ba.int("p2", true, 0), Length: ba.float("d", true, 0), K: ba.float("k", true, 0)})
		if ba.err != nil {
			return nil, ba.err
		}
	}
	return F, nil
}

// RawForce is a force of a class this package doesn't model. It is kept as
// it was read so it can be written back, but none of its methods can be called.
type RawForce struct {
	base
	node *xmlNode
}

func (F *RawForce) Len() int {
	return 0
}

func (F *RawForce) Call(method string, args ...any) error {
	return F.unknown(method)
}

func (F *RawForce) Accepts(method string, nparticles int) bool {
	return false
}

func (F *RawForce) toXML() *xmlNode {
	return F.node
}

var decoders = map[string]func(class string, n *xmlNode) (Force, error){
	"CustomBondForce":      customBondedFromXML,
	"CustomAngleForce":     customBondedFromXML,
	"CustomTorsionForce":   customBondedFromXML,
	"CustomExternalForce":  customBondedFromXML,
	"CustomNonbondedForce": customNonbondedFromXML,
	"NonbondedForce":       nonbondedFromXML,
	"HarmonicBondForce":    harmonicBondFromXML,
}

func forceFromXML(n *xmlNode) (Force, error) {
	class, ok := n.get("type")
	if !ok {
		return nil, errors.New("force element without type")
	}
	dec, ok := decoders[class]
	if !ok {
		a := &attrReader{n: n}
		F := &RawForce{base: base{class: class}, node: n}
		F.readCommon(a)
		return F, a.err
	}
	F, err := dec(class, n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", class, err)
	}
	return F, nil
}

func vecNode(name string, v [3]float64) *xmlNode {
	return newNode(name, "x", ftoa(v[0]), "y", ftoa(v[1]), "z", ftoa(v[2]))
}

// WriteXML writes the system to w in the engine's XML format.
func (S *System) WriteXML(w io.Writer) error {
	root := newNode("System", "openmmVersion", openmmVersion, "type", "System", "version", xmlSystemVersion)
	box := newNode("PeriodicBoxVectors")
	box.add(vecNode("A", S.box[0]), vecNode("B", S.box[1]), vecNode("C", S.box[2]))
	parts := newNode("Particles")
	for _, m := range S.masses {
		parts.add(newNode("Particle", "mass", ftoa(m)))
	}
	cons := newNode("Constraints")
	for _, c := range S.constraints {
		cons.add(newNode("Constraint", "d", ftoa(c.Distance), "p1", strconv.Itoa(c.P1), "p2", strconv.Itoa(c.P2)))
	}
	forces := newNode("Forces")
	for _, f := range S.forces {
		forces.add(f.toXML())
	}
	root.add(box, parts, cons, forces)
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "\t")
	if err := enc.Encode(root); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ReadXML reads a system in the engine's XML format from r.
// All the errors caused by the contents of the document wrap ErrFormat.
func ReadXML(r io.Reader) (*System, error) {
	root := new(xmlNode)
	if err := xml.NewDecoder(r).Decode(root); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormat, err)
	}
	if root.XMLName.Local != "System" {
		return nil, fmt.Errorf("%w: root element is %s, not System", ErrFormat, root.XMLName.Local)
	}
	S := NewSystem()
	for i, name := range []string{"A", "B", "C"} {
		a := &attrReader{n: root.child("PeriodicBoxVectors").child(name)}
		S.box[i] = [3]float64{a.float("x", false, S.box[i][0]), a.float("y", false, S.box[i][1]), a.float("z", false, S.box[i][2])}
		if a.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, a.err)
		}
	}
	for _, p := range root.child("Particles").children("Particle") {
		a := &attrReader{n: p}
		S.AddParticle(a.float("mass", true, 0))
		if a.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, a.err)
		}
	}
	for _, c := range root.child("Constraints").children("Constraint") {
		a := &attrReader{n: c}
		S.AddConstraint(a.int("p1", true, 0), a.int("p2", true, 0), a.float("d", true, 0))
		if a.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, a.err)
		}
	}
	for _, fn := range root.child("Forces").children("Force") {
		f, err := forceFromXML(fn)
		if err != nil {
			return nil, fmt.Errorf("%w: force %d: %w", ErrFormat, S.NumForces(), err)
		}
		S.AddForce(f)
	}
	return S, nil
}

// Clone returns a deep copy of the system, obtained by serializing it and reading it back.
func (S *System) Clone() (*System, error) {
	var buf bytes.Buffer
	if err := S.WriteXML(&buf); err != nil {
		return nil, err
	}
	return ReadXML(&buf)
}
