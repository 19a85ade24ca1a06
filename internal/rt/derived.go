package rt

import "ferrite/internal/fatal"

type typeFlag uint32

const (
	flagFinalizable typeFlag = 1 << iota
	flagInitZero
	flagInitComponent
)

// DerivedType is the static table entry for one derived-type specialization.
// Entries are constructed once, by the compiler's table emission, and are
// immutable thereafter; the exported constructor exists for test and
// bootstrap producers. All slices are borrowed, non-owning views into
// process-lifetime table storage.
type DerivedType struct {
	name       string
	kindParams int
	lenParams  int
	params     []TypeParameter // kind-class first, then length-class
	fields     []Field         // ancestor slot first when extending
	procedures []BoundProcedure
	flags      typeFlag
	init       []byte // static initialization image, nil or instance-sized
	size       int
	initProc   int // index of the initializer procedure, -1 if none
}

// NewDerivedType builds a table entry and derives its cached flags:
// finalizability from the procedure table, and the zero- and
// component-initialization summaries from the field table. Malformed input
// that this layer can detect cheaply (oversized or undersized init image,
// more than one initializer procedure) is a construction-time invariant
// violation and terminates.
func NewDerivedType(name string, kindParams, lenParams int, params []TypeParameter,
	fields []Field, procedures []BoundProcedure, init []byte, size int) *DerivedType {
	fatal.Checkf(kindParams >= 0 && lenParams >= 0 && kindParams+lenParams == len(params),
		"type %q: parameter counts %d+%d disagree with table length %d",
		name, kindParams, lenParams, len(params))
	fatal.Checkf(init == nil || len(init) == size,
		"type %q: initialization image is %d bytes, instance size is %d", name, len(init), size)

	d := &DerivedType{
		name:       name,
		kindParams: kindParams,
		lenParams:  lenParams,
		params:     params,
		fields:     fields,
		procedures: procedures,
		init:       init,
		size:       size,
		initProc:   -1,
	}
	for j := range procedures {
		p := &procedures[j]
		if p.IsInitializer() {
			if d.initProc >= 0 {
				fatal.Crashf("type %q: procedures %q and %q both claim the initializer role",
					name, procedures[d.initProc].name, p.name)
			}
			d.initProc = j
		}
		if p.finalRank != 0 || p.flags&ProcAnyRankFinal != 0 {
			d.flags |= flagFinalizable
		}
	}
	if init == nil && d.initProc < 0 {
		for j := range fields {
			f := &fields[j]
			if f.IsEmbeddedDescriptor() {
				d.flags |= flagInitZero
			} else if sub := f.subType(); sub != nil {
				if sub.IsInitializable() && !sub.ZeroInitializable() {
					d.flags |= flagInitComponent
				}
			}
		}
	}
	return d
}

func (d *DerivedType) Name() string { return d.name }

func (d *DerivedType) KindParameters() int { return d.kindParams }
func (d *DerivedType) LenParameters() int  { return d.lenParams }

// KindParameter returns the n-th kind-class parameter description.
// Kind-class values live here in the table; length-class values live in the
// addendum of an instance descriptor.
func (d *DerivedType) KindParameter(n int) *TypeParameter { return &d.params[n] }

// LenParameter returns the n-th length-class parameter description.
func (d *DerivedType) LenParameter(n int) *TypeParameter { return &d.params[d.kindParams+n] }

// InitialImage returns the static initialization image, or nil when the
// type initializes by procedure or field recursion instead.
func (d *DerivedType) InitialImage() []byte { return d.init }

func (d *DerivedType) NumFields() int      { return len(d.fields) }
func (d *DerivedType) Field(n int) *Field  { return &d.fields[n] }
func (d *DerivedType) SizeInBytes() int    { return d.size }
func (d *DerivedType) NumBoundProcedures() int { return len(d.procedures) }

func (d *DerivedType) BoundProcedure(n int) *BoundProcedure { return &d.procedures[n] }

// IsExtension reports whether this type extends another; extensions place
// the ancestor slot first, at offset zero.
func (d *DerivedType) IsExtension() bool {
	return len(d.fields) > 0 && d.fields[0].IsAncestor()
}

// AnyPrivate reports whether any field has restricted visibility.
func (d *DerivedType) AnyPrivate() bool {
	for j := range d.fields {
		if d.fields[j].IsPrivate() {
			return true
		}
	}
	return false
}

func (d *DerivedType) Finalizable() bool            { return d.flags&flagFinalizable != 0 }
func (d *DerivedType) ZeroInitializable() bool      { return d.flags&flagInitZero != 0 }
func (d *DerivedType) ComponentInitializable() bool { return d.flags&flagInitComponent != 0 }

// IsInitializable reports whether Initialize does any work at all for this
// type.
func (d *DerivedType) IsInitializable() bool {
	return d.init != nil || d.initProc >= 0 ||
		d.flags&(flagInitZero|flagInitComponent) != 0
}

// ancestor resolves the parent table entry of an extension, or nil when the
// type extends nothing or the chain reference is absent. Lifecycle code
// treats an unresolvable chain as fatal; the relation predicates below just
// stop walking.
func (d *DerivedType) ancestor() *DerivedType {
	if !d.IsExtension() {
		return nil
	}
	return d.fields[0].subType()
}

// subType resolves a field's own table entry through its static descriptor.
func (f *Field) subType() *DerivedType {
	sd := f.staticDescriptor
	if sd == nil {
		return nil
	}
	a := sd.Addendum()
	if a == nil {
		return nil
	}
	return a.DerivedType()
}

// SameTypeAs reports whether two table entries denote the same type
// identity, ignoring all parametric values. Identity is the emitted
// qualified type name, which the compiler keeps unique per declared type
// and shared across its specializations.
func (d *DerivedType) SameTypeAs(other *DerivedType) bool {
	return other != nil && d.name == other.name
}

// Extends reports whether other appears in this type's ancestor chain. The
// relation is reflexive: every type extends itself.
func (d *DerivedType) Extends(other *DerivedType) bool {
	for t := d; t != nil; t = t.ancestor() {
		if t.SameTypeAs(other) {
			return true
		}
	}
	return false
}

// TypeIs reports an exact dynamic-type match: same identity and equal
// kind-class parameter values. Length-class values are per-instance and do
// not participate.
func (d *DerivedType) TypeIs(other *DerivedType) bool {
	if !d.SameTypeAs(other) || d.kindParams != other.kindParams {
		return false
	}
	for n := 0; n < d.kindParams; n++ {
		if d.params[n].StaticValue() != other.params[n].StaticValue() {
			return false
		}
	}
	return true
}
