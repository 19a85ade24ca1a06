package rt

import "ferrite/internal/fatal"

// Initialize performs generic default initialization of a raw instance
// buffer. A static initialization image wins; an initializer procedure is
// next; otherwise the derived zero- and component-initialization summaries
// apply, each covering its own fields. Types with none of these have a
// trivial default and the buffer is left untouched.
func (d *DerivedType) Initialize(instance []byte) {
	if d.init != nil {
		copy(instance[:d.size], d.init)
		return
	}
	if d.initProc >= 0 {
		if f := d.procedures[d.initProc].code.Host; f != nil {
			f(instance)
			return
		}
	}
	if d.flags&flagInitZero != 0 {
		clear(instance[:d.size])
	}
	if d.flags&flagInitComponent != 0 {
		for j := range d.fields {
			f := &d.fields[j]
			if sd := f.StaticDescriptor(); sd != nil {
				sd.Initialize(f.Locate(instance))
			}
		}
	}
}

// DestroyNonAncestorFields releases the resources owned by this type's own
// fields. The ancestor slot is excluded so that each level of
// DestroyScalarInstance's chain walk releases its fields exactly once.
func (d *DerivedType) DestroyNonAncestorFields(instance []byte, finalize bool) {
	for j := range d.fields {
		f := &d.fields[j]
		if f.IsAncestor() {
			continue
		}
		if f.IsEmbeddedDescriptor() {
			f.deallocateEmbedded(instance, finalize)
		} else if sd := f.StaticDescriptor(); sd != nil {
			sd.Destroy(f.Locate(instance), finalize)
		}
	}
}

// DestroyScalarInstance tears down one scalar instance: scalar finalizers
// first, in declaration order, then this type's own fields, then the
// ancestor chain root-ward on the same base address. The ancestor portion
// of an extension lives at offset zero, so no address adjustment is needed
// at any level.
func (d *DerivedType) DestroyScalarInstance(instance []byte, finalize bool) {
	if finalize && d.Finalizable() {
		for j := range d.procedures {
			p := &d.procedures[j]
			if p.IsElementwise() && p.IsFinalizerForRank(0) {
				if f := p.code.Host; f != nil {
					f(instance)
				}
			}
		}
	}
	d.DestroyNonAncestorFields(instance, finalize)
	if d.IsExtension() {
		sd := d.fields[0].StaticDescriptor()
		fatal.Checkf(sd != nil, "extended type %q: ancestor slot carries no static descriptor", d.name)
		a := sd.Addendum()
		fatal.Checkf(a != nil, "extended type %q: ancestor descriptor carries no addendum", d.name)
		parent := a.DerivedType()
		fatal.Checkf(parent != nil, "extended type %q: ancestor addendum names no type", d.name)
		parent.DestroyScalarInstance(instance, finalize)
	}
}
