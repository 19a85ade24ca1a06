package typereg

import (
	"fmt"

	"ferrite/internal/rt"
	"ferrite/internal/typecode"
)

// maxChainDepth bounds the ancestor walk; real inheritance chains are
// compiler-bounded and shallow, so hitting the bound means a cycle.
const maxChainDepth = 64

// Verify checks the structural invariants the runtime core assumes but
// never re-checks on its hot paths. It returns the first violation found.
func Verify(dt *rt.DerivedType) error {
	for j := 0; j < dt.NumFields(); j++ {
		f := dt.Field(j)
		if f.IsAncestor() && j != 0 {
			return fmt.Errorf("type %q: ancestor slot %q is field %d, must be first",
				dt.Name(), f.Name(), j)
		}
		if f.IsAncestor() && f.Offset() != 0 {
			return fmt.Errorf("type %q: ancestor slot %q at offset %d, must be 0",
				dt.Name(), f.Name(), f.Offset())
		}
		if width := fieldWidth(f); width > 0 {
			end := f.Offset() + uint64(width)
			if end > uint64(dt.SizeInBytes()) {
				return fmt.Errorf("type %q: field %q spans [%d,%d) beyond the %d-byte instance",
					dt.Name(), f.Name(), f.Offset(), end, dt.SizeInBytes())
			}
		}
	}

	if dt.IsExtension() {
		if err := verifyChain(dt); err != nil {
			return err
		}
	}

	for n := 0; n < dt.LenParameters(); n++ {
		p := dt.LenParameter(n)
		if !p.IsLenParameter() {
			return fmt.Errorf("type %q: parameter %q listed in the length-class range but is kind-class",
				dt.Name(), p.Name())
		}
		if p.LenIndex() >= dt.LenParameters() {
			return fmt.Errorf("type %q: length parameter %q indexes addendum slot %d of %d",
				dt.Name(), p.Name(), p.LenIndex(), dt.LenParameters())
		}
	}
	for n := 0; n < dt.KindParameters(); n++ {
		if p := dt.KindParameter(n); !p.IsKindParameter() {
			return fmt.Errorf("type %q: parameter %q listed in the kind-class range but is length-class",
				dt.Name(), p.Name())
		}
	}

	finalizable := false
	for n := 0; n < dt.NumBoundProcedures(); n++ {
		p := dt.BoundProcedure(n)
		if p.FinalRank() != 0 || p.Flags()&rt.ProcAnyRankFinal != 0 {
			finalizable = true
		}
	}
	if finalizable != dt.Finalizable() {
		return fmt.Errorf("type %q: finalizable flag %v disagrees with the procedure table",
			dt.Name(), dt.Finalizable())
	}
	return nil
}

// verifyChain resolves every level of the ancestor chain the way the
// destruction algorithm will, and bounds its depth.
func verifyChain(dt *rt.DerivedType) error {
	t := dt
	for depth := 0; t.IsExtension(); depth++ {
		if depth >= maxChainDepth {
			return fmt.Errorf("type %q: ancestor chain exceeds depth %d, assuming a cycle",
				dt.Name(), maxChainDepth)
		}
		sd := t.Field(0).StaticDescriptor()
		if sd == nil {
			return fmt.Errorf("type %q: ancestor slot of %q carries no static descriptor",
				dt.Name(), t.Name())
		}
		a := sd.Addendum()
		if a == nil || a.DerivedType() == nil {
			return fmt.Errorf("type %q: ancestor descriptor of %q names no type",
				dt.Name(), t.Name())
		}
		parent := a.DerivedType()
		if uint64(parent.SizeInBytes()) > uint64(t.SizeInBytes()) {
			return fmt.Errorf("type %q: ancestor %q (%d bytes) does not fit in %q (%d bytes)",
				dt.Name(), parent.Name(), parent.SizeInBytes(), t.Name(), t.SizeInBytes())
		}
		t = parent
	}
	return nil
}

func fieldWidth(f *rt.Field) int {
	if f.IsEmbeddedDescriptor() {
		return 8
	}
	if sd := f.StaticDescriptor(); sd != nil {
		if a := sd.Addendum(); a != nil && a.DerivedType() != nil {
			return a.DerivedType().SizeInBytes()
		}
	}
	code := f.TypeCode()
	switch code.Category() {
	case typecode.Complex:
		return 2 * code.Kind()
	case typecode.Integer, typecode.Real, typecode.Logical, typecode.Character:
		return code.Kind()
	default:
		return 0
	}
}
