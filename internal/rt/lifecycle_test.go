package rt

import (
	"bytes"
	"testing"

	"ferrite/internal/typecode"
)

func TestInitializeCopiesStaticImage(t *testing.T) {
	init := []byte{0xde, 0xad, 0xbe, 0xef}
	dt := NewDerivedType("t", 0, 0, nil,
		[]Field{NewField("x", int4, 0, 0, nil)}, nil, init, 4)
	buf := []byte{1, 1, 1, 1}
	dt.Initialize(buf)
	if !bytes.Equal(buf, init) {
		t.Fatalf("expected %x, got %x", init, buf)
	}
}

func TestInitializeInvokesInitializerProcedure(t *testing.T) {
	calls := 0
	procs := []BoundProcedure{
		NewBoundProcedure("init", ProcInitializer, 0, Code{Host: func(instance []byte) {
			calls++
			instance[0] = 42
		}}),
	}
	dt := NewDerivedType("t", 0, 0, nil,
		[]Field{NewField("x", int4, 0, 0, nil)}, procs, nil, 4)
	buf := make([]byte, 4)
	dt.Initialize(buf)
	if calls != 1 {
		t.Fatalf("initializer procedure ran %d times", calls)
	}
	if buf[0] != 42 {
		t.Fatal("initializer effect not observed")
	}
}

func TestInitializeZeroFills(t *testing.T) {
	fields := []Field{NewField("buf", comp, 0, FieldEmbeddedDescriptor, nil)}
	dt := NewDerivedType("t", 0, 0, nil, fields, nil, nil, embeddedSlotBytes)
	buf := bytes.Repeat([]byte{0xff}, embeddedSlotBytes)
	dt.Initialize(buf)
	for i, b := range buf {
		if b != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
}

func TestInitializeRecursesIntoSubObjects(t *testing.T) {
	init := []byte{9, 8, 7, 6}
	sub := NewDerivedType("sub", 0, 0, nil,
		[]Field{NewField("x", int4, 0, 0, nil)}, nil, init, 4)
	fields := []Field{
		NewField("pad", int4, 0, 0, nil),
		NewField("s", comp, 4, 0, NewStaticDescriptor(sub)),
	}
	dt := NewDerivedType("t", 0, 0, nil, fields, nil, nil, 8)
	buf := make([]byte, 8)
	dt.Initialize(buf)
	if !bytes.Equal(buf[4:], init) {
		t.Fatalf("sub-object not initialized: %x", buf)
	}
	if !bytes.Equal(buf[:4], []byte{0, 0, 0, 0}) {
		t.Fatalf("plain scalar field must be left untouched: %x", buf)
	}
}

func TestDestroyScalarInstanceRunsChainInOrder(t *testing.T) {
	var order []string
	base := NewDerivedType("base", 0, 0, nil,
		[]Field{NewField("x", int4, 0, 0, nil)},
		[]BoundProcedure{
			NewBoundProcedure("base_final", ProcElementwise, 1, Code{Host: func([]byte) {
				order = append(order, "base_final")
			}}),
		}, nil, 4)
	derived := NewDerivedType("derived", 0, 0, nil,
		[]Field{
			NewField("base", comp, 0, FieldAncestor, NewStaticDescriptor(base)),
			NewField("y", int4, 4, 0, nil),
		},
		[]BoundProcedure{
			NewBoundProcedure("derived_final", ProcElementwise, 1, Code{Host: func([]byte) {
				order = append(order, "derived_final")
			}}),
		}, nil, 8)

	buf := make([]byte, 8)
	derived.DestroyScalarInstance(buf, true)
	if len(order) != 2 || order[0] != "derived_final" || order[1] != "base_final" {
		t.Fatalf("wrong finalizer order: %v", order)
	}
}

func TestAnyRankElementwiseFinalizerRunsOnScalars(t *testing.T) {
	calls := 0
	procs := []BoundProcedure{
		NewBoundProcedure("f", ProcElementwise|ProcAnyRankFinal, 0, Code{Host: func([]byte) {
			calls++
		}}),
	}
	dt := NewDerivedType("t", 0, 0, nil,
		[]Field{NewField("x", int4, 0, 0, nil)}, procs, nil, 4)
	dt.DestroyScalarInstance(make([]byte, 4), true)
	if calls != 1 {
		t.Fatalf("any-rank elementwise finalizer ran %d times on a scalar", calls)
	}
}

func TestDestroyScalarInstanceWithoutFinalizeSkipsFinalizers(t *testing.T) {
	calls := 0
	dt := NewDerivedType("t", 0, 0, nil,
		[]Field{NewField("x", int4, 0, 0, nil)},
		[]BoundProcedure{
			NewBoundProcedure("f", ProcElementwise, 1, Code{Host: func([]byte) { calls++ }}),
		}, nil, 4)
	buf := make([]byte, 4)
	dt.DestroyScalarInstance(buf, false)
	if calls != 0 {
		t.Fatalf("finalizer ran %d times with finalize=false", calls)
	}
}

func TestTrivialTypeLifecycleInvokesNothing(t *testing.T) {
	calls := 0
	procs := []BoundProcedure{
		NewBoundProcedure("assign", ProcAssignment, 0, Code{Host: func([]byte) { calls++ }}),
	}
	dt := NewDerivedType("t", 0, 0, nil,
		[]Field{NewField("x", int4, 0, 0, nil)}, procs, nil, 4)
	buf := make([]byte, 4)
	dt.Initialize(buf)
	dt.DestroyScalarInstance(buf, false)
	if calls != 0 {
		t.Fatalf("trivial lifecycle made %d procedure calls", calls)
	}
}

func TestDestroyNonAncestorFieldsDeallocatesEmbedded(t *testing.T) {
	fields := []Field{NewField("buf", comp, 0, FieldEmbeddedDescriptor, nil)}
	dt := NewDerivedType("t", 0, 0, nil, fields, nil, nil, embeddedSlotBytes)

	buf := make([]byte, embeddedSlotBytes)
	dt.Initialize(buf)

	inner := &Descriptor{}
	AllocatableInitIntrinsic(inner, typecode.Integer, 4, 0)
	if stat := inner.Allocate(nil, nil); stat != StatOK {
		t.Fatalf("allocate failed with stat %d", stat)
	}
	dt.Field(0).SetEmbedded(buf, inner)
	if dt.Field(0).Embedded(buf) != inner {
		t.Fatal("embedded slot did not resolve to the stored descriptor")
	}

	dt.DestroyNonAncestorFields(buf, true)
	if inner.IsAllocated() {
		t.Fatal("embedded descriptor was not deallocated")
	}
	if dt.Field(0).Embedded(buf) != nil {
		t.Fatal("slot must return to the unallocated state")
	}
	// A second pass over the same instance must be a no-op.
	dt.DestroyNonAncestorFields(buf, true)
}

func TestDestroyReleasesEachFieldExactlyOnce(t *testing.T) {
	destroyed := 0
	sub := NewDerivedType("res", 0, 0, nil,
		[]Field{NewField("h", int4, 0, 0, nil)},
		[]BoundProcedure{
			NewBoundProcedure("res_final", ProcElementwise, 1, Code{Host: func([]byte) { destroyed++ }}),
		}, nil, 4)
	subDesc := NewStaticDescriptor(sub)

	base := NewDerivedType("base", 0, 0, nil,
		[]Field{NewField("r", comp, 0, 0, subDesc)}, nil, nil, 4)
	derived := NewDerivedType("derived", 0, 0, nil,
		[]Field{
			NewField("base", comp, 0, FieldAncestor, NewStaticDescriptor(base)),
			NewField("s", comp, 4, 0, subDesc),
		}, nil, nil, 8)

	buf := make([]byte, 8)
	derived.DestroyScalarInstance(buf, true)
	if destroyed != 2 {
		t.Fatalf("expected each sub-object finalized exactly once, got %d calls", destroyed)
	}
}
