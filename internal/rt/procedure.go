package rt

// ProcFlag is a role flag on a BoundProcedure.
type ProcFlag uint32

const (
	// ProcInitializer marks the procedure the compiler generated to
	// initialize instances whose default value cannot be a static image
	// (e.g. hidden adjustable fields sized by length-class parameters).
	// At most one procedure per type may carry this role.
	ProcInitializer ProcFlag = 1 << iota
	// ProcElementwise marks a procedure applied element by element.
	ProcElementwise
	// ProcAssignment marks a defined-assignment procedure.
	ProcAssignment
	// ProcAnyRankFinal marks a finalizer applicable to every rank.
	ProcAnyRankFinal
)

// InstanceProc is the host entry point of a procedure invoked on one scalar
// instance: the raw instance bytes are its sole argument.
type InstanceProc func(instance []byte)

// DescriptorProc is the host entry point of a whole-array finalizer, invoked
// once with the instance descriptor instead of per element.
type DescriptorProc func(instance *Descriptor)

// Code carries the executable entry points of a bound procedure. Host forms
// are tagged by signature: exactly one of Host and HostDescriptor is set for
// a well-formed table entry. Device is an accelerator-offload address that
// this layer records but never invokes.
type Code struct {
	Host           InstanceProc
	HostDescriptor DescriptorProc
	Device         uintptr
}

// BoundProcedure describes one procedure attached to a derived type.
type BoundProcedure struct {
	name      string
	flags     ProcFlag
	finalRank uint32 // bit n set: acts as finalizer for rank n
	code      Code
}

// NewBoundProcedure constructs a bound-procedure description.
func NewBoundProcedure(name string, flags ProcFlag, finalRank uint32, code Code) BoundProcedure {
	return BoundProcedure{name: name, flags: flags, finalRank: finalRank, code: code}
}

func (p *BoundProcedure) Name() string    { return p.name }
func (p *BoundProcedure) Flags() ProcFlag { return p.flags }
func (p *BoundProcedure) Code() Code      { return p.code }

// FinalRank returns the finalizer rank bitmask (bit n covers rank n).
func (p *BoundProcedure) FinalRank() uint32 { return p.finalRank }

func (p *BoundProcedure) IsInitializer() bool { return p.flags&ProcInitializer != 0 }
func (p *BoundProcedure) IsElementwise() bool { return p.flags&ProcElementwise != 0 }
func (p *BoundProcedure) IsAssignment() bool  { return p.flags&ProcAssignment != 0 }

// IsFinalizerForRank reports whether the procedure finalizes instances of
// the given rank.
func (p *BoundProcedure) IsFinalizerForRank(rank int) bool {
	return p.flags&ProcAnyRankFinal != 0 || (p.finalRank>>uint(rank))&1 != 0
}
