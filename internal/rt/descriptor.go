package rt

import (
	"fortio.org/safecast"

	"ferrite/internal/fatal"
	"ferrite/internal/typecode"
)

// Attribute classifies the allocation discipline of described storage.
type Attribute uint8

const (
	AttrOther Attribute = iota
	AttrAllocatable
	AttrPointer
)

// MaxRank is the highest supported array rank.
const MaxRank = 15

// Dimension is the shape and stride of one array dimension.
type Dimension struct {
	lower  ParamValue
	extent ParamValue
	stride ParamValue // byte stride between successive elements
}

func (dim Dimension) LowerBound() ParamValue { return dim.lower }
func (dim Dimension) Extent() ParamValue     { return dim.extent }
func (dim Dimension) UpperBound() ParamValue { return dim.lower + dim.extent - 1 }
func (dim Dimension) ByteStride() ParamValue { return dim.stride }

// Addendum carries the dynamic, per-instance portion of a derived-type
// descriptor: the static table entry and the instantiated length-class
// parameter values that TypeParameter.GetValue resolves by index.
type Addendum struct {
	derivedType *DerivedType
	len         []ParamValue
}

// NewAddendum returns an addendum for one instance of dt, with room for its
// length-class parameter values.
func NewAddendum(dt *DerivedType) *Addendum {
	a := &Addendum{derivedType: dt}
	if dt != nil && dt.LenParameters() > 0 {
		a.len = make([]ParamValue, dt.LenParameters())
	}
	return a
}

func (a *Addendum) DerivedType() *DerivedType { return a.derivedType }
func (a *Addendum) LenParameters() int        { return len(a.len) }

// LenParameterValue returns the instantiated value of the n-th length-class
// parameter. Index validity is a construction-time guarantee of the table
// producer; there is no runtime check.
func (a *Addendum) LenParameterValue(n int) ParamValue { return a.len[n] }

func (a *Addendum) SetLenParameterValue(n int, v ParamValue) { a.len[n] = v }

// Descriptor describes one array or scalar instance at run time: element
// type and size, shape, allocation attribute, and for derived types an
// addendum naming the static table entry. Static descriptors, shared by all
// instances of a field's type, have a nil data reference; runtime
// interfaces pass the data address separately.
type Descriptor struct {
	data       []byte
	elemBytes  ParamValue
	code       typecode.TypeCode
	rank       int
	attr       Attribute
	noFinalize bool
	dims       []Dimension
	addendum   *Addendum
}

// Establish prepares d to describe storage of an elementary type. A nil
// extent leaves a deferred shape of the given rank, as ALLOCATE entry
// points require.
func (d *Descriptor) Establish(code typecode.TypeCode, elemBytes int, data []byte,
	rank int, extent []ParamValue, attr Attribute) {
	fatal.Checkf(rank >= 0 && rank <= MaxRank, "descriptor rank %d out of range", rank)
	fatal.Checkf(extent == nil || len(extent) == rank,
		"descriptor rank %d disagrees with %d extents", rank, len(extent))
	*d = Descriptor{
		data:      data,
		elemBytes: ParamValue(elemBytes),
		code:      code,
		rank:      rank,
		attr:      attr,
		dims:      make([]Dimension, rank),
	}
	stride := d.elemBytes
	for j := 0; j < rank; j++ {
		var ext ParamValue
		if extent != nil {
			ext = extent[j]
		}
		d.dims[j] = Dimension{lower: 1, extent: ext, stride: stride}
		stride *= ext
	}
}

// EstablishIntrinsic derives the element size from the category and kind.
func (d *Descriptor) EstablishIntrinsic(c typecode.Category, kind int, data []byte,
	rank int, extent []ParamValue, attr Attribute) {
	elemBytes := kind
	if c == typecode.Complex {
		elemBytes *= 2
	}
	d.Establish(typecode.New(c, kind), elemBytes, data, rank, extent, attr)
}

// EstablishCharacter describes character storage of the given unit kind and
// length.
func (d *Descriptor) EstablishCharacter(kind int, length ParamValue, data []byte,
	rank int, extent []ParamValue, attr Attribute) {
	d.Establish(typecode.New(typecode.Character, kind), kind*int(length), data, rank, extent, attr)
}

// EstablishDerived describes derived-type storage and attaches an addendum
// naming the table entry.
func (d *Descriptor) EstablishDerived(dt *DerivedType, data []byte,
	rank int, extent []ParamValue, attr Attribute) {
	d.Establish(typecode.New(typecode.Struct, 0), dt.SizeInBytes(), data, rank, extent, attr)
	d.addendum = NewAddendum(dt)
}

// NewStaticDescriptor returns the scalar layout descriptor shared by every
// instance of dt. Its data reference is nil; table references to it live
// for the whole process.
func NewStaticDescriptor(dt *DerivedType) *Descriptor {
	d := &Descriptor{}
	d.EstablishDerived(dt, nil, 0, nil, AttrOther)
	return d
}

func (d *Descriptor) TypeCode() typecode.TypeCode { return d.code }
func (d *Descriptor) Rank() int                   { return d.rank }
func (d *Descriptor) ElementBytes() ParamValue    { return d.elemBytes }
func (d *Descriptor) Attribute() Attribute        { return d.attr }
func (d *Descriptor) Addendum() *Addendum         { return d.addendum }

// Data returns the described storage, nil when unallocated.
func (d *Descriptor) Data() []byte { return d.data }

func (d *Descriptor) IsAllocated() bool { return d.data != nil }

// SetDoNotFinalize suppresses finalization during Destroy and Deallocate;
// the compiler sets it for storage whose finalizers must not run, e.g.
// intent(out) temporaries it finalizes itself.
func (d *Descriptor) SetDoNotFinalize(v bool) { d.noFinalize = v }

// GetDimension returns the j-th dimension description.
func (d *Descriptor) GetDimension(j int) Dimension { return d.dims[j] }

// Elements returns the element count of the described shape.
func (d *Descriptor) Elements() ParamValue {
	n := ParamValue(1)
	for j := 0; j < d.rank; j++ {
		n *= d.dims[j].extent
	}
	return n
}

func (d *Descriptor) derivedType() *DerivedType {
	if d.addendum == nil {
		return nil
	}
	return d.addendum.derivedType
}

// Allocate sizes the deferred shape from the bounds, allocates the element
// storage, and default-initializes every element. Bounds follow the
// declaration order of dimensions; an upper bound below its lower bound
// yields a zero extent.
func (d *Descriptor) Allocate(lower, upper []ParamValue) int {
	if d.attr == AttrOther {
		return StatInvalidDescriptor
	}
	if d.data != nil {
		return StatAlreadyAllocated
	}
	if len(lower) != d.rank || len(upper) != d.rank {
		return StatInvalidDescriptor
	}
	stride := d.elemBytes
	for j := 0; j < d.rank; j++ {
		extent := upper[j] - lower[j] + 1
		if extent < 0 {
			extent = 0
		}
		d.dims[j] = Dimension{lower: lower[j], extent: extent, stride: stride}
		stride *= extent
	}
	size, err := safecast.Conv[int](int64(d.Elements() * d.elemBytes))
	if err != nil {
		return StatGenericError
	}
	d.data = make([]byte, size)
	d.Initialize(d.data)
	return StatOK
}

// Initialize runs generic default initialization on every element addressed
// by the descriptor's shape, starting at data.
func (d *Descriptor) Initialize(data []byte) {
	dt := d.derivedType()
	if dt == nil || !dt.IsInitializable() {
		return
	}
	eb := int(d.elemBytes)
	n := int(d.Elements())
	for j := 0; j < n; j++ {
		dt.Initialize(data[j*eb:])
	}
}

// Deallocate destroys the described elements and releases the storage.
func (d *Descriptor) Deallocate(finalize bool) int {
	if d.data == nil {
		return StatNotAllocated
	}
	d.Destroy(d.data, finalize)
	d.data = nil
	return StatOK
}

// Destroy releases the resources owned by the elements at data, finalizing
// first when requested and not suppressed on this descriptor.
func (d *Descriptor) Destroy(data []byte, finalize bool) {
	if data == nil {
		return
	}
	dt := d.derivedType()
	if dt == nil {
		return
	}
	if d.noFinalize {
		finalize = false
	}
	d.destroyWith(data, dt, finalize)
}

// destroyWith is one level of the teardown: array finalization for this
// type, element-by-element field release, then the same on the ancestor
// chain. A whole-array finalizer matching the rank runs once with the
// descriptor and preempts elementwise finalization; otherwise an
// elementwise rank-0 finalizer runs per element. Finalizers of embedded
// fields run as those fields deallocate, after the instance as a whole is
// finalized and before the ancestor's finalizers.
func (d *Descriptor) destroyWith(data []byte, dt *DerivedType, finalize bool) {
	var elemFinal InstanceProc
	if finalize && dt.Finalizable() {
		for j := range dt.procedures {
			p := &dt.procedures[j]
			if !p.IsElementwise() && p.IsFinalizerForRank(d.rank) && p.code.HostDescriptor != nil {
				p.code.HostDescriptor(d)
				elemFinal = nil
				break
			}
			if p.IsElementwise() && p.IsFinalizerForRank(0) {
				elemFinal = p.code.Host
			}
		}
	}
	eb := int(d.elemBytes)
	n := int(d.Elements())
	for j := 0; j < n; j++ {
		element := data[j*eb:]
		if elemFinal != nil {
			elemFinal(element)
		}
		dt.DestroyNonAncestorFields(element, finalize)
	}
	if dt.IsExtension() {
		sd := dt.fields[0].StaticDescriptor()
		fatal.Checkf(sd != nil, "extended type %q: ancestor slot carries no static descriptor", dt.name)
		a := sd.Addendum()
		fatal.Checkf(a != nil, "extended type %q: ancestor descriptor carries no addendum", dt.name)
		parent := a.DerivedType()
		fatal.Checkf(parent != nil, "extended type %q: ancestor addendum names no type", dt.name)
		d.destroyWith(data, parent, finalize)
	}
}
