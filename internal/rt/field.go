package rt

import (
	"encoding/binary"

	"ferrite/internal/typecode"
)

// FieldFlag is a role flag on a Field.
type FieldFlag uint32

const (
	// FieldAncestor marks the slot holding the base-type portion of an
	// extended type. When present it is always field 0 at offset 0.
	FieldAncestor FieldFlag = 1 << iota
	// FieldPrivate marks restricted visibility.
	FieldPrivate
	// FieldEmbeddedDescriptor marks a slot that holds a live instance
	// descriptor handle rather than in-place data.
	FieldEmbeddedDescriptor
)

// embeddedSlotBytes is the stored width of an embedded-descriptor slot: a
// little-endian 64-bit arena handle. Handle zero is the unallocated state,
// which is what makes an all-zero instance image well defined for types
// whose fields are embedded descriptors.
const embeddedSlotBytes = 8

// Field describes one named storage slot inside a derived-type instance.
// The byte offset is the sole addressing mechanism. Fields that are
// fixed-layout composite sub-objects reference a static descriptor whose
// addendum carries the sub-object's own type table entry.
type Field struct {
	name             string
	flags            FieldFlag
	code             typecode.TypeCode
	staticDescriptor *Descriptor
	offset           uint64
}

// NewField constructs a field description. staticDescriptor may be nil for
// plain scalar fields and for embedded-descriptor fields.
func NewField(name string, code typecode.TypeCode, offset uint64, flags FieldFlag, staticDescriptor *Descriptor) Field {
	return Field{
		name:             name,
		flags:            flags,
		code:             code,
		staticDescriptor: staticDescriptor,
		offset:           offset,
	}
}

func (f *Field) Name() string                { return f.name }
func (f *Field) TypeCode() typecode.TypeCode { return f.code }
func (f *Field) Offset() uint64              { return f.offset }

func (f *Field) Flags() FieldFlag { return f.flags }

func (f *Field) IsAncestor() bool           { return f.flags&FieldAncestor != 0 }
func (f *Field) IsPrivate() bool            { return f.flags&FieldPrivate != 0 }
func (f *Field) IsEmbeddedDescriptor() bool { return f.flags&FieldEmbeddedDescriptor != 0 }

// StaticDescriptor returns the layout descriptor shared by all instances of
// this field's type, or nil.
func (f *Field) StaticDescriptor() *Descriptor { return f.staticDescriptor }

// Locate returns the field's storage within an instance buffer. This is a
// direct, unchecked offset computation: the caller must know the correct
// representation for the slot, and the compiler guarantees offset validity.
func (f *Field) Locate(instance []byte) []byte {
	return instance[f.offset:]
}

// Embedded resolves the descriptor held by an embedded-descriptor slot, or
// nil when the slot is unallocated.
func (f *Field) Embedded(instance []byte) *Descriptor {
	h := Handle(binary.LittleEndian.Uint64(f.Locate(instance)))
	if h == 0 {
		return nil
	}
	d, ok := lookupDescriptor(h)
	if !ok {
		return nil
	}
	return d
}

// SetEmbedded registers d in the descriptor arena and stores its handle in
// the slot. A nil d clears the slot to the unallocated state.
func (f *Field) SetEmbedded(instance []byte, d *Descriptor) {
	slot := f.Locate(instance)
	if d == nil {
		binary.LittleEndian.PutUint64(slot, 0)
		return
	}
	binary.LittleEndian.PutUint64(slot, uint64(registerDescriptor(d)))
}
