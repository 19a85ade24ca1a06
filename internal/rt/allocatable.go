package rt

import "ferrite/internal/typecode"

// Entry points for compiler-generated code manipulating allocatable
// variables and fields. All return a stat code and report through the
// optional character errMsg descriptor; none of them terminate.

// AllocatableInitIntrinsic establishes an unallocated allocatable of an
// elementary type with a deferred shape of the given rank.
func AllocatableInitIntrinsic(d *Descriptor, c typecode.Category, kind, rank int) {
	d.EstablishIntrinsic(c, kind, nil, rank, nil, AttrAllocatable)
}

// AllocatableInitCharacter establishes an unallocated character allocatable.
func AllocatableInitCharacter(d *Descriptor, length ParamValue, kind, rank int) {
	d.EstablishCharacter(kind, length, nil, rank, nil, AttrAllocatable)
}

// AllocatableInitDerived establishes an unallocated derived-type
// allocatable with an addendum for dt's length-class parameter values.
func AllocatableInitDerived(d *Descriptor, dt *DerivedType, rank int) {
	d.EstablishDerived(dt, nil, rank, nil, AttrAllocatable)
}

// AllocatableCheckAllocated implements the check an ALLOCATE statement with
// a stat specifier performs before allocating.
func AllocatableCheckAllocated(d *Descriptor, errMsg *Descriptor) int {
	if d.IsAllocated() {
		return StatAndErrMsg(errMsg, StatAlreadyAllocated)
	}
	return StatOK
}

// AllocatableAllocate allocates with the given bounds, initializing every
// element.
func AllocatableAllocate(d *Descriptor, lower, upper []ParamValue, errMsg *Descriptor) int {
	if stat := d.Allocate(lower, upper); stat != StatOK {
		return StatAndErrMsg(errMsg, stat)
	}
	return StatOK
}

// AllocatableDeallocate finalizes and destroys the elements, then releases
// the storage.
func AllocatableDeallocate(d *Descriptor, finalize bool, errMsg *Descriptor) int {
	if !d.IsAllocated() {
		return StatAndErrMsg(errMsg, StatNotAllocated)
	}
	if stat := d.Deallocate(finalize); stat != StatOK {
		return StatAndErrMsg(errMsg, stat)
	}
	return StatOK
}

// MoveAlloc transfers the allocation from one allocatable to another of the
// same type, deallocating any prior allocation of the destination. No
// element is copied, finalized, or destroyed by the transfer itself.
func MoveAlloc(to, from *Descriptor, errMsg *Descriptor) int {
	if !from.IsAllocated() {
		return StatAndErrMsg(errMsg, StatNotAllocated)
	}
	if to.IsAllocated() {
		if stat := to.Deallocate(true); stat != StatOK {
			return StatAndErrMsg(errMsg, stat)
		}
	}
	*to = *from
	from.data = nil
	return StatOK
}
