package rt

// Subscript arithmetic over a descriptor's shape. The optional permutation
// maps iteration order to dimension order; nil means identity.

// IncrementSubscripts advances subscript to the next element in column
// order, returning false after the last element. Subscripts wrap to their
// lower bounds.
func (d *Descriptor) IncrementSubscripts(subscript []ParamValue, permutation []int) bool {
	for j := 0; j < d.rank; j++ {
		k := j
		if permutation != nil {
			k = permutation[j]
		}
		dim := d.dims[k]
		if subscript[k] < dim.UpperBound() {
			subscript[k]++
			return true
		}
		subscript[k] = dim.lower
	}
	return false
}

// DecrementSubscripts steps subscript back one element, returning false
// before the first.
func (d *Descriptor) DecrementSubscripts(subscript []ParamValue, permutation []int) bool {
	for j := d.rank - 1; j >= 0; j-- {
		k := j
		if permutation != nil {
			k = permutation[j]
		}
		dim := d.dims[k]
		if subscript[k] > dim.lower {
			subscript[k]--
			return true
		}
		subscript[k] = dim.UpperBound()
	}
	return false
}

// ZeroBasedElementNumber maps a subscript tuple to its position in element
// order.
func (d *Descriptor) ZeroBasedElementNumber(subscript []ParamValue, permutation []int) ParamValue {
	var result ParamValue
	coefficient := ParamValue(1)
	for j := 0; j < d.rank; j++ {
		k := j
		if permutation != nil {
			k = permutation[j]
		}
		dim := d.dims[k]
		result += coefficient * (subscript[k] - dim.lower)
		coefficient *= dim.extent
	}
	return result
}

// SubscriptsForZeroBasedElementNumber inverts ZeroBasedElementNumber,
// returning false when elementNumber is outside the shape.
func (d *Descriptor) SubscriptsForZeroBasedElementNumber(subscript []ParamValue,
	elementNumber ParamValue, permutation []int) bool {
	coefficient := ParamValue(1)
	var dimCoefficient [MaxRank]ParamValue
	for j := 0; j < d.rank; j++ {
		k := j
		if permutation != nil {
			k = permutation[j]
		}
		dimCoefficient[j] = coefficient
		coefficient *= d.dims[k].extent
	}
	if elementNumber < 0 || elementNumber >= coefficient {
		return false
	}
	for j := d.rank - 1; j >= 0; j-- {
		k := j
		if permutation != nil {
			k = permutation[j]
		}
		quotient := elementNumber / dimCoefficient[j]
		subscript[k] = d.dims[k].lower + quotient
		elementNumber -= quotient * dimCoefficient[j]
	}
	return true
}

// ElementByteOffset returns the byte displacement of the element at
// subscript from the storage base, using the per-dimension byte strides.
func (d *Descriptor) ElementByteOffset(subscript []ParamValue) ParamValue {
	var offset ParamValue
	for j := 0; j < d.rank; j++ {
		dim := d.dims[j]
		offset += (subscript[j] - dim.lower) * dim.stride
	}
	return offset
}
