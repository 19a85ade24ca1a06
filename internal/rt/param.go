package rt

import "ferrite/internal/typecode"

// ParamValue is the integer value domain of type parameters and array
// subscripts.
type ParamValue int64

// TypeParameter describes one kind-class or length-class type parameter of a
// derived type. Kind-class parameters are fixed per specialization and carry
// their value inline; length-class parameters vary per instance and are
// fetched from the instance descriptor's addendum by positional index.
type TypeParameter struct {
	name     string
	code     typecode.TypeCode
	lenIndex int // index into addendum length values; -1 for kind-class
	value    ParamValue
}

// KindParameter returns a kind-class parameter with a static value.
func KindParameter(name string, code typecode.TypeCode, value ParamValue) TypeParameter {
	return TypeParameter{name: name, code: code, lenIndex: -1, value: value}
}

// LenParameter returns a length-class parameter. The default value is used
// only when no instance supplies one; which is the position of this
// parameter in the addendum value table and is validated by the table
// producer, never here.
func LenParameter(name string, code typecode.TypeCode, deflt ParamValue, which int) TypeParameter {
	return TypeParameter{name: name, code: code, lenIndex: which, value: deflt}
}

func (tp *TypeParameter) Name() string                { return tp.name }
func (tp *TypeParameter) TypeCode() typecode.TypeCode { return tp.code }

func (tp *TypeParameter) IsKindParameter() bool { return tp.lenIndex < 0 }
func (tp *TypeParameter) IsLenParameter() bool  { return tp.lenIndex >= 0 }

// LenIndex returns the position of a length-class parameter in the addendum
// value table, or -1 for a kind-class parameter.
func (tp *TypeParameter) LenIndex() int { return tp.lenIndex }

// StaticValue returns the value of a kind-class parameter, or the default
// value of a length-class parameter.
func (tp *TypeParameter) StaticValue() ParamValue { return tp.value }

// GetValue returns the value of a kind-class parameter, or the instantiated
// value of a length-class parameter read from the instance descriptor.
func (tp *TypeParameter) GetValue(instance *Descriptor) ParamValue {
	if tp.lenIndex < 0 {
		return tp.value
	}
	return instance.Addendum().LenParameterValue(tp.lenIndex)
}
