// Package typecode encodes the elementary type categories and kinds used by
// static type tables and instance descriptors.
package typecode

import "fmt"

// Category is an elementary type category.
type Category uint8

const (
	None Category = iota
	Integer
	Real
	Complex
	Character
	Logical
	Struct // a composite value described by its own type table entry
	Other  // opaque storage with no elementary interpretation
)

func (c Category) String() string {
	switch c {
	case None:
		return "none"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Complex:
		return "complex"
	case Character:
		return "character"
	case Logical:
		return "logical"
	case Struct:
		return "struct"
	case Other:
		return "other"
	default:
		return fmt.Sprintf("category(%d)", uint8(c))
	}
}

// TypeCode packs a category and a kind into one comparable value.
// The kind is the specialization width in bytes for the numeric and logical
// categories and the character unit width for Character; it is zero for
// Struct and Other.
type TypeCode uint16

func New(c Category, kind int) TypeCode {
	if kind < 0 || kind > 0xff {
		panic(fmt.Errorf("type kind %d out of range", kind))
	}
	return TypeCode(uint16(c)<<8 | uint16(kind))
}

func (tc TypeCode) Category() Category { return Category(tc >> 8) }
func (tc TypeCode) Kind() int          { return int(tc & 0xff) }

// IsDerived reports whether the code denotes a composite value.
func (tc TypeCode) IsDerived() bool { return tc.Category() == Struct }

func (tc TypeCode) String() string {
	c := tc.Category()
	switch c {
	case Struct, Other, None:
		return c.String()
	default:
		return fmt.Sprintf("%s(%d)", c, tc.Kind())
	}
}
