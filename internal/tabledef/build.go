package tabledef

import (
	"fmt"
	"strconv"
	"strings"

	"fortio.org/safecast"

	"ferrite/internal/rt"
	"ferrite/internal/typecode"
)

// Table is a built set of type table entries, resolvable by name.
type Table struct {
	Name  string
	Types []*rt.DerivedType

	byName map[string]*rt.DerivedType
}

// Lookup resolves a built type by its declared name.
func (t *Table) Lookup(name string) (*rt.DerivedType, bool) {
	dt, ok := t.byName[name]
	return dt, ok
}

// NewTable assembles a table from entries built elsewhere, such as a
// snapshot restore.
func NewTable(name string, types []*rt.DerivedType) *Table {
	byName := make(map[string]*rt.DerivedType, len(types))
	for _, dt := range types {
		byName[dt.Name()] = dt
	}
	return &Table{Name: name, Types: types, byName: byName}
}

// Option adjusts table building.
type Option func(*builder)

// WithProcedure binds the executable entry points for the named bound
// procedure. Manifests declare procedure roles; only the program embedding
// the table can supply code.
func WithProcedure(name string, code rt.Code) Option {
	return func(b *builder) { b.procs[name] = code }
}

type builtEntry struct {
	dt    *rt.DerivedType
	desc  *rt.Descriptor
	align int
}

type builder struct {
	defs     map[string]*TypeDef
	built    map[string]*builtEntry
	building map[string]bool
	procs    map[string]rt.Code
}

// Build turns a parsed manifest into immutable runtime tables. Types may
// reference each other in any declaration order; reference cycles through
// in-place fields are an error, since such a layout has no finite size.
func Build(m *Manifest, opts ...Option) (*Table, error) {
	b := &builder{
		defs:     make(map[string]*TypeDef, len(m.Types)),
		built:    make(map[string]*builtEntry, len(m.Types)),
		building: make(map[string]bool),
		procs:    make(map[string]rt.Code),
	}
	for _, opt := range opts {
		opt(b)
	}
	for i := range m.Types {
		td := &m.Types[i]
		if _, dup := b.defs[td.Name]; dup {
			return nil, fmt.Errorf("type %q declared twice", td.Name)
		}
		b.defs[td.Name] = td
	}

	table := &Table{
		Name:   m.Table.Name,
		byName: make(map[string]*rt.DerivedType, len(m.Types)),
	}
	for i := range m.Types {
		entry, err := b.buildType(m.Types[i].Name)
		if err != nil {
			return nil, err
		}
		table.Types = append(table.Types, entry.dt)
		table.byName[m.Types[i].Name] = entry.dt
	}
	return table, nil
}

func (b *builder) buildType(name string) (*builtEntry, error) {
	if entry, ok := b.built[name]; ok {
		return entry, nil
	}
	td, ok := b.defs[name]
	if !ok {
		return nil, fmt.Errorf("type %q is referenced but not declared", name)
	}
	if b.building[name] {
		return nil, fmt.Errorf("type %q contains itself", name)
	}
	b.building[name] = true
	defer delete(b.building, name)

	var fields []rt.Field
	typeAlign := 1
	cursor := 0

	if td.Extends != "" {
		parent, err := b.buildType(td.Extends)
		if err != nil {
			return nil, err
		}
		fields = append(fields, rt.NewField(td.Extends, typecode.New(typecode.Struct, 0),
			0, rt.FieldAncestor, parent.desc))
		cursor = parent.dt.SizeInBytes()
		typeAlign = parent.align
	}

	for j := range td.Fields {
		fd := &td.Fields[j]
		code, width, align, flags, sub, err := b.fieldShape(fd)
		if err != nil {
			return nil, fmt.Errorf("type %q field %q: %w", name, fd.Name, err)
		}
		if fd.Private {
			flags |= rt.FieldPrivate
		}
		offset := alignUp(cursor, align)
		if fd.Offset != nil {
			offset = int(*fd.Offset)
			if offset < cursor {
				return nil, fmt.Errorf("type %q field %q: offset %d overlaps the previous field",
					name, fd.Name, offset)
			}
		}
		off64, err := safecast.Conv[uint64](offset)
		if err != nil {
			return nil, fmt.Errorf("type %q field %q: %w", name, fd.Name, err)
		}
		var desc *rt.Descriptor
		if sub != nil {
			desc = sub.desc
		}
		fields = append(fields, rt.NewField(fd.Name, code, off64, flags, desc))
		cursor = offset + width
		if align > typeAlign {
			typeAlign = align
		}
	}

	size := alignUp(cursor, typeAlign)
	if td.Size != 0 {
		if td.Size < cursor {
			return nil, fmt.Errorf("type %q: declared size %d is below the field layout end %d",
				name, td.Size, cursor)
		}
		size = td.Size
	}

	var init []byte
	if td.Init != nil {
		if len(td.Init) != size {
			return nil, fmt.Errorf("type %q: initialization image is %d bytes, instance size is %d",
				name, len(td.Init), size)
		}
		init = make([]byte, len(td.Init))
		for i, v := range td.Init {
			bv, err := safecast.Conv[uint8](v)
			if err != nil {
				return nil, fmt.Errorf("type %q: init byte %d: %w", name, i, err)
			}
			init[i] = bv
		}
	}

	params, kindCount, lenCount, err := b.buildParams(td)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", name, err)
	}
	procs, err := b.buildProcs(td)
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", name, err)
	}

	dt := rt.NewDerivedType(name, kindCount, lenCount, params, fields, procs, init, size)
	entry := &builtEntry{dt: dt, desc: rt.NewStaticDescriptor(dt), align: typeAlign}
	b.built[name] = entry
	return entry, nil
}

// fieldShape resolves a field's type spec to its code, storage width,
// alignment, role flags, and (for composite fields) the built sub-type.
func (b *builder) fieldShape(fd *FieldDef) (typecode.TypeCode, int, int, rt.FieldFlag, *builtEntry, error) {
	spec := strings.TrimSpace(fd.Type)
	switch {
	case spec == "embedded":
		return typecode.New(typecode.Other, 0), 8, 8, rt.FieldEmbeddedDescriptor, nil, nil
	case strings.HasPrefix(spec, "type(") && strings.HasSuffix(spec, ")"):
		ref := strings.TrimSuffix(strings.TrimPrefix(spec, "type("), ")")
		sub, err := b.buildType(ref)
		if err != nil {
			return 0, 0, 0, 0, nil, err
		}
		return typecode.New(typecode.Struct, 0), sub.dt.SizeInBytes(), sub.align, 0, sub, nil
	default:
		code, err := parseElementary(spec)
		if err != nil {
			return 0, 0, 0, 0, nil, err
		}
		width := code.Kind()
		if code.Category() == typecode.Complex {
			width *= 2
		}
		align := width
		if align > 8 {
			align = 8
		}
		if align == 0 {
			align = 1
		}
		return code, width, align, 0, nil, nil
	}
}

// parseElementary parses "category(kind)" specs such as "integer(4)".
func parseElementary(spec string) (typecode.TypeCode, error) {
	open := strings.IndexByte(spec, '(')
	if open < 0 || !strings.HasSuffix(spec, ")") {
		return 0, fmt.Errorf("malformed type spec %q", spec)
	}
	kind, err := strconv.Atoi(spec[open+1 : len(spec)-1])
	if err != nil || kind <= 0 {
		return 0, fmt.Errorf("malformed kind in type spec %q", spec)
	}
	var c typecode.Category
	switch spec[:open] {
	case "integer":
		c = typecode.Integer
	case "real":
		c = typecode.Real
	case "complex":
		c = typecode.Complex
	case "character":
		c = typecode.Character
	case "logical":
		c = typecode.Logical
	default:
		return 0, fmt.Errorf("unknown type category in %q", spec)
	}
	return typecode.New(c, kind), nil
}

func (b *builder) buildParams(td *TypeDef) ([]rt.TypeParameter, int, int, error) {
	var kinds, lens []rt.TypeParameter
	for i := range td.Params {
		pd := &td.Params[i]
		code, err := parseElementary(pd.Type)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("param %q: %w", pd.Name, err)
		}
		switch pd.Class {
		case "kind":
			kinds = append(kinds, rt.KindParameter(pd.Name, code, rt.ParamValue(pd.Value)))
		case "len":
			lens = append(lens, rt.LenParameter(pd.Name, code, rt.ParamValue(pd.Value), len(lens)))
		default:
			return nil, 0, 0, fmt.Errorf("param %q: class must be kind or len, not %q", pd.Name, pd.Class)
		}
	}
	return append(kinds, lens...), len(kinds), len(lens), nil
}

func (b *builder) buildProcs(td *TypeDef) ([]rt.BoundProcedure, error) {
	var procs []rt.BoundProcedure
	for i := range td.Procs {
		pd := &td.Procs[i]
		var flags rt.ProcFlag
		if pd.Initializer {
			flags |= rt.ProcInitializer
		}
		if pd.Elementwise {
			flags |= rt.ProcElementwise
		}
		if pd.Assignment {
			flags |= rt.ProcAssignment
		}
		if pd.AnyRank {
			flags |= rt.ProcAnyRankFinal
		}
		var mask uint32
		for _, r := range pd.FinalRanks {
			if r < 0 || r > rt.MaxRank {
				return nil, fmt.Errorf("proc %q: finalizer rank %d out of range", pd.Name, r)
			}
			mask |= 1 << uint(r)
		}
		procs = append(procs, rt.NewBoundProcedure(pd.Name, flags, mask, b.procs[pd.Name]))
	}
	return procs, nil
}

func alignUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
