package rt

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// Dump writes a diagnostic rendering of the descriptor.
func (d *Descriptor) Dump(w io.Writer) {
	fmt.Fprintf(w, "descriptor:\n")
	fmt.Fprintf(w, "  allocated %v\n", d.data != nil)
	fmt.Fprintf(w, "  elem_len  %d\n", d.elemBytes)
	fmt.Fprintf(w, "  rank      %d\n", d.rank)
	fmt.Fprintf(w, "  type      %s\n", d.code)
	fmt.Fprintf(w, "  attribute %d\n", d.attr)
	for j := 0; j < d.rank; j++ {
		dim := d.dims[j]
		fmt.Fprintf(w, "  dim[%d] lower_bound %d\n", j, dim.lower)
		fmt.Fprintf(w, "         extent      %d\n", dim.extent)
		fmt.Fprintf(w, "         byte_stride %d\n", dim.stride)
	}
	if a := d.addendum; a != nil {
		a.dump(w)
	}
}

func (a *Addendum) dump(w io.Writer) {
	dt := a.derivedType
	if dt == nil {
		return
	}
	fmt.Fprintf(w, "  derived type: %s\n", dt.name)
	for j := 0; j < dt.KindParameters(); j++ {
		p := dt.KindParameter(j)
		fmt.Fprintf(w, "    kind %s = %d\n", p.Name(), p.StaticValue())
	}
	for j := 0; j < dt.LenParameters(); j++ {
		p := dt.LenParameter(j)
		fmt.Fprintf(w, "    len  %s = %d\n", p.Name(), a.len[j])
	}
}

// Describe writes a human-readable summary of a type table entry: the
// derived flags, the parameter list, the field layout, and the bound
// procedures.
func (d *DerivedType) Describe(w io.Writer) {
	fmt.Fprintf(w, "type %s  (%d bytes)\n", d.name, d.size)
	var traits []string
	if d.IsExtension() {
		traits = append(traits, "extension")
	}
	if d.Finalizable() {
		traits = append(traits, "finalizable")
	}
	if d.ZeroInitializable() {
		traits = append(traits, "zero-init")
	}
	if d.ComponentInitializable() {
		traits = append(traits, "component-init")
	}
	if d.init != nil {
		traits = append(traits, "static-init")
	}
	if d.AnyPrivate() {
		traits = append(traits, "private-fields")
	}
	if len(traits) > 0 {
		fmt.Fprintf(w, "  traits: %s\n", strings.Join(traits, ", "))
	}
	for j := range d.params {
		p := &d.params[j]
		class := "kind"
		if p.IsLenParameter() {
			class = "len"
		}
		fmt.Fprintf(w, "  param %-4s %s: %s = %d\n", class, p.name, p.code, p.value)
	}
	nameWidth := 0
	for j := range d.fields {
		if fw := runewidth.StringWidth(d.fields[j].name); fw > nameWidth {
			nameWidth = fw
		}
	}
	for j := range d.fields {
		f := &d.fields[j]
		var marks []string
		if f.IsAncestor() {
			marks = append(marks, "ancestor")
		}
		if f.IsPrivate() {
			marks = append(marks, "private")
		}
		if f.IsEmbeddedDescriptor() {
			marks = append(marks, "embedded")
		}
		if sub := f.subType(); sub != nil {
			marks = append(marks, "type "+sub.name)
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = "  [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Fprintf(w, "  field %s @%-5d %s%s\n",
			runewidth.FillRight(f.name, nameWidth), f.offset, f.code, suffix)
	}
	for j := range d.procedures {
		p := &d.procedures[j]
		var marks []string
		if p.IsInitializer() {
			marks = append(marks, "initializer")
		}
		if p.IsElementwise() {
			marks = append(marks, "elementwise")
		}
		if p.IsAssignment() {
			marks = append(marks, "assignment")
		}
		if p.flags&ProcAnyRankFinal != 0 {
			marks = append(marks, "final(*)")
		} else if p.finalRank != 0 {
			marks = append(marks, fmt.Sprintf("final(%#x)", p.finalRank))
		}
		fmt.Fprintf(w, "  proc  %s  [%s]\n", p.name, strings.Join(marks, ", "))
	}
}
