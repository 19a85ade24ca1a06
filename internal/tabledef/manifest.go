// Package tabledef builds runtime type tables from TOML manifests. It is a
// test and bootstrap producer standing in for the compiler's static table
// emission: layout is computed with the same natural-alignment rules the
// code generator uses, and the resulting tables are ordinary immutable
// rt.DerivedType entries.
package tabledef

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/text/unicode/norm"
)

// Manifest is one table definition file.
type Manifest struct {
	Table TableSection `toml:"table"`
	Types []TypeDef    `toml:"type"`
}

type TableSection struct {
	Name string `toml:"name"`
}

// TypeDef declares one derived type. Size and field offsets may be omitted;
// Build then computes them with natural alignment in declaration order.
type TypeDef struct {
	Name    string     `toml:"name"`
	Extends string     `toml:"extends"`
	Size    int        `toml:"size"`
	Init    []int      `toml:"init"`
	Params  []ParamDef `toml:"param"`
	Fields  []FieldDef `toml:"field"`
	Procs   []ProcDef  `toml:"proc"`
}

type ParamDef struct {
	Name  string `toml:"name"`
	Class string `toml:"class"` // "kind" or "len"
	Type  string `toml:"type"`
	Value int64  `toml:"value"`
}

type FieldDef struct {
	Name    string `toml:"name"`
	Type    string `toml:"type"` // elementary spec, "type(name)", or "embedded"
	Offset  *int64 `toml:"offset"` // nil: computed by natural alignment
	Private bool   `toml:"private"`
}

type ProcDef struct {
	Name        string `toml:"name"`
	Initializer bool   `toml:"initializer"`
	Elementwise bool   `toml:"elementwise"`
	Assignment  bool   `toml:"assignment"`
	FinalRanks  []int  `toml:"final_ranks"`
	AnyRank     bool   `toml:"any_rank_final"`
}

// Load reads and parses a manifest file. Type and field names are
// NFC-normalized so that lookups are insensitive to the Unicode composition
// of the source text.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data), path)
}

// Parse parses manifest text; origin names the source in errors.
func Parse(text, origin string) (*Manifest, error) {
	var m Manifest
	meta, err := toml.Decode(text, &m)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", origin, err)
	}
	if !meta.IsDefined("table") || m.Table.Name == "" {
		return nil, fmt.Errorf("%s: missing [table].name", origin)
	}
	m.Table.Name = norm.NFC.String(m.Table.Name)
	for i := range m.Types {
		td := &m.Types[i]
		td.Name = norm.NFC.String(td.Name)
		td.Extends = norm.NFC.String(td.Extends)
		if td.Name == "" {
			return nil, fmt.Errorf("%s: type %d has no name", origin, i)
		}
		for j := range td.Fields {
			td.Fields[j].Name = norm.NFC.String(td.Fields[j].Name)
		}
	}
	return &m, nil
}
