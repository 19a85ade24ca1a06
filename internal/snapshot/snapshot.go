// Package snapshot persists built type tables to disk and restores them.
//
// A snapshot records everything a table declares except executable code:
// procedure entry points are process-local addresses and are rebound by the
// embedding program after a restore. Payloads carry a schema version so a
// stale snapshot is rejected instead of misread.
package snapshot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"ferrite/internal/rt"
	"ferrite/internal/tabledef"
	"ferrite/internal/typecode"
)

// Current schema version - increment when the payload format changes.
const schemaVersion uint16 = 1

type payload struct {
	Schema uint16
	Table  string
	Types  []typeRecord
}

type typeRecord struct {
	Name       string
	KindParams int
	LenParams  int
	Params     []paramRecord
	Fields     []fieldRecord
	Procs      []procRecord
	Init       []byte
	Size       int
}

type paramRecord struct {
	Name     string
	Code     uint16
	LenIndex int
	Value    int64
}

type fieldRecord struct {
	Name    string
	Code    uint16
	Offset  uint64
	Flags   uint32
	SubType string // referenced entry name, "" for elementary and embedded fields
}

type procRecord struct {
	Name      string
	Flags     uint32
	FinalRank uint32
}

func record(t *tabledef.Table) *payload {
	p := &payload{Schema: schemaVersion, Table: t.Name}
	for _, dt := range t.Types {
		tr := typeRecord{
			Name:       dt.Name(),
			KindParams: dt.KindParameters(),
			LenParams:  dt.LenParameters(),
			Init:       dt.InitialImage(),
			Size:       dt.SizeInBytes(),
		}
		for n := 0; n < dt.KindParameters(); n++ {
			tr.Params = append(tr.Params, recordParam(dt.KindParameter(n)))
		}
		for n := 0; n < dt.LenParameters(); n++ {
			tr.Params = append(tr.Params, recordParam(dt.LenParameter(n)))
		}
		for n := 0; n < dt.NumFields(); n++ {
			f := dt.Field(n)
			fr := fieldRecord{
				Name:   f.Name(),
				Code:   uint16(f.TypeCode()),
				Offset: f.Offset(),
				Flags:  uint32(f.Flags()),
			}
			if sd := f.StaticDescriptor(); sd != nil {
				fr.SubType = sd.Addendum().DerivedType().Name()
			}
			tr.Fields = append(tr.Fields, fr)
		}
		for n := 0; n < dt.NumBoundProcedures(); n++ {
			bp := dt.BoundProcedure(n)
			tr.Procs = append(tr.Procs, procRecord{
				Name:      bp.Name(),
				Flags:     uint32(bp.Flags()),
				FinalRank: bp.FinalRank(),
			})
		}
		p.Types = append(p.Types, tr)
	}
	return p
}

func recordParam(tp *rt.TypeParameter) paramRecord {
	return paramRecord{
		Name:     tp.Name(),
		Code:     uint16(tp.TypeCode()),
		LenIndex: tp.LenIndex(),
		Value:    int64(tp.StaticValue()),
	}
}

// Save writes a snapshot of the table, replacing path atomically.
func Save(path string, t *tabledef.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())

	enc := msgpack.NewEncoder(f)
	if err := enc.Encode(record(t)); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// Load reads a snapshot and rebuilds the table. Restored bound procedures
// carry no entry points; rebind them before invoking any lifecycle
// operation that would call one.
func Load(path string) (*tabledef.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var p payload
	if err := msgpack.NewDecoder(f).Decode(&p); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if p.Schema != schemaVersion {
		return nil, fmt.Errorf("%s: snapshot schema %d, this build reads %d",
			path, p.Schema, schemaVersion)
	}
	return restore(&p)
}

func restore(p *payload) (*tabledef.Table, error) {
	records := make(map[string]*typeRecord, len(p.Types))
	for i := range p.Types {
		tr := &p.Types[i]
		if _, dup := records[tr.Name]; dup {
			return nil, fmt.Errorf("snapshot declares type %q twice", tr.Name)
		}
		records[tr.Name] = tr
	}

	built := make(map[string]*rt.DerivedType, len(p.Types))
	var restoreType func(name string) (*rt.DerivedType, error)
	restoreType = func(name string) (*rt.DerivedType, error) {
		if dt, ok := built[name]; ok {
			return dt, nil
		}
		tr, ok := records[name]
		if !ok {
			return nil, fmt.Errorf("snapshot references type %q but does not carry it", name)
		}

		params := make([]rt.TypeParameter, 0, len(tr.Params))
		for _, pr := range tr.Params {
			if pr.LenIndex < 0 {
				params = append(params, rt.KindParameter(pr.Name, typecode.TypeCode(pr.Code), rt.ParamValue(pr.Value)))
			} else {
				params = append(params, rt.LenParameter(pr.Name, typecode.TypeCode(pr.Code), rt.ParamValue(pr.Value), pr.LenIndex))
			}
		}

		fields := make([]rt.Field, 0, len(tr.Fields))
		for _, fr := range tr.Fields {
			var sd *rt.Descriptor
			if fr.SubType != "" {
				sub, err := restoreType(fr.SubType)
				if err != nil {
					return nil, err
				}
				sd = rt.NewStaticDescriptor(sub)
			}
			fields = append(fields, rt.NewField(fr.Name, typecode.TypeCode(fr.Code),
				fr.Offset, rt.FieldFlag(fr.Flags), sd))
		}

		procs := make([]rt.BoundProcedure, 0, len(tr.Procs))
		for _, pr := range tr.Procs {
			procs = append(procs, rt.NewBoundProcedure(pr.Name, rt.ProcFlag(pr.Flags),
				pr.FinalRank, rt.Code{}))
		}

		dt := rt.NewDerivedType(tr.Name, tr.KindParams, tr.LenParams, params,
			fields, procs, tr.Init, tr.Size)
		built[name] = dt
		return dt, nil
	}

	types := make([]*rt.DerivedType, 0, len(p.Types))
	for i := range p.Types {
		dt, err := restoreType(p.Types[i].Name)
		if err != nil {
			return nil, err
		}
		types = append(types, dt)
	}
	return tabledef.NewTable(p.Table, types), nil
}
