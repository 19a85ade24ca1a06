package snapshot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"ferrite/internal/tabledef"
)

const manifest = `
[table]
name = "geometry"

[[type]]
name = "point"
  [[type.field]]
  name = "x"
  type = "real(8)"
  [[type.field]]
  name = "y"
  type = "real(8)"

[[type]]
name = "tagged_point"
extends = "point"
  [[type.field]]
  name = "tag"
  type = "integer(4)"
  [[type.proc]]
  name = "retire"
  elementwise = true
  final_ranks = [0]
`

func buildTable(t *testing.T) *tabledef.Table {
	t.Helper()
	m, err := tabledef.Parse(manifest, "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table, err := tabledef.Build(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return table
}

func TestSaveLoadRoundTrip(t *testing.T) {
	table := buildTable(t)
	path := filepath.Join(t.TempDir(), "geometry.mp")

	if err := Save(path, table); err != nil {
		t.Fatalf("save: %v", err)
	}
	restored, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if restored.Name != "geometry" {
		t.Fatalf("table name %q", restored.Name)
	}
	if len(restored.Types) != len(table.Types) {
		t.Fatalf("restored %d types, saved %d", len(restored.Types), len(table.Types))
	}
	for i, want := range table.Types {
		got := restored.Types[i]
		if got.Name() != want.Name() || got.SizeInBytes() != want.SizeInBytes() {
			t.Fatalf("type %d: got %s/%d, want %s/%d",
				i, got.Name(), got.SizeInBytes(), want.Name(), want.SizeInBytes())
		}
		if got.NumFields() != want.NumFields() {
			t.Fatalf("type %s: field count %d, want %d", got.Name(), got.NumFields(), want.NumFields())
		}
		for n := 0; n < want.NumFields(); n++ {
			if got.Field(n).Offset() != want.Field(n).Offset() {
				t.Fatalf("%s.%s offset %d, want %d", got.Name(), got.Field(n).Name(),
					got.Field(n).Offset(), want.Field(n).Offset())
			}
		}
	}

	tagged, ok := restored.Lookup("tagged_point")
	if !ok {
		t.Fatal("tagged_point missing after restore")
	}
	if !tagged.Finalizable() || !tagged.IsExtension() {
		t.Fatal("restored entry lost its derived traits")
	}
	base, _ := restored.Lookup("point")
	if !tagged.Extends(base) {
		t.Fatal("restored extension chain broken")
	}
}

func TestLoadRejectsForeignSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stale.mp")
	raw, err := msgpack.Marshal(&payload{Schema: schemaVersion + 1, Table: "x"})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	_, err = Load(path)
	if err == nil || !strings.Contains(err.Error(), "schema") {
		t.Fatalf("expected a schema error, got %v", err)
	}
}

func TestSaveReplacesExistingSnapshot(t *testing.T) {
	table := buildTable(t)
	path := filepath.Join(t.TempDir(), "geometry.mp")
	if err := os.WriteFile(path, []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := Save(path, table); err != nil {
		t.Fatalf("save over existing: %v", err)
	}
	if _, err := Load(path); err != nil {
		t.Fatalf("load after overwrite: %v", err)
	}
}
