package tabledef

import (
	"testing"

	"ferrite/internal/rt"
)

const geometryManifest = `
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

  [[type.field]]
  name = "label"
  type = "embedded"

  [[type.proc]]
  name = "retire"
  elementwise = true
  final_ranks = [0]
`

func TestBuildComputesLayout(t *testing.T) {
	m, err := Parse(geometryManifest, "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table, err := Build(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	point, ok := table.Lookup("point")
	if !ok {
		t.Fatal("point not built")
	}
	if point.SizeInBytes() != 16 {
		t.Fatalf("point size %d, want 16", point.SizeInBytes())
	}
	if point.Field(1).Offset() != 8 {
		t.Fatalf("point.y at offset %d, want 8", point.Field(1).Offset())
	}

	tagged, ok := table.Lookup("tagged_point")
	if !ok {
		t.Fatal("tagged_point not built")
	}
	if !tagged.IsExtension() || !tagged.Extends(point) {
		t.Fatal("tagged_point must extend point")
	}
	if got := tagged.Field(0).Offset(); got != 0 {
		t.Fatalf("ancestor slot at offset %d, want 0", got)
	}
	if got := tagged.Field(1).Offset(); got != 16 {
		t.Fatalf("tag at offset %d, want 16", got)
	}
	// The embedded slot is 8 bytes and 8-aligned, after a 4-byte field.
	if got := tagged.Field(2).Offset(); got != 24 {
		t.Fatalf("label at offset %d, want 24", got)
	}
	if tagged.SizeInBytes() != 32 {
		t.Fatalf("tagged_point size %d, want 32", tagged.SizeInBytes())
	}
	if !tagged.Finalizable() {
		t.Fatal("declared finalizer must make tagged_point finalizable")
	}
}

func TestBuildBindsProcedureCode(t *testing.T) {
	m, err := Parse(geometryManifest, "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	calls := 0
	table, err := Build(m, WithProcedure("retire", rt.Code{Host: func([]byte) { calls++ }}))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	tagged, _ := table.Lookup("tagged_point")
	buf := make([]byte, tagged.SizeInBytes())
	tagged.Initialize(buf)
	tagged.DestroyScalarInstance(buf, true)
	if calls != 1 {
		t.Fatalf("bound finalizer ran %d times", calls)
	}
}

func TestBuildRejectsReferenceCycle(t *testing.T) {
	const cyclic = `
[table]
name = "bad"

[[type]]
name = "a"
  [[type.field]]
  name = "b"
  type = "type(b)"

[[type]]
name = "b"
  [[type.field]]
  name = "a"
  type = "type(a)"
`
	m, err := Parse(cyclic, "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(m); err == nil {
		t.Fatal("expected a cycle error")
	}
}

func TestBuildRejectsUndeclaredReference(t *testing.T) {
	const dangling = `
[table]
name = "bad"

[[type]]
name = "a"
  [[type.field]]
  name = "x"
  type = "type(missing)"
`
	m, err := Parse(dangling, "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(m); err == nil {
		t.Fatal("expected an undeclared-reference error")
	}
}

func TestBuildRejectsWrongInitSize(t *testing.T) {
	const short = `
[table]
name = "bad"

[[type]]
name = "a"
init = [1, 2]
  [[type.field]]
  name = "x"
  type = "integer(4)"
`
	m, err := Parse(short, "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := Build(m); err == nil {
		t.Fatal("expected an init-size error")
	}
}

func TestBuildStaticInitImage(t *testing.T) {
	const withInit = `
[table]
name = "t"

[[type]]
name = "flagged"
init = [0, 0, 0, 1]
  [[type.field]]
  name = "on"
  type = "logical(4)"
`
	m, err := Parse(withInit, "test")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	table, err := Build(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	dt, _ := table.Lookup("flagged")
	buf := []byte{9, 9, 9, 9}
	dt.Initialize(buf)
	if buf[3] != 1 || buf[0] != 0 {
		t.Fatalf("init image not applied: %v", buf)
	}
}
