package typecode

import "testing"

func TestTypeCodeRoundTrip(t *testing.T) {
	tc := New(Integer, 4)
	if tc.Category() != Integer {
		t.Fatalf("expected integer category, got %v", tc.Category())
	}
	if tc.Kind() != 4 {
		t.Fatalf("expected kind 4, got %d", tc.Kind())
	}
	if tc.IsDerived() {
		t.Fatal("integer(4) must not report as derived")
	}
}

func TestTypeCodeDerived(t *testing.T) {
	tc := New(Struct, 0)
	if !tc.IsDerived() {
		t.Fatal("struct code must report as derived")
	}
	if got := tc.String(); got != "struct" {
		t.Fatalf("unexpected string %q", got)
	}
}

func TestTypeCodeString(t *testing.T) {
	if got := New(Real, 8).String(); got != "real(8)" {
		t.Fatalf("unexpected string %q", got)
	}
	if got := New(Character, 1).String(); got != "character(1)" {
		t.Fatalf("unexpected string %q", got)
	}
}
