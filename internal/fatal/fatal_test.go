package fatal

import "testing"

func TestCheckfPassesWhenOK(t *testing.T) {
	called := false
	restore := SetExitForTest(func(int) { called = true })
	defer restore()

	Checkf(true, "should not fire")
	if called {
		t.Fatal("Checkf(true, ...) must not terminate")
	}
}

func TestCheckfTerminatesWhenViolated(t *testing.T) {
	var code int
	called := false
	restore := SetExitForTest(func(c int) {
		called = true
		code = c
	})
	defer restore()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic after stubbed exit returned")
		}
		if !called {
			t.Fatal("exit hook was not invoked")
		}
		if code != 2 {
			t.Fatalf("expected exit code 2, got %d", code)
		}
	}()
	Checkf(false, "broken invariant %d", 7)
}
