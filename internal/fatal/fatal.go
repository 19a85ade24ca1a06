// Package fatal reports internal-consistency violations and terminates the
// process. The runtime core has no recoverable-error tier: a broken type
// table makes further execution unsound, so every report ends the program
// after identifying the source location of the failed check.
package fatal

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fatih/color"
)

var (
	prefixColor = color.New(color.FgRed, color.Bold)

	// exit is replaced in tests; production builds always terminate.
	exit = func(code int) {
		os.Exit(code)
	}
)

// SetExitForTest substitutes the process-termination hook and returns a
// restore function. Only tests may call this.
func SetExitForTest(fn func(code int)) (restore func()) {
	prev := exit
	exit = fn
	return func() { exit = prev }
}

// Crashf reports a fatal runtime condition at the caller's location and
// terminates.
func Crashf(format string, args ...any) {
	report(2, format, args...)
}

// Checkf terminates with the formatted message unless ok holds. It is the
// defensive check applied to invariants that a well-formed type table can
// never violate.
func Checkf(ok bool, format string, args ...any) {
	if ok {
		return
	}
	report(2, format, args...)
}

func report(skip int, format string, args ...any) {
	where := "unknown location"
	if _, file, line, ok := runtime.Caller(skip); ok {
		where = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	fmt.Fprintf(os.Stderr, "%s %s: %s\n",
		prefixColor.Sprint("fatal runtime error:"), where, fmt.Sprintf(format, args...))
	exit(2)
	// The test hook may return; production exit never does. Panic so that
	// no caller observes execution past a failed check.
	panic(fmt.Sprintf("fatal error did not terminate: "+format, args...))
}
