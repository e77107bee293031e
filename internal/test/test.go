package test

import (
	"errors"
	"fmt"
	"runtime"
	"testing"
)

func fatalf(t *testing.T, message string, params ...any) {
	t.Helper()
	if len(params) > 0 {
		message = fmt.Sprintf(message, params...)
	}
	_, thisFile, _, _ := runtime.Caller(0)
	file := thisFile
	line := 0
	for i := 2; file == thisFile; i++ {
		_, file, line, _ = runtime.Caller(i)
	}
	t.Fatalf("%s at %s:%d", message, file, line)
}

func Assert(t *testing.T, cond bool, message string, params ...any) {
	t.Helper()
	if !cond {
		fatalf(t, message, params...)
	}
}

func Expect(t *testing.T, cond bool, expected, got any) {
	t.Helper()
	if !cond {
		fatalf(t, "expecting %v, got %v", expected, got)
	}
}

func ExpectInt(t *testing.T, expected, got int) {
	t.Helper()
	Expect(t, expected == got, expected, got)
}

func ExpectString(t *testing.T, expected, got string) {
	t.Helper()
	if expected != got {
		fatalf(t, "expecting %q, got %q", expected, got)
	}
}

func ExpectStrings(t *testing.T, expected, got []string) {
	t.Helper()
	if len(expected) != len(got) {
		fatalf(t, "expecting %q, got %q", expected, got)
	}
	for i := range expected {
		if expected[i] != got[i] {
			fatalf(t, "expecting %q, got %q", expected, got)
		}
	}
}

func ExpectNoError(t *testing.T, e error) {
	t.Helper()
	if e != nil {
		fatalf(t, "unexpected error: %s", e)
	}
}

// ExpectError checks that e is (or wraps) an error of the target's type.
// target must be a non-nil pointer, as for errors.As.
func ExpectError(t *testing.T, e error, target any) {
	t.Helper()
	if e == nil {
		fatalf(t, "expecting %T error, got success", target)
	}
	if !errors.As(e, target) {
		fatalf(t, "expecting %T error, got %v", target, e)
	}
}
