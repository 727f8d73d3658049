package recovery

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// captureExit replaces exit for the duration of the test and returns a
// pointer to the last exit code (-1 if exit was not called)
func captureExit(t *testing.T) *int {
	t.Helper()
	code := -1
	orig := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = orig })
	return &code
}

func TestHandlePanic_NoPanic(t *testing.T) {
	code := captureExit(t)

	func() {
		defer HandlePanic(zap.NewNop())
	}()

	if *code != -1 {
		t.Errorf("exit called with %d without a panic", *code)
	}
}

func TestHandlePanic_LogsAndExits(t *testing.T) {
	code := captureExit(t)
	core, logs := observer.New(zap.ErrorLevel)

	func() {
		defer HandlePanic(zap.New(core))
		panic("window length mismatch")
	}()

	if *code != 1 {
		t.Errorf("exit code = %d, want 1", *code)
	}
	entries := logs.FilterMessage("panic").All()
	if len(entries) != 1 {
		t.Fatalf("got %d panic log entries, want 1", len(entries))
	}
	if got := entries[0].ContextMap()["value"]; got != "window length mismatch" {
		t.Errorf("logged value = %v, want %q", got, "window length mismatch")
	}
	if _, ok := entries[0].ContextMap()["stack"]; !ok {
		t.Error("panic log entry missing stack")
	}
}

func TestHandlePanic_NilLogger(t *testing.T) {
	code := captureExit(t)

	func() {
		defer HandlePanic(nil)
		panic("boom")
	}()

	if *code != 1 {
		t.Errorf("exit code = %d, want 1", *code)
	}
}

func TestHandlePanicFunc_RunsCleanup(t *testing.T) {
	code := captureExit(t)
	cleanupCalled := false

	func() {
		defer HandlePanicFunc(zap.NewNop(), func() {
			cleanupCalled = true
		})
		panic("capture thread died")
	}()

	if !cleanupCalled {
		t.Error("cleanup was not called")
	}
	if *code != 1 {
		t.Errorf("exit code = %d, want 1", *code)
	}
}

func TestHandlePanicFunc_NoPanicSkipsCleanup(t *testing.T) {
	captureExit(t)
	cleanupCalled := false

	func() {
		defer HandlePanicFunc(zap.NewNop(), func() {
			cleanupCalled = true
		})
	}()

	if cleanupCalled {
		t.Error("cleanup was called without a panic")
	}
}

func TestHandlePanicFunc_NilCleanup(t *testing.T) {
	code := captureExit(t)

	func() {
		defer HandlePanicFunc(zap.NewNop(), nil)
		panic("boom")
	}()

	if *code != 1 {
		t.Errorf("exit code = %d, want 1", *code)
	}
}
