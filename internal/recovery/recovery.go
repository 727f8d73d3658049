// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"os"
	"runtime/debug"

	"go.uber.org/zap"
)

// exit is swapped out in tests
var exit = os.Exit

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs the panic value and stack and exits with code 1. A nil logger
// falls back to stderr.
func HandlePanic(log *zap.Logger) {
	if r := recover(); r != nil {
		report(log, r)
		exit(1)
	}
}

// HandlePanicFunc is HandlePanic with a cleanup hook run before exiting,
// e.g. to stop the capture device.
func HandlePanicFunc(log *zap.Logger, cleanup func()) {
	if r := recover(); r != nil {
		report(log, r)
		if cleanup != nil {
			cleanup()
		}
		exit(1)
	}
}

func report(log *zap.Logger, r any) {
	stack := debug.Stack()
	if log == nil {
		_, _ = fmt.Fprintf(os.Stderr, "FATAL: %v\n\nStack trace:\n%s\n", r, stack)
		return
	}
	log.Error("panic", zap.Any("value", r), zap.ByteString("stack", stack))
	_ = log.Sync()
}
