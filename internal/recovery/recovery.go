// internal/recovery/recovery.go
package recovery

import (
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
)

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs panic details through slog.Default() and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		logPanic(r)
		os.Exit(1)
	}
}

// HandlePanicFunc logs panic details, calls cleanup and exits with code 1.
// The monitor's capture and processing goroutines use it to stop the device
// before the process dies.
func HandlePanicFunc(cleanup func()) {
	if r := recover(); r != nil {
		logPanic(r)
		if cleanup != nil {
			cleanup()
		}
		os.Exit(1)
	}
}

func logPanic(r any) {
	slog.Error("FATAL", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
}
