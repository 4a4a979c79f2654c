// -----------------------------------------------------------------------
// Safe Goroutine - Panic-protected goroutine wrapper
// -----------------------------------------------------------------------

package common

import (
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/ternarybob/arbor"
)

var (
	goroutinesStarted int64
	goroutinesRunning int64
)

// GoroutineStats returns how many goroutines SafeGo has started and how many are still running
func GoroutineStats() (started, running int64) {
	return atomic.LoadInt64(&goroutinesStarted), atomic.LoadInt64(&goroutinesRunning)
}

// SafeGo runs fn in a goroutine with panic recovery.
// Panics are logged and the process keeps running.
//
// Example:
//
//	common.SafeGo(logger, "watcher:PRICE:42", func() {
//	    watcher.Run(ctx)
//	})
func SafeGo(logger arbor.ILogger, name string, fn func()) {
	atomic.AddInt64(&goroutinesStarted, 1)
	atomic.AddInt64(&goroutinesRunning, 1)

	go func() {
		defer atomic.AddInt64(&goroutinesRunning, -1)
		defer func() {
			if r := recover(); r != nil {
				buf := make([]byte, 4096)
				n := runtime.Stack(buf, false)
				stackTrace := string(buf[:n])

				if logger != nil {
					logger.Error().
						Str("goroutine", name).
						Str("panic", fmt.Sprintf("%v", r)).
						Str("stack", stackTrace).
						Msg("Recovered from panic in goroutine - continuing service operation")
				} else {
					fmt.Fprintf(os.Stderr, "PANIC in goroutine %s: %v\n%s\n", name, r, stackTrace)
				}
			}
		}()

		fn()
	}()
}
