// Package conc includes helpers for concurrency patterns that avoid some of the most common pitfalls.
package conc

import (
	"fmt"

	"github.com/sprucehealth/mediaindexer/libs/golog"
)

// Testing should be set to true when running tests for code that use this package.
// This makes Go synchronous so tests are deterministic.
var Testing bool

// Go runs f in a goroutine (synchronously when Testing is set). A panic in f is logged
// instead of crashing the process.
func Go(f func()) {
	if Testing {
		f()
		return
	}
	go func() {
		defer recoverAndLog()
		f()
	}()
}

func recoverAndLog() {
	if r := recover(); r != nil {
		golog.Criticalf("recovered panic in goroutine: %s", fmt.Sprint(r))
	}
}
