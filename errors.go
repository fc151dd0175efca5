package nocsim

//
// Error taxonomy
//
// Four kinds of failure exist in this core: configuration errors (the
// constructors in this package, such as NewRouter and NewFlitChannel, panic
// on out-of-range arguments; the workload factories and swm.NewAccelNode
// return an error), invariant violations (panics — these indicate a bug
// in the caller or in this package, never a runtime condition a caller can
// recover from), transient drops (not errors at all — recorded only via
// Logger.Debugf and a metrics counter), and the lossy-mode precondition
// (undetected by design, documented in DESIGN.md).
//

import (
	"errors"
	"fmt"
)

// ErrInvalidRoutingSet indicates a [RoutingFunc] returned an output set
// whose cardinality is not exactly one, which lossy operation requires.
var ErrInvalidRoutingSet = errors.New("nocsim: routing function returned a non-singleton output set")

// ErrUnknownRoutingFunction indicates a routing function name could not be
// resolved by a lookup table supplied by the caller.
var ErrUnknownRoutingFunction = errors.New("nocsim: unknown routing function")

// ErrInvalidConfig indicates a [RouterConfig] field is out of range or
// inconsistent.
var ErrInvalidConfig = errors.New("nocsim: invalid configuration")

// Must1 panics if err is non-nil, otherwise returns value. Use it at call
// sites that would rather fail fast than propagate a configuration error,
// mirroring how constructors in this module are normally chained together
// by a driver that has no sensible recovery path.
func Must1[T any](value T, err error) T {
	if err != nil {
		panic(fmt.Sprintf("nocsim: fatal configuration error: %s", err.Error()))
	}
	return value
}

// invariantf panics with a formatted message. Used for conditions §7 of the
// design classifies as invariant violations: a fatal abort is the correct
// response, not an error return, because the caller cannot recover from a
// corrupted pipeline.
func invariantf(format string, v ...any) {
	panic(fmt.Sprintf("nocsim: invariant violation: "+format, v...))
}
