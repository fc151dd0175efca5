package workload

import "fmt"

//
// Component pipeline: the Test/Get/Next/Eject contract every stack element
// implements, and the explicit Registry that replaces the source's
// self-registering component factories (§9 design note: "replace
// construction-time self-registration... with a single static registry
// initialised explicitly at program start").
//

// Component is one node in a linear workload stack. Modifiers hold an
// upstream Component and forward or transform calls against it; generators
// are leaves that synthesize messages themselves.
type Component interface {
	// Init binds this component (and, transitively, its upstream) to a
	// PE count. Called once before the stack is driven.
	Init(pes int) error

	// Test reports, without side effects visible across repeated calls
	// in the same cycle, whether a message is available for src.
	Test(src int) bool

	// Get returns the same message for src across repeated calls in the
	// same cycle, until Next(src) is called.
	Get(src int) WorkloadMessage

	// Next declares the cached Get result for src consumed and clears it.
	Next(src int)

	// Eject delivers a fabric arrival. A component that does not itself
	// consume msg forwards it to its upstream.
	Eject(msg WorkloadMessage)
}

// Factory builds a Component from its parsed option strings (§6 grammar:
// Name or Name(opt1,opt2,...)), optionally wrapping an upstream Component.
type Factory func(opts []string, upstream Component) (Component, error)

// ErrUnknownComponent is returned when a specifier names a component with
// no registered factory.
var ErrUnknownComponent = fmt.Errorf("workload: unknown component")

// Registry maps component names to factories. The zero value is not
// usable; use NewRegistry.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, f Factory) {
	r.factories[name] = f
}

// New builds the named component, or returns ErrUnknownComponent wrapped
// with the offending name.
func (r *Registry) New(name string, opts []string, upstream Component) (Component, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComponent, name)
	}
	return f(opts, upstream)
}

// RegisterDefaults populates r with every component this package implements
// directly (Random, Mppn, Packetize, OnNodeLatency, LocalShortcut,
// SmallMessageCoalescing, Trace). The SWM and collective-accelerator
// generators live in the swm package and register themselves via
// swm.RegisterDefaults, called separately, to avoid an import cycle
// between the two packages.
func RegisterDefaults(r *Registry) {
	r.Register("random", newRandomFactory)
	r.Register("Mppn", newMppnFactory)
	r.Register("packetize", newPacketizeFactory)
	r.Register("latency", newOnNodeLatencyFactory)
	r.Register("local", newLocalShortcutFactory)
	r.Register("smc", newSMCFactory)
	r.Register("trace", newTraceFactory)
}
