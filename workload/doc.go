// Package workload implements the composable traffic-generation pipeline
// that drives a router fabric: generators at the leaves (random injection,
// the SWM coroutine runtime, the collective accelerator) and a chain of
// modifiers stacked on top of them (Mppn, Packetize, OnNodeLatency,
// LocalShortcut, SmallMessageCoalescing, Trace).
//
// A stack is addressed uniformly through the four-operation Component
// contract (Test/Get/Next/Eject); building, parsing and wiring a concrete
// stack from a configuration string is this package's job, not the
// router's. Topology, PE placement and the overall simulator event loop
// remain the caller's responsibility.
package workload
