// Package nocsim implements the core of a cycle-accurate network-on-chip
// simulator: a lossy output-queued router pipeline and the channel/flit
// data model that feeds it.
//
// A [Router] receives flits on input [FlitChannel]s, stages them through a
// configurable-latency crossbar, and queues them into per-output FIFOs that
// preserve per-packet contiguity even though whole packets may be dropped
// under buffer pressure. Each simulation cycle an external driver calls, in
// order, [Router.ReadInputs], [Router.InternalStep], and
// [Router.WriteOutputs] for every router in the fabric.
//
// Traffic generation and consumption (the workload side: random injection,
// the scalable workload model, and the collective-operations accelerator)
// live in the sibling packages [github.com/cbeckman-hdogan/nocsim/workload]
// and [github.com/cbeckman-hdogan/nocsim/swm]. This package only owns the
// router/channel/flit vocabulary those packages drive.
//
// Configuration parsing, topology construction, routing-table lookup, the
// outer simulator event loop, and statistics printing are all out of scope:
// they are external collaborators that interact with this package only
// through [Router], [FlitChannel], [CreditChannel] and [RoutingFunc].
package nocsim
