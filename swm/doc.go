// Package swm implements the two cooperative-coroutine-driven engines
// that sit at the leaves of a workload stack: the scalable workload model
// (SWM) thread runtime, which executes an externally supplied program
// expressed in terms of work/put/get/send/recv/quiet primitives, and the
// collective-accelerator engine, which runs one of several barrier/
// allreduce/broadcast algorithms per fabric node.
//
// Both runtimes share one coroutine substrate (Coroutine[In, Out]): a
// goroutine parked on an unbuffered channel, handing back an Out value
// synchronously before blocking again. Because the handoff is always
// synchronous, only one of {driver, coroutine} ever runs at a time, so no
// locking is needed anywhere in this package.
//
// The content of SWM application programs is an external collaborator
// (spec's scope explicitly excludes it); this package only supplies the
// runtime that drives an externally authored Program.
package swm
