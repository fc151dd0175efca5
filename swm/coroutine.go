package swm

// Coroutine is a generator-style state machine built from a goroutine and a
// pair of unbuffered channels, replacing the original's Boost coroutine2
// pull_type/push_type pair (§9 design note: "these map onto generator-style
// state machines driven by an outer poll loop"). Body runs on its own
// goroutine but only ever executes between a Resume call and the matching
// yield; the channel handoff is synchronous, so the driver and the body are
// never concurrently active and no locking is needed.
type Coroutine[In, Out any] struct {
	resume chan In
	yield  chan Out
	done   chan struct{}
	panicVal any
}

// NewCoroutine starts body on its own goroutine, parked immediately waiting
// for the first Resume. body receives a yield function it calls to hand an
// Out value back to the driver and block for the next In; it receives the
// very first In as its first argument. A panic inside body (an invariant
// violation, per §7's taxonomy) is captured and re-raised on whichever
// goroutine next calls Resume, since a panic on this package's internal
// goroutine would otherwise terminate the whole program silently.
func NewCoroutine[In, Out any](body func(yield func(Out) In, first In)) *Coroutine[In, Out] {
	c := &Coroutine[In, Out]{
		resume: make(chan In),
		yield:  make(chan Out),
		done:   make(chan struct{}),
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.panicVal = r
			}
			close(c.done)
		}()
		first := <-c.resume
		body(func(out Out) In {
			c.yield <- out
			return <-c.resume
		}, first)
	}()
	return c
}

// Resume hands in to the coroutine and blocks until it either yields an Out
// (ok=true) or runs to completion (ok=false, zero Out). If body panicked,
// Resume re-panics with the same value on the calling goroutine.
func (c *Coroutine[In, Out]) Resume(in In) (out Out, ok bool) {
	select {
	case <-c.done:
		if c.panicVal != nil {
			panic(c.panicVal)
		}
		return out, false
	default:
	}
	c.resume <- in
	select {
	case out = <-c.yield:
		return out, true
	case <-c.done:
		if c.panicVal != nil {
			panic(c.panicVal)
		}
		return out, false
	}
}

// Done reports whether the coroutine has run to completion.
func (c *Coroutine[In, Out]) Done() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
