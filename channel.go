package nocsim

//
// FlitChannel / CreditChannel: point-to-point links with a fixed transit
// latency, modeled as an in-flight queue of (value, deadline) pairs
// serviced once per logical cycle, the logical-cycle-time analogue of a
// real-time delay line that keeps an inflight slice ordered by deadline
// and drains it against a wall-clock ticker. Here the "ticker" is simply
// the cycle counter the router itself advances, so no goroutine or
// wall-clock timer is needed (§5: single logical clock, no background
// goroutines in the core).
//

// FlitChannel carries flits between two router ports with a configurable
// latency.
type FlitChannel struct {
	latency int
	inflight []flitDeparture
}

type flitDeparture struct {
	flit    *Flit
	arrives int64
}

// NewFlitChannel creates a channel with the given transit latency in
// cycles (0 means same-cycle delivery).
func NewFlitChannel(latencyCycles int) *FlitChannel {
	if latencyCycles < 0 {
		invariantf("flit channel latency must be >= 0, got %d", latencyCycles)
	}
	return &FlitChannel{latency: latencyCycles}
}

// GetLatency returns the channel's configured transit latency in cycles.
func (c *FlitChannel) GetLatency() int {
	return c.latency
}

// Send enqueues a flit for delivery latency cycles after now.
func (c *FlitChannel) Send(now int64, f *Flit) {
	c.inflight = append(c.inflight, flitDeparture{flit: f, arrives: now + int64(c.latency)})
}

// Receive returns the flit (if any) due to arrive at or before now, and
// removes it from the in-flight queue. At most one flit is returned per
// call; callers needing more must call again.
func (c *FlitChannel) Receive(now int64) *Flit {
	if len(c.inflight) == 0 {
		return nil
	}
	head := c.inflight[0]
	if head.arrives > now {
		return nil
	}
	c.inflight = c.inflight[1:]
	return head.flit
}

// Empty reports whether no flits are in flight on this channel.
func (c *FlitChannel) Empty() bool {
	return len(c.inflight) == 0
}

// CreditChannel carries credits between two router ports with a
// configurable latency, mirroring [FlitChannel].
type CreditChannel struct {
	latency  int
	inflight []creditDeparture
}

type creditDeparture struct {
	credit  *Credit
	arrives int64
}

// NewCreditChannel creates a credit channel with the given transit latency
// in cycles.
func NewCreditChannel(latencyCycles int) *CreditChannel {
	if latencyCycles < 0 {
		invariantf("credit channel latency must be >= 0, got %d", latencyCycles)
	}
	return &CreditChannel{latency: latencyCycles}
}

// GetLatency returns the channel's configured transit latency in cycles.
func (c *CreditChannel) GetLatency() int {
	return c.latency
}

// Send enqueues a credit for delivery latency cycles after now.
func (c *CreditChannel) Send(now int64, cr *Credit) {
	c.inflight = append(c.inflight, creditDeparture{credit: cr, arrives: now + int64(c.latency)})
}

// Receive returns the credit (if any) due to arrive at or before now.
func (c *CreditChannel) Receive(now int64) *Credit {
	if len(c.inflight) == 0 {
		return nil
	}
	head := c.inflight[0]
	if head.arrives > now {
		return nil
	}
	c.inflight = c.inflight[1:]
	return head.credit
}

// Empty reports whether no credits are in flight on this channel.
func (c *CreditChannel) Empty() bool {
	return len(c.inflight) == 0
}
