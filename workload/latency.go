package workload

import (
	"fmt"
	"strconv"
)

//
// OnNodeLatency: two independent delay lines (outgoing, incoming) holding
// (message, ready-cycle) pairs, released when the clock reaches ready.
// Mirrors the delay-queue idiom used for FlitChannel/CreditChannel at the
// core, adapted to per-source staging since messages here are pulled one
// at a time rather than streamed.
//

// Ticker is implemented by components whose behavior depends on the
// current cycle. The driver calls Tick once per cycle, before Test/Get/
// Next/Eject, on every stack element that implements it.
type Ticker interface {
	Tick(now int64)
}

type pendingMessage struct {
	msg   WorkloadMessage
	ready int64
}

// OnNodeLatency delays upstream-produced messages by outgoingLatency
// cycles before they become visible downstream, and delays ejected
// replies by incomingLatency cycles before forwarding them upstream.
type OnNodeLatency struct {
	upstream Component

	outgoingLatency int64
	incomingLatency int64

	now int64

	outgoingStaged map[int]*pendingMessage
	outgoingReady  map[int]WorkloadMessage
	lastGet        map[int]WorkloadMessage

	incoming []pendingMessage
}

// NewOnNodeLatency wraps upstream with the given outgoing/incoming delays
// in cycles.
func NewOnNodeLatency(upstream Component, outgoingLatency, incomingLatency int64) *OnNodeLatency {
	return &OnNodeLatency{
		upstream:        upstream,
		outgoingLatency: outgoingLatency,
		incomingLatency: incomingLatency,
		outgoingStaged:  make(map[int]*pendingMessage),
		outgoingReady:   make(map[int]WorkloadMessage),
		lastGet:         make(map[int]WorkloadMessage),
	}
}

func (c *OnNodeLatency) Init(pes int) error { return c.upstream.Init(pes) }

func (c *OnNodeLatency) Tick(now int64) {
	c.now = now
	remaining := c.incoming[:0]
	for _, p := range c.incoming {
		if p.ready > now {
			remaining = append(remaining, p)
			continue
		}
		c.upstream.Eject(p.msg)
	}
	c.incoming = remaining
}

func (c *OnNodeLatency) Test(src int) bool {
	if c.lastGet[src] != nil || c.outgoingReady[src] != nil {
		return true
	}
	if c.outgoingStaged[src] == nil && c.upstream.Test(src) {
		c.outgoingStaged[src] = &pendingMessage{
			msg:   c.upstream.Get(src),
			ready: c.now + c.outgoingLatency,
		}
	}
	if p := c.outgoingStaged[src]; p != nil && c.now >= p.ready {
		c.outgoingReady[src] = p.msg
		c.outgoingStaged[src] = nil
	}
	return c.outgoingReady[src] != nil
}

func (c *OnNodeLatency) Get(src int) WorkloadMessage {
	if c.lastGet[src] == nil {
		c.lastGet[src] = c.outgoingReady[src]
	}
	return c.lastGet[src]
}

func (c *OnNodeLatency) Next(src int) {
	if c.lastGet[src] == nil {
		return
	}
	c.upstream.Next(src)
	c.outgoingReady[src] = nil
	c.lastGet[src] = nil
}

func (c *OnNodeLatency) Eject(msg WorkloadMessage) {
	c.incoming = append(c.incoming, pendingMessage{msg: msg, ready: c.now + c.incomingLatency})
}

func newOnNodeLatencyFactory(opts []string, upstream Component) (Component, error) {
	if upstream == nil {
		return nil, fmt.Errorf("workload: latency requires an upstream component")
	}
	if len(opts) != 2 {
		return nil, fmt.Errorf("workload: latency takes exactly 2 options (outgoing,incoming), got %d", len(opts))
	}
	out, err1 := strconv.ParseInt(opts[0], 10, 64)
	in, err2 := strconv.ParseInt(opts[1], 10, 64)
	if err1 != nil || err2 != nil || out < 0 || in < 0 {
		return nil, fmt.Errorf("workload: latency options must be non-negative integers, got %q, %q", opts[0], opts[1])
	}
	return NewOnNodeLatency(upstream, out, in), nil
}
