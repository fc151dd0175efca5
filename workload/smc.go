package workload

import (
	"fmt"
	"strconv"
)

//
// SmallMessageCoalescing: accumulates upstream messages per source until
// their combined size reaches maxBytes, then hands the whole batch
// downstream as a single coalesced message. Assumes (as is typical for
// this kind of coalescing) that accumulated messages share a destination;
// the coalesced message reports the first member's.
//

// SMC buffers upstream messages per source until isFull, then presents
// them downstream as one coalescedMessage.
type SMC struct {
	upstream Component
	maxBytes int

	buffer    map[int][]WorkloadMessage
	totalSize map[int]int
	lastGet   map[int]WorkloadMessage
}

// NewSMC wraps upstream, coalescing until maxBytes worth of messages have
// accumulated for a source.
func NewSMC(upstream Component, maxBytes int) *SMC {
	return &SMC{
		upstream:  upstream,
		maxBytes:  maxBytes,
		buffer:    make(map[int][]WorkloadMessage),
		totalSize: make(map[int]int),
		lastGet:   make(map[int]WorkloadMessage),
	}
}

func (c *SMC) Init(pes int) error { return c.upstream.Init(pes) }

func (c *SMC) isFull(src int) bool {
	return c.totalSize[src] >= c.maxBytes && len(c.buffer[src]) > 0
}

func (c *SMC) Test(src int) bool {
	if c.lastGet[src] != nil {
		return true
	}
	for !c.isFull(src) && c.upstream.Test(src) {
		msg := c.upstream.Get(src)
		c.upstream.Next(src)
		c.buffer[src] = append(c.buffer[src], msg)
		c.totalSize[src] += msg.Size()
	}
	return c.isFull(src)
}

func (c *SMC) Get(src int) WorkloadMessage {
	if c.lastGet[src] == nil && c.isFull(src) {
		members := c.buffer[src]
		c.lastGet[src] = &coalescedMessage{source: src, dest: members[0].Dest(), members: members}
	}
	return c.lastGet[src]
}

func (c *SMC) Next(src int) {
	if c.lastGet[src] == nil {
		return
	}
	c.buffer[src] = nil
	c.totalSize[src] = 0
	c.lastGet[src] = nil
}

func (c *SMC) Eject(msg WorkloadMessage) {
	if wrapped, ok := msg.(*coalescedMessage); ok {
		for _, inner := range wrapped.members {
			c.upstream.Eject(inner)
		}
		return
	}
	c.upstream.Eject(msg)
}

func newSMCFactory(opts []string, upstream Component) (Component, error) {
	if upstream == nil {
		return nil, fmt.Errorf("workload: smc requires an upstream component")
	}
	if len(opts) != 1 {
		return nil, fmt.Errorf("workload: smc takes exactly 1 option (max_bytes), got %d", len(opts))
	}
	n, err := strconv.Atoi(opts[0])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("workload: smc max_bytes must be a positive integer, got %q", opts[0])
	}
	return NewSMC(upstream, n), nil
}
