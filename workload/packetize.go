package workload

import (
	"fmt"
	"strconv"
)

//
// Packetize: reports an upstream message's Size in flits instead of bytes,
// the unit the router pipeline actually consumes.
//

// Packetize wraps upstream messages, converting their byte Size into a
// flit count: ceil(bytes/maxPayload) frames, each carrying fabricOverhead
// bytes of fabric header plus flitHeaderOverhead bytes of per-flit header,
// with the grand total converted to flits via ceil(total/flitSize).
type Packetize struct {
	upstream Component

	maxPayload        int
	fabricOverhead    int
	flitHeaderOverhead int
	flitSize          int
}

// NewPacketize wraps upstream with the given framing parameters.
func NewPacketize(upstream Component, maxPayload, fabricOverhead, flitHeaderOverhead, flitSize int) *Packetize {
	return &Packetize{
		upstream:           upstream,
		maxPayload:         maxPayload,
		fabricOverhead:     fabricOverhead,
		flitHeaderOverhead: flitHeaderOverhead,
		flitSize:           flitSize,
	}
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

func (c *Packetize) flitsFor(bytes int) int {
	frames := ceilDiv(bytes, c.maxPayload)
	total := bytes + frames*(c.fabricOverhead+c.flitHeaderOverhead)
	return ceilDiv(total, c.flitSize)
}

func (c *Packetize) Init(pes int) error { return c.upstream.Init(pes) }
func (c *Packetize) Test(src int) bool  { return c.upstream.Test(src) }

func (c *Packetize) Get(src int) WorkloadMessage {
	inner := c.upstream.Get(src)
	if inner == nil {
		return nil
	}
	return &packetizeMessage{WorkloadMessage: inner, flits: c.flitsFor(inner.Size())}
}

func (c *Packetize) Next(src int) { c.upstream.Next(src) }

func (c *Packetize) Eject(msg WorkloadMessage) {
	if wrapped, ok := msg.(*packetizeMessage); ok {
		c.upstream.Eject(wrapped.WorkloadMessage)
		return
	}
	c.upstream.Eject(msg)
}

func newPacketizeFactory(opts []string, upstream Component) (Component, error) {
	if upstream == nil {
		return nil, fmt.Errorf("workload: packetize requires an upstream component")
	}
	if len(opts) != 4 {
		return nil, fmt.Errorf("workload: packetize takes exactly 4 options, got %d", len(opts))
	}
	vals := make([]int, 4)
	for i, s := range opts {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("workload: packetize option %d must be a positive integer, got %q", i, s)
		}
		vals[i] = n
	}
	return NewPacketize(upstream, vals[0], vals[1], vals[2], vals[3]), nil
}
