package workload

import (
	"fmt"
	"strconv"
)

//
// Mppn: multi-PE-per-node. Maps a contiguous range of upstream PE indices
// onto one node index, draining pePerNode upstream sources into a per-node
// FIFO of (pe, wrapped message) items.
//

type mppnItem struct {
	pe  int
	msg WorkloadMessage
}

// Mppn presents pePerNode upstream PEs as a single node-level source.
type Mppn struct {
	upstream  Component
	pePerNode int

	queue   map[int][]mppnItem
	lastGet map[int]WorkloadMessage
}

// NewMppn wraps upstream, fanning pePerNode of its PEs into each node.
func NewMppn(upstream Component, pePerNode int) *Mppn {
	return &Mppn{
		upstream:  upstream,
		pePerNode: pePerNode,
		queue:     make(map[int][]mppnItem),
		lastGet:   make(map[int]WorkloadMessage),
	}
}

func (c *Mppn) Init(pes int) error {
	return c.upstream.Init(pes)
}

func (c *Mppn) Test(node int) bool {
	if c.lastGet[node] != nil || len(c.queue[node]) > 0 {
		return true
	}
	base := node * c.pePerNode
	for pe := base; pe < base+c.pePerNode; pe++ {
		if !c.upstream.Test(pe) {
			continue
		}
		inner := c.upstream.Get(pe)
		c.queue[node] = append(c.queue[node], mppnItem{
			pe:  pe,
			msg: &mppnMessage{WorkloadMessage: inner, pe: pe, pePerNode: c.pePerNode},
		})
	}
	return len(c.queue[node]) > 0
}

func (c *Mppn) Get(node int) WorkloadMessage {
	if c.lastGet[node] == nil && len(c.queue[node]) > 0 {
		c.lastGet[node] = c.queue[node][0].msg
	}
	return c.lastGet[node]
}

func (c *Mppn) Next(node int) {
	if c.lastGet[node] == nil {
		return
	}
	c.upstream.Next(c.queue[node][0].pe)
	c.queue[node] = c.queue[node][1:]
	c.lastGet[node] = nil
}

func (c *Mppn) Eject(msg WorkloadMessage) {
	if wrapped, ok := msg.(*mppnMessage); ok {
		c.upstream.Eject(wrapped.WorkloadMessage)
		return
	}
	c.upstream.Eject(msg)
}

func newMppnFactory(opts []string, upstream Component) (Component, error) {
	if upstream == nil {
		return nil, fmt.Errorf("workload: Mppn requires an upstream component")
	}
	if len(opts) != 1 {
		return nil, fmt.Errorf("workload: Mppn takes exactly 1 option (pe_per_node), got %d", len(opts))
	}
	n, err := strconv.Atoi(opts[0])
	if err != nil || n < 1 {
		return nil, fmt.Errorf("workload: Mppn pe_per_node must be a positive integer, got %q", opts[0])
	}
	return NewMppn(upstream, n), nil
}
