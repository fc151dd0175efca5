package workload

import (
	"fmt"
	"strconv"
)

//
// LocalShortcut: diverts self-addressed traffic (dest == src) into a
// local-loopback delay line instead of letting it reach the fabric.
//

// LocalShortcut intercepts non-dummy messages whose destination is the
// source's own node and loops them back after localLatency cycles instead
// of forwarding them downstream to the router. When useReadWrite is set, a
// matching reply is scheduled on the same loopback.
type LocalShortcut struct {
	upstream     Component
	localLatency int64
	useReadWrite bool

	now int64

	checked map[int]bool
	result  map[int]bool
	lastGet map[int]WorkloadMessage

	loopback []pendingMessage
}

// NewLocalShortcut wraps upstream with the given loopback latency.
func NewLocalShortcut(upstream Component, localLatency int64, useReadWrite bool) *LocalShortcut {
	return &LocalShortcut{
		upstream:     upstream,
		localLatency: localLatency,
		useReadWrite: useReadWrite,
		checked:      make(map[int]bool),
		result:       make(map[int]bool),
		lastGet:      make(map[int]WorkloadMessage),
	}
}

func (c *LocalShortcut) Init(pes int) error { return c.upstream.Init(pes) }

func (c *LocalShortcut) Tick(now int64) {
	c.now = now
	c.checked = make(map[int]bool)
	remaining := c.loopback[:0]
	for _, p := range c.loopback {
		if p.ready > now {
			remaining = append(remaining, p)
			continue
		}
		c.upstream.Eject(p.msg)
	}
	c.loopback = remaining
}

func (c *LocalShortcut) Test(src int) bool {
	if c.checked[src] {
		return c.result[src]
	}
	c.checked[src] = true

	if c.lastGet[src] != nil {
		c.result[src] = true
		return true
	}
	if !c.upstream.Test(src) {
		c.result[src] = false
		return false
	}

	msg := c.upstream.Get(src)
	if msg.Dest() == src && !msg.IsDummy() {
		c.upstream.Next(src)
		ready := c.now + c.localLatency
		c.loopback = append(c.loopback, pendingMessage{msg: msg, ready: ready})
		if c.useReadWrite {
			c.loopback = append(c.loopback, pendingMessage{msg: msg.Reply(), ready: ready})
		}
		c.result[src] = false
		return false
	}

	c.lastGet[src] = msg
	c.result[src] = true
	return true
}

func (c *LocalShortcut) Get(src int) WorkloadMessage { return c.lastGet[src] }

func (c *LocalShortcut) Next(src int) {
	if c.lastGet[src] == nil {
		return
	}
	c.upstream.Next(src)
	c.lastGet[src] = nil
}

func (c *LocalShortcut) Eject(msg WorkloadMessage) {
	c.upstream.Eject(msg)
}

func newLocalShortcutFactory(opts []string, upstream Component) (Component, error) {
	if upstream == nil {
		return nil, fmt.Errorf("workload: local requires an upstream component")
	}
	if len(opts) != 2 {
		return nil, fmt.Errorf("workload: local takes exactly 2 options (local_latency,use_read_write), got %d", len(opts))
	}
	lat, err1 := strconv.ParseInt(opts[0], 10, 64)
	urw, err2 := strconv.ParseBool(opts[1])
	if err1 != nil || lat < 0 {
		return nil, fmt.Errorf("workload: local local_latency must be a non-negative integer, got %q", opts[0])
	}
	if err2 != nil {
		return nil, fmt.Errorf("workload: local use_read_write must be a bool, got %q", opts[1])
	}
	return NewLocalShortcut(upstream, lat, urw), nil
}
