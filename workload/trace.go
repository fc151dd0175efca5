package workload

import (
	"fmt"
	"io"
	"os"
)

//
// Trace: pass-through component that logs every Test/Get/Next/Eject call
// to stdout or a per-instance file, optionally prefixed with the current
// cycle.
//

// Trace forwards every call unchanged to upstream, writing one line per
// call to w.
type Trace struct {
	upstream Component
	w        io.Writer
	withTime bool
	now      int64
	file     *os.File
}

// NewTrace wraps upstream, writing trace lines to w. If withTime is set,
// each line is prefixed with "time=<cycle> ".
func NewTrace(upstream Component, w io.Writer, withTime bool) *Trace {
	return &Trace{upstream: upstream, w: w, withTime: withTime}
}

func (c *Trace) Tick(now int64) {
	c.now = now
	if t, ok := c.upstream.(Ticker); ok {
		t.Tick(now)
	}
}

func (c *Trace) prefix() string {
	if c.withTime {
		return fmt.Sprintf("time=%d ", c.now)
	}
	return ""
}

func (c *Trace) Init(pes int) error {
	fmt.Fprintf(c.w, "%sinit pes=%d\n", c.prefix(), pes)
	return c.upstream.Init(pes)
}

func (c *Trace) Test(src int) bool {
	result := c.upstream.Test(src)
	fmt.Fprintf(c.w, "%stest src=%d result=%v\n", c.prefix(), src, result)
	return result
}

func (c *Trace) Get(src int) WorkloadMessage {
	msg := c.upstream.Get(src)
	fmt.Fprintf(c.w, "%sget src=%d msg=%v\n", c.prefix(), src, msg)
	return msg
}

func (c *Trace) Next(src int) {
	fmt.Fprintf(c.w, "%snext src=%d\n", c.prefix(), src)
	c.upstream.Next(src)
}

func (c *Trace) Eject(msg WorkloadMessage) {
	fmt.Fprintf(c.w, "%seject msg=%v\n", c.prefix(), msg)
	c.upstream.Eject(msg)
}

// Close releases the underlying trace file, if this Trace opened one.
func (c *Trace) Close() error {
	if c.file != nil {
		return c.file.Close()
	}
	return nil
}

func newTraceFactory(opts []string, upstream Component) (Component, error) {
	if upstream == nil {
		return nil, fmt.Errorf("workload: trace requires an upstream component")
	}
	if len(opts) < 1 || len(opts) > 2 {
		return nil, fmt.Errorf("workload: trace takes 1 or 2 options (dest[,time]), got %d", len(opts))
	}
	withTime := len(opts) == 2 && opts[1] == "time"

	if opts[0] == "-" || opts[0] == "" {
		return NewTrace(upstream, os.Stdout, withTime), nil
	}
	f, err := os.Create(opts[0])
	if err != nil {
		return nil, fmt.Errorf("workload: trace: %w", err)
	}
	t := NewTrace(upstream, f, withTime)
	t.file = f
	return t, nil
}
