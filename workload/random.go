package workload

import (
	"fmt"
	"math/rand"
	"strconv"
)

//
// Random: a leaf generator driven by a named injection process and a
// traffic pattern supplying dest(src).
//

// TrafficPattern maps a source to a destination.
type TrafficPattern func(src int) int

// UniformTraffic returns a TrafficPattern that picks a uniformly random
// destination different from src among numNodes nodes.
func UniformTraffic(numNodes int, randomFloat func() float64) TrafficPattern {
	return func(src int) int {
		if numNodes <= 1 {
			return src
		}
		for {
			d := int(randomFloat() * float64(numNodes))
			if d >= numNodes {
				d = numNodes - 1
			}
			if d != src {
				return d
			}
		}
	}
}

// Random is a generator leaf: it synthesizes messages rather than wrapping
// an upstream component.
type Random struct {
	proc          InjectionProcess
	trafficName   string
	traffic       TrafficPattern
	useReadWrite  bool
	writeFraction float64
	size          int
	randomFloat   func() float64

	checked map[int]bool
	result  map[int]bool
	lastGet map[int]WorkloadMessage
}

// NewRandom creates a Random generator. traffic may be nil if trafficName
// is a name Init can resolve once the PE count is known (currently only
// "uniform" is supported without an externally supplied TrafficPattern).
func NewRandom(proc InjectionProcess, trafficName string, traffic TrafficPattern, useReadWrite bool, writeFraction float64, size int, randomFloat func() float64) *Random {
	return &Random{
		proc:          proc,
		trafficName:   trafficName,
		traffic:       traffic,
		useReadWrite:  useReadWrite,
		writeFraction: writeFraction,
		size:          size,
		randomFloat:   randomFloat,
		checked:       make(map[int]bool),
		result:        make(map[int]bool),
		lastGet:       make(map[int]WorkloadMessage),
	}
}

func (c *Random) Init(pes int) error {
	if c.traffic == nil {
		switch c.trafficName {
		case "uniform", "":
			c.traffic = UniformTraffic(pes, c.randomFloat)
		default:
			return fmt.Errorf("workload: random: unknown traffic pattern %q", c.trafficName)
		}
	}
	return nil
}

func (c *Random) Tick(now int64) {
	c.checked = make(map[int]bool)
}

func (c *Random) Test(src int) bool {
	if c.checked[src] {
		return c.result[src]
	}
	c.checked[src] = true

	if c.lastGet[src] != nil {
		c.result[src] = true
		return true
	}

	fire := c.proc.Test(src)
	c.result[src] = fire
	if !fire {
		return false
	}

	dest := c.traffic(src)
	kind := AnyRequest
	if c.useReadWrite {
		if c.randomFloat() < c.writeFraction {
			kind = PutRequest
		} else {
			kind = GetRequest
		}
	}
	c.lastGet[src] = NewMessage(src, dest, c.size, kind)
	return true
}

func (c *Random) Get(src int) WorkloadMessage { return c.lastGet[src] }

func (c *Random) Next(src int) { c.lastGet[src] = nil }

// Eject is a no-op: Random is a leaf generator with no inner component to
// forward arrivals to.
func (c *Random) Eject(msg WorkloadMessage) {}

func newRandomFactory(opts []string, upstream Component) (Component, error) {
	if upstream != nil {
		return nil, fmt.Errorf("workload: random is a leaf component and cannot have an upstream")
	}
	if len(opts) < 1 {
		return nil, fmt.Errorf("workload: random requires an injection process name")
	}
	procName := opts[0]
	var procOpts []string
	var rest []string
	switch procName {
	case "bernoulli":
		if len(opts) < 2 {
			return nil, fmt.Errorf("workload: random/bernoulli requires a rate option")
		}
		procOpts, rest = opts[1:2], opts[2:]
	case "on_off":
		if len(opts) < 5 {
			return nil, fmt.Errorf("workload: random/on_off requires 4 options")
		}
		procOpts, rest = opts[1:5], opts[5:]
	default:
		return nil, fmt.Errorf("workload: random: unknown injection process %q", procName)
	}
	if len(rest) != 4 {
		return nil, fmt.Errorf("workload: random takes traffic,use_read_write,write_fraction,size after the injection process, got %d options", len(rest))
	}
	trafficName, urwStr, wfStr, sizeStr := rest[0], rest[1], rest[2], rest[3]

	urw, err := strconv.ParseBool(urwStr)
	if err != nil {
		return nil, fmt.Errorf("workload: random use_read_write must be a bool, got %q", urwStr)
	}
	wf, err := strconv.ParseFloat(wfStr, 64)
	if err != nil {
		return nil, fmt.Errorf("workload: random write_fraction must be a float, got %q", wfStr)
	}
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size < 1 {
		return nil, fmt.Errorf("workload: random size must be a positive integer, got %q", sizeStr)
	}

	proc, err := NewInjectionProcess(procName, procOpts, rand.Float64)
	if err != nil {
		return nil, err
	}
	return NewRandom(proc, trafficName, nil, urw, wf, size, rand.Float64), nil
}
