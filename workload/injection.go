package workload

import (
	"fmt"
	"strconv"
)

//
// Injection processes: per-source decision of whether to fire a new
// message this cycle. Parameters are expressed as functions of the source
// index so a single scalar or a genuinely per-node array can be plugged in
// without two separate code paths.
//

// InjectionProcess decides, per source and per cycle, whether to inject.
type InjectionProcess interface {
	Test(src int) bool
	Reset()
}

// BernoulliInjectionProcess fires independently each cycle with the
// configured per-source rate.
type BernoulliInjectionProcess struct {
	rate        func(src int) float64
	randomFloat func() float64
}

// NewBernoulliInjectionProcess creates a Bernoulli process with the given
// per-source rate function.
func NewBernoulliInjectionProcess(rate func(src int) float64, randomFloat func() float64) *BernoulliInjectionProcess {
	return &BernoulliInjectionProcess{rate: rate, randomFloat: randomFloat}
}

func (p *BernoulliInjectionProcess) Test(src int) bool {
	return p.randomFloat() < p.rate(src)
}

// Reset is a no-op: the Bernoulli process is memoryless.
func (p *BernoulliInjectionProcess) Reset() {}

// OnOffInjectionProcess is a per-source two-state Markov chain. While on,
// it fires with probability r1 and transitions off with probability alpha;
// while off, it transitions on with probability beta.
type OnOffInjectionProcess struct {
	alpha, beta, r1 func(src int) float64
	initial         func(src int) bool
	randomFloat     func() float64

	state map[int]bool
	seen  map[int]bool
}

// NewOnOffInjectionProcess creates an on/off process with the given
// per-source parameter functions.
func NewOnOffInjectionProcess(alpha, beta, r1 func(src int) float64, initial func(src int) bool, randomFloat func() float64) *OnOffInjectionProcess {
	return &OnOffInjectionProcess{
		alpha:       alpha,
		beta:        beta,
		r1:          r1,
		initial:     initial,
		randomFloat: randomFloat,
		state:       make(map[int]bool),
		seen:        make(map[int]bool),
	}
}

func (p *OnOffInjectionProcess) ensureSeen(src int) {
	if !p.seen[src] {
		p.seen[src] = true
		p.state[src] = p.initial(src)
	}
}

func (p *OnOffInjectionProcess) Test(src int) bool {
	p.ensureSeen(src)
	fire := false
	if p.state[src] {
		fire = p.randomFloat() < p.r1(src)
		if p.randomFloat() < p.alpha(src) {
			p.state[src] = false
		}
	} else if p.randomFloat() < p.beta(src) {
		p.state[src] = true
	}
	return fire
}

// Reset restores every source seen so far to its configured initial state.
func (p *OnOffInjectionProcess) Reset() {
	for src := range p.seen {
		p.state[src] = p.initial(src)
	}
}

func constFloat(v float64) func(int) float64 { return func(int) float64 { return v } }
func constBool(v bool) func(int) bool        { return func(int) bool { return v } }

// NewInjectionProcess builds the named injection process ("bernoulli" or
// "on_off") from its parameter tuple.
func NewInjectionProcess(name string, opts []string, randomFloat func() float64) (InjectionProcess, error) {
	switch name {
	case "bernoulli":
		if len(opts) != 1 {
			return nil, fmt.Errorf("workload: bernoulli takes exactly 1 option (rate), got %d", len(opts))
		}
		rate, err := strconv.ParseFloat(opts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("workload: bernoulli rate must be a float, got %q", opts[0])
		}
		return NewBernoulliInjectionProcess(constFloat(rate), randomFloat), nil

	case "on_off":
		if len(opts) != 4 {
			return nil, fmt.Errorf("workload: on_off takes exactly 4 options (alpha,beta,r1,initial), got %d", len(opts))
		}
		alpha, err1 := strconv.ParseFloat(opts[0], 64)
		beta, err2 := strconv.ParseFloat(opts[1], 64)
		r1, err3 := strconv.ParseFloat(opts[2], 64)
		initial, err4 := strconv.ParseBool(opts[3])
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			return nil, fmt.Errorf("workload: on_off options malformed: %v", opts)
		}
		return NewOnOffInjectionProcess(constFloat(alpha), constFloat(beta), constFloat(r1), constBool(initial), randomFloat), nil

	default:
		return nil, fmt.Errorf("workload: unknown injection process %q", name)
	}
}
