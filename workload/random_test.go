package workload

import "testing"

// A deterministic injection process (always fires) must always produce a
// message, cached idempotently until Next is called (property 14).
func TestRandomTestIdempotentUntilNext(t *testing.T) {
	always := NewBernoulliInjectionProcess(constFloat(1), func() float64 { return 0 })
	r := NewRandom(always, "uniform", nil, false, 0, 32, func() float64 { return 0.9 })
	if err := r.Init(4); err != nil {
		t.Fatalf("Init: %v", err)
	}
	r.Tick(0)

	if !r.Test(0) {
		t.Fatalf("want a message available")
	}
	first := r.Get(0)
	second := r.Get(0)
	if first != second {
		t.Fatalf("Get must return the identical message object across repeated calls without Next")
	}

	r.Next(0)
	if r.Get(0) != nil {
		t.Fatalf("want Get to return nil immediately after Next")
	}
}

func TestRandomNeverTargetsSelf(t *testing.T) {
	vals := []float64{0, 0.5}
	i := 0
	rf := func() float64 {
		v := vals[i%len(vals)]
		i++
		return v
	}
	always := NewBernoulliInjectionProcess(constFloat(1), rf)
	r := NewRandom(always, "uniform", nil, false, 0, 32, rf)
	_ = r.Init(4)
	r.Tick(0)
	r.Test(0)
	if r.Get(0).Dest() == 0 {
		t.Fatalf("uniform traffic must not target the source node itself")
	}
}
