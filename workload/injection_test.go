package workload

import (
	"math"
	"math/rand"
	"testing"

	"github.com/montanaflynn/stats"
)

// Over N cycles with Bernoulli rate r, the empirical fire rate should land
// within a Hoeffding bound of r with high probability.
func TestBernoulliInjectionExpectation(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const rate = 0.3
	const n = 20000

	proc := NewBernoulliInjectionProcess(constFloat(rate), rng.Float64)

	samples := make([]float64, n)
	for i := 0; i < n; i++ {
		if proc.Test(0) {
			samples[i] = 1
		}
	}

	mean, err := stats.Mean(samples)
	if err != nil {
		t.Fatalf("stats.Mean: %v", err)
	}

	// Hoeffding bound: P(|mean - rate| > eps) <= 2*exp(-2*n*eps^2).
	// Solve for eps at delta = 1e-6 so the test is not flaky.
	delta := 1e-6
	eps := math.Sqrt(math.Log(2/delta) / (2 * n))

	if math.Abs(mean-rate) > eps {
		t.Fatalf("empirical rate %v outside Hoeffding bound %v of target %v", mean, eps, rate)
	}
}

// On/Off reset restores each node to its configured initial state.
func TestOnOffInjectionResetRestoresInitial(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	proc := NewOnOffInjectionProcess(constFloat(1), constFloat(0), constFloat(1), constBool(true), rng.Float64)

	// Drive node 0 into the off state: alpha=1 guarantees an on->off
	// transition on the very first Test call.
	proc.Test(0)
	if proc.state[0] {
		t.Fatalf("expected node 0 to have transitioned off")
	}

	proc.Reset()
	if !proc.state[0] {
		t.Fatalf("want reset to restore the configured initial (on) state")
	}
}
