package nocsim_test

//
// Black-box benchmark, kept in an external test package so it can import
// both nocsim and nocsim/internal without an import cycle.
//

import (
	"testing"

	"github.com/cbeckman-hdogan/nocsim"
	"github.com/cbeckman-hdogan/nocsim/internal"
)

func routeSingleOutput(r *nocsim.Router, f *nocsim.Flit, input int, inVCMode bool) (nocsim.OutputSet, error) {
	return nocsim.OutputSet{0}, nil
}

// BenchmarkRouterSustainedTraffic drives a single-input, single-output
// router under continuous back-to-back packet injection, using NullLogger
// to keep the logging path off the measured critical path.
func BenchmarkRouterSustainedTraffic(b *testing.B) {
	r := nocsim.NewRouter(nocsim.RouterConfig{
		NumInputs:        1,
		NumOutputs:       1,
		NumVCs:           1,
		CrossbarLatency:  1,
		CreditDelay:      1,
		OutputBufferSize: 256,
		Routing:          routeSingleOutput,
		Logger:           &internal.NullLogger{},
		RandomFloat:      func() float64 { return 1 },
	})
	in := nocsim.NewFlitChannel(0)
	out := nocsim.NewFlitChannel(0)
	r.AttachInputChannel(0, in)
	r.AddOutputChannel(0, out, nocsim.NewCreditChannel(1), 0)

	var pending []*nocsim.Flit
	b.ResetTimer()
	for cycle := int64(0); cycle < int64(b.N); cycle++ {
		if len(pending) == 0 {
			pending = nocsim.NewPacket(0, 1, 0, 0, 4)
		}
		in.Send(cycle, pending[0])
		pending = pending[1:]

		r.ReadInputs(cycle)
		r.InternalStep(cycle)
		r.WriteOutputs(cycle)
		for out.Receive(cycle) != nil {
		}
	}
}
