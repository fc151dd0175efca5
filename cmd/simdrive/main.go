// Command simdrive wires a ring of routers to a shared workload stack and
// drives the whole thing for a configurable number of cycles, the way
// cmd/calibrate exercises the core library from the outside rather than
// being part of it.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cbeckman-hdogan/nocsim"
	"github.com/cbeckman-hdogan/nocsim/swm"
	"github.com/cbeckman-hdogan/nocsim/workload"
)

// ring wires n routers into a single-direction ring: input 0 / output 0
// carry ring traffic, input 1 / output 1 are the local PE's injection and
// ejection points.
type ring struct {
	routers []*nocsim.Router
	inject  []*nocsim.FlitChannel
	eject   []*nocsim.FlitChannel
}

func ringRouting(n int) nocsim.RoutingFunc {
	return func(r *nocsim.Router, f *nocsim.Flit, input int, inVCMode bool) (nocsim.OutputSet, error) {
		here := r.NodeID()
		if f.Dest == here {
			return nocsim.OutputSet{r.EjectionPort()}, nil
		}
		return nocsim.OutputSet{r.PortTo((here + 1) % n)}, nil
	}
}

func buildRing(n int, crossbarDelay, creditDelay, linkLatency, outputBuffer int, dropRate float64, randomFloat func() float64, reg *prometheus.Registry) *ring {
	rg := &ring{
		routers: make([]*nocsim.Router, n),
		inject:  make([]*nocsim.FlitChannel, n),
		eject:   make([]*nocsim.FlitChannel, n),
	}
	routing := ringRouting(n)
	for i := 0; i < n; i++ {
		rg.routers[i] = nocsim.NewRouter(nocsim.RouterConfig{
			NumInputs:            2,
			NumOutputs:           2,
			NumVCs:               1,
			CrossbarLatency:      -1,
			CrossbarDelay:        crossbarDelay,
			CreditDelay:          creditDelay,
			OutputBufferSize:     outputBuffer,
			RandomPacketDropRate: dropRate,
			Routing:              routing,
			NodeID:               i,
			EjectionPort:         1,
			NeighborPort:         map[int]int{(i + 1) % n: 0},
			RandomFloat:          randomFloat,
			Metrics:              nocsim.NewRouterMetrics(reg, fmt.Sprintf("node%d", i)),
		})
		rg.inject[i] = nocsim.NewFlitChannel(0)
		rg.eject[i] = nocsim.NewFlitChannel(0)
		rg.routers[i].AttachInputChannel(1, rg.inject[i])
		rg.routers[i].AddOutputChannel(1, rg.eject[i], nil, 0)
	}
	for i := 0; i < n; i++ {
		next := (i + 1) % n
		data := nocsim.NewFlitChannel(linkLatency)
		credit := nocsim.NewCreditChannel(linkLatency)
		rg.routers[i].AddOutputChannel(0, data, credit, 0)
		rg.routers[next].AttachInputChannel(0, data)
		rg.routers[next].AttachInputCreditChannel(0, credit)
	}
	return rg
}

// demoProgram is a placeholder SWM program (the real content is external to
// this module): it spends a bit of local compute and quiesces immediately.
func demoProgram(pe int) swm.Program {
	return func(o *swm.Ops) {
		o.Work(10)
		o.Quiet()
	}
}

func buildStack(reg *workload.Registry, specs []workload.ComponentSpec) (workload.Component, []workload.Ticker, error) {
	var comp workload.Component
	var tickers []workload.Ticker
	for _, s := range specs {
		c, err := reg.New(s.Name, s.Opts, comp)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", s.String(), err)
		}
		if t, ok := c.(workload.Ticker); ok {
			tickers = append(tickers, t)
		}
		comp = c
	}
	if comp == nil {
		return nil, nil, fmt.Errorf("simdrive: empty stack specifier")
	}
	return comp, tickers, nil
}

func buildCollective(op, barrierAlgo, allreduceAlgo, bcastAlgo string, radix, computeLat, cacheline, count, typeSize, nodes int) (*swm.CollectiveGenerator, error) {
	g := swm.NewCollectiveGenerator(barrierAlgo, allreduceAlgo, bcastAlgo, radix, computeLat, cacheline)
	if err := g.Init(nodes); err != nil {
		return nil, err
	}
	var operation swm.Operation
	switch op {
	case "barrier":
		operation = swm.OpBarrier
	case "allreduce":
		operation = swm.OpAllreduce
	case "bcast":
		operation = swm.OpBcast
	default:
		return nil, fmt.Errorf("simdrive: unknown collective operation %q", op)
	}
	for i := 0; i < nodes; i++ {
		req := swm.Request{Operation: operation, NumPEs: nodes, Count: count, TypeSize: typeSize}
		if err := g.Submit(i, req); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
	}
	return g, nil
}

func main() {
	nodes := flag.Int("nodes", 8, "ring size")
	cycles := flag.Int("cycles", 2000, "number of cycles to simulate")
	crossbarDelay := flag.Int("crossbar-delay", 1, "crossbar traversal delay in cycles")
	creditDelay := flag.Int("credit-delay", 1, "credit propagation delay in cycles")
	linkLatency := flag.Int("link-latency", 1, "ring link transit latency in cycles")
	outputBuffer := flag.Int("output-buffer", 64, "per-output FIFO capacity in flits (-1 for unbounded)")
	dropRate := flag.Float64("drop-rate", 0, "random packet drop probability on head admission")
	seed := flag.Int64("seed", 1, "PRNG seed for router-level randomness (random packet drop decisions)")
	stackSpec := flag.String("stack", "random(bernoulli,0.05,uniform,false,0,64),packetize(56,8,8,64)", "workload component stack specifier, or a path to a file containing one")
	collective := flag.String("collective", "", "collective operation to drive instead of -stack: barrier, allreduce or bcast")
	collectiveBarrierAlgo := flag.String("collective-barrier-algo", "dissem", "barrier algorithm (linear, tree, all2all, dissem, butterfly)")
	collectiveAllreduceAlgo := flag.String("collective-allreduce-algo", "ring", "allreduce algorithm (linear, tree, ring, recdbl, rabenseifner)")
	collectiveBcastAlgo := flag.String("collective-bcast-algo", "tree", "broadcast algorithm (linear, tree)")
	collectiveRadix := flag.Int("collective-radix", 2, "collective tree radix")
	collectiveComputeLat := flag.Int("collective-compute-lat", 10, "per-cacheline local reduction latency")
	collectiveCacheline := flag.Int("collective-cacheline", 64, "cacheline size in bytes, for local reduction latency")
	collectiveCount := flag.Int("collective-count", 16, "element count for allreduce/bcast")
	collectiveTypeSize := flag.Int("collective-typesize", 4, "element size in bytes for allreduce/bcast")
	roiBeginCycle := flag.Int64("roi-begin-cycle", 0, "cycle at which the statistics region of interest opens")
	roiEndCycle := flag.Int64("roi-end-cycle", -1, "cycle at which the statistics region of interest closes (-1: unbounded)")
	reportEvery := flag.Int("report-every", 200, "print a progress line every N cycles (0 disables)")
	metricsAddr := flag.String("metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9100)")
	logLevel := flag.String("log-level", "info", "debug, info or warn")
	flag.Parse()

	switch strings.ToLower(*logLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	default:
		log.SetLevel(log.InfoLevel)
	}

	metricsReg := prometheus.NewRegistry()
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metricsReg, promhttp.HandlerOpts{}))
		go func() {
			log.WithError(http.ListenAndServe(*metricsAddr, mux)).Warn("simdrive: metrics server exited")
		}()
		log.Infof("simdrive: serving metrics on %s", *metricsAddr)
	}

	rng := rand.New(rand.NewSource(*seed))
	fabric := buildRing(*nodes, *crossbarDelay, *creditDelay, *linkLatency, *outputBuffer, *dropRate, rng.Float64, metricsReg)

	registry := workload.NewRegistry()
	workload.RegisterDefaults(registry)
	swm.RegisterDefaults(registry, demoProgram)

	var stack workload.Component
	var tickers []workload.Ticker
	if *collective != "" {
		g, err := buildCollective(*collective, *collectiveBarrierAlgo, *collectiveAllreduceAlgo, *collectiveBcastAlgo,
			*collectiveRadix, *collectiveComputeLat, *collectiveCacheline, *collectiveCount, *collectiveTypeSize, *nodes)
		if err != nil {
			log.WithError(err).Fatal("simdrive: buildCollective")
		}
		stack = g
	} else {
		specs, err := workload.ParseComponents(*stackSpec)
		if err != nil {
			log.WithError(err).Fatal("simdrive: ParseComponents")
		}
		stack, tickers, err = buildStack(registry, specs)
		if err != nil {
			log.WithError(err).Fatal("simdrive: buildStack")
		}
	}
	if err := stack.Init(*nodes); err != nil {
		log.WithError(err).Fatal("simdrive: stack.Init")
	}

	pending := make([][]*nocsim.Flit, *nodes)
	var injected, delivered int64
	roi := workload.NewROI(*roiBeginCycle, *roiEndCycle, -1, -1)
	var roiInjected, roiDelivered int64

	fmt.Printf("cycle,injected,delivered,roi_injected,roi_delivered\n")
	for now := int64(0); now < int64(*cycles); now++ {
		for _, t := range tickers {
			t.Tick(now)
		}

		for pe := 0; pe < *nodes; pe++ {
			if len(pending[pe]) == 0 && stack.Test(pe) {
				msg := stack.Get(pe)
				size := msg.Size()
				if size < 1 {
					size = 1
				}
				pending[pe] = nocsim.NewPacket(msg.Source(), msg.Dest(), 0, 0, size)
				stack.Next(pe)
				injected++
				if roi.Active(now) {
					roiInjected++
				}
			}
			if len(pending[pe]) > 0 {
				f := pending[pe][0]
				pending[pe] = pending[pe][1:]
				fabric.inject[pe].Send(now, f)
			}
		}

		for _, r := range fabric.routers {
			r.ReadInputs(now)
		}
		for _, r := range fabric.routers {
			r.InternalStep(now)
		}
		for _, r := range fabric.routers {
			r.WriteOutputs(now)
		}

		for pe := 0; pe < *nodes; pe++ {
			for {
				f := fabric.eject[pe].Receive(now)
				if f == nil {
					break
				}
				if f.Tail {
					delivered++
					if roi.Active(now) {
						roi.Mark()
						roiDelivered++
					}
					stack.Eject(workload.NewMessage(f.Src, f.Dest, f.Size, workload.AnyRequest))
				}
			}
		}

		if *reportEvery > 0 && now%int64(*reportEvery) == 0 {
			fmt.Printf("%d,%d,%d,%d,%d\n", now, injected, delivered, roiInjected, roiDelivered)
		}
	}

	var sent, dropped float64
	families, err := metricsReg.Gather()
	if err != nil {
		log.WithError(err).Warn("simdrive: metrics gather")
	}
	for _, fam := range families {
		for _, m := range fam.Metric {
			switch fam.GetName() {
			case "nocsim_router_flits_sent_total":
				sent += m.GetCounter().GetValue()
			case "nocsim_router_packets_dropped_total":
				dropped += m.GetCounter().GetValue()
			}
		}
	}
	fmt.Printf("%d,%d,%d\n", *cycles, injected, delivered)
	log.Infof("simdrive: %d packets injected, %d delivered, %.0f flits sent fabric-wide, %.0f packets dropped",
		injected, delivered, sent, dropped)
}
