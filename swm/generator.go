package swm

import (
	"fmt"
	"strconv"

	"github.com/cbeckman-hdogan/nocsim/workload"
)

//
// Component wiring: SWM threads and the collective accelerator as
// workload.Component generators (§4.2: "generators (Random, SWM,
// Collective accelerator)"). Registration lives here rather than in
// workload.RegisterDefaults to avoid an import cycle (this package must
// import workload for Component/WorkloadMessage; workload cannot import
// swm back).
//

// ProgramProvider supplies the (externally authored) Program a PE should
// run. Its content is out of scope; only the act of obtaining one per PE
// is this package's concern.
type ProgramProvider func(pe int) Program

// RegisterDefaults adds the "SWM" and "collxl" component factories to r.
// Call once, alongside workload.RegisterDefaults, at program start.
func RegisterDefaults(r *workload.Registry, programs ProgramProvider) {
	r.Register("SWM", func(opts []string, upstream workload.Component) (workload.Component, error) {
		return NewSwmGenerator(programs), nil
	})
	r.Register("collxl", newCollxlFactory)
}

func mapOpKind(k opKind) workload.MessageKind {
	switch k {
	case opPut:
		return workload.PutRequest
	case opGet:
		return workload.GetRequest
	case opGetNb:
		return workload.NbGetRequest
	case opSend:
		return workload.SendRequest
	default:
		return workload.AnyRequest
	}
}

// swmMessage is the wire record an SWM thread's put/get/getnb/send emits.
type swmMessage struct {
	source, dest, size int
	kind               workload.MessageKind
	tag                int
	isReply            bool
}

func (m *swmMessage) Source() int                { return m.source }
func (m *swmMessage) Dest() int                   { return m.dest }
func (m *swmMessage) Size() int                   { return m.size }
func (m *swmMessage) Kind() workload.MessageKind  { return m.kind }
func (m *swmMessage) IsReply() bool               { return m.isReply }
func (m *swmMessage) IsDummy() bool               { return false }
func (m *swmMessage) Reply() workload.WorkloadMessage {
	return &swmMessage{source: m.dest, dest: m.source, size: 0, kind: m.kind, tag: m.tag, isReply: true}
}

// SwmGenerator drives one SwmThread per PE, lazily started on first Test.
type SwmGenerator struct {
	programs ProgramProvider
	threads  map[int]*SwmThread
	now      int64
}

// NewSwmGenerator builds a generator that starts programs(pe) the first
// time PE pe is driven.
func NewSwmGenerator(programs ProgramProvider) *SwmGenerator {
	return &SwmGenerator{programs: programs, threads: make(map[int]*SwmThread)}
}

func (g *SwmGenerator) Init(pes int) error { return nil }

func (g *SwmGenerator) Tick(now int64) {
	g.now = now
	for _, th := range g.threads {
		th.Advance(now)
	}
}

func (g *SwmGenerator) ensure(pe int) *SwmThread {
	th, ok := g.threads[pe]
	if !ok {
		th = NewSwmThread(pe, g.programs(pe))
		g.threads[pe] = th
		th.Advance(g.now)
	}
	return th
}

func (g *SwmGenerator) Test(src int) bool { return g.ensure(src).HasMessage() }

func (g *SwmGenerator) Get(src int) workload.WorkloadMessage {
	th := g.ensure(src)
	if !th.HasMessage() {
		return nil
	}
	dest, size, tag, kind := th.StagedRequest()
	return &swmMessage{source: src, dest: dest, size: size, tag: tag, kind: mapOpKind(kind)}
}

func (g *SwmGenerator) Next(src int) {
	if th, ok := g.threads[src]; ok {
		th.Shipped()
	}
}

func (g *SwmGenerator) Eject(msg workload.WorkloadMessage) {
	th, ok := g.threads[msg.Dest()]
	if !ok {
		return
	}
	if msg.IsReply() {
		th.Arrive(nil)
		return
	}
	tag := 0
	if sm, ok := msg.(*swmMessage); ok {
		tag = sm.tag
	}
	th.Unmatched(tag, nil)
}

// accelWireMessage is the wire record an accelerator node's _send_to emits.
type accelWireMessage struct {
	raw AccelMessage
}

func (m *accelWireMessage) Source() int { return m.raw.Src }
func (m *accelWireMessage) Dest() int   { return m.raw.Dst }
func (m *accelWireMessage) Size() int   { return m.raw.Size }
func (m *accelWireMessage) Kind() workload.MessageKind {
	if m.raw.Kind == KindAck {
		return workload.DummyRequest
	}
	return workload.SendRequest
}
func (m *accelWireMessage) IsReply() bool { return m.raw.Kind == KindAck }
func (m *accelWireMessage) IsDummy() bool { return false }
func (m *accelWireMessage) Reply() workload.WorkloadMessage {
	return &accelWireMessage{raw: AccelMessage{Src: m.raw.Dst, Dst: m.raw.Src, Kind: KindAck}}
}

// CollectiveGenerator drives one AccelNode per fabric node, built for the
// operation of the first request Submit-ted to that node; later requests
// to the same node reuse it whatever their operation.
type CollectiveGenerator struct {
	barrierAlgo, allreduceAlgo, bcastAlgo string
	radix, computeLat, cacheline          int
	numNodes                              int

	nodes   map[int]*AccelNode
	pending map[int][]AccelMessage
}

func newCollxlFactory(opts []string, upstream workload.Component) (workload.Component, error) {
	if len(opts) != 6 {
		return nil, fmt.Errorf("collxl: want 6 options (barrier,allreduce,bcast,radix,compute_lat,cacheline), got %d", len(opts))
	}
	radix, err := strconv.Atoi(opts[3])
	if err != nil {
		return nil, fmt.Errorf("collxl: radix: %w", err)
	}
	computeLat, err := strconv.Atoi(opts[4])
	if err != nil {
		return nil, fmt.Errorf("collxl: compute_lat: %w", err)
	}
	cacheline, err := strconv.Atoi(opts[5])
	if err != nil {
		return nil, fmt.Errorf("collxl: cacheline: %w", err)
	}
	return NewCollectiveGenerator(opts[0], opts[1], opts[2], radix, computeLat, cacheline), nil
}

// NewCollectiveGenerator builds a generator with the given per-operation
// algorithm choices; unknown names surface as a construction error the
// first time a node for that operation is created.
func NewCollectiveGenerator(barrierAlgo, allreduceAlgo, bcastAlgo string, radix, computeLat, cacheline int) *CollectiveGenerator {
	return &CollectiveGenerator{
		barrierAlgo: barrierAlgo, allreduceAlgo: allreduceAlgo, bcastAlgo: bcastAlgo,
		radix: radix, computeLat: computeLat, cacheline: cacheline,
		nodes: make(map[int]*AccelNode), pending: make(map[int][]AccelMessage),
	}
}

func (g *CollectiveGenerator) Init(pes int) error {
	g.numNodes = pes
	return nil
}

func (g *CollectiveGenerator) algoFor(op Operation) string {
	switch op {
	case OpBarrier:
		return g.barrierAlgo
	case OpAllreduce:
		return g.allreduceAlgo
	case OpBcast:
		return g.bcastAlgo
	default:
		return ""
	}
}

// Submit enqueues a local PE's participation in a collective at fabric
// node idx, lazily creating that node's accelerator engine.
func (g *CollectiveGenerator) Submit(idx int, req Request) error {
	n, ok := g.nodes[idx]
	if !ok {
		var err error
		n, err = NewAccelNode(idx, g.numNodes, g.radix, g.computeLat, g.cacheline, req.Operation, g.algoFor(req.Operation))
		if err != nil {
			return err
		}
		g.nodes[idx] = n
		for _, m := range g.pending[idx] {
			n.Deliver(m)
		}
		delete(g.pending, idx)
	}
	n.Submit(req)
	n.Advance(0)
	return nil
}

func (g *CollectiveGenerator) Test(src int) bool {
	n, ok := g.nodes[src]
	return ok && n.HasOutgoing()
}

func (g *CollectiveGenerator) Get(src int) workload.WorkloadMessage {
	n, ok := g.nodes[src]
	if !ok || !n.HasOutgoing() {
		return nil
	}
	return &accelWireMessage{raw: n.PeekOutgoing()}
}

func (g *CollectiveGenerator) Next(src int) {
	if n, ok := g.nodes[src]; ok && n.HasOutgoing() {
		n.PopOutgoing()
	}
}

func (g *CollectiveGenerator) Eject(msg workload.WorkloadMessage) {
	wm, ok := msg.(*accelWireMessage)
	if !ok {
		return
	}
	dst := wm.raw.Dst
	if n, ok := g.nodes[dst]; ok {
		n.Deliver(wm.raw)
		n.Advance(0)
		return
	}
	g.pending[dst] = append(g.pending[dst], wm.raw)
}
