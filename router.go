package nocsim

//
// Lossy output-queued router: the three-phase cycle contract
// (ReadInputs / InternalStep / WriteOutputs) and its InputQueuing /
// SwitchEvaluate / SwitchUpdate / OutputQueuing / SendFlits / SendCredits
// sub-phases.
//

import (
	"math/rand"
	"strconv"
)

// RouterConfig carries every external-interface knob this package consumes
// (§6). Topology, routing-table construction and configuration-file
// parsing are the caller's job; this struct is the narrow surface between
// them and the router.
type RouterConfig struct {
	// NumInputs and NumOutputs are the port counts.
	NumInputs, NumOutputs int

	// NumVCs is the number of virtual channels per input.
	NumVCs int

	// RoutingDelay contributes to AddOutputChannel's minimum round-trip
	// latency calculation; it does not delay routing computation itself
	// (lookahead routing is assumed, as in the source).
	RoutingDelay int

	// CrossbarLatency is the configured crossbar traversal latency in
	// cycles. -1 means unconfigured: SwitchEvaluate computes the exit
	// time lazily from CrossbarDelay instead.
	CrossbarLatency int

	// CrossbarDelay sets an unscheduled flit's exit time: SwitchEvaluate
	// schedules it for now + CrossbarDelay - 1.
	CrossbarDelay int

	// CreditDelay is the number of cycles a credit is delayed before
	// becoming observable downstream.
	CreditDelay int

	// InputSpeedup and OutputSpeedup expand the crossbar's effective
	// port count; 1 means no speedup.
	InputSpeedup, OutputSpeedup int

	// UseEndpointCrediting gates whether arrived credits are actually
	// applied to BufferState accounting.
	UseEndpointCrediting bool

	// OutputBufferSize is the per-output FIFO capacity in flits. A
	// negative value means unbounded (the occupancy check never drops
	// for space, only for RandomPacketDropRate).
	OutputBufferSize int

	// RandomPacketDropRate is the probability (per the random number
	// generator below) that an admitted head is dropped regardless of
	// available space.
	RandomPacketDropRate float64

	// Routing computes the output port set for head flits.
	Routing RoutingFunc

	// NodeID is this router's node index, used by routing functions that
	// need to know where they are (e.g. [DimensionOrderMesh2D]).
	NodeID int

	// EjectionPort is the output port index that delivers flits destined
	// for this node to the local PE(s).
	EjectionPort int

	// NeighborPort maps a neighboring node id to the output port that
	// reaches it, for routing functions expressed in terms of node ids
	// (e.g. [DimensionOrderMesh2D]).
	NeighborPort map[int]int

	// RandomFloat returns a uniform value in [0, 1). Defaults to
	// math/rand if nil.
	RandomFloat func() float64

	// Logger receives diagnostic messages; defaults to [NewLogger] (the
	// global apex/log logger) if nil.
	Logger Logger

	// Metrics receives drop/sent/occupancy observations; defaults to a
	// private, unscraped registry if nil.
	Metrics *RouterMetrics
}

type crossbarEntry struct {
	flit           *Flit
	exit           int64 // -1 until scheduled by SwitchEvaluate
	expandedInput  int
	expandedOutput int
	input, output  int
}

type procCreditEntry struct {
	output int
	credit *Credit
	due    int64
}

// Router implements the lossy output-queued pipeline of §4.1. The zero
// value is invalid; use [NewRouter].
type Router struct {
	cfg     RouterConfig
	logger  Logger
	metrics *RouterMetrics

	inputs        []*InputBuffer
	inputChannels []*FlitChannel
	// creditOut is the channel this router sends credits on, per input,
	// back to whatever feeds that input.
	creditOut []*CreditChannel

	outputChannels []*FlitChannel
	outputStates   []*BufferState
	// creditIn is the channel this router receives downstream credits on,
	// per output.
	creditIn []*CreditChannel

	inQueueFlits []*Flit
	procCredits  []procCreditEntry

	crossbarFlits []*crossbarEntry

	outputQueues           []*outputQueue
	outputBufferOccupancy  []int
	totalBufferOccupancy   int
	creditBuffer           [][]int // per input, pending VC sets to credit back

	lastHeadOutputPort []int
	dropPacketAtInput  []bool

	active bool
	now    int64
}

// NewRouter allocates a router per cfg.
func NewRouter(cfg RouterConfig) *Router {
	if cfg.NumInputs < 1 || cfg.NumOutputs < 1 || cfg.NumVCs < 1 {
		panic("nocsim: NewRouter: NumInputs, NumOutputs and NumVCs must all be >= 1")
	}
	if cfg.Routing == nil {
		panic("nocsim: NewRouter: Routing is required")
	}
	if cfg.InputSpeedup < 1 {
		cfg.InputSpeedup = 1
	}
	if cfg.OutputSpeedup < 1 {
		cfg.OutputSpeedup = 1
	}
	if cfg.RandomFloat == nil {
		cfg.RandomFloat = rand.Float64
	}
	if cfg.Logger == nil {
		cfg.Logger = NewLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewNullRouterMetrics("unnamed")
	}

	r := &Router{
		cfg:                   cfg,
		logger:                cfg.Logger,
		metrics:               cfg.Metrics,
		inputs:                make([]*InputBuffer, cfg.NumInputs),
		inputChannels:         make([]*FlitChannel, cfg.NumInputs),
		creditOut:             make([]*CreditChannel, cfg.NumInputs),
		outputChannels:        make([]*FlitChannel, cfg.NumOutputs),
		outputStates:          make([]*BufferState, cfg.NumOutputs),
		creditIn:              make([]*CreditChannel, cfg.NumOutputs),
		inQueueFlits:          make([]*Flit, cfg.NumInputs),
		outputQueues:          make([]*outputQueue, cfg.NumOutputs),
		outputBufferOccupancy: make([]int, cfg.NumOutputs),
		creditBuffer:          make([][]int, cfg.NumInputs),
		lastHeadOutputPort:    make([]int, cfg.NumInputs),
		dropPacketAtInput:     make([]bool, cfg.NumInputs),
	}
	for i := range r.inputs {
		r.inputs[i] = NewInputBuffer(cfg.NumVCs)
		r.lastHeadOutputPort[i] = -1
	}
	for o := range r.outputQueues {
		r.outputQueues[o] = newOutputQueue()
	}
	return r
}

// NodeID returns the router's configured node index.
func (r *Router) NodeID() int { return r.cfg.NodeID }

// EjectionPort returns the router's configured ejection output port.
func (r *Router) EjectionPort() int { return r.cfg.EjectionPort }

// PortTo returns the output port reaching neighbor node id, panicking if
// none is configured.
func (r *Router) PortTo(node int) int {
	p, ok := r.cfg.NeighborPort[node]
	if !ok {
		invariantf("router %d has no configured port to node %d", r.cfg.NodeID, node)
	}
	return p
}

// AttachInputChannel wires the channel that delivers flits to input i.
func (r *Router) AttachInputChannel(i int, fc *FlitChannel) {
	r.inputChannels[i] = fc
}

// AttachInputCreditChannel wires the channel this router uses to send
// credits back upstream for input i.
func (r *Router) AttachInputCreditChannel(i int, cc *CreditChannel) {
	r.creditOut[i] = cc
}

// AddOutputChannel wires output o's flit channel and the credit channel
// used to receive credits back from downstream, and computes the minimum
// round-trip latency per §4.1: 1 + crossbar_delay + channel_latency +
// routing_delay + backchannel_latency + credit_delay.
func (r *Router) AddOutputChannel(o int, fc *FlitChannel, cc *CreditChannel, backchannelLatency int) {
	r.outputChannels[o] = fc
	r.creditIn[o] = cc
	minRTT := 1 + r.cfg.CrossbarDelay + fc.GetLatency() + r.cfg.RoutingDelay + backchannelLatency + r.cfg.CreditDelay
	bs := NewBufferState(r.cfg.NumVCs, perVCLimitFromBufferSize(r.cfg.OutputBufferSize, r.cfg.NumVCs))
	bs.SetMinRoundTripLatency(minRTT)
	r.outputStates[o] = bs
}

func perVCLimitFromBufferSize(bufferSize, numVCs int) int {
	if bufferSize < 0 {
		return 1 << 30
	}
	limit := bufferSize / numVCs
	if limit < 1 {
		limit = 1
	}
	return limit
}

// ReadInputs pulls at most one flit per input channel and stamps any
// arrived downstream credits with their delayed delivery cycle.
func (r *Router) ReadInputs(now int64) {
	r.now = now
	for i, fc := range r.inputChannels {
		if fc == nil || r.inQueueFlits[i] != nil {
			continue
		}
		r.inQueueFlits[i] = fc.Receive(now)
	}
	for o, cc := range r.creditIn {
		if cc == nil {
			continue
		}
		if cr := cc.Receive(now); cr != nil {
			r.procCredits = append(r.procCredits, procCreditEntry{
				output: o,
				credit: cr,
				due:    now + int64(r.cfg.CreditDelay),
			})
		}
	}
}

// InternalStep runs InputQueuing, SwitchEvaluate, SwitchUpdate and
// OutputQueuing in order, then recomputes the active flag.
func (r *Router) InternalStep(now int64) {
	r.now = now
	r.InputQueuing(now)
	r.SwitchEvaluate(now)
	r.SwitchUpdate(now)
	r.OutputQueuing(now)
	r.recomputeActive()
}

// WriteOutputs drives SendFlits then SendCredits.
func (r *Router) WriteOutputs(now int64) {
	r.now = now
	r.SendFlits(now)
	r.SendCredits(now)
}

// IsActive reports whether any input, credit, crossbar, output or
// credit-buffer queue still held work at the end of the last InternalStep.
// External drivers may skip inactive routers for performance.
func (r *Router) IsActive() bool { return r.active }

func (r *Router) recomputeActive() {
	active := false
	for _, f := range r.inQueueFlits {
		if f != nil {
			active = true
		}
	}
	if len(r.procCredits) > 0 || len(r.crossbarFlits) > 0 {
		active = true
	}
	for _, q := range r.outputQueues {
		if q.Len() > 0 {
			active = true
		}
	}
	for _, cb := range r.creditBuffer {
		if len(cb) > 0 {
			active = true
		}
	}
	r.active = active
}

// InputQueuing admits flits into the crossbar staging queue, applying the
// packet-level drop decision on heads and preserving the contiguity
// constraint on bodies/tails.
func (r *Router) InputQueuing(now int64) {
	r.deliverDueCredits(now)

	for i, f := range r.inQueueFlits {
		if f == nil {
			continue
		}
		r.inQueueFlits[i] = nil
		r.inputQueueOne(now, i, f)
	}
}

func (r *Router) deliverDueCredits(now int64) {
	remaining := r.procCredits[:0]
	for _, pc := range r.procCredits {
		if pc.due > now {
			remaining = append(remaining, pc)
			continue
		}
		if r.cfg.UseEndpointCrediting && r.outputStates[pc.output] != nil {
			r.outputStates[pc.output].ProcessCredit(pc.credit)
		}
	}
	r.procCredits = remaining
}

func (r *Router) inputQueueOne(now int64, i int, f *Flit) {
	vc := r.inputs[i].VC(f.VC)

	if vc.state == VCIdle {
		if !f.Head {
			invariantf("flit %d arrived on idle VC %d at input %d without the head flag", f.ID, f.VC, i)
		}

		set, err := r.cfg.Routing(r, f, i, false)
		if err != nil {
			panic("nocsim: routing function failed: " + err.Error())
		}
		outputPort, err := set.single()
		if err != nil {
			invariantf("routing function returned %d outputs for flit %d, want exactly 1", len(set), f.ID)
		}

		overflow := f.Size > (r.cfg.OutputBufferSize - r.outputBufferOccupancy[outputPort])
		if r.cfg.OutputBufferSize < 0 {
			overflow = false
		}
		drop := overflow || r.cfg.RandomFloat() < r.cfg.RandomPacketDropRate

		switch {
		case drop && !f.Tail:
			r.dropPacketAtInput[i] = true
			vc.state = VCActive
			r.recordDrop(outputPort, "head_admission")
		case drop:
			// Singleton packet (head && tail): silently dropped, no
			// state machine change (§4.1 failure semantics).
			r.recordDrop(outputPort, "head_admission_singleton")
		case r.dropPacketAtInput[i]:
			// Drop flag left set from an earlier packet while this VC
			// is idle (ready for a fresh head): the source's
			// "should never get here" branch. A tail here means a
			// singleton packet arrived in an inconsistent state.
			if f.Tail {
				invariantf("tail flit %d observed at input %d while drop_packet_at_input is set and VC is idle", f.ID, i)
			}
			r.recordDrop(outputPort, "stale_drop_state")
		default:
			r.lastHeadOutputPort[i] = outputPort
			r.admit(now, i, outputPort, f)
			if !f.Tail {
				vc.state = VCActive
			}
		}
		return
	}

	// Active VC: body or tail flit, routed via the recorded head port.
	outputPort := r.lastHeadOutputPort[i]
	if r.dropPacketAtInput[i] {
		if f.Tail {
			r.dropPacketAtInput[i] = false
			vc.state = VCIdle
			r.lastHeadOutputPort[i] = -1
		}
		r.recordDrop(outputPort, "body_tail_of_dropped_packet")
		return
	}

	r.admit(now, i, outputPort, f)
	if f.Tail {
		vc.state = VCIdle
		r.lastHeadOutputPort[i] = -1
	}
}

// admit stamps f for crossbar traversal and stages it into crossbarFlits.
func (r *Router) admit(now int64, input, output int, f *Flit) {
	if r.cfg.CrossbarLatency != -1 {
		f.ScheduledCrossbarExit = now + int64(r.cfg.CrossbarLatency)
	} else {
		f.ScheduledCrossbarExit = -1
	}
	f.inputPort, f.outputPort = input, output
	f.crossbarInput = input*r.cfg.InputSpeedup + f.VC%r.cfg.InputSpeedup
	f.crossbarOutput = output*r.cfg.OutputSpeedup + input%r.cfg.OutputSpeedup

	r.crossbarFlits = append(r.crossbarFlits, &crossbarEntry{
		flit:           f,
		exit:           f.ScheduledCrossbarExit,
		expandedInput:  f.crossbarInput,
		expandedOutput: f.crossbarOutput,
		input:          input,
		output:         output,
	})
	r.outputBufferOccupancy[output]++
	r.totalBufferOccupancy++
}

func (r *Router) recordDrop(output int, reason string) {
	r.metrics.PacketsDropped.WithLabelValues(reason).Inc()
	r.logger.Debugf("nocsim: dropped flit at output %d (%s)", output, reason)
}

// SwitchEvaluate stamps any unscheduled crossbarFlits entries with their
// exit cycle. The scan stops at the first already-scheduled entry, since
// everything after it was admitted later and is therefore also scheduled
// (or still unscheduled and will be caught on a later call).
func (r *Router) SwitchEvaluate(now int64) {
	for _, e := range r.crossbarFlits {
		if e.exit >= 0 {
			break
		}
		e.exit = now + int64(r.cfg.CrossbarDelay) - 1
		e.flit.ScheduledCrossbarExit = e.exit
	}
}

// SwitchUpdate drains crossbarFlits entries whose exit cycle has arrived
// and inserts them into their destination output queue, maintaining
// contiguity.
func (r *Router) SwitchUpdate(now int64) {
	for len(r.crossbarFlits) > 0 {
		e := r.crossbarFlits[0]
		if e.exit < 0 || e.exit > now {
			break
		}
		r.crossbarFlits = r.crossbarFlits[1:]
		r.outputQueues[e.output].Insert(e.input, e.flit)
	}
}

// OutputQueuing does nothing in the lossy variant, which has no
// allocator-staged credits: SendFlits appends each departing flit's VC to
// its input's credit buffer, and SendCredits drains those buffers.
func (r *Router) OutputQueuing(now int64) {
	// Credits are generated lazily in SendFlits as flits are popped off
	// the output queues (the point at which their input-side buffer slot
	// is truly free); nothing to stage here beyond what admit() already
	// tracks via outputBufferOccupancy.
}

// SendFlits drives one flit per non-empty output buffer onto its channel.
func (r *Router) SendFlits(now int64) {
	for o, q := range r.outputQueues {
		if q.Len() == 0 {
			continue
		}
		front := q.Front()
		q.PreparePop(front)
		f := q.Pop()
		r.totalBufferOccupancy--
		r.outputBufferOccupancy[o]--

		if r.outputChannels[o] != nil {
			r.outputChannels[o].Send(now, f)
		}
		r.creditBuffer[f.inputPort] = append(r.creditBuffer[f.inputPort], f.VC)

		r.logger.Debugf("nocsim: output %d emitting flit %d of packet %d", o, f.ID, q.CurrentPacketID())
		r.metrics.FlitsSent.WithLabelValues(strconv.Itoa(o)).Inc()
		r.metrics.OutputOccupancy.WithLabelValues(strconv.Itoa(o)).Set(float64(r.outputBufferOccupancy[o]))
	}
}

// SendCredits drives one credit per non-empty input credit buffer.
func (r *Router) SendCredits(now int64) {
	for i, vcs := range r.creditBuffer {
		if len(vcs) == 0 {
			continue
		}
		r.creditBuffer[i] = nil
		if r.creditOut[i] != nil {
			r.creditOut[i].Send(now, &Credit{VCs: vcs})
		}
	}
}
