package swm

import (
	"fmt"
)

//
// Collective-accelerator engine (§4.3): one AccelNode per fabric node,
// running a cooperative coroutine that implements whichever barrier/
// allreduce/broadcast algorithm it was constructed with.
//

// Operation names the collective an accelerator node can run.
type Operation int

const (
	OpBarrier Operation = iota
	OpAllreduce
	OpBcast
	OpPrefix // reserved, unimplemented
)

// MsgKind distinguishes an accelerator wire message from its network-level
// acknowledgment.
type MsgKind int

const (
	KindData MsgKind = iota
	KindSignal
	KindAck
)

// Request is what a local PE submits to its node's accelerator.
type Request struct {
	Operation Operation
	NumPEs    int
	Count     int
	TypeSize  int
}

// AccelMessage is the wire record an accelerator node emits or receives.
type AccelMessage struct {
	Src, Dst int
	Kind     MsgKind
	Size     int
}

// ErrUnknownAlgorithm is returned at construction for an unrecognised
// algorithm name.
var ErrUnknownAlgorithm = fmt.Errorf("swm: unknown collective algorithm")

// ErrUnimplementedAlgorithm is the fatal condition raised when a selected
// but unimplemented algorithm (Rabenseifner) is actually reached.
var ErrUnimplementedAlgorithm = fmt.Errorf("swm: unimplemented collective algorithm")

type action struct {
	kind  string
	msg   AccelMessage
	srcs  []int
	count int
	tsize int
	n     int
}

type event struct {
	msg  AccelMessage
	msgs []AccelMessage
	reqs []Request
}

// ops is the primitive set the eleven algorithm sketches are written
// against (§4.3: "_send_to"/"_recv"/"_recv_multiple"/"_recv_and_reduce"/
// "_recv_replies"/"_wait_local_pes"/"_notify_local_pes").
type ops struct {
	yield func(action) event
}

func (o *ops) sendTo(dst int, kind MsgKind, size int) {
	o.yield(action{kind: "send", msg: AccelMessage{Dst: dst, Kind: kind, Size: size}})
}

func (o *ops) recv(src int) AccelMessage {
	return o.yield(action{kind: "recv", srcs: []int{src}}).msg
}

func (o *ops) recvMultiple(srcs []int) []AccelMessage {
	return o.yield(action{kind: "recvmulti", srcs: srcs}).msgs
}

func (o *ops) recvAndReduce(src, count, typeSize int) AccelMessage {
	return o.yield(action{kind: "recvreduce", srcs: []int{src}, count: count, tsize: typeSize}).msg
}

func (o *ops) recvReplies() {
	o.yield(action{kind: "replies"})
}

func (o *ops) waitLocalPEs(n int) []Request {
	return o.yield(action{kind: "waitlocal", n: n}).reqs
}

func (o *ops) notifyLocalPEs(n int) {
	o.yield(action{kind: "notifylocal", n: n})
}

func (o *ops) fail(err error) {
	panic(err)
}

// algorithm is one barrier/allreduce/broadcast sketch, invoked once per
// accelerator Request with the node's identity, peer count, and radix.
type algorithm func(o *ops, me, n, radix int, reqs []Request)

// AccelNode is one fabric node's collective-accelerator engine.
type AccelNode struct {
	node, numNodes int
	nppn           int
	radix          int
	computeLat     int
	cacheline      int

	algo algorithm

	co    *Coroutine[event, action]
	state ThreadState

	inflight  []Request
	netOutq   []AccelMessage
	netInq    []AccelMessage
	netReplyq []AccelMessage

	pendingAction action
	readyLocal    int // local PEs with a completion reply ready
	xlTime        int64
}

// NewAccelNode builds a node for operation op with the named algorithm
// choice, per §4.3's per-operation algorithm menu.
func NewAccelNode(node, numNodes, radix, computeLat, cacheline int, op Operation, algoName string) (*AccelNode, error) {
	algo, err := resolveAlgorithm(op, algoName)
	if err != nil {
		return nil, err
	}
	n := &AccelNode{
		node: node, numNodes: numNodes, radix: radix,
		computeLat: computeLat, cacheline: cacheline,
		algo: algo, state: ThreadReady,
	}
	return n, nil
}

func resolveAlgorithm(op Operation, name string) (algorithm, error) {
	switch op {
	case OpBarrier:
		switch name {
		case "linear":
			return barrierLinear, nil
		case "tree":
			return barrierTree, nil
		case "all2all":
			return barrierAllToAll, nil
		case "dissem":
			return barrierDissemination, nil
		case "butterfly":
			return barrierButterfly, nil
		}
	case OpAllreduce:
		switch name {
		case "linear":
			return allreduceLinear, nil
		case "tree":
			return allreduceTree, nil
		case "ring":
			return allreduceRing, nil
		case "recdbl":
			return allreduceRecursiveDoubling, nil
		case "rabenseifner":
			return allreduceRabenseifner, nil
		}
	case OpBcast:
		switch name {
		case "linear":
			return bcastLinear, nil
		case "tree":
			return bcastTree, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// Submit enqueues a local PE's request to participate in the node's next
// collective operation.
func (n *AccelNode) Submit(req Request) {
	n.inflight = append(n.inflight, req)
	n.nppn = req.NumPEs / n.numNodes
	n.recheck()
}

// HasOutgoing reports whether a wire message is ready for the fabric.
func (n *AccelNode) HasOutgoing() bool { return len(n.netOutq) > 0 }

// PeekOutgoing returns the head of net_outq without removing it.
func (n *AccelNode) PeekOutgoing() AccelMessage { return n.netOutq[0] }

// PopOutgoing removes and returns the head of net_outq.
func (n *AccelNode) PopOutgoing() AccelMessage {
	msg := n.netOutq[0]
	n.netOutq = n.netOutq[1:]
	return msg
}

// ReadyLocalReplies reports how many local PEs have a completed-operation
// reply ready, per notify_local_pes.
func (n *AccelNode) ReadyLocalReplies() int { return n.readyLocal }

// ConsumeLocalReply drains one ready local reply.
func (n *AccelNode) ConsumeLocalReply() {
	if n.readyLocal > 0 {
		n.readyLocal--
	}
}

// NetReplyqLen reports outstanding un-acked sends, for scenario assertions.
func (n *AccelNode) NetReplyqLen() int { return len(n.netReplyq) }

// XLTime reports accumulated local-reduction latency (cycles).
func (n *AccelNode) XLTime() int64 { return n.xlTime }

// Deliver hands an arriving wire message to the node: an ack is matched
// against net_replyq and removed (reply(m), §4.3); anything else is queued
// into net_inq for the running algorithm to consume, and triggers this
// node's own automatic ack back to the sender (the network-level delivery
// acknowledgment the algorithm layer never authors directly).
func (n *AccelNode) Deliver(msg AccelMessage) {
	if msg.Kind == KindAck {
		n.removeReply(msg.Src)
		n.recheck()
		return
	}
	n.netInq = append(n.netInq, msg)
	n.netOutq = append(n.netOutq, AccelMessage{Src: n.node, Dst: msg.Src, Kind: KindAck, Size: 0})
	n.recheck()
}

func (n *AccelNode) removeReply(src int) {
	for i, m := range n.netReplyq {
		if m.Dst == src {
			n.netReplyq = append(n.netReplyq[:i], n.netReplyq[i+1:]...)
			return
		}
	}
}

// Advance starts the node's coroutine on first call, then rechecks whatever
// it is currently parked on (recv/recvmulti/replies/waitlocal) against the
// node's current queues.
func (n *AccelNode) Advance(now int64) {
	if n.state == ThreadDone {
		return
	}
	if n.co == nil {
		n.co = NewCoroutine[event, action](func(yield func(action) event, first event) {
			o := &ops{yield: yield}
			reqs := o.waitLocalPEs(n.nppnOrDefault())
			n.algo(o, n.node, n.numNodes, n.radix, reqs)
			o.notifyLocalPEs(len(reqs))
		})
		n.pump(event{})
		return
	}
	n.recheck()
}

func (n *AccelNode) nppnOrDefault() int {
	if n.nppn > 0 {
		return n.nppn
	}
	return 1
}

func (n *AccelNode) pump(ev event) {
	for {
		act, ok := n.co.Resume(ev)
		if !ok {
			n.state = ThreadDone
			return
		}
		switch act.kind {
		case "send":
			msg := act.msg
			msg.Src = n.node
			n.netOutq = append(n.netOutq, msg)
			n.netReplyq = append(n.netReplyq, msg)
			ev = event{}
			continue
		case "recv":
			if idx := n.findInq(act.srcs[0]); idx >= 0 {
				m := n.netInq[idx]
				n.netInq = append(n.netInq[:idx], n.netInq[idx+1:]...)
				ev = event{msg: m}
				continue
			}
			n.pendingAction = act
			n.state = ThreadWait
			return
		case "recvreduce":
			if idx := n.findInq(act.srcs[0]); idx >= 0 {
				m := n.netInq[idx]
				n.netInq = append(n.netInq[:idx], n.netInq[idx+1:]...)
				n.xlTime += localReduceLatency(act.count, act.tsize, n.cacheline, n.computeLat)
				ev = event{msg: m}
				continue
			}
			n.pendingAction = act
			n.state = ThreadWait
			return
		case "recvmulti":
			if msgs, ok := n.findAllInq(act.srcs); ok {
				ev = event{msgs: msgs}
				continue
			}
			n.pendingAction = act
			n.state = ThreadWait
			return
		case "replies":
			if len(n.netReplyq) == 0 {
				ev = event{}
				continue
			}
			n.pendingAction = act
			n.state = ThreadQuietWait
			return
		case "waitlocal":
			if len(n.inflight) >= act.n {
				reqs := n.inflight[:act.n]
				n.inflight = n.inflight[act.n:]
				ev = event{reqs: reqs}
				continue
			}
			n.pendingAction = act
			n.state = ThreadWait
			return
		case "notifylocal":
			n.readyLocal += act.n
			ev = event{}
			continue
		}
	}
}

func (n *AccelNode) findInq(src int) int {
	for i, m := range n.netInq {
		if m.Src == src {
			return i
		}
	}
	return -1
}

func (n *AccelNode) findAllInq(srcs []int) ([]AccelMessage, bool) {
	out := make([]AccelMessage, 0, len(srcs))
	remaining := append([]AccelMessage(nil), n.netInq...)
	for _, src := range srcs {
		found := -1
		for i, m := range remaining {
			if m.Src == src {
				found = i
				break
			}
		}
		if found < 0 {
			return nil, false
		}
		out = append(out, remaining[found])
		remaining = append(remaining[:found], remaining[found+1:]...)
	}
	n.netInq = remaining
	return out, true
}

// localReduceLatency is the formula in §4.3: ceil(count*type_size/cacheline)
// * compute_lat cycles.
func localReduceLatency(count, typeSize, cacheline, computeLat int) int64 {
	bytes := count * typeSize
	lines := (bytes + cacheline - 1) / cacheline
	return int64(lines * computeLat)
}

// recheck re-evaluates whatever pendingAction the node is currently parked
// on (recv/recvmulti/replies/waitlocal) against the current queues, and
// resumes the coroutine with the satisfying event if the condition now
// holds. It is a no-op if the node isn't parked, or the condition still
// doesn't hold.
func (n *AccelNode) recheck() {
	if n.state != ThreadWait && n.state != ThreadQuietWait {
		return
	}
	act := n.pendingAction
	switch act.kind {
	case "recv":
		if idx := n.findInq(act.srcs[0]); idx >= 0 {
			m := n.netInq[idx]
			n.netInq = append(n.netInq[:idx], n.netInq[idx+1:]...)
			n.pump(event{msg: m})
		}
	case "recvreduce":
		if idx := n.findInq(act.srcs[0]); idx >= 0 {
			m := n.netInq[idx]
			n.netInq = append(n.netInq[:idx], n.netInq[idx+1:]...)
			n.xlTime += localReduceLatency(act.count, act.tsize, n.cacheline, n.computeLat)
			n.pump(event{msg: m})
		}
	case "recvmulti":
		if msgs, ok := n.findAllInq(act.srcs); ok {
			n.pump(event{msgs: msgs})
		}
	case "replies":
		if len(n.netReplyq) == 0 {
			n.pump(event{})
		}
	case "waitlocal":
		if len(n.inflight) >= act.n {
			reqs := n.inflight[:act.n]
			n.inflight = n.inflight[act.n:]
			n.pump(event{reqs: reqs})
		}
	}
}
