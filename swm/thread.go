package swm

//
// SWM thread runtime (§4.2: "a cooperative coroutine bound to a PE, holding
// local counters, a per-state tag in {ready, message, wait, quiet_wait,
// done}, a deque of outstanding-ack packets and a deque of received-but-
// unmatched sends"). The program itself — what work/put/get/send/recv calls
// a PE actually issues — is an external collaborator; this file supplies
// only the runtime that drives one.
//

// ThreadState is the per-thread state tag the source keeps inline on each
// SWM thread.
type ThreadState int

const (
	ThreadReady ThreadState = iota
	ThreadMessage
	ThreadWait
	ThreadQuietWait
	ThreadDone
)

func (s ThreadState) String() string {
	switch s {
	case ThreadReady:
		return "ready"
	case ThreadMessage:
		return "message"
	case ThreadWait:
		return "wait"
	case ThreadQuietWait:
		return "quiet_wait"
	case ThreadDone:
		return "done"
	default:
		return "unknown"
	}
}

type opKind int

const (
	opWork opKind = iota
	opPut
	opGet
	opGetNb
	opSend
	opRecv
	opQuiet
	opYield
	opROIBegin
	opROIEnd
)

// threadRequest is what a Program hands the runtime at each yield.
type threadRequest struct {
	kind          opKind
	cycles        int
	dest, size    int
	tag           int
}

// threadReply is what the runtime hands back to a resumed Program.
type threadReply struct {
	payload []byte
}

// Ops is the primitive set a Program issues against. Every method suspends
// the calling goroutine until the runtime satisfies or ships the request.
type Ops struct {
	yield func(threadRequest) threadReply
}

func (o *Ops) Work(cycles int)            { o.yield(threadRequest{kind: opWork, cycles: cycles}) }
func (o *Ops) Put(dest, size int)         { o.yield(threadRequest{kind: opPut, dest: dest, size: size}) }
func (o *Ops) GetNb(dest, size int)       { o.yield(threadRequest{kind: opGetNb, dest: dest, size: size}) }
func (o *Ops) Send(dest, size, tag int)   { o.yield(threadRequest{kind: opSend, dest: dest, size: size, tag: tag}) }
func (o *Ops) Quiet()                     { o.yield(threadRequest{kind: opQuiet}) }
func (o *Ops) ThreadYield()               { o.yield(threadRequest{kind: opYield}) }
func (o *Ops) ROIBegin()                  { o.yield(threadRequest{kind: opROIBegin}) }
func (o *Ops) ROIEnd()                    { o.yield(threadRequest{kind: opROIEnd}) }

func (o *Ops) Get(dest, size int) []byte {
	return o.yield(threadRequest{kind: opGet, dest: dest, size: size}).payload
}

func (o *Ops) Recv(tag int) []byte {
	return o.yield(threadRequest{kind: opRecv, tag: tag}).payload
}

// Program is a user-supplied PE workload, expressed against Ops. Its
// content is out of scope; only the act of driving one is this package's
// concern.
type Program func(ops *Ops)

type unmatchedSend struct {
	tag     int
	payload []byte
}

// SwmThread drives one Program coroutine for one PE.
type SwmThread struct {
	pe    int
	co    *Coroutine[threadReply, threadRequest]
	state ThreadState

	staged   threadRequest // the request currently parked in ThreadMessage state
	haveMsg  bool

	workUntil       int64
	outstandingAcks int
	unmatchedRecv   []unmatchedSend
	waitTag         int
}

// NewSwmThread starts prog's coroutine, parked waiting for its first Advance.
func NewSwmThread(pe int, prog Program) *SwmThread {
	t := &SwmThread{pe: pe, state: ThreadReady}
	t.co = NewCoroutine[threadReply, threadRequest](func(yield func(threadRequest) threadReply, first threadReply) {
		ops := &Ops{yield: yield}
		prog(ops)
	})
	return t
}

func (t *SwmThread) State() ThreadState { return t.state }

// Advance runs the thread's clock forward to now, resuming the coroutine
// whenever whatever it's blocked on has become satisfiable.
func (t *SwmThread) Advance(now int64) {
	switch t.state {
	case ThreadDone, ThreadMessage:
		return
	case ThreadReady:
		if now < t.workUntil {
			return
		}
		t.drive(threadReply{})
	case ThreadQuietWait:
		if t.outstandingAcks > 0 {
			return
		}
		t.drive(threadReply{})
	case ThreadWait:
		if idx := t.findUnmatched(t.waitTag); idx >= 0 {
			payload := t.unmatchedRecv[idx].payload
			t.unmatchedRecv = append(t.unmatchedRecv[:idx], t.unmatchedRecv[idx+1:]...)
			t.drive(threadReply{payload: payload})
		}
	}
}

func (t *SwmThread) findUnmatched(tag int) int {
	for i, u := range t.unmatchedRecv {
		if u.tag == tag {
			return i
		}
	}
	return -1
}

// drive resumes the coroutine with reply, then classifies the resulting
// request: immediately-resolvable requests (work scheduling, a recv that
// already has a matching arrival, a quiet that finds nothing outstanding)
// loop back into another Resume in the same call; anything requiring a
// network round trip or a future cycle parks the thread and returns.
func (t *SwmThread) drive(reply threadReply) {
	for {
		req, ok := t.co.Resume(reply)
		if !ok {
			t.state = ThreadDone
			return
		}
		switch req.kind {
		case opWork:
			t.workUntil += int64(req.cycles)
			t.state = ThreadReady
			return
		case opYield, opROIBegin, opROIEnd:
			reply = threadReply{}
			continue
		case opQuiet:
			if t.outstandingAcks == 0 {
				reply = threadReply{}
				continue
			}
			t.state = ThreadQuietWait
			return
		case opRecv:
			if idx := t.findUnmatched(req.tag); idx >= 0 {
				payload := t.unmatchedRecv[idx].payload
				t.unmatchedRecv = append(t.unmatchedRecv[:idx], t.unmatchedRecv[idx+1:]...)
				reply = threadReply{payload: payload}
				continue
			}
			t.waitTag = req.tag
			t.state = ThreadWait
			return
		case opPut, opGet, opGetNb, opSend:
			if req.kind == opPut || req.kind == opGetNb || req.kind == opSend {
				t.outstandingAcks++
			}
			t.staged = req
			t.haveMsg = true
			t.state = ThreadMessage
			return
		}
	}
}

// HasMessage reports whether a network-bound request is staged and ready
// to ship.
func (t *SwmThread) HasMessage() bool { return t.haveMsg }

// StagedRequest returns the staged network request without consuming it.
func (t *SwmThread) StagedRequest() (dest, size, tag int, kind opKind) {
	return t.staged.dest, t.staged.size, t.staged.tag, t.staged.kind
}

// Shipped declares the staged message handed to the fabric. The thread
// remains blocked until its ack (or, for Get, its reply payload) arrives
// via Arrive.
func (t *SwmThread) Shipped() {
	t.haveMsg = false
	t.state = ThreadWait
	t.waitTag = -1 // Get/Put/Send acks are matched by arrival order, not tag
}

// Arrive delivers an ack (for put/getnb/send) or reply payload (for get)
// from the fabric.
func (t *SwmThread) Arrive(payload []byte) {
	switch t.staged.kind {
	case opPut, opGetNb, opSend:
		t.outstandingAcks--
		t.drive(threadReply{})
	case opGet:
		t.drive(threadReply{payload: payload})
	}
}

// Unmatched delivers a send arrived from another PE, queued for a future
// Recv with a matching tag.
func (t *SwmThread) Unmatched(tag int, payload []byte) {
	t.unmatchedRecv = append(t.unmatchedRecv, unmatchedSend{tag: tag, payload: payload})
}
