package workload

//
// Data model: WorkloadMessage as a closed tagged variant (§9 design note:
// "prefer a closed tagged variant over open subclassing"). baseMessage is
// the concrete type generators produce; modifier wrappers embed an inner
// WorkloadMessage and override the accessors their transformation affects,
// delegating everything else.
//

// MessageKind distinguishes the request flavors a workload can emit.
type MessageKind int

const (
	AnyRequest MessageKind = iota
	GetRequest
	NbGetRequest
	PutRequest
	SendRequest
	RecvRequest
	DummyRequest
)

// WorkloadMessage is the record a workload component hands its downstream
// consumer. It is reference-like: modifiers wrap an inner message rather
// than copying its fields, so wrapping is cheap and composes.
type WorkloadMessage interface {
	Source() int
	Dest() int
	Size() int
	Kind() MessageKind
	IsReply() bool
	Reply() WorkloadMessage
	IsDummy() bool
}

// baseMessage is the concrete message type Random (and NewMessage callers)
// produce directly; the swm package's generators use their own message
// types.
type baseMessage struct {
	source, dest int
	size         int
	kind         MessageKind
	isReply      bool
}

// NewMessage builds a plain, unwrapped workload message.
func NewMessage(source, dest, size int, kind MessageKind) WorkloadMessage {
	return &baseMessage{source: source, dest: dest, size: size, kind: kind}
}

func (m *baseMessage) Source() int       { return m.source }
func (m *baseMessage) Dest() int         { return m.dest }
func (m *baseMessage) Size() int         { return m.size }
func (m *baseMessage) Kind() MessageKind { return m.kind }
func (m *baseMessage) IsReply() bool     { return m.isReply }
func (m *baseMessage) IsDummy() bool     { return m.kind == DummyRequest }

// Reply yields the paired reply: source and dest swap, the kind is
// preserved, and the reply flag is set.
func (m *baseMessage) Reply() WorkloadMessage {
	return &baseMessage{source: m.dest, dest: m.source, size: m.size, kind: m.kind, isReply: true}
}

// mppnMessage translates PE-level Source/Dest into node-level indices,
// the way multiple PEs sharing one fabric node present themselves to the
// router as a single node-level traffic source.
type mppnMessage struct {
	WorkloadMessage
	pe        int
	pePerNode int
}

func (m *mppnMessage) Source() int { return m.pe / m.pePerNode }
func (m *mppnMessage) Dest() int   { return m.WorkloadMessage.Dest() / m.pePerNode }

// packetizeMessage reports its Size in flits rather than bytes; every
// other accessor passes through to the inner message unchanged.
type packetizeMessage struct {
	WorkloadMessage
	flits int
}

func (m *packetizeMessage) Size() int { return m.flits }

// coalescedMessage bundles several inner messages behind a single get()
// result, de-coalescing them again on Eject.
type coalescedMessage struct {
	source, dest int
	members      []WorkloadMessage
}

func (m *coalescedMessage) Source() int       { return m.source }
func (m *coalescedMessage) Dest() int         { return m.dest }
func (m *coalescedMessage) Kind() MessageKind { return AnyRequest }
func (m *coalescedMessage) IsReply() bool     { return false }
func (m *coalescedMessage) IsDummy() bool     { return false }

func (m *coalescedMessage) Size() int {
	total := 0
	for _, inner := range m.members {
		total += inner.Size()
	}
	return total
}

func (m *coalescedMessage) Reply() WorkloadMessage {
	return &baseMessage{source: m.dest, dest: m.source, size: m.Size(), kind: AnyRequest, isReply: true}
}
