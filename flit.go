package nocsim

//
// Data model: Flit, Credit
//

// FlitClass identifies a traffic class, used to pick per-class buffer/VC
// resources upstream of this package.
type FlitClass int

// Flit is the atomic transport unit on a channel. The zero value isn't
// meaningful; flits are normally built with [NewPacket].
type Flit struct {
	// ID is this flit's unique id.
	ID int64

	// PacketID is shared by every flit of the same packet.
	PacketID int64

	// Src and Dest are the originating and destination node indices.
	Src, Dest int

	// VC is the virtual channel this flit travels on.
	VC int

	// Class is the traffic class, meaningful for per-class resources.
	Class FlitClass

	// Head is true for exactly one flit per packet: the first.
	Head bool

	// Tail is true for exactly one flit per packet: the last.
	Tail bool

	// Size is the packet's flit count, meaningful on the head flit.
	Size int

	// SeqNum is this flit's position within its packet (0-based).
	SeqNum int

	// Watch marks a flit for verbose diagnostic tracing; it never affects
	// simulation behavior.
	Watch bool

	// ScheduledCrossbarExit is the cycle at which this flit is scheduled
	// to leave the crossbar, or -1 if not yet scheduled (computed lazily
	// by SwitchEvaluate).
	ScheduledCrossbarExit int64

	// crossbarInput and crossbarOutput are the expanded (speedup-aware)
	// input/output indices this flit was staged under in InputQueuing.
	crossbarInput  int
	crossbarOutput int

	// inputPort and outputPort are the physical (non-expanded) ports this
	// flit traverses, recorded so SwitchUpdate knows where to insert it.
	inputPort  int
	outputPort int
}

// NewPacket builds the flits of a single packet of the given size (which
// must be >= 1), tagging the first as head and the last as tail.
func NewPacket(src, dest, vc int, class FlitClass, size int) []*Flit {
	if size < 1 {
		invariantf("packet size must be >= 1, got %d", size)
	}
	pid := nextPacketID()
	flits := make([]*Flit, size)
	for i := 0; i < size; i++ {
		flits[i] = &Flit{
			ID:                    nextFlitID(),
			PacketID:              pid,
			Src:                   src,
			Dest:                  dest,
			VC:                    vc,
			Class:                 class,
			Head:                  i == 0,
			Tail:                  i == size-1,
			Size:                  size,
			SeqNum:                i,
			ScheduledCrossbarExit: -1,
		}
	}
	return flits
}

// Credit is the back-channel token carrying the set of VCs whose
// downstream buffer slots have been freed.
type Credit struct {
	// VCs is the set of virtual channels freed by this credit.
	VCs []int

	// due is not set by [Router]: ReadInputs keeps a credit's
	// now+credit_delay delivery cycle in its own procCredits entry.
	due int64
}
