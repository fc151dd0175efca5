package nocsim

//
// Data model: BufferState — downstream credit accounting for one output
// channel's remote input buffer, keyed by VC.
//

// BufferState tracks, on behalf of the router sitting upstream of a
// channel, how much room remains in the downstream router's per-VC input
// buffer. It is the credit-accounting twin of [vcBuffer]: one lives at
// each end of a [FlitChannel].
type BufferState struct {
	// perVCLimit is the number of flit slots each VC may occupy
	// downstream.
	perVCLimit int

	occupancy  []int
	available  []bool

	// minRoundTripLatency is the minimum number of cycles between
	// sending a flit and being able to observe the credit it frees,
	// computed by AddOutputChannel.
	minRoundTripLatency int
}

// NewBufferState allocates downstream credit accounting for numVCs virtual
// channels, each with room for perVCLimit flits.
func NewBufferState(numVCs, perVCLimit int) *BufferState {
	if numVCs < 1 || perVCLimit < 1 {
		invariantf("numVCs and perVCLimit must be >= 1, got %d, %d", numVCs, perVCLimit)
	}
	bs := &BufferState{
		perVCLimit: perVCLimit,
		occupancy:  make([]int, numVCs),
		available:  make([]bool, numVCs),
	}
	for i := range bs.available {
		bs.available[i] = true
	}
	return bs
}

// IsAvailable reports whether VC v downstream has room for one more flit.
func (bs *BufferState) IsAvailable(v int) bool {
	return bs.available[v]
}

// SendingFlit records that a flit was sent on VC v, consuming one
// downstream slot.
func (bs *BufferState) SendingFlit(v int) {
	bs.occupancy[v]++
	bs.available[v] = bs.occupancy[v] < bs.perVCLimit
}

// ProcessCredit frees the downstream slots named by a returned [Credit].
func (bs *BufferState) ProcessCredit(c *Credit) {
	for _, v := range c.VCs {
		if bs.occupancy[v] > 0 {
			bs.occupancy[v]--
		}
		bs.available[v] = bs.occupancy[v] < bs.perVCLimit
	}
}

// SetMinRoundTripLatency records the minimum round-trip latency computed by
// [Router.AddOutputChannel].
func (bs *BufferState) SetMinRoundTripLatency(cycles int) {
	bs.minRoundTripLatency = cycles
}

// MinRoundTripLatency returns the value set by [BufferState.SetMinRoundTripLatency].
func (bs *BufferState) MinRoundTripLatency() int {
	return bs.minRoundTripLatency
}
