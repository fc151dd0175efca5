package swm

//
// The eleven algorithm sketches (§4.3): barrier {linear, tree, all2all,
// dissem, butterfly}, allreduce {linear, tree, ring, recdbl, rabenseifner
// (reserved, unimplemented)}, broadcast {linear, tree}. Each is a plain Go
// function closing over the node's identity/peer count/radix and the
// already-collected local requests, issuing the same send/recv primitive
// calls the original's algorithm methods do.
//
// The root of every algorithm (barrier/bcast) and the reduction root
// (allreduce linear/tree) is node 0, matching the original's
// _barrier_root == 0 default.
//

func allExcept(me, n int) []int {
	peers := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != me {
			peers = append(peers, i)
		}
	}
	return peers
}

// parentChildren computes a conventional radix-ary spanning tree over
// [0,n): node i's children are {radix*i+1, ..., radix*i+radix} clamped to
// n, and its parent is (i-1)/radix (root's parent is -1). This is the
// tree shape barrierTree and bcastTree fan out over.
func parentChildren(me, n, radix int) (parent int, children []int) {
	if radix < 1 {
		radix = 1
	}
	if me == 0 {
		parent = -1
	} else {
		parent = (me - 1) / radix
	}
	for c := me*radix + 1; c <= me*radix+radix && c < n; c++ {
		children = append(children, c)
	}
	return parent, children
}

func largestPowerOfTwoLE(n int) int {
	p := 1
	for p*2 <= n {
		p *= 2
	}
	return p
}

//
// Barrier algorithms.
//

func barrierLinear(o *ops, me, n, radix int, reqs []Request) {
	if me != 0 {
		o.sendTo(0, KindSignal, 0)
		o.recv(0)
		return
	}
	peers := allExcept(0, n)
	o.recvMultiple(peers)
	for _, p := range peers {
		o.sendTo(p, KindSignal, 0)
	}
}

func barrierTree(o *ops, me, n, radix int, reqs []Request) {
	parent, children := parentChildren(me, n, radix)
	if len(children) > 0 {
		o.recvMultiple(children)
	}
	if parent >= 0 {
		o.sendTo(parent, KindSignal, 0)
		o.recv(parent)
	}
	for _, c := range children {
		o.sendTo(c, KindSignal, 0)
	}
}

func barrierAllToAll(o *ops, me, n, radix int, reqs []Request) {
	peers := allExcept(me, n)
	for _, p := range peers {
		o.sendTo(p, KindSignal, 0)
	}
	o.recvMultiple(peers)
}

// barrierDissemination: for d = 1, 2, 4, ..., < N, send to (me+d) mod N,
// receive from (me-d) mod N.
func barrierDissemination(o *ops, me, n, radix int, reqs []Request) {
	for d := 1; d < n; d *= 2 {
		dst := (me + d) % n
		src := ((me-d)%n + n) % n
		o.sendTo(dst, KindSignal, 0)
		o.recv(src)
	}
}

// barrierButterfly: for each power-of-two d, swap with partner
// ((me+d) mod 2d) + floor(me/2d)*2d.
func barrierButterfly(o *ops, me, n, radix int, reqs []Request) {
	for d := 1; d < n; d *= 2 {
		partner := ((me+d)%(2*d)) + (me/(2*d))*(2*d)
		o.sendTo(partner, KindSignal, 0)
		o.recv(partner)
	}
}

//
// Allreduce algorithms.
//

func allreduceSize(reqs []Request) (count, typeSize int) {
	if len(reqs) == 0 {
		return 0, 0
	}
	return reqs[0].Count, reqs[0].TypeSize
}

// allreduceLinear: root pulls data from all, reduces, then broadcasts —
// kept per §4.3's note that the original's dead "linear" reduce option is
// an omission in the distillation, not a Non-goal.
func allreduceLinear(o *ops, me, n, radix int, reqs []Request) {
	count, typeSize := allreduceSize(reqs)
	if me == 0 {
		peers := allExcept(0, n)
		for _, p := range peers {
			o.recvAndReduce(p, count, typeSize)
			o.recv(p)
		}
		for _, p := range peers {
			o.sendTo(p, KindData, count*typeSize)
			o.sendTo(p, KindSignal, 0)
		}
		return
	}
	o.sendTo(0, KindData, count*typeSize)
	o.sendTo(0, KindSignal, 0)
	o.recv(0)
	o.recv(0)
}

// allreduceTree: gather-reduce up the tree, then broadcast down the same
// tree shape.
func allreduceTree(o *ops, me, n, radix int, reqs []Request) {
	count, typeSize := allreduceSize(reqs)
	parent, children := parentChildren(me, n, radix)
	for _, c := range children {
		o.recvAndReduce(c, count, typeSize)
		o.recv(c)
	}
	if parent >= 0 {
		o.sendTo(parent, KindData, count*typeSize)
		o.sendTo(parent, KindSignal, 0)
		o.recv(parent)
		o.recv(parent)
	}
	for _, c := range children {
		o.sendTo(c, KindData, count*typeSize)
		o.sendTo(c, KindSignal, 0)
	}
}

// allreduceRing: 2(N-1) phases of put+signal between ring neighbours —
// reduce-scatter (with local reduction after each phase) followed by
// allgather.
func allreduceRing(o *ops, me, n, radix int, reqs []Request) {
	count, typeSize := allreduceSize(reqs)
	next := (me + 1) % n
	prev := ((me-1)%n + n) % n
	chunk := count / n
	if chunk == 0 {
		chunk = 1
	}
	for i := 0; i < n-1; i++ {
		o.sendTo(next, KindData, chunk*typeSize)
		o.sendTo(next, KindSignal, 0)
		o.recvAndReduce(prev, chunk, typeSize)
		o.recv(prev)
	}
	for i := 0; i < n-1; i++ {
		o.sendTo(next, KindData, chunk*typeSize)
		o.sendTo(next, KindSignal, 0)
		o.recv(prev)
		o.recv(prev)
	}
}

// allreduceRecursiveDoubling: pair-exchange across a log2 subset; extra
// peers outside the power-of-two set piggy-back onto power-of-two members.
func allreduceRecursiveDoubling(o *ops, me, n, radix int, reqs []Request) {
	count, typeSize := allreduceSize(reqs)
	pow2 := largestPowerOfTwoLE(n)

	if me >= pow2 {
		partner := me - pow2
		o.sendTo(partner, KindData, count*typeSize)
		o.sendTo(partner, KindSignal, 0)
		o.recv(partner)
		o.recv(partner)
		return
	}
	if me+pow2 < n {
		o.recvAndReduce(me+pow2, count, typeSize)
		o.recv(me + pow2)
	}
	for d := 1; d < pow2; d *= 2 {
		partner := me ^ d
		o.sendTo(partner, KindData, count*typeSize)
		o.sendTo(partner, KindSignal, 0)
		o.recvAndReduce(partner, count, typeSize)
		o.recv(partner)
	}
	if me+pow2 < n {
		o.sendTo(me+pow2, KindData, count*typeSize)
		o.sendTo(me+pow2, KindSignal, 0)
	}
}

// allreduceRabenseifner is reserved but unimplemented (§4.3 fatal
// condition): selecting it at construction succeeds, but actually running
// it raises a structured error.
func allreduceRabenseifner(o *ops, me, n, radix int, reqs []Request) {
	o.fail(ErrUnimplementedAlgorithm)
}

//
// Broadcast algorithms.
//

// bcastLinear: root sends payload then signal to each non-root.
func bcastLinear(o *ops, me, n, radix int, reqs []Request) {
	count, typeSize := allreduceSize(reqs)
	if me == 0 {
		for _, p := range allExcept(0, n) {
			o.sendTo(p, KindData, count*typeSize)
			o.sendTo(p, KindSignal, 0)
		}
		return
	}
	o.recv(0)
	o.recv(0)
}

// bcastTree: receive payload+signal from parent (unless root); fan
// payload+signal to children.
func bcastTree(o *ops, me, n, radix int, reqs []Request) {
	count, typeSize := allreduceSize(reqs)
	parent, children := parentChildren(me, n, radix)
	if parent >= 0 {
		o.recv(parent)
		o.recv(parent)
	}
	for _, c := range children {
		o.sendTo(c, KindData, count*typeSize)
		o.sendTo(c, KindSignal, 0)
	}
}
