package nocsim

//
// Routing: the interface this package consumes but does not implement.
// Topology and routing-table construction are out of scope (§1); callers
// supply a [RoutingFunc] looked up from their own tables.
//

// OutputSet is the set of candidate outputs a [RoutingFunc] computes for a
// flit. Lossy operation requires exactly one member; [ErrInvalidRoutingSet]
// is returned otherwise.
type OutputSet []int

// RoutingFunc computes the output port(s) a head flit should take. inVCMode
// selects virtual-channel-aware routing variants; most routing functions
// ignore it.
type RoutingFunc func(r *Router, f *Flit, input int, inVCMode bool) (OutputSet, error)

// single validates that an OutputSet has exactly one member and returns it,
// or [ErrInvalidRoutingSet].
func (s OutputSet) single() (int, error) {
	if len(s) != 1 {
		return 0, ErrInvalidRoutingSet
	}
	return s[0], nil
}

// DimensionOrderMesh2D returns a [RoutingFunc] for an X-then-Y dimension-
// order routed 2D mesh of the given width, addressing nodes as
// y*width+x. It is provided as a minimal, dependency-free routing function
// for tests and small examples; production topologies are expected to
// supply their own.
func DimensionOrderMesh2D(width int) RoutingFunc {
	return func(r *Router, f *Flit, input int, inVCMode bool) (OutputSet, error) {
		here := r.NodeID()
		if f.Dest == here {
			return OutputSet{r.EjectionPort()}, nil
		}
		hx, hy := here%width, here/width
		dx, dy := f.Dest%width, f.Dest/width
		switch {
		case dx > hx:
			return OutputSet{r.PortTo(here + 1)}, nil
		case dx < hx:
			return OutputSet{r.PortTo(here - 1)}, nil
		case dy > hy:
			return OutputSet{r.PortTo(here + width)}, nil
		case dy < hy:
			return OutputSet{r.PortTo(here - width)}, nil
		default:
			return OutputSet{r.EjectionPort()}, nil
		}
	}
}
