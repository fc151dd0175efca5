package nocsim

//
// Monotonic id allocation, used for flits and packets. Sequential
// in-process ids need nothing fancier than an atomic counter.
//

import "sync/atomic"

var flitIDCounter = &atomic.Int64{}
var packetIDCounter = &atomic.Int64{}

// nextFlitID returns a fresh, process-unique flit id.
func nextFlitID() int64 {
	return flitIDCounter.Add(1) - 1
}

// nextPacketID returns a fresh, process-unique packet id.
func nextPacketID() int64 {
	return packetIDCounter.Add(1) - 1
}
