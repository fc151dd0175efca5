package workload

import "testing"

func TestOnNodeLatencyOutgoingDelay(t *testing.T) {
	up := newStubUpstream()
	up.push(0, NewMessage(0, 1, 8, AnyRequest))

	lat := NewOnNodeLatency(up, 3, 2)
	_ = lat.Init(1)

	lat.Tick(0)
	if lat.Test(0) {
		t.Fatalf("message should not be visible before the outgoing delay elapses")
	}

	lat.Tick(2)
	if lat.Test(0) {
		t.Fatalf("message should not be visible one cycle early")
	}

	lat.Tick(3)
	if !lat.Test(0) {
		t.Fatalf("message should be visible exactly at now+outgoingLatency")
	}
	if lat.Get(0) == nil {
		t.Fatalf("want a message from Get")
	}
}

func TestOnNodeLatencyIncomingDelay(t *testing.T) {
	up := newStubUpstream()
	lat := NewOnNodeLatency(up, 0, 2)
	_ = lat.Init(1)

	lat.Tick(0)
	lat.Eject(NewMessage(1, 0, 8, AnyRequest))

	lat.Tick(1)
	if len(up.ejected) != 0 {
		t.Fatalf("reply should not reach upstream before the incoming delay elapses")
	}

	lat.Tick(2)
	if len(up.ejected) != 1 {
		t.Fatalf("reply should reach upstream exactly at now+incomingLatency, got %d ejects", len(up.ejected))
	}
}
