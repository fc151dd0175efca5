package workload

import "testing"

func TestLocalShortcutDivertsSelfAddressedTraffic(t *testing.T) {
	up := newStubUpstream()
	up.push(0, NewMessage(0, 0, 8, AnyRequest)) // dest == src

	ls := NewLocalShortcut(up, 5, false)
	_ = ls.Init(1)
	ls.Tick(0)

	if ls.Test(0) {
		t.Fatalf("self-addressed traffic should not be visible downstream")
	}
	if len(up.nextCalled) != 1 {
		t.Fatalf("upstream should be consumed immediately on diversion, got %v", up.nextCalled)
	}

	ls.Tick(4)
	if len(up.ejected) != 0 {
		t.Fatalf("loopback should not fire before local_latency elapses")
	}

	ls.Tick(5)
	if len(up.ejected) != 1 {
		t.Fatalf("loopback should fire exactly at now+local_latency, got %d", len(up.ejected))
	}
}

func TestLocalShortcutPassesThroughNonLocalTraffic(t *testing.T) {
	up := newStubUpstream()
	up.push(0, NewMessage(0, 9, 8, AnyRequest)) // dest != src

	ls := NewLocalShortcut(up, 5, false)
	_ = ls.Init(1)
	ls.Tick(0)

	if !ls.Test(0) {
		t.Fatalf("non-local traffic should pass straight through")
	}
	if ls.Get(0).Dest() != 9 {
		t.Fatalf("got dest %d, want 9", ls.Get(0).Dest())
	}
}

func TestLocalShortcutSchedulesReplyWhenReadWrite(t *testing.T) {
	up := newStubUpstream()
	up.push(0, NewMessage(0, 0, 8, AnyRequest))

	ls := NewLocalShortcut(up, 2, true)
	_ = ls.Init(1)
	ls.Tick(0)
	ls.Test(0)

	ls.Tick(2)
	if len(up.ejected) != 2 {
		t.Fatalf("want request and reply both looped back, got %d", len(up.ejected))
	}
}
