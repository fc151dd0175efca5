package workload

import "testing"

func TestMppnTranslatesSourceAndDest(t *testing.T) {
	up := newStubUpstream()
	up.push(0, NewMessage(0, 4, 8, AnyRequest))
	up.push(1, NewMessage(1, 6, 8, AnyRequest))

	m := NewMppn(up, 2) // pe 0,1 -> node 0
	if err := m.Init(2); err != nil {
		t.Fatalf("Init: %v", err)
	}

	if !m.Test(0) {
		t.Fatalf("want a message available for node 0")
	}
	first := m.Get(0)
	if first.Source() != 0 {
		t.Fatalf("want node-level source 0, got %d", first.Source())
	}
	if first.Dest() != 2 { // dest 4 / pePerNode 2
		t.Fatalf("want translated dest 2, got %d", first.Dest())
	}

	m.Next(0)
	if len(up.nextCalled) != 1 || up.nextCalled[0] != 0 {
		t.Fatalf("want upstream.Next(0) called for pe 0, got %v", up.nextCalled)
	}

	second := m.Get(0)
	if second.Source() != 0 {
		t.Fatalf("want node-level source 0, got %d", second.Source())
	}
	if second.Dest() != 3 { // dest 6 / pePerNode 2
		t.Fatalf("want translated dest 3, got %d", second.Dest())
	}
}

func TestMppnEjectUnwraps(t *testing.T) {
	up := newStubUpstream()
	up.push(0, NewMessage(0, 4, 8, AnyRequest))

	m := NewMppn(up, 2)
	_ = m.Init(2)
	m.Test(0)
	wrapped := m.Get(0)

	m.Eject(wrapped)
	if len(up.ejected) != 1 {
		t.Fatalf("want exactly 1 ejected message upstream, got %d", len(up.ejected))
	}
	if _, ok := up.ejected[0].(*mppnMessage); ok {
		t.Fatalf("want the inner message forwarded, not the mppn wrapper")
	}
}
