package swm

import (
	"testing"

	"github.com/cbeckman-hdogan/nocsim/workload"
)

func TestSwmGeneratorStagesPutAndDeliversAck(t *testing.T) {
	g := NewSwmGenerator(func(pe int) Program {
		return func(o *Ops) { o.Put(1, 128) }
	})
	_ = g.Init(4)
	g.Tick(0)

	if !g.Test(0) {
		t.Fatalf("want a staged put available for PE 0")
	}
	msg := g.Get(0)
	if msg.Dest() != 1 || msg.Size() != 128 || msg.Kind() != workload.PutRequest {
		t.Fatalf("got dest=%d size=%d kind=%v", msg.Dest(), msg.Size(), msg.Kind())
	}
	g.Next(0)
	if g.Test(0) {
		t.Fatalf("want no message staged immediately after Next, before the ack arrives")
	}

	g.Eject(msg.Reply())
	if !g.threads[0].co.Done() {
		t.Fatalf("want the program to have completed once its put is acked")
	}
}

func TestCollectiveGeneratorRoundTrip(t *testing.T) {
	g := NewCollectiveGenerator("dissem", "ring", "tree", 2, 10, 64)
	_ = g.Init(2)

	if err := g.Submit(0, Request{Operation: OpBarrier, NumPEs: 2}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := g.Submit(1, Request{Operation: OpBarrier, NumPEs: 2}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	for round := 0; round < 100 && (g.Test(0) || g.Test(1)); round++ {
		for _, src := range []int{0, 1} {
			if !g.Test(src) {
				continue
			}
			msg := g.Get(src)
			g.Next(src)
			g.Eject(msg)
		}
	}

	if g.Test(0) || g.Test(1) {
		t.Fatalf("want both nodes quiescent after the barrier completes")
	}
}
