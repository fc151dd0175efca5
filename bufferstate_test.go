package nocsim

import "testing"

func TestBufferStateAvailability(t *testing.T) {
	bs := NewBufferState(2, 2)

	if !bs.IsAvailable(0) {
		t.Fatalf("fresh VC should be available")
	}

	bs.SendingFlit(0)
	if !bs.IsAvailable(0) {
		t.Fatalf("VC with 1/2 slots used should still be available")
	}

	bs.SendingFlit(0)
	if bs.IsAvailable(0) {
		t.Fatalf("VC with 2/2 slots used should be unavailable")
	}

	// VC 1 is unaffected.
	if !bs.IsAvailable(1) {
		t.Fatalf("unrelated VC should remain available")
	}
}

func TestBufferStateCreditRoundTrip(t *testing.T) {
	bs := NewBufferState(2, 1)

	bs.SendingFlit(0)
	bs.SendingFlit(1)
	if bs.IsAvailable(0) || bs.IsAvailable(1) {
		t.Fatalf("both VCs should be full")
	}

	bs.ProcessCredit(&Credit{VCs: []int{0}})
	if !bs.IsAvailable(0) {
		t.Fatalf("VC 0 should be freed by its credit")
	}
	if bs.IsAvailable(1) {
		t.Fatalf("VC 1 should remain full, its credit never arrived")
	}

	// A credit for an already-empty VC must not underflow occupancy.
	bs.ProcessCredit(&Credit{VCs: []int{0}})
	if !bs.IsAvailable(0) {
		t.Fatalf("VC 0 should remain available after a redundant credit")
	}
}

func TestBufferStateMinRoundTripLatency(t *testing.T) {
	bs := NewBufferState(1, 1)
	bs.SetMinRoundTripLatency(7)
	if got := bs.MinRoundTripLatency(); got != 7 {
		t.Fatalf("got %d, want 7", got)
	}
}
