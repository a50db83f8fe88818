package stream

import (
	"errors"
	"testing"
)

func TestAccumulatorLifecycle(t *testing.T) {
	a := NewAccumulator()

	if a.State() != StateIdle {
		t.Fatalf("Expected Idle, got %v", a.State())
	}

	if err := a.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if a.State() != StateStreaming {
		t.Errorf("Expected Streaming, got %v", a.State())
	}

	snap, err := a.AppendDelta("第一行\n第二行")
	if err != nil {
		t.Fatalf("AppendDelta failed: %v", err)
	}
	if snap.Sealed {
		t.Error("Snapshot should not be sealed while streaming")
	}
	if snap.Content != "第一行\n第二行" {
		t.Errorf("Content: got %q, want %q", snap.Content, "第一行\n第二行")
	}

	final, err := a.Seal()
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if final != "第一行\n第二行" {
		t.Errorf("Final: got %q, want %q", final, "第一行\n第二行")
	}
	if a.State() != StateSealed {
		t.Errorf("Expected Sealed, got %v", a.State())
	}

	msg := a.Message()
	if !msg.Sealed || msg.Content != final || msg.Role != "assistant" {
		t.Errorf("Sealed message wrong: %+v", msg)
	}
}

func TestAccumulatorSealTrimsOnce(t *testing.T) {
	a := NewAccumulator()
	a.Start()
	a.AppendDelta("  ")
	a.AppendDelta("reply text\n")

	final, err := a.Seal()
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if final != "reply text" {
		t.Errorf("Got %q, want %q", final, "reply text")
	}
}

func TestAccumulatorRejectsConcurrentTurn(t *testing.T) {
	a := NewAccumulator()
	a.Start()

	if err := a.Start(); !errors.Is(err, ErrTurnInProgress) {
		t.Errorf("Expected ErrTurnInProgress, got %v", err)
	}
}

func TestAccumulatorAllowsRestartAfterSealOrFail(t *testing.T) {
	a := NewAccumulator()

	a.Start()
	a.AppendDelta("first")
	a.Seal()
	if err := a.Start(); err != nil {
		t.Fatalf("Restart after seal failed: %v", err)
	}
	if got := a.Message().Content; got != "" {
		t.Errorf("Restart should reset content, got %q", got)
	}

	a.Fail()
	if err := a.Start(); err != nil {
		t.Fatalf("Restart after fail failed: %v", err)
	}
}

func TestAccumulatorFailDiscardsPartialContent(t *testing.T) {
	a := NewAccumulator()
	a.Start()
	a.AppendDelta("partial reply that must not survive")

	a.Fail()

	if a.State() != StateFailed {
		t.Errorf("Expected Failed, got %v", a.State())
	}
	if got := a.Message().Content; got != "" {
		t.Errorf("Partial content retained after failure: %q", got)
	}

	if _, err := a.Seal(); !errors.Is(err, ErrNoTurn) {
		t.Errorf("Seal after failure should return ErrNoTurn, got %v", err)
	}
}

func TestAccumulatorRejectsDeltasOutsideTurn(t *testing.T) {
	a := NewAccumulator()

	if _, err := a.AppendDelta("x"); !errors.Is(err, ErrNoTurn) {
		t.Errorf("Expected ErrNoTurn, got %v", err)
	}
	if _, err := a.Seal(); !errors.Is(err, ErrNoTurn) {
		t.Errorf("Expected ErrNoTurn, got %v", err)
	}
}

func TestAccumulatorEmptyDeltaStillSnapshots(t *testing.T) {
	a := NewAccumulator()
	a.Start()
	a.AppendDelta("abc")

	snap, err := a.AppendDelta("")
	if err != nil {
		t.Fatalf("AppendDelta failed: %v", err)
	}
	if snap.Content != "abc" {
		t.Errorf("Got %q, want %q", snap.Content, "abc")
	}
}

func TestProtocolErrorMessage(t *testing.T) {
	err := &ProtocolError{Message: "model unavailable"}
	if err.Error() != "stream: remote error: model unavailable" {
		t.Errorf("Got %q", err.Error())
	}
}
