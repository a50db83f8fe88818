package stream

import (
	"errors"
	"strings"
)

// State is the explicit lifecycle of the one in-flight assistant message.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateSealed
	StateFailed
)

var (
	// ErrTurnInProgress is returned when a new turn is started while a
	// previous one is still streaming. Callers must queue or reject, never
	// interleave.
	ErrTurnInProgress = errors.New("stream: turn already in progress")

	// ErrNoTurn is returned when deltas or seals arrive without an open turn.
	ErrNoTurn = errors.New("stream: no turn in progress")
)

// ProtocolError is an explicit ERROR frame from the producer. The partial
// message has already been discarded by the time callers see this.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return "stream: remote error: " + e.Message
}

// Message is a snapshot of the streaming assistant reply. While Sealed is
// false the content may still grow; once sealed it is final.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Sealed  bool   `json:"sealed"`
}

// Accumulator owns the single in-flight streaming message for a conversation
// turn. It consumes the ordered delta sequence produced by Parser and decides
// when the message is complete. Not safe for concurrent use; the streaming
// path is single-goroutine by design.
type Accumulator struct {
	state   State
	partial strings.Builder
	final   string
}

// NewAccumulator returns an accumulator in the Idle state.
func NewAccumulator() *Accumulator {
	return &Accumulator{state: StateIdle}
}

// State returns the current lifecycle state.
func (a *Accumulator) State() State {
	return a.state
}

// Start opens a new turn. It fails if a previous turn is still streaming; a
// sealed or failed turn is reset.
func (a *Accumulator) Start() error {
	if a.state == StateStreaming {
		return ErrTurnInProgress
	}
	a.state = StateStreaming
	a.partial.Reset()
	a.final = ""
	return nil
}

// AppendDelta appends one decoded text delta and returns the updated, still
// unsealed snapshot. An empty delta is legal and still produces a snapshot.
func (a *Accumulator) AppendDelta(delta string) (Message, error) {
	if a.state != StateStreaming {
		return Message{}, ErrNoTurn
	}
	a.partial.WriteString(delta)
	return Message{Role: "assistant", Content: a.partial.String()}, nil
}

// Seal finalizes the in-flight message on a DONE frame. Incidental leading and
// trailing whitespace is trimmed exactly once, here and nowhere else.
func (a *Accumulator) Seal() (string, error) {
	if a.state != StateStreaming {
		return "", ErrNoTurn
	}
	a.final = strings.TrimSpace(a.partial.String())
	a.partial.Reset()
	a.state = StateSealed
	return a.final, nil
}

// Fail discards the in-flight message entirely. Used for both ERROR frames and
// transport aborts; no partial content survives either way.
func (a *Accumulator) Fail() {
	a.partial.Reset()
	a.final = ""
	a.state = StateFailed
}

// Message returns the current snapshot: the sealed text after Seal, the
// growing partial while streaming, and an empty message otherwise.
func (a *Accumulator) Message() Message {
	switch a.state {
	case StateSealed:
		return Message{Role: "assistant", Content: a.final, Sealed: true}
	case StateStreaming:
		return Message{Role: "assistant", Content: a.partial.String()}
	default:
		return Message{Role: "assistant"}
	}
}
