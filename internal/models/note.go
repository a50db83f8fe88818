package models

import "time"

// Note is a single journal entry. Identity is the ID; deduplication compares
// Content, not IDs, because edits and re-entries can produce distinct IDs
// carrying the same text.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteWithVector is a history note sent to the matching service, carrying its
// cached embedding when one is available. A nil Vector asks the remote side to
// compute it.
type NoteWithVector struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Vector    []float32 `json:"vector,omitempty"`
}

// ComputedVector is an embedding the matching service computed for a note the
// client did not supply one for. It must be written back to the local cache
// exactly once.
type ComputedVector struct {
	NoteID string    `json:"noteId"`
	Vector []float32 `json:"vector"`
	Model  string    `json:"model"`
}

// EchoMatch links one history note to a today note with its cosine similarity,
// in [0,1].
type EchoMatch struct {
	HistoryNote Note    `json:"historyNote"`
	Similarity  float64 `json:"similarity"`
}

// EchoGroup collects all matches for a single today note.
type EchoGroup struct {
	TodayNote Note        `json:"todayNote"`
	Matches   []EchoMatch `json:"matches"`
}

// MatchRequest is the payload for the matching collaborator.
type MatchRequest struct {
	TodayNotes   []Note           `json:"todayNotes"`
	HistoryNotes []NoteWithVector `json:"historyNotes"`
}

// MatchResponse is what the matching collaborator returns: echo groups, an
// opaque summary paragraph, and any vectors it had to compute server-side.
type MatchResponse struct {
	Echoes          []EchoGroup      `json:"echoes"`
	Summary         string           `json:"summary"`
	ComputedVectors []ComputedVector `json:"computedVectors,omitempty"`
}

// InsightResult holds the guiding question for a day's notes. Thinking is
// opaque model state forwarded verbatim on later conversation turns.
type InsightResult struct {
	Question string `json:"question"`
	Thinking string `json:"thinking"`
}

// ConversationTurn is one prior message in a follow-up conversation.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationRequest is the payload for the conversation collaborator.
type ConversationRequest struct {
	Notes           []Note             `json:"notes"`
	InitialQuestion string             `json:"initialQuestion"`
	Thinking        string             `json:"thinking"`
	PriorTurns      []ConversationTurn `json:"priorTurns"`
	CurrentMessage  string             `json:"currentMessage"`
}
