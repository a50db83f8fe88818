package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/thunderderder/echo/internal/models"
	"github.com/thunderderder/echo/internal/stream"
)

// CreateNoteRequest represents the request body for recording a note
type CreateNoteRequest struct {
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt,omitempty"`
}

// UpdateNoteRequest represents the request body for editing a note
type UpdateNoteRequest struct {
	Content string `json:"content"`
}

// DayRequest selects a calendar date; empty means today.
type DayRequest struct {
	Date string `json:"date,omitempty"`
}

// ConversationAPIRequest represents the request body for a conversation turn
type ConversationAPIRequest struct {
	Date            string                    `json:"date,omitempty"`
	InitialQuestion string                    `json:"initialQuestion"`
	Thinking        string                    `json:"thinking,omitempty"`
	PriorTurns      []models.ConversationTurn `json:"priorTurns,omitempty"`
	CurrentMessage  string                    `json:"currentMessage"`
}

// resolveDate defaults an empty date to today and validates the format.
func resolveDate(date string) (string, error) {
	if date == "" {
		return time.Now().Format("2006-01-02"), nil
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", fmt.Errorf("invalid date %q, use YYYY-MM-DD", date)
	}
	return date, nil
}

// handleCreateNote records a new note
func (s *Server) handleCreateNote(w http.ResponseWriter, r *http.Request) {
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if req.Content == "" {
		errorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	note := &models.Note{Content: req.Content}
	if req.CreatedAt != "" {
		t, err := time.Parse(time.RFC3339, req.CreatedAt)
		if err != nil {
			errorResponse(w, http.StatusBadRequest, "invalid createdAt format, use ISO 8601")
			return
		}
		note.CreatedAt = t
	}

	if err := s.store.InsertNote(r.Context(), note); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to store note: "+err.Error())
		return
	}

	successResponse(w, map[string]interface{}{
		"success": true,
		"note":    note,
	})
}

// handleListNotes returns all notes, or one day's notes when ?date= is set
func (s *Server) handleListNotes(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")

	var (
		notes []models.Note
		err   error
	)
	if date != "" {
		notes, err = s.store.ListNotesByDate(r.Context(), date)
	} else {
		notes, err = s.store.ListNotes(r.Context())
	}
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to list notes: "+err.Error())
		return
	}

	successResponse(w, map[string]interface{}{
		"notes": notes,
		"count": len(notes),
	})
}

// handleUpdateNote edits a note's content. The cached vector for the note is
// dropped so the next echo lookup recomputes it.
func (s *Server) handleUpdateNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "id")
	if noteID == "" {
		errorResponse(w, http.StatusBadRequest, "note id is required")
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Content == "" {
		errorResponse(w, http.StatusBadRequest, "content is required")
		return
	}

	if err := s.store.UpdateNoteContent(r.Context(), noteID, req.Content); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to update note: "+err.Error())
		return
	}

	if err := s.cache.Delete(noteID); err != nil {
		// The fingerprint check catches the stale entry either way.
		fmt.Fprintf(os.Stderr, "Warning: failed to drop cached vector for %s: %v\n", noteID, err)
	}

	successResponse(w, map[string]interface{}{
		"success": true,
		"message": "Note updated successfully",
	})
}

// handleDeleteNote removes a note and its cached vector
func (s *Server) handleDeleteNote(w http.ResponseWriter, r *http.Request) {
	noteID := chi.URLParam(r, "id")
	if noteID == "" {
		errorResponse(w, http.StatusBadRequest, "note id is required")
		return
	}

	if err := s.store.DeleteNote(r.Context(), noteID); err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to delete note: "+err.Error())
		return
	}

	if err := s.cache.Delete(noteID); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to drop cached vector for %s: %v\n", noteID, err)
	}

	successResponse(w, map[string]interface{}{
		"success": true,
		"message": "Note deleted successfully",
	})
}

// handleTranscribe relays an uploaded recording to the transcription backend
func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		errorResponse(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		errorResponse(w, http.StatusBadRequest, "uploaded recording is empty")
		return
	}

	text, err := s.transcriber.Transcribe(r.Context(), header.Filename,
		header.Header.Get("Content-Type"), file)
	if err != nil {
		errorResponse(w, http.StatusBadGateway, "Transcription failed: "+err.Error())
		return
	}

	successResponse(w, map[string]string{"text": text})
}

// handleInsight returns the guiding question for one day's notes
func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	// An empty or absent body selects today.
	var req DayRequest
	json.NewDecoder(r.Body).Decode(&req)

	date, err := resolveDate(req.Date)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := s.store.ListNotesByDate(r.Context(), date)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to load notes: "+err.Error())
		return
	}
	if len(notes) == 0 {
		errorResponse(w, http.StatusBadRequest, "no notes recorded for "+date)
		return
	}

	result, err := s.insighter.Insight(r.Context(), notes, date)
	if err != nil {
		errorResponse(w, http.StatusBadGateway, "Insight failed: "+err.Error())
		return
	}

	successResponse(w, result)
}

// handleEchoes finds past notes that resonate with one day's notes
func (s *Server) handleEchoes(w http.ResponseWriter, r *http.Request) {
	var req DayRequest
	json.NewDecoder(r.Body).Decode(&req)

	date, err := resolveDate(req.Date)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	todayNotes, err := s.store.ListNotesByDate(r.Context(), date)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to load notes: "+err.Error())
		return
	}
	if len(todayNotes) == 0 {
		errorResponse(w, http.StatusBadRequest, "no notes recorded for "+date)
		return
	}

	all, err := s.store.ListNotes(r.Context())
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to load history: "+err.Error())
		return
	}

	todayIDs := make(map[string]bool, len(todayNotes))
	for _, n := range todayNotes {
		todayIDs[n.ID] = true
	}
	var history []models.Note
	for _, n := range all {
		if !todayIDs[n.ID] {
			history = append(history, n)
		}
	}

	result, err := s.coordinator.FindEchoes(r.Context(), todayNotes, history)
	if err != nil {
		errorResponse(w, http.StatusBadGateway, "Echo lookup failed: "+err.Error())
		return
	}

	successResponse(w, result)
}

// handleConversation relays a conversation turn, re-framing backend deltas as
// an event stream for the browser.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	var req ConversationAPIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.CurrentMessage == "" {
		errorResponse(w, http.StatusBadRequest, "currentMessage is required")
		return
	}

	date, err := resolveDate(req.Date)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	notes, err := s.store.ListNotesByDate(r.Context(), date)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "Failed to load notes: "+err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		errorResponse(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	convReq := models.ConversationRequest{
		Notes:           notes,
		InitialQuestion: req.InitialQuestion,
		Thinking:        req.Thinking,
		PriorTurns:      req.PriorTurns,
		CurrentMessage:  req.CurrentMessage,
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	streamed := false
	reply, err := s.converser.Converse(r.Context(), convReq, func(delta string) {
		streamed = true
		fmt.Fprint(w, stream.EncodeData(delta))
		flusher.Flush()
	})
	if err != nil {
		fmt.Fprint(w, stream.EncodeError(err.Error()))
		flusher.Flush()
		return
	}

	// JSON-mode backends return the whole reply at once; forward it as a
	// single frame so the client sees one wire shape.
	if !streamed && reply != "" {
		fmt.Fprint(w, stream.EncodeData(reply))
	}
	fmt.Fprint(w, stream.EncodeDone())
	flusher.Flush()
}

// handleGetStatus returns system status
func (s *Server) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountNotes(r.Context())

	successResponse(w, map[string]interface{}{
		"status":         "operational",
		"note_count":     count,
		"database_ready": err == nil,
	})
}
