package echoes

import (
	"context"
	"fmt"
	"testing"

	"github.com/thunderderder/echo/internal/cache"
	"github.com/thunderderder/echo/internal/models"
)

func TestLocalMatcherRanksByCosineSimilarity(t *testing.T) {
	c := cache.New(cache.NewMemoryKV())
	today := noteAt("t1", "today's note", "2024-01-05")
	c.Put("t1", []float32{1, 0}, "today's note", "m")

	req := models.MatchRequest{
		TodayNotes: []models.Note{today},
		HistoryNotes: []models.NoteWithVector{
			{ID: "h1", Content: "close", Vector: []float32{0.9, 0.1}},
			{ID: "h2", Content: "closer", Vector: []float32{1, 0}},
			{ID: "h3", Content: "orthogonal", Vector: []float32{0, 1}}, // below threshold
		},
	}

	resp, err := NewLocalMatcher(c).Match(context.Background(), req)
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if len(resp.Echoes) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(resp.Echoes))
	}
	matches := resp.Echoes[0].Matches
	if len(matches) != 2 {
		t.Fatalf("Expected 2 matches above threshold, got %d: %+v", len(matches), matches)
	}
	if matches[0].HistoryNote.ID != "h2" || matches[1].HistoryNote.ID != "h1" {
		t.Errorf("Wrong order: %s, %s", matches[0].HistoryNote.ID, matches[1].HistoryNote.ID)
	}
}

func TestLocalMatcherSkipsMismatchedDimensions(t *testing.T) {
	c := cache.New(cache.NewMemoryKV())
	today := noteAt("t1", "today", "2024-01-05")
	c.Put("t1", []float32{1, 0}, "today", "m")

	req := models.MatchRequest{
		TodayNotes: []models.Note{today},
		HistoryNotes: []models.NoteWithVector{
			{ID: "h1", Content: "other model", Vector: []float32{1, 0, 0}}, // wrong dimension
			{ID: "h2", Content: "same model", Vector: []float32{1, 0}},
		},
	}

	resp, err := NewLocalMatcher(c).Match(context.Background(), req)
	if err != nil {
		t.Fatalf("A mismatched pair must not fail the batch: %v", err)
	}

	matches := resp.Echoes[0].Matches
	if len(matches) != 1 || matches[0].HistoryNote.ID != "h2" {
		t.Errorf("Expected only the comparable pair, got %+v", matches)
	}
}

func TestLocalMatcherLimitsMatchesPerNote(t *testing.T) {
	c := cache.New(cache.NewMemoryKV())
	today := noteAt("t1", "today", "2024-01-05")
	c.Put("t1", []float32{1, 0}, "today", "m")

	var history []models.NoteWithVector
	for i := 0; i < localMatchLimit+3; i++ {
		history = append(history, models.NoteWithVector{
			ID:      fmt.Sprintf("h%d", i),
			Content: fmt.Sprintf("history %d", i),
			Vector:  []float32{1, 0},
		})
	}

	resp, err := NewLocalMatcher(c).Match(context.Background(), models.MatchRequest{
		TodayNotes:   []models.Note{today},
		HistoryNotes: history,
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if got := len(resp.Echoes[0].Matches); got != localMatchLimit {
		t.Errorf("Expected %d matches, got %d", localMatchLimit, got)
	}
}

func TestLocalMatcherWithoutTodayVector(t *testing.T) {
	c := cache.New(cache.NewMemoryKV())
	today := noteAt("t1", "never embedded", "2024-01-05")

	resp, err := NewLocalMatcher(c).Match(context.Background(), models.MatchRequest{
		TodayNotes: []models.Note{today},
		HistoryNotes: []models.NoteWithVector{
			{ID: "h1", Content: "history", Vector: []float32{1, 0}},
		},
	})
	if err != nil {
		t.Fatalf("Match failed: %v", err)
	}

	if len(resp.Echoes) != 1 || len(resp.Echoes[0].Matches) != 0 {
		t.Errorf("A today note without a vector yields an empty group, got %+v", resp.Echoes)
	}
}
