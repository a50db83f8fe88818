package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/thunderderder/echo/internal/models"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	tmpFile := t.TempDir() + "/test.duckdb"
	store, err := NewStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store
}

func TestNewStore(t *testing.T) {
	tmpFile := t.TempDir() + "/test.duckdb"

	store, err := NewStore(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(tmpFile); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestInsertNote(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	t.Run("generates ID and CreatedAt", func(t *testing.T) {
		n := &models.Note{Content: "Test content"}

		if err := store.InsertNote(ctx, n); err != nil {
			t.Fatalf("Failed to insert note: %v", err)
		}

		if n.ID == "" {
			t.Error("ID was not generated")
		}
		if n.CreatedAt.IsZero() {
			t.Error("CreatedAt was not set")
		}
	})

	t.Run("preserves fields on round-trip", func(t *testing.T) {
		createdAt := time.Now().Add(-2 * time.Hour).Truncate(time.Microsecond)
		n := &models.Note{
			Content:   "A full note with 中文 and newlines\nacross lines",
			CreatedAt: createdAt,
		}

		if err := store.InsertNote(ctx, n); err != nil {
			t.Fatalf("Failed to insert: %v", err)
		}

		retrieved, err := store.GetNote(ctx, n.ID)
		if err != nil {
			t.Fatalf("Failed to retrieve: %v", err)
		}
		if retrieved.Content != n.Content {
			t.Errorf("Content: got %q, want %q", retrieved.Content, n.Content)
		}
		if !retrieved.CreatedAt.Equal(createdAt) {
			t.Errorf("CreatedAt: got %v, want %v", retrieved.CreatedAt, createdAt)
		}
	})
}

func TestGetNote(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	if _, err := store.GetNote(context.Background(), "non-existent-id"); err == nil {
		t.Error("Expected error for non-existent note")
	}
}

func TestUpdateNoteContent(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	t.Run("updates and persists", func(t *testing.T) {
		n := &models.Note{Content: "before edit"}
		store.InsertNote(ctx, n)

		if err := store.UpdateNoteContent(ctx, n.ID, "after edit"); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		retrieved, _ := store.GetNote(ctx, n.ID)
		if retrieved.Content != "after edit" {
			t.Errorf("Content: got %q", retrieved.Content)
		}
	})

	t.Run("returns error for non-existent note", func(t *testing.T) {
		if err := store.UpdateNoteContent(ctx, "non-existent", "x"); err == nil {
			t.Error("Expected error for non-existent note")
		}
	})
}

func TestDeleteNote(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	t.Run("deletes and note is gone", func(t *testing.T) {
		n := &models.Note{Content: "Test"}
		store.InsertNote(ctx, n)

		if err := store.DeleteNote(ctx, n.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := store.GetNote(ctx, n.ID); err == nil {
			t.Error("Note should not exist after deletion")
		}
	})

	t.Run("returns error for non-existent note", func(t *testing.T) {
		if err := store.DeleteNote(ctx, "non-existent"); err == nil {
			t.Error("Expected error for non-existent note")
		}
	})
}

func TestListNotesByDate(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	ctx := context.Background()

	day := time.Date(2024, 3, 10, 9, 0, 0, 0, time.Local)
	notes := []*models.Note{
		{Content: "morning", CreatedAt: day},
		{Content: "evening", CreatedAt: day.Add(10 * time.Hour)},
		{Content: "other day", CreatedAt: day.AddDate(0, 0, -3)},
	}
	for _, n := range notes {
		if err := store.InsertNote(ctx, n); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	t.Run("filters to the calendar date, oldest first", func(t *testing.T) {
		results, err := store.ListNotesByDate(ctx, "2024-03-10")
		if err != nil {
			t.Fatalf("ListNotesByDate failed: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("Expected 2 notes, got %d", len(results))
		}
		if results[0].Content != "morning" || results[1].Content != "evening" {
			t.Errorf("Wrong order: %v, %v", results[0].Content, results[1].Content)
		}
	})

	t.Run("rejects malformed dates", func(t *testing.T) {
		if _, err := store.ListNotesByDate(ctx, "03/10/2024"); err == nil {
			t.Error("Expected error for malformed date")
		}
	})

	t.Run("ListNotes returns everything newest first", func(t *testing.T) {
		results, err := store.ListNotes(ctx)
		if err != nil {
			t.Fatalf("ListNotes failed: %v", err)
		}
		if len(results) != 3 {
			t.Fatalf("Expected 3 notes, got %d", len(results))
		}
		if results[0].Content != "evening" {
			t.Errorf("Expected newest first, got %q", results[0].Content)
		}
	})
}

func TestKV(t *testing.T) {
	store := setupTestStore(t)
	defer store.Close()

	t.Run("missing key", func(t *testing.T) {
		_, ok, err := store.Get("vec:none")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("Expected missing key")
		}
	})

	t.Run("set, get, overwrite", func(t *testing.T) {
		if err := store.Set("vec:n1", []byte(`{"a":1}`)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		value, ok, err := store.Get("vec:n1")
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if string(value) != `{"a":1}` {
			t.Errorf("Value: got %s", value)
		}

		if err := store.Set("vec:n1", []byte(`{"a":2}`)); err != nil {
			t.Fatalf("Overwrite failed: %v", err)
		}
		value, _, _ = store.Get("vec:n1")
		if string(value) != `{"a":2}` {
			t.Errorf("Overwritten value: got %s", value)
		}
	})

	t.Run("delete", func(t *testing.T) {
		store.Set("vec:n2", []byte("x"))
		if err := store.Delete("vec:n2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		_, ok, _ := store.Get("vec:n2")
		if ok {
			t.Error("Key survived delete")
		}
		if err := store.Delete("vec:n2"); err != nil {
			t.Errorf("Deleting missing key should not error: %v", err)
		}
	})
}
