// Package echoes orchestrates the round trip to the matching collaborator:
// attach cached vectors, receive echoes plus any vectors the remote side had
// to compute, and write those back before anyone consumes the result.
package echoes

import (
	"context"
	"fmt"
	"log"

	"github.com/thunderderder/echo/internal/cache"
	"github.com/thunderderder/echo/internal/dedup"
	"github.com/thunderderder/echo/internal/models"
)

// Matcher is the remote matching collaborator.
type Matcher interface {
	Match(ctx context.Context, req models.MatchRequest) (*models.MatchResponse, error)
}

// Result is what callers receive once every vector write-back has succeeded.
type Result struct {
	Echoes  []models.EchoGroup `json:"echoes"`
	Summary string             `json:"summary"`
}

// Coordinator drives one echo request at a time. Concurrent requests are not
// pipelined: callers must not re-trigger until the prior request resolves,
// which keeps the cache single-writer per note id.
type Coordinator struct {
	cache   *cache.Cache
	matcher Matcher
}

// NewCoordinator wires the vector cache to the matching collaborator.
func NewCoordinator(c *cache.Cache, m Matcher) *Coordinator {
	return &Coordinator{cache: c, matcher: m}
}

// FindEchoes deduplicates history, sends it with any fresh cached vectors,
// writes back vectors the remote side computed, and only then returns the
// echoes. If the remote call fails, the cache is left exactly as it was.
func (co *Coordinator) FindEchoes(ctx context.Context, today, history []models.Note) (*Result, error) {
	if len(history) == 0 {
		// Nothing to match against; not an error.
		return &Result{}, nil
	}

	deduped := dedup.Collapse(history)

	withVectors := make([]models.NoteWithVector, len(deduped))
	missing := 0
	for i, n := range deduped {
		nv := models.NoteWithVector{ID: n.ID, Content: n.Content, CreatedAt: n.CreatedAt}
		if !co.cache.IsStale(n.ID, n.Content) {
			entry, err := co.cache.Get(n.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to read vector cache: %w", err)
			}
			if entry != nil {
				nv.Vector = entry.Vector
			}
		}
		if nv.Vector == nil {
			missing++
		}
		withVectors[i] = nv
	}

	log.Printf("echoes: matching %d today notes against %d history notes (%d need backfill)",
		len(today), len(deduped), missing)

	resp, err := co.matcher.Match(ctx, models.MatchRequest{
		TodayNotes:   today,
		HistoryNotes: withVectors,
	})
	if err != nil {
		// No cache mutation has happened yet; surface one aggregate error.
		return nil, fmt.Errorf("echo matching failed: %w", err)
	}

	// Write back every computed vector before forwarding echoes. Content is
	// resolved from the deduplicated set so the stored fingerprint matches
	// what was actually embedded.
	contentByID := make(map[string]string, len(deduped))
	for _, n := range deduped {
		contentByID[n.ID] = n.Content
	}
	for _, cv := range resp.ComputedVectors {
		content, ok := contentByID[cv.NoteID]
		if !ok {
			log.Printf("echoes: dropping computed vector for unknown note %s", cv.NoteID)
			continue
		}
		if err := co.cache.Put(cv.NoteID, cv.Vector, content, cv.Model); err != nil {
			return nil, fmt.Errorf("failed to store computed vector for note %s: %w", cv.NoteID, err)
		}
	}

	// Render-time dedup: matches reference notes by id, and distinct ids can
	// still carry identical content.
	groups := make([]models.EchoGroup, len(resp.Echoes))
	for i, g := range resp.Echoes {
		groups[i] = models.EchoGroup{
			TodayNote: g.TodayNote,
			Matches:   dedup.CollapseMatches(g.Matches),
		}
	}

	return &Result{Echoes: groups, Summary: resp.Summary}, nil
}
