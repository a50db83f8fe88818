package echoes

import (
	"context"
	"log"
	"sort"

	"github.com/thunderderder/echo/internal/cache"
	"github.com/thunderderder/echo/internal/models"
	"github.com/thunderderder/echo/internal/vector"
)

const (
	// Matches below this similarity are noise, not echoes.
	localMatchThreshold = 0.5
	// At most this many matches are kept per today note.
	localMatchLimit = 5
)

// LocalMatcher ranks history against today's notes entirely from cached
// vectors, with no remote call. It cannot compute embeddings, so notes whose
// vectors are absent or stale are silently left out; it is the degraded mode
// for running without an assistant backend, never a backfill source.
type LocalMatcher struct {
	cache *cache.Cache
}

// NewLocalMatcher creates a matcher over the given vector cache.
func NewLocalMatcher(c *cache.Cache) *LocalMatcher {
	return &LocalMatcher{cache: c}
}

// Match implements Matcher using cosine similarity over cached vectors.
func (m *LocalMatcher) Match(ctx context.Context, req models.MatchRequest) (*models.MatchResponse, error) {
	groups := make([]models.EchoGroup, 0, len(req.TodayNotes))

	for _, today := range req.TodayNotes {
		group := models.EchoGroup{TodayNote: today}

		todayVec := m.cachedVector(today)
		if todayVec == nil {
			groups = append(groups, group)
			continue
		}

		for _, hist := range req.HistoryNotes {
			if hist.Vector == nil {
				continue
			}
			sim, err := vector.CosineSimilarity(todayVec, hist.Vector)
			if err != nil {
				// A dimension mismatch fails this pair only; vectors from a
				// different embedding model are simply not comparable.
				log.Printf("echoes: skipping note %s: %v", hist.ID, err)
				continue
			}
			if sim < localMatchThreshold {
				continue
			}
			group.Matches = append(group.Matches, models.EchoMatch{
				HistoryNote: models.Note{ID: hist.ID, Content: hist.Content, CreatedAt: hist.CreatedAt},
				Similarity:  sim,
			})
		}

		sort.Slice(group.Matches, func(i, j int) bool {
			return group.Matches[i].Similarity > group.Matches[j].Similarity
		})
		if len(group.Matches) > localMatchLimit {
			group.Matches = group.Matches[:localMatchLimit]
		}

		groups = append(groups, group)
	}

	return &models.MatchResponse{Echoes: groups}, nil
}

func (m *LocalMatcher) cachedVector(n models.Note) []float32 {
	if m.cache.IsStale(n.ID, n.Content) {
		return nil
	}
	entry, err := m.cache.Get(n.ID)
	if err != nil || entry == nil {
		return nil
	}
	return entry.Vector
}
