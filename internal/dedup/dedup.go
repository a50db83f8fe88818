// Package dedup collapses notes that carry identical content into a single
// representative. The same rule runs twice per echo request: once before
// history is sent to the matching service (so redundant vectors are never paid
// for) and once over the returned matches (two ids can share content after
// edits or re-entries). Both passes must agree on the representative, so both
// use the rule below: the note with the latest CreatedAt wins, and on an exact
// timestamp tie the earlier-seen note is kept.
package dedup

import "github.com/thunderderder/echo/internal/models"

// Collapse returns one note per distinct content. Order of the result is not
// significant beyond "one representative per content".
func Collapse(notes []models.Note) []models.Note {
	byContent := make(map[string]int, len(notes))
	out := make([]models.Note, 0, len(notes))

	for _, n := range notes {
		idx, seen := byContent[n.Content]
		if !seen {
			byContent[n.Content] = len(out)
			out = append(out, n)
			continue
		}
		if n.CreatedAt.After(out[idx].CreatedAt) {
			out[idx] = n
		}
	}
	return out
}

// CollapseMatches applies the identical rule to a rendered match list, keeping
// the highest similarity seen for the surviving note so a duplicate's stronger
// score is not lost.
func CollapseMatches(matches []models.EchoMatch) []models.EchoMatch {
	byContent := make(map[string]int, len(matches))
	out := make([]models.EchoMatch, 0, len(matches))

	for _, m := range matches {
		idx, seen := byContent[m.HistoryNote.Content]
		if !seen {
			byContent[m.HistoryNote.Content] = len(out)
			out = append(out, m)
			continue
		}
		if m.HistoryNote.CreatedAt.After(out[idx].HistoryNote.CreatedAt) {
			sim := out[idx].Similarity
			out[idx] = m
			if sim > out[idx].Similarity {
				out[idx].Similarity = sim
			}
		} else if m.Similarity > out[idx].Similarity {
			out[idx].Similarity = m.Similarity
		}
	}
	return out
}
