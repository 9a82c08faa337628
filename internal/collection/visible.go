package collection

import (
	"strings"

	"github.com/starford/tagnote/internal/models"
)

// Visible returns the subset of notes matching sel, preserving collection order.
//
// ByTag keeps notes carrying the exact tag. BySearch keeps notes whose title,
// content or any tag contains the term, compared case-insensitively.
// Unfiltered returns every note.
func Visible(notes []models.Note, sel Selection) []models.Note {
	switch sel.Mode() {
	case ByTag:
		return filter(notes, func(n models.Note) bool { return n.HasTag(sel.tag) })
	case BySearch:
		term := strings.ToLower(sel.term)
		return filter(notes, func(n models.Note) bool { return matches(n, term) })
	default:
		out := make([]models.Note, len(notes))
		copy(out, notes)
		return out
	}
}

// matches reports whether the lowercased term occurs in the note.
func matches(n models.Note, term string) bool {
	if strings.Contains(strings.ToLower(n.Title), term) ||
		strings.Contains(strings.ToLower(n.Content), term) {
		return true
	}
	for _, t := range n.Tags {
		if strings.Contains(strings.ToLower(t), term) {
			return true
		}
	}
	return false
}

func filter(notes []models.Note, keep func(models.Note) bool) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
