package collection

import "github.com/starford/tagnote/internal/models"

// Collection is an ordered, newest-first list of notes.
// It is not safe for concurrent use; its owner is the single writer.
type Collection struct {
	notes []models.Note
}

// New returns a collection holding notes in the given order.
func New(notes []models.Note) *Collection {
	c := &Collection{}
	c.Replace(notes)
	return c
}

// Len returns the number of notes.
func (c *Collection) Len() int { return len(c.notes) }

// All returns a copy of the notes in collection order.
func (c *Collection) All() []models.Note {
	out := make([]models.Note, len(c.notes))
	copy(out, c.notes)
	return out
}

// Replace swaps the whole contents, e.g. after a reload from storage.
func (c *Collection) Replace(notes []models.Note) {
	c.notes = make([]models.Note, len(notes))
	copy(c.notes, notes)
}

// Prepend inserts n as the first element.
func (c *Collection) Prepend(n models.Note) {
	c.notes = append([]models.Note{n}, c.notes...)
}

// Get returns the note with the given id.
func (c *Collection) Get(id string) (models.Note, bool) {
	for _, n := range c.notes {
		if n.ID == id {
			return n, true
		}
	}
	return models.Note{}, false
}

// Delete removes the note with the given id and reports whether it existed.
// The relative order of the remaining notes is unchanged.
func (c *Collection) Delete(id string) bool {
	for i, n := range c.notes {
		if n.ID == id {
			c.notes = append(c.notes[:i:i], c.notes[i+1:]...)
			return true
		}
	}
	return false
}

// Tags returns every distinct tag with its note count, in first-seen order.
func (c *Collection) Tags() []models.TagCount {
	idx := make(map[string]int)
	out := []models.TagCount{}
	for _, n := range c.notes {
		seen := make(map[string]struct{}, len(n.Tags))
		for _, t := range n.Tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			if i, ok := idx[t]; ok {
				out[i].Count++
				continue
			}
			idx[t] = len(out)
			out = append(out, models.TagCount{Name: t, Count: 1})
		}
	}
	return out
}
