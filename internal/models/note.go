// Package models defines the domain types for tagnote.
package models

import "time"

// Note is a user-authored title/content pair with suggested tags.
// Notes are immutable once created; the collection only prepends and deletes.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// HasTag reports whether tag is one of the note's tags (exact, case-sensitive).
func (n Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagCount is a distinct tag and the number of notes carrying it.
type TagCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}
