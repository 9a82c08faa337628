package api

import (
	"github.com/starford/tagnote/internal/models"
	"github.com/starford/tagnote/internal/noteservice"
)

// CreateNoteRequest is the request body for creating a note.
// At least one of Title or Content must be non-blank.
type CreateNoteRequest struct {
	Title   string `json:"title" example:"Groceries"`
	Content string `json:"content" example:"milk, eggs"`
}

// SelectTagRequest is the request body for toggling the active tag.
type SelectTagRequest struct {
	Tag string `json:"tag" example:"shopping" validate:"required"`
}

// SearchRequest is the request body for setting the search term.
type SearchRequest struct {
	Term string `json:"term" example:"milk"`
}

// NoteListResponse wraps a filtered note listing.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// TagListResponse wraps the distinct tags.
type TagListResponse struct {
	Tags []models.TagCount `json:"tags" validate:"required"`
}

// ViewResponse is the current selection and its visible notes.
type ViewResponse = noteservice.ViewState
