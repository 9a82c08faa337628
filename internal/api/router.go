package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/tagnote/internal/noteservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Post("/notes", h.CreateNote)
	r.Get("/notes/{id}", h.GetNote)
	r.Delete("/notes/{id}", h.DeleteNote)

	// Tags.
	r.Get("/tags", h.ListTags)

	// Selection state.
	r.Get("/view", h.View)
	r.Post("/view/tag", h.SelectTag)
	r.Post("/view/search", h.Search)
	r.Delete("/view", h.ClearFilter)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
