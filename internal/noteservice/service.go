// Package noteservice implements the note creation workflow and owns the
// in-memory collection together with its selection state.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/starford/tagnote/internal/apperr"
	"github.com/starford/tagnote/internal/collection"
	"github.com/starford/tagnote/internal/models"
	"github.com/starford/tagnote/internal/storage"
	"github.com/starford/tagnote/internal/suggest"
)

// Event kinds passed to EventCallback.
const (
	EventCreated  = "created"
	EventDeleted  = "deleted"
	EventReloaded = "reloaded"
)

// EventCallback is called after every applied collection mutation.
// id is empty for EventReloaded.
type EventCallback func(kind string, id string)

// ViewState is the current selection and the notes it makes visible.
type ViewState struct {
	Mode   collection.Mode `json:"mode"`
	Tag    string          `json:"tag,omitempty"`
	Search string          `json:"search,omitempty"`
	Notes  []models.Note   `json:"notes"`
}

// Service coordinates the collection, tag suggestion and storage.
//
// The collection has a single writer: every mutation happens under mu.
// The suggestion call runs outside the lock, so concurrent creations do not
// wait on each other's model latency.
type Service struct {
	store     storage.Provider
	suggester suggest.Suggester
	timeout   time.Duration
	logger    *slog.Logger
	onEvent   EventCallback
	now       func() time.Time
	newID     func() string

	mu        sync.Mutex
	notes     *collection.Collection
	selection collection.Selection
}

// Option configures a Service.
type Option func(*Service)

// WithTimeout bounds each suggestion call.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithEvents registers cb for collection changes.
func WithEvents(cb EventCallback) Option {
	return func(s *Service) { s.onEvent = cb }
}

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the note identifier source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// NewService creates a service and rehydrates the collection from store.
// An unreadable store yields an empty collection.
func NewService(store storage.Provider, suggester suggest.Suggester, opts ...Option) *Service {
	s := &Service{
		store:     store,
		suggester: suggester,
		timeout:   suggest.DefaultTimeout,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.suggester == nil {
		s.suggester = suggest.Disabled{}
	}
	s.notes = collection.New(storage.LoadOrEmpty(store, s.logger))
	return s
}

type createInput struct {
	Title   string
	Content string
}

// Validate requires a title or some content, ignoring surrounding whitespace.
func (in createInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Content,
			validation.When(in.Title == "", validation.Required.Error("note needs a title or some content")),
		),
	)
}

// CreateNote validates the input, asks for tag suggestions and prepends the
// new note to the collection, resetting the selection.
//
// A failed or slow suggestion never fails creation: the note is created with
// no tags. Validation errors wrap apperr.ErrValidation and have no side effects.
// If the snapshot cannot be saved the note is still returned, together with
// an error wrapping apperr.ErrPersistence.
func (s *Service) CreateNote(ctx context.Context, title, content string) (models.Note, error) {
	in := createInput{Title: strings.TrimSpace(title), Content: strings.TrimSpace(content)}
	if err := in.Validate(); err != nil {
		return models.Note{}, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}

	text := title + "\n\n" + content
	res := suggest.Attempt(ctx, s.suggester, text, s.timeout)
	switch {
	case errors.Is(res.Err, suggest.ErrDisabled):
		s.logger.Debug("tag suggestion disabled, creating note without tags")
	case !res.OK():
		s.logger.Warn("tag suggestion failed, creating note without tags",
			slog.String("error", res.Err.Error()),
			slog.Int("text_len", len(text)),
			slog.Duration("elapsed", res.Elapsed))
	default:
		s.logger.Debug("tags suggested",
			slog.Int("count", len(res.Tags)),
			slog.Duration("elapsed", res.Elapsed))
	}

	note := models.Note{
		ID:        s.newID(),
		Title:     title,
		Content:   content,
		Tags:      res.TagsOrEmpty(),
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	s.notes.Prepend(note)
	s.selection = s.selection.Reset()
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit(EventCreated, note.ID)
	return note, err
}

// DeleteNote removes the note with id. The selection is left untouched.
// Unknown ids return apperr.ErrNotFound. A failed save returns an error
// wrapping apperr.ErrPersistence; the note stays deleted in memory.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	if !s.notes.Delete(id) {
		s.mu.Unlock()
		return apperr.ErrNotFound
	}
	err := s.saveLocked()
	s.mu.Unlock()

	s.emit(EventDeleted, id)
	return err
}

// GetNote returns the note with id.
func (s *Service) GetNote(_ context.Context, id string) (models.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes.Get(id)
	if !ok {
		return models.Note{}, apperr.ErrNotFound
	}
	return n, nil
}

// List filters the collection without touching the stored selection.
// A non-empty tag takes precedence over query.
func (s *Service) List(_ context.Context, tag, query string) []models.Note {
	sel := collection.SearchSelection(query)
	if tag != "" {
		sel = collection.TagSelection(tag)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return collection.Visible(s.notes.All(), sel)
}

// Tags returns the distinct tags in the collection with their note counts.
func (s *Service) Tags(_ context.Context) []models.TagCount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notes.Tags()
}

// View returns the current selection and its visible notes.
func (s *Service) View(_ context.Context) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// SelectTag applies tag with toggle semantics and returns the new view.
func (s *Service) SelectTag(_ context.Context, tag string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = s.selection.SelectTag(tag)
	return s.viewLocked()
}

// Search sets the free-text filter; an empty term clears it.
func (s *Service) Search(_ context.Context, term string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = s.selection.Search(term)
	return s.viewLocked()
}

// ClearFilter returns the view to Unfiltered.
func (s *Service) ClearFilter(_ context.Context) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selection = s.selection.Reset()
	return s.viewLocked()
}

// Reload replaces the collection with the stored snapshot, e.g. after another
// process changed it. On load failure the current collection is kept.
// Load and Replace happen under one lock so a concurrent mutation is either
// part of the loaded snapshot or applied after it.
func (s *Service) Reload(_ context.Context) error {
	s.mu.Lock()
	notes, err := s.store.Load()
	if err != nil {
		s.mu.Unlock()
		s.logger.Warn("reload failed, keeping in-memory notes", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	s.notes.Replace(notes)
	s.mu.Unlock()

	s.logger.Info("notes reloaded from storage", slog.Int("count", len(notes)))
	s.emit(EventReloaded, "")
	return nil
}

func (s *Service) viewLocked() ViewState {
	return ViewState{
		Mode:   s.selection.Mode(),
		Tag:    s.selection.Tag(),
		Search: s.selection.Term(),
		Notes:  collection.Visible(s.notes.All(), s.selection),
	}
}

// saveLocked writes the whole collection. In-memory state stays authoritative
// when the write fails.
func (s *Service) saveLocked() error {
	if err := s.store.Save(s.notes.All()); err != nil {
		s.logger.Error("save failed, in-memory notes remain authoritative", slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", apperr.ErrPersistence, err)
	}
	return nil
}

func (s *Service) emit(kind, id string) {
	if s.onEvent != nil {
		s.onEvent(kind, id)
	}
}
