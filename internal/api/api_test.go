package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/starford/tagnote/internal/collection"
	"github.com/starford/tagnote/internal/models"
	"github.com/starford/tagnote/internal/noteservice"
	"github.com/starford/tagnote/internal/suggest"
	"github.com/starford/tagnote/internal/testutil"
)

// keywordSuggester tags notes mentioning milk as shopping and gym notes as fitness.
var keywordSuggester = suggest.Func(func(_ context.Context, text string) ([]string, error) {
	switch {
	case bytes.Contains([]byte(text), []byte("milk")):
		return []string{"errands", "shopping"}, nil
	case bytes.Contains([]byte(text), []byte("Gym")):
		return []string{"fitness"}, nil
	}
	return nil, errors.New("model unavailable")
})

// testEnv sets up a temp store, service, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*noteservice.Service, http.Handler) {
	t.Helper()
	svc, _ := testutil.TestService(t, keywordSuggester)
	return svc, NewRouter(svc, authToken != "", authToken, nil)
}

func do(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createNote(t *testing.T, router http.Handler, title, content string) models.Note {
	t.Helper()
	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Title: title, Content: content})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var note models.Note
	if err := json.Unmarshal(w.Body.Bytes(), &note); err != nil {
		t.Fatal(err)
	}
	return note
}

func TestCreateAndGetNote(t *testing.T) {
	_, router := testEnv(t, "")

	note := createNote(t, router, "", "Buy milk")
	if note.ID == "" {
		t.Error("id is empty")
	}
	if len(note.Tags) != 2 || note.Tags[0] != "errands" || note.Tags[1] != "shopping" {
		t.Errorf("tags = %v, want [errands shopping]", note.Tags)
	}

	w := do(t, router, http.MethodGet, "/notes/"+note.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var got models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &got)
	if got.ID != note.ID || got.Content != "Buy milk" {
		t.Errorf("got %+v", got)
	}
}

func TestCreateNote_SuggestionFailureStillCreates(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Title: "T", Content: "C"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	var raw map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
		t.Fatal(err)
	}
	tags, ok := raw["tags"].([]any)
	if !ok {
		t.Fatalf("tags = %#v, want a JSON array", raw["tags"])
	}
	if len(tags) != 0 {
		t.Errorf("tags = %v, want empty", tags)
	}
	for _, key := range []string{"id", "title", "content", "createdAt"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("missing %q in %s", key, w.Body.String())
		}
	}
}

func TestCreateNote_Validation(t *testing.T) {
	_, router := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Title: "  ", Content: "\n"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("blank note = %d, want 400", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewReader([]byte("{")))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid JSON = %d, want 400", w.Code)
	}

	w = do(t, router, http.MethodGet, "/notes", nil)
	var list NoteListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if list.Total != 0 {
		t.Errorf("total = %d after rejected creates, want 0", list.Total)
	}
}

// readOnlyStore loads nothing and refuses every save.
type readOnlyStore struct{}

func (readOnlyStore) Load() ([]models.Note, error) { return nil, nil }
func (readOnlyStore) Save([]models.Note) error     { return errors.New("disk full") }
func (readOnlyStore) Close() error                 { return nil }

func TestPersistenceWarningHeader(t *testing.T) {
	svc := noteservice.NewService(readOnlyStore{}, suggest.Disabled{}, noteservice.WithLogger(testutil.Logger()))
	router := NewRouter(svc, false, "", nil)

	w := do(t, router, http.MethodPost, "/notes", CreateNoteRequest{Title: "kept in memory"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", w.Code)
	}
	if w.Header().Get(persistenceWarningHeader) == "" {
		t.Error("missing persistence warning header")
	}
	var note models.Note
	_ = json.Unmarshal(w.Body.Bytes(), &note)

	w = do(t, router, http.MethodGet, "/notes/"+note.ID, nil)
	if w.Code != http.StatusOK {
		t.Errorf("note not kept in memory: %d", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNoContent || w.Header().Get(persistenceWarningHeader) == "" {
		t.Errorf("delete = %d, header = %q", w.Code, w.Header().Get(persistenceWarningHeader))
	}
}

func TestListNotes_Filters(t *testing.T) {
	_, router := testEnv(t, "")

	gym := createNote(t, router, "Gym", "leg day")
	groceries := createNote(t, router, "Groceries", "milk, eggs")

	tests := []struct {
		target string
		want   []string
	}{
		{"/notes", []string{groceries.ID, gym.ID}},
		{"/notes?q=MILK", []string{groceries.ID}},
		{"/notes?tag=fitness", []string{gym.ID}},
		{"/notes?tag=Fitness", []string{}},
		{"/notes?tag=fitness&q=milk", []string{gym.ID}},
		{"/notes?q=shop", []string{groceries.ID}},
	}
	for _, tt := range tests {
		w := do(t, router, http.MethodGet, tt.target, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", tt.target, w.Code)
		}
		var resp NoteListResponse
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		if resp.Total != len(tt.want) || len(resp.Notes) != len(tt.want) {
			t.Errorf("%s total = %d, want %d", tt.target, resp.Total, len(tt.want))
			continue
		}
		for i, id := range tt.want {
			if resp.Notes[i].ID != id {
				t.Errorf("%s note %d = %s, want %s", tt.target, i, resp.Notes[i].ID, id)
			}
		}
	}
}

func TestDeleteNote(t *testing.T) {
	_, router := testEnv(t, "")
	note := createNote(t, router, "bye", "gone")

	w := do(t, router, http.MethodDelete, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("delete = %d, want 204", w.Code)
	}

	w = do(t, router, http.MethodGet, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", w.Code)
	}

	w = do(t, router, http.MethodDelete, "/notes/"+note.ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete = %d, want 404", w.Code)
	}
}

func TestListTags(t *testing.T) {
	_, router := testEnv(t, "")
	createNote(t, router, "Gym", "")
	createNote(t, router, "", "milk")
	createNote(t, router, "", "more milk")

	w := do(t, router, http.MethodGet, "/tags", nil)
	var resp TagListResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	want := []models.TagCount{{Name: "errands", Count: 2}, {Name: "shopping", Count: 2}, {Name: "fitness", Count: 1}}
	if len(resp.Tags) != len(want) {
		t.Fatalf("tags = %+v", resp.Tags)
	}
	for i := range want {
		if resp.Tags[i] != want[i] {
			t.Errorf("tag %d = %+v, want %+v", i, resp.Tags[i], want[i])
		}
	}
}

func view(t *testing.T, w *httptest.ResponseRecorder) ViewResponse {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("view status = %d, body = %s", w.Code, w.Body.String())
	}
	var v ViewResponse
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatal(err)
	}
	return v
}

func TestViewStateMachine(t *testing.T) {
	_, router := testEnv(t, "")
	gym := createNote(t, router, "Gym", "leg day")
	groceries := createNote(t, router, "Groceries", "milk, eggs")

	v := view(t, do(t, router, http.MethodPost, "/view/search", SearchRequest{Term: "milk"}))
	if v.Mode != collection.BySearch || len(v.Notes) != 1 || v.Notes[0].ID != groceries.ID {
		t.Errorf("search view = %+v", v)
	}

	v = view(t, do(t, router, http.MethodPost, "/view/tag", SelectTagRequest{Tag: "fitness"}))
	if v.Mode != collection.ByTag || v.Search != "" || len(v.Notes) != 1 || v.Notes[0].ID != gym.ID {
		t.Errorf("tag view = %+v", v)
	}

	v = view(t, do(t, router, http.MethodPost, "/view/tag", SelectTagRequest{Tag: "fitness"}))
	if v.Mode != collection.Unfiltered || len(v.Notes) != 2 {
		t.Errorf("toggled view = %+v", v)
	}

	v = view(t, do(t, router, http.MethodPost, "/view/search", SearchRequest{Term: "leg"}))
	if v.Mode != collection.BySearch {
		t.Errorf("mode = %s", v.Mode)
	}
	createNote(t, router, "Gym again", "")
	v = view(t, do(t, router, http.MethodGet, "/view", nil))
	if v.Mode != collection.Unfiltered || len(v.Notes) != 3 {
		t.Errorf("view after create = %+v", v)
	}

	do(t, router, http.MethodPost, "/view/tag", SelectTagRequest{Tag: "shopping"})
	v = view(t, do(t, router, http.MethodDelete, "/view", nil))
	if v.Mode != collection.Unfiltered {
		t.Errorf("cleared view = %+v", v)
	}
}

func TestSelectTag_Required(t *testing.T) {
	_, router := testEnv(t, "")
	w := do(t, router, http.MethodPost, "/view/tag", SelectTagRequest{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("empty tag = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router := testEnv(t, "secret")

	w := do(t, router, http.MethodGet, "/notes", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("missing token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router := testEnv(t, "secret")

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware([]string{"http://localhost:*"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/notes", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("foreign origin allowed: %q", got)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	router := testEnvWithSSE(t, true, "secret")

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	router := testEnvWithSSE(t, true, "tok")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

// testEnvWithSSE creates a router with a stub SSE handler to test auth on /events.
func testEnvWithSSE(t *testing.T, authEnabled bool, token string) http.Handler {
	t.Helper()
	svc, _ := testutil.TestService(t, suggest.Disabled{})

	sseHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		<-r.Context().Done()
	})
	return NewRouter(svc, authEnabled, token, sseHandler)
}
