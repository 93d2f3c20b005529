package out_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"

	out "carepath/internal/modules/habit/adapter/out"
	"carepath/internal/modules/habit/domain"
	habitout "carepath/internal/modules/habit/port/out"
	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/httpapi"
)

// fakeBackend is an in-memory habits API.
type fakeBackend struct {
	mu       sync.Mutex
	months   []string
	progress map[string]bool
	created  map[string]string
	removed  []string
}

func (b *fakeBackend) routes() *mux.Router {
	r := mux.NewRouter().UseEncodedPath()
	r.HandleFunc("/api/habits", b.list).Methods(http.MethodGet)
	r.HandleFunc("/api/habits", b.create).Methods(http.MethodPost)
	r.HandleFunc("/api/habits/progress", b.toggle).Methods(http.MethodPost)
	r.HandleFunc("/api/habits/{id}", b.update).Methods(http.MethodPut)
	r.HandleFunc("/api/habits/{id}", b.remove).Methods(http.MethodDelete)
	return r
}

func (b *fakeBackend) list(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.months = append(b.months, r.URL.Query().Get("month"))
	b.mu.Unlock()
	_, _ = w.Write([]byte(`{"success": true, "total": 2, "habits": [
	  {"id": 3, "title": "Walk", "category": "Health", "progress": [
	    {"date": "2026-03-01T00:00:00.000Z", "isChecked": true},
	    {"date": "2026-03-02", "isChecked": false},
	    {"date": "2026-03-01", "isChecked": true}
	  ]},
	  {"id": "h-4", "title": "Journal", "category": "personal", "progress": []}
	]}`))
}

func (b *fakeBackend) create(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	_ = json.NewDecoder(r.Body).Decode(&body)
	switch body["title"] {
	case "taken":
		_, _ = w.Write([]byte(`{"success": false, "error": "title already exists"}`))
		return
	case "anonymous":
		_, _ = w.Write([]byte(`{"success": true}`))
		return
	}
	b.mu.Lock()
	b.created = body
	b.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "habit": map[string]any{
		"id": 9, "title": body["title"], "category": body["category"], "progress": []any{},
	}})
}

func (b *fakeBackend) update(w http.ResponseWriter, r *http.Request) {
	if mux.Vars(r)["id"] == "missing" {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success": false, "error": "habit not found"}`))
		return
	}
	_, _ = w.Write([]byte(`{"success": true}`))
}

func (b *fakeBackend) remove(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(mux.Vars(r)["id"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if id == "expired" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	b.mu.Lock()
	b.removed = append(b.removed, id+" "+r.URL.EscapedPath())
	b.mu.Unlock()
	_, _ = w.Write([]byte(`{"success": true}`))
}

func (b *fakeBackend) toggle(w http.ResponseWriter, r *http.Request) {
	var body struct {
		HabitID string `json:"habitId"`
		Date    string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.HabitID == "" || body.Date == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	b.mu.Lock()
	key := body.HabitID + "/" + body.Date
	_, existed := b.progress[key]
	b.progress[key] = !b.progress[key]
	checked := b.progress[key]
	b.mu.Unlock()
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "isChecked": checked, "isUpdate": existed})
}

func newGateway(t *testing.T) (habitout.HabitGateway, *fakeBackend) {
	t.Helper()
	backend := &fakeBackend{progress: map[string]bool{}}
	srv := httptest.NewServer(backend.routes())
	t.Cleanup(srv.Close)
	api, err := httpapi.New(srv.URL, time.Second, nil, nil, nil)
	if err != nil {
		t.Fatalf("new api client: %v", err)
	}
	return out.NewHTTPHabitGateway(api, "/api/habits/", "/api/habits/progress"), backend
}

func TestListSendsMonthAndNormalizesProgress(t *testing.T) {
	t.Parallel()
	gw, backend := newGateway(t)
	habits, err := gw.List(context.Background(), domain.YearMonth{Year: 2026, Month: time.March})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(backend.months) != 1 || backend.months[0] != "2026-03-01" {
		t.Fatalf("expected month=2026-03-01, got %v", backend.months)
	}
	if len(habits) != 2 {
		t.Fatalf("expected 2 habits, got %d", len(habits))
	}
	walk := habits[0]
	if walk.ID != "3" || walk.Category != domain.CategoryHealth {
		t.Fatalf("unexpected habit %+v", walk)
	}
	if len(walk.Progress) != 2 || !domain.IsCompletedOn(walk, "2026-03-01") {
		t.Fatalf("expected timestamps trimmed and duplicates collapsed, got %+v", walk.Progress)
	}
	if habits[1].Progress == nil {
		t.Fatalf("empty progress must stay non-nil")
	}
}

func TestCreateAndUpdate(t *testing.T) {
	t.Parallel()
	gw, backend := newGateway(t)
	ctx := context.Background()

	h, err := gw.Create(ctx, domain.Draft{Title: "Stretch", Category: domain.CategoryHealth})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.ID != "9" || h.Title != "Stretch" || backend.created["category"] != "health" {
		t.Fatalf("unexpected create result %+v body %v", h, backend.created)
	}
	if _, err := gw.Create(ctx, domain.Draft{Title: "taken", Category: domain.CategoryWork}); err == nil || !strings.Contains(err.Error(), "title already exists") {
		t.Fatalf("expected backend message, got %v", err)
	}

	updated, err := gw.Update(ctx, "h-4", domain.Draft{Title: "Journal daily", Category: domain.CategoryPersonal})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.ID != "h-4" || updated.Title != "Journal daily" || updated.Progress != nil {
		t.Fatalf("update without habit payload must echo the draft, got %+v", updated)
	}
	var statusErr *httpapi.StatusError
	if _, err := gw.Update(ctx, "missing", domain.Draft{Title: "x", Category: domain.CategoryWork}); !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 status error, got %v", err)
	}
}

func TestDeleteMapsUnauthorizedToSessionExpired(t *testing.T) {
	t.Parallel()
	gw, _ := newGateway(t)
	if err := gw.Delete(context.Background(), "h-4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := gw.Delete(context.Background(), "expired"); !errors.Is(err, apperrors.ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
}

func TestToggleReportsServerState(t *testing.T) {
	t.Parallel()
	gw, _ := newGateway(t)
	ctx := context.Background()
	first, err := gw.Toggle(ctx, "3", "2026-03-05")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !first.IsChecked || first.IsUpdate {
		t.Fatalf("expected a new checked entry, got %+v", first)
	}
	second, err := gw.Toggle(ctx, "3", "2026-03-05")
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if second.IsChecked || !second.IsUpdate {
		t.Fatalf("expected an updated unchecked entry, got %+v", second)
	}
}

func TestCreateWithoutHabitIDFails(t *testing.T) {
	t.Parallel()
	gw, _ := newGateway(t)
	h, err := gw.Create(context.Background(), domain.Draft{Title: "anonymous", Category: domain.CategoryPersonal})
	if !errors.Is(err, apperrors.ErrHabitRequestFailed) {
		t.Fatalf("expected habit request failure, got %v", err)
	}
	if h.ID != "" || h.Title != "" {
		t.Fatalf("failed create must not return a habit, got %+v", h)
	}
}

func TestItemPathEscapesIDOnce(t *testing.T) {
	t.Parallel()
	gw, backend := newGateway(t)
	if err := gw.Delete(context.Background(), "h 1/2%"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	want := "h 1/2% /api/habits/h%201%2F2%25"
	if len(backend.removed) != 1 || backend.removed[0] != want {
		t.Fatalf("expected %q, got %v", want, backend.removed)
	}
}
