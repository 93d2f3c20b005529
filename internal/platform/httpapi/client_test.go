package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	apperrors "carepath/internal/platform/errors"
	"carepath/internal/platform/httpapi"
)

type staticToken string

func (s staticToken) Token(context.Context) (string, error) { return string(s), nil }

type missingToken struct{}

func (missingToken) Token(context.Context) (string, error) { return "", apperrors.ErrNotAuthenticated }

type fixedID struct{}

func (fixedID) New() string { return "req-1" }

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/api/echo/{id}", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		var in map[string]any
		_ = json.NewDecoder(req.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":         mux.Vars(req)["id"],
			"month":      req.URL.Query().Get("month"),
			"request_id": req.Header.Get("X-Request-ID"),
			"echo":       in["value"],
		})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/conflict", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"already started","actual_start_date":"2024-01-10"}`))
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestDoSendsJSONAndDecodesResponse(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	client, err := httpapi.New(srv.URL, time.Second, staticToken("tok"), fixedID{}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	var out struct {
		ID        string `json:"id"`
		Month     string `json:"month"`
		RequestID string `json:"request_id"`
		Echo      string `json:"echo"`
	}
	err = client.Do(context.Background(), http.MethodPost, httpapi.Expand("/api/echo/{id}", "h 1"),
		map[string][]string{"month": {"2024-05-01"}}, map[string]string{"value": "ping"}, &out)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if out.ID != "h 1" || out.Month != "2024-05-01" || out.RequestID != "req-1" || out.Echo != "ping" {
		t.Fatalf("unexpected response: %+v", out)
	}
}

func TestDoMapsUnauthorizedToSessionExpired(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	client, err := httpapi.New(srv.URL, time.Second, staticToken("stale"), fixedID{}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Do(context.Background(), http.MethodPost, "/api/echo/x", nil, nil, nil)
	if !errors.Is(err, apperrors.ErrSessionExpired) {
		t.Fatalf("expected session expired, got %v", err)
	}
}

func TestDoReturnsStatusErrorWithPayloadFields(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	client, err := httpapi.New(srv.URL, time.Second, staticToken("tok"), fixedID{}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	err = client.Do(context.Background(), http.MethodPost, "/api/conflict", nil, nil, nil)
	var statusErr *httpapi.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected status error, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", statusErr.StatusCode)
	}
	if got := statusErr.Field("startDate", "actual_start_date"); got != "2024-01-10" {
		t.Fatalf("expected start date field, got %q", got)
	}
}

func TestDoPropagatesMissingToken(t *testing.T) {
	t.Parallel()
	srv := newServer(t)
	client, err := httpapi.New(srv.URL, time.Second, missingToken{}, fixedID{}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	if err := client.Do(context.Background(), http.MethodPost, "/api/echo/x", nil, nil, nil); !errors.Is(err, apperrors.ErrNotAuthenticated) {
		t.Fatalf("expected not authenticated, got %v", err)
	}
}

func TestNewRejectsInvalidBaseURL(t *testing.T) {
	t.Parallel()
	if _, err := httpapi.New("::bad", time.Second, nil, nil, nil); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestFlexStringAcceptsStringsAndNumbers(t *testing.T) {
	t.Parallel()
	var got []httpapi.FlexString
	if err := json.Unmarshal([]byte(`["rx-1", 42, null]`), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 3 || got[0] != "rx-1" || got[1] != "42" || got[2] != "" {
		t.Fatalf("unexpected values %q", got)
	}
	var bad httpapi.FlexString
	if err := json.Unmarshal([]byte(`{"id": 1}`), &bad); err == nil {
		t.Fatalf("expected an error for an object id")
	}
}
