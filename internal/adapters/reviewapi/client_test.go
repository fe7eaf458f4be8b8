package reviewapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/adapters/reviewapi"
	"storefront/internal/domain"
)

var _ domain.ReviewTransport = (*reviewapi.Client)(nil)

func newClient(t *testing.T, url string) *reviewapi.Client {
	t.Helper()
	cl, err := reviewapi.New(url, "static-token", 100) // high RPS for tests
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return cl
}

func TestClient_FetchReviews_RetriesThenSuccess(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/products/p-1/reviews" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		switch atomic.AddInt32(&hits, 1) {
		case 1, 2:
			// two transient failures
			w.WriteHeader(500)
		default:
			w.WriteHeader(200)
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"id": "r1", "productId": "p-1", "rating": 5.0, "comment": "great", "likeCount": 2.0},
			})
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := newClient(t, ts.URL).FetchReviews(ctx, "p-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 1 || got[0].ID != "r1" || got[0].Rating != 5 || got[0].LikeCount != 2 {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if atomic.LoadInt32(&hits) < 3 {
		t.Fatalf("expected at least 3 calls due to retries, got %d", hits)
	}
}

func TestClient_ToggleLike_NotRetried(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(500)
	}))
	defer ts.Close()

	_, err := newClient(t, ts.URL).ToggleLike(context.Background(), "r1")
	if !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected network failure, got %v", err)
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("toggle-like must not be retried, got %d calls", n)
	}
}

func TestClient_StatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnprocessableEntity, domain.ErrValidation},
		{http.StatusBadRequest, domain.ErrValidation},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/problem+json")
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(`{"title":"x","detail":"server says no"}`))
		}))
		_, err := newClient(t, ts.URL).UpdateReview(context.Background(), "r1", domain.ReviewFields{})
		ts.Close()
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		if err != nil && !strings.Contains(err.Error(), "server says no") {
			t.Fatalf("status %d: server message lost: %v", tc.status, err)
		}
	}
}

func TestClient_Credentials(t *testing.T) {
	var auth, user string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		user = r.Header.Get("X-User-ID")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()
	cl := newClient(t, ts.URL)

	if err := cl.DeleteReview(context.Background(), "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if auth != "Bearer static-token" || user != "" {
		t.Fatalf("expected static token, got auth=%q user=%q", auth, user)
	}

	ctx := reviewapi.WithCredentials(context.Background(), reviewapi.Credentials{Token: "tok", UserID: "u-7"})
	if err := cl.DeleteReview(ctx, "r1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if auth != "Bearer tok" || user != "u-7" {
		t.Fatalf("expected context credentials, got auth=%q user=%q", auth, user)
	}
}

func TestClient_CreateReview_DocumentStorePayload(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in domain.NewReview
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if in.Rating != 4 || in.Comment != "solid" {
			t.Errorf("unexpected body: %+v", in)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"review": map[string]any{
				"_id":       "abc",
				"product":   "p-9",
				"user":      map[string]any{"_id": "u-1", "name": "Ana"},
				"rating":    "4",
				"comment":   "solid",
				"likes":     []any{"u-2", "u-3", "u-2"},
				"createdAt": "2024-05-01T10:00:00Z",
			},
		})
	}))
	defer ts.Close()

	rv, err := newClient(t, ts.URL).CreateReview(context.Background(), domain.NewReview{ProductID: "p-9", Rating: 4, Comment: "solid"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rv.ID != "abc" || rv.ProductID != "p-9" || rv.AuthorID != "u-1" || rv.AuthorName != "Ana" {
		t.Fatalf("unexpected identity fields: %+v", rv)
	}
	if rv.Rating != 4 || rv.LikeCount != 2 {
		t.Fatalf("expected rating 4 and 2 distinct likers, got %+v", rv)
	}
	if !rv.CreatedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected createdAt %v", rv.CreatedAt)
	}
}

func TestNew_RequiresBase(t *testing.T) {
	if _, err := reviewapi.New("", "", 1); err == nil {
		t.Fatalf("expected error for empty base")
	}
}

func TestClient_FetchReviews_RoundsFractionalRatings(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "r1", "productId": "p", "rating": 4.6, "comment": "a"},
			{"id": "r2", "productId": "p", "rating": "3.5", "comment": "b"},
			{"id": "r3", "productId": "p", "rating": 2.2, "comment": "c"},
			{"id": "r4", "productId": "p", "rating": 5.0, "comment": "d"},
		})
	}))
	defer ts.Close()

	got, err := newClient(t, ts.URL).FetchReviews(context.Background(), "p")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	want := map[string]int{"r1": 5, "r2": 4, "r3": 2, "r4": 5}
	if len(got) != len(want) {
		t.Fatalf("expected %d reviews, got %d", len(want), len(got))
	}
	for _, rv := range got {
		if rv.Rating != want[rv.ID] {
			t.Fatalf("%s: want rating %d, got %d", rv.ID, want[rv.ID], rv.Rating)
		}
	}
}

func TestClient_RetryAfterIsCapped(t *testing.T) {
	var hits int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.Header().Set("Retry-After", "86400")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	start := time.Now()
	if err := newClient(t, ts.URL).DeleteReview(ctx, "r1"); err != nil {
		t.Fatalf("delete should succeed after a capped wait: %v", err)
	}
	if d := time.Since(start); d > 3*time.Second {
		t.Fatalf("retry waited %v; a day-long Retry-After must not be honored", d)
	}
	if atomic.LoadInt32(&hits) != 2 {
		t.Fatalf("expected 2 calls, got %d", hits)
	}
}
