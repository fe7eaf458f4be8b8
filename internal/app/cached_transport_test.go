package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	redisad "storefront/internal/adapters/redis"
	"storefront/internal/app"
	"storefront/internal/domain"
)

func newCached(t *testing.T) (*app.CachedTransport, *fakeTransport, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	cache := redisad.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = cache.Close() })

	ft := newFakeTransport()
	ft.fetch = func(productID string) ([]domain.Review, error) {
		return []domain.Review{rv("a", 5, 0, 1), rv("b", 4, 0, 2)}, nil
	}
	return app.NewCachedTransport(ft, cache, 10*time.Minute), ft, mr
}

func TestCachedTransport_FetchMissThenHit(t *testing.T) {
	ct, ft, _ := newCached(t)
	ctx := context.Background()

	first, err := ct.FetchReviews(ctx, "p1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	// Mutate the returned slice to prove the cached copy is independent
	first[0].Rating = 1

	second, err := ct.FetchReviews(ctx, "p1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if ft.count(domain.OpFetch) != 1 {
		t.Fatalf("expected one upstream fetch, got %d", ft.count(domain.OpFetch))
	}
	if second[0].Rating != 5 || !reflect.DeepEqual(ids(second), []string{"a", "b"}) {
		t.Fatalf("unexpected cached payload: %+v", second)
	}
}

func TestCachedTransport_MutationsInvalidate(t *testing.T) {
	ct, ft, _ := newCached(t)
	ctx := context.Background()
	ft.create = func(in domain.NewReview) (domain.Review, error) { return rv("n", in.Rating, 0, 9), nil }
	ft.update = func(id string, _ domain.ReviewFields) (domain.Review, error) { return rv(id, 2, 0, 1), nil }
	ft.like = func(id string) (domain.Review, error) {
		r := rv(id, 5, 1, 1)
		r.ProductID = "" // some backends omit it; the owner index covers this
		return r, nil
	}

	steps := []struct {
		name string
		do   func() error
	}{
		{"create", func() error {
			_, err := ct.CreateReview(ctx, domain.NewReview{ProductID: "p1", Rating: 3, Comment: "x"})
			return err
		}},
		{"update", func() error { _, err := ct.UpdateReview(ctx, "a", domain.ReviewFields{}); return err }},
		{"like", func() error { _, err := ct.ToggleLike(ctx, "b"); return err }},
		{"delete", func() error { return ct.DeleteReview(ctx, "a") }},
	}

	want := 0
	for _, s := range steps {
		if _, err := ct.FetchReviews(ctx, "p1"); err != nil {
			t.Fatalf("%s: warm fetch: %v", s.name, err)
		}
		want++
		if err := s.do(); err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if _, err := ct.FetchReviews(ctx, "p1"); err != nil {
			t.Fatalf("%s: fetch after: %v", s.name, err)
		}
		want++
		if got := ft.count(domain.OpFetch); got != want {
			t.Fatalf("%s: expected cache eviction (%d upstream fetches), got %d", s.name, want, got)
		}
	}
}

func TestCachedTransport_FailedMutationKeepsCache(t *testing.T) {
	ct, ft, _ := newCached(t)
	ctx := context.Background()
	ft.del = func(string) error { return domain.ErrNetwork }

	_, _ = ct.FetchReviews(ctx, "p1")
	if err := ct.DeleteReview(ctx, "a"); !errors.Is(err, domain.ErrNetwork) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	_, _ = ct.FetchReviews(ctx, "p1")
	if got := ft.count(domain.OpFetch); got != 1 {
		t.Fatalf("failed delete must not evict, got %d fetches", got)
	}
}

func TestCachedTransport_FailsOpen(t *testing.T) {
	ct, ft, mr := newCached(t)
	mr.Close()

	rs, err := ct.FetchReviews(context.Background(), "p1")
	if err != nil || len(rs) != 2 {
		t.Fatalf("cache outage must not fail fetch: %v %v", rs, err)
	}
	if ft.count(domain.OpFetch) != 1 {
		t.Fatalf("expected upstream fetch")
	}
}

func TestCachedTransport_Refresh(t *testing.T) {
	ct, ft, _ := newCached(t)
	ctx := context.Background()

	_, _ = ct.FetchReviews(ctx, "p1")
	if _, err := ct.Refresh(ctx, "p1"); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := ft.count(domain.OpFetch); got != 2 {
		t.Fatalf("refresh must bypass the cache, got %d fetches", got)
	}
}
