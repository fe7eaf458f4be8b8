package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	"storefront/internal/storage/memory"
)

var _ domain.ReviewRepository = (*memory.Repo)(nil)

func seed(t *testing.T, r *memory.Repo, id, product string, rating int, at time.Time) {
	t.Helper()
	if err := r.Create(context.Background(), domain.Review{ID: id, ProductID: product, Rating: rating, Comment: "c", CreatedAt: at}); err != nil {
		t.Fatalf("create %s: %v", id, err)
	}
}

func TestRepo_ListByProduct_NewestFirst(t *testing.T) {
	r := memory.New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	seed(t, r, "a", "p1", 5, base)
	seed(t, r, "b", "p1", 3, base.Add(time.Hour))
	seed(t, r, "c", "p2", 1, base.Add(2*time.Hour))

	got, err := r.ListByProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "b" || got[1].ID != "a" {
		t.Fatalf("unexpected order: %+v", got)
	}

	empty, _ := r.ListByProduct(context.Background(), "nope")
	if empty == nil || len(empty) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", empty)
	}
}

func TestRepo_ToggleLike_DistinctLikers(t *testing.T) {
	r := memory.New()
	ctx := context.Background()
	seed(t, r, "a", "p1", 5, time.Now())

	steps := []struct {
		user string
		want int
	}{
		{"u1", 1},
		{"u2", 2},
		{"u1", 1}, // toggles off
		{"u1", 2},
	}
	for i, s := range steps {
		rv, err := r.ToggleLike(ctx, "a", s.user)
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if rv.LikeCount != s.want {
			t.Fatalf("step %d: expected %d likes, got %d", i, s.want, rv.LikeCount)
		}
	}
}

func TestRepo_UpdateDeleteNotFound(t *testing.T) {
	r := memory.New()
	ctx := context.Background()
	seed(t, r, "a", "p1", 5, time.Now())

	rating := 2
	rv, err := r.Update(ctx, "a", domain.ReviewFields{Rating: &rating})
	if err != nil || rv.Rating != 2 || rv.Comment != "c" {
		t.Fatalf("update: %+v %v", rv, err)
	}

	if err := r.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := r.Delete(ctx, "a"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := r.Update(ctx, "a", domain.ReviewFields{}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on update, got %v", err)
	}
	if _, err := r.ToggleLike(ctx, "a", "u"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found on like, got %v", err)
	}
}
