package app_test

import (
	"context"
	"sync"
	"time"

	"storefront/internal/domain"
)

// ---- fakes ----

// fakeTransport answers from the hook for each call; a nil hook returns a
// zero value. gate, when set for a class, blocks that call until closed.
type fakeTransport struct {
	mu    sync.Mutex
	calls map[domain.OpClass]int
	gate  map[domain.OpClass]chan struct{}

	fetch  func(productID string) ([]domain.Review, error)
	create func(in domain.NewReview) (domain.Review, error)
	update func(id string, f domain.ReviewFields) (domain.Review, error)
	del    func(id string) error
	like   func(id string) (domain.Review, error)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{calls: map[domain.OpClass]int{}, gate: map[domain.OpClass]chan struct{}{}}
}

func (f *fakeTransport) enter(c domain.OpClass) {
	f.mu.Lock()
	f.calls[c]++
	g := f.gate[c]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
}

func (f *fakeTransport) block(c domain.OpClass) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gate[c] = g
	return g
}

func (f *fakeTransport) count(c domain.OpClass) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[c]
}

func (f *fakeTransport) FetchReviews(_ context.Context, productID string) ([]domain.Review, error) {
	f.enter(domain.OpFetch)
	if f.fetch == nil {
		return nil, nil
	}
	return f.fetch(productID)
}

func (f *fakeTransport) CreateReview(_ context.Context, in domain.NewReview) (domain.Review, error) {
	f.enter(domain.OpCreate)
	if f.create == nil {
		return domain.Review{}, nil
	}
	return f.create(in)
}

func (f *fakeTransport) UpdateReview(_ context.Context, id string, fl domain.ReviewFields) (domain.Review, error) {
	f.enter(domain.OpUpdate)
	if f.update == nil {
		return domain.Review{}, nil
	}
	return f.update(id, fl)
}

func (f *fakeTransport) DeleteReview(_ context.Context, id string) error {
	f.enter(domain.OpDelete)
	if f.del == nil {
		return nil
	}
	return f.del(id)
}

func (f *fakeTransport) ToggleLike(_ context.Context, id string) (domain.Review, error) {
	f.enter(domain.OpLike)
	if f.like == nil {
		return domain.Review{}, nil
	}
	return f.like(id)
}

// ---- helpers ----

var t0 = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func rv(id string, rating, likes int, minutes int) domain.Review {
	return domain.Review{
		ID:        id,
		ProductID: "p1",
		Rating:    rating,
		Comment:   "comment " + id,
		LikeCount: likes,
		CreatedAt: t0.Add(time.Duration(minutes) * time.Minute),
	}
}

func ids(rs []domain.Review) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// waitPending spins until the class is visibly in flight.
func waitPending(pending func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if pending() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}
