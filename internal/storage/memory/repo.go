// Package memory is a process-local ReviewRepository for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"storefront/internal/domain"
)

type entry struct {
	review domain.Review
	likers map[string]struct{}
}

type Repo struct {
	mu      sync.RWMutex
	reviews map[string]*entry
}

func New() *Repo {
	return &Repo{reviews: make(map[string]*entry)}
}

func (r *Repo) Create(_ context.Context, rv domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[rv.ID]; ok {
		return fmt.Errorf("%w: review %s already exists", domain.ErrValidation, rv.ID)
	}
	rv.LikeCount = 0
	r.reviews[rv.ID] = &entry{review: rv, likers: map[string]struct{}{}}
	return nil
}

func (r *Repo) Update(_ context.Context, id string, f domain.ReviewFields) (domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.reviews[id]
	if !ok {
		return domain.Review{}, notFound(id)
	}
	e.review = f.Apply(e.review)
	return e.review, nil
}

func (r *Repo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reviews[id]; !ok {
		return notFound(id)
	}
	delete(r.reviews, id)
	return nil
}

// ToggleLike adds userID to the likers set, or removes it if already there.
func (r *Repo) ToggleLike(_ context.Context, id, userID string) (domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.reviews[id]
	if !ok {
		return domain.Review{}, notFound(id)
	}
	if _, liked := e.likers[userID]; liked {
		delete(e.likers, userID)
	} else {
		e.likers[userID] = struct{}{}
	}
	e.review.LikeCount = len(e.likers)
	return e.review, nil
}

func (r *Repo) Get(_ context.Context, id string) (domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.reviews[id]
	if !ok {
		return domain.Review{}, notFound(id)
	}
	return e.review, nil
}

// ListByProduct returns newest first, ties broken by id descending.
func (r *Repo) ListByProduct(_ context.Context, productID string) ([]domain.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Review, 0)
	for _, e := range r.reviews {
		if e.review.ProductID == productID {
			out = append(out, e.review)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: review %s", domain.ErrNotFound, id)
}
