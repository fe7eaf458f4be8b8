package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"storefront/internal/domain"
)

// maxCachedPayload keeps oversized review lists out of the cache.
const maxCachedPayload = 1_000_000

// CachedTransport is a read-through cache in front of a ReviewTransport.
// Fetches are cached per product; every successful mutation evicts the
// product it touched. Cache errors are logged and never fail a call.
type CachedTransport struct {
	next     domain.ReviewTransport
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCachedTransport(next domain.ReviewTransport, c domain.Cache, ttl time.Duration) *CachedTransport {
	return &CachedTransport{next: next, cache: c, cacheTTL: ttl}
}

func reviewsKey(productID string) string { return fmt.Sprintf("reviews:%s", productID) }
func ownerKey(reviewID string) string    { return fmt.Sprintf("review:%s:product", reviewID) }

func (t *CachedTransport) FetchReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	key := reviewsKey(productID)
	var out []domain.Review
	if ok, err := t.cache.Get(ctx, key, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("review cache get failed")
	} else if ok {
		return out, nil
	}

	rs, err := t.next.FetchReviews(ctx, productID)
	if err != nil {
		return nil, err
	}

	// copy so the caller can't mutate what we hand to the cache
	cp := append(make([]domain.Review, 0, len(rs)), rs...)
	if b, _ := json.Marshal(cp); len(b) < maxCachedPayload {
		t.set(ctx, key, cp)
		for _, r := range cp {
			t.set(ctx, ownerKey(r.ID), productID)
		}
	}
	return cp, nil
}

// Refresh drops the cached payload for productID and fetches it again.
func (t *CachedTransport) Refresh(ctx context.Context, productID string) ([]domain.Review, error) {
	t.invalidate(ctx, productID)
	return t.FetchReviews(ctx, productID)
}

func (t *CachedTransport) CreateReview(ctx context.Context, in domain.NewReview) (domain.Review, error) {
	rv, err := t.next.CreateReview(ctx, in)
	if err != nil {
		return domain.Review{}, err
	}
	t.invalidate(ctx, in.ProductID)
	if rv.ProductID != "" && rv.ProductID != in.ProductID {
		t.invalidate(ctx, rv.ProductID)
	}
	t.set(ctx, ownerKey(rv.ID), rv.ProductID)
	return rv, nil
}

func (t *CachedTransport) UpdateReview(ctx context.Context, reviewID string, f domain.ReviewFields) (domain.Review, error) {
	rv, err := t.next.UpdateReview(ctx, reviewID, f)
	if err != nil {
		return domain.Review{}, err
	}
	t.invalidateOwner(ctx, reviewID, rv.ProductID)
	return rv, nil
}

func (t *CachedTransport) DeleteReview(ctx context.Context, reviewID string) error {
	if err := t.next.DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	t.invalidateOwner(ctx, reviewID, "")
	t.del(ctx, ownerKey(reviewID))
	return nil
}

func (t *CachedTransport) ToggleLike(ctx context.Context, reviewID string) (domain.Review, error) {
	rv, err := t.next.ToggleLike(ctx, reviewID)
	if err != nil {
		return domain.Review{}, err
	}
	t.invalidateOwner(ctx, reviewID, rv.ProductID)
	return rv, nil
}

// invalidateOwner evicts productID, or the product recorded for reviewID
// when the transport response did not carry one.
func (t *CachedTransport) invalidateOwner(ctx context.Context, reviewID, productID string) {
	if productID == "" {
		var owner string
		if ok, err := t.cache.Get(ctx, ownerKey(reviewID), &owner); err != nil || !ok {
			log.Debug().Str("review_id", reviewID).Msg("no cached owner for review; nothing to evict")
			return
		}
		productID = owner
	}
	t.invalidate(ctx, productID)
}

func (t *CachedTransport) invalidate(ctx context.Context, productID string) {
	if productID == "" {
		return
	}
	t.del(ctx, reviewsKey(productID))
}

func (t *CachedTransport) set(ctx context.Context, key string, v any) {
	if err := t.cache.Set(ctx, key, v, int(t.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("review cache set failed")
	}
}

func (t *CachedTransport) del(ctx context.Context, key string) {
	if err := t.cache.Del(ctx, key); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("review cache del failed")
	}
}
