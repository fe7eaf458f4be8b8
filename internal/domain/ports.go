package domain

import "context"

// ReviewTransport is the network collaborator of the aggregation core.
type ReviewTransport interface {
	FetchReviews(ctx context.Context, productID string) ([]Review, error)
	CreateReview(ctx context.Context, in NewReview) (Review, error)
	UpdateReview(ctx context.Context, reviewID string, fields ReviewFields) (Review, error)
	DeleteReview(ctx context.Context, reviewID string) error
	ToggleLike(ctx context.Context, reviewID string) (Review, error)
}

// ReviewRepository is the durable store behind the review backend.
type ReviewRepository interface {
	// Write paths
	Create(ctx context.Context, r Review) error
	Update(ctx context.Context, id string, f ReviewFields) (Review, error)
	Delete(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, id, userID string) (Review, error)

	// Read paths
	Get(ctx context.Context, id string) (Review, error)
	ListByProduct(ctx context.Context, productID string) ([]Review, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
