package domain

import "time"

// MinRating and MaxRating bound Review.Rating.
const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	AuthorName string    `json:"authorName,omitempty"`
	AuthorID   string    `json:"authorId,omitempty"`
	Rating     int       `json:"rating"`
	Title      string    `json:"title,omitempty"`
	Comment    string    `json:"comment"`
	Pros       string    `json:"pros,omitempty"`
	Cons       string    `json:"cons,omitempty"`
	LikeCount  int       `json:"likeCount"`
	CreatedAt  time.Time `json:"createdAt"`
}

// NewReview is the payload of a review submission.
type NewReview struct {
	ProductID  string `json:"productId"`
	AuthorName string `json:"authorName,omitempty"`
	AuthorID   string `json:"authorId,omitempty"`
	Rating     int    `json:"rating"`
	Title      string `json:"title,omitempty"`
	Comment    string `json:"comment"`
	Pros       string `json:"pros,omitempty"`
	Cons       string `json:"cons,omitempty"`
}

// ReviewFields is a partial update; nil fields are left untouched.
type ReviewFields struct {
	Rating  *int    `json:"rating,omitempty"`
	Title   *string `json:"title,omitempty"`
	Comment *string `json:"comment,omitempty"`
	Pros    *string `json:"pros,omitempty"`
	Cons    *string `json:"cons,omitempty"`
}

// Apply returns r with the non-nil fields of f written over it.
func (f ReviewFields) Apply(r Review) Review {
	if f.Rating != nil {
		r.Rating = *f.Rating
	}
	if f.Title != nil {
		r.Title = *f.Title
	}
	if f.Comment != nil {
		r.Comment = *f.Comment
	}
	if f.Pros != nil {
		r.Pros = *f.Pros
	}
	if f.Cons != nil {
		r.Cons = *f.Cons
	}
	return r
}

// RatingStatistics is always derived from a full pass over a collection.
type RatingStatistics struct {
	AverageRating      float64     `json:"averageRating"`
	TotalReviews       int         `json:"totalReviews"`
	RatingDistribution map[int]int `json:"ratingDistribution"`
}

// EmptyStatistics returns the zero statistics with all five buckets present.
func EmptyStatistics() RatingStatistics {
	d := make(map[int]int, MaxRating)
	for star := MinRating; star <= MaxRating; star++ {
		d[star] = 0
	}
	return RatingStatistics{RatingDistribution: d}
}

// Clone copies the distribution map so callers can't alias it.
func (s RatingStatistics) Clone() RatingStatistics {
	out := s
	out.RatingDistribution = make(map[int]int, len(s.RatingDistribution))
	for k, v := range s.RatingDistribution {
		out.RatingDistribution[k] = v
	}
	return out
}
