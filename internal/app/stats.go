package app

import (
	"math"

	"storefront/internal/domain"
)

// ComputeStatistics does a full pass over reviews. Ratings outside 1..5 are
// clamped so the distribution always sums to TotalReviews.
func ComputeStatistics(reviews []domain.Review) domain.RatingStatistics {
	st := domain.EmptyStatistics()
	if len(reviews) == 0 {
		return st
	}
	sum := 0
	for _, r := range reviews {
		star := clampRating(r.Rating)
		st.RatingDistribution[star]++
		sum += star
	}
	st.TotalReviews = len(reviews)
	st.AverageRating = roundOneDecimal(float64(sum) / float64(len(reviews)))
	return st
}

func clampRating(r int) int {
	if r < domain.MinRating {
		return domain.MinRating
	}
	if r > domain.MaxRating {
		return domain.MaxRating
	}
	return r
}

func roundOneDecimal(f float64) float64 {
	return math.Round(f*10) / 10
}
