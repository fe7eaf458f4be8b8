package app

import (
	"fmt"
	"strings"

	"storefront/internal/domain"
)

// ValidateNewReview checks a submission before it is dispatched.
func ValidateNewReview(in domain.NewReview) error {
	if strings.TrimSpace(in.ProductID) == "" {
		return fmt.Errorf("%w: productId is required", domain.ErrValidation)
	}
	if err := validateRating(in.Rating); err != nil {
		return err
	}
	if strings.TrimSpace(in.Comment) == "" {
		return fmt.Errorf("%w: comment is required", domain.ErrValidation)
	}
	return nil
}

func ValidateFields(f domain.ReviewFields) error {
	if f.Rating != nil {
		if err := validateRating(*f.Rating); err != nil {
			return err
		}
	}
	if f.Comment != nil && strings.TrimSpace(*f.Comment) == "" {
		return fmt.Errorf("%w: comment cannot be empty", domain.ErrValidation)
	}
	return nil
}

func validateRating(r int) error {
	if r < domain.MinRating || r > domain.MaxRating {
		return fmt.Errorf("%w: rating must be between %d and %d", domain.ErrValidation, domain.MinRating, domain.MaxRating)
	}
	return nil
}

func requireID(name, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, name)
	}
	return nil
}
