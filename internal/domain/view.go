package domain

import (
	"fmt"
	"strings"
)

type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortHighest SortKey = "highest"
	SortLowest  SortKey = "lowest"
	SortHelpful SortKey = "helpful"
)

// ParseSortKey accepts the five sort keys case-insensitively; "" means newest.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortNewest, nil
	case SortNewest, SortOldest, SortHighest, SortLowest, SortHelpful:
		return k, nil
	default:
		return "", fmt.Errorf("%w: unknown sort key %q", ErrValidation, s)
	}
}

// ViewState is display-only: FilterRating 0 disables the filter.
type ViewState struct {
	FilterRating int     `json:"filterRating"`
	SortKey      SortKey `json:"sortKey"`
}

func DefaultViewState() ViewState { return ViewState{SortKey: SortNewest} }

func (v ViewState) Validate() error {
	if v.FilterRating != 0 && (v.FilterRating < MinRating || v.FilterRating > MaxRating) {
		return fmt.Errorf("%w: filter rating must be 0 or between %d and %d", ErrValidation, MinRating, MaxRating)
	}
	if _, err := ParseSortKey(string(v.SortKey)); err != nil {
		return err
	}
	return nil
}

// View is what the consumer renders. The two empty flags are never both true.
type View struct {
	VisibleReviews  []Review  `json:"visibleReviews"`
	IsEmptyByFilter bool      `json:"isEmptyByFilter"`
	IsEmptyOverall  bool      `json:"isEmptyOverall"`
	State           ViewState `json:"viewState"`
}
