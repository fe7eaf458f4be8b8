package app

import (
	"sort"
	"sync"

	"storefront/internal/domain"
)

// Project filters and stable-sorts a copy of reviews; the input is never touched.
// Sort keys are matched case-insensitively and an unknown key sorts newest first.
func Project(reviews []domain.Review, vs domain.ViewState) domain.View {
	k, err := domain.ParseSortKey(string(vs.SortKey))
	if err != nil {
		k = domain.SortNewest
	}
	vs.SortKey = k

	visible := make([]domain.Review, 0, len(reviews))
	for _, r := range reviews {
		if vs.FilterRating == 0 || r.Rating == vs.FilterRating {
			visible = append(visible, r)
		}
	}

	less := lessFor(vs.SortKey)
	sort.SliceStable(visible, func(i, j int) bool { return less(visible[i], visible[j]) })

	return domain.View{
		VisibleReviews:  visible,
		IsEmptyOverall:  len(reviews) == 0,
		IsEmptyByFilter: len(reviews) > 0 && len(visible) == 0,
		State:           vs,
	}
}

func lessFor(k domain.SortKey) func(a, b domain.Review) bool {
	switch k {
	case domain.SortOldest:
		return func(a, b domain.Review) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case domain.SortHighest:
		return func(a, b domain.Review) bool { return a.Rating > b.Rating }
	case domain.SortLowest:
		return func(a, b domain.Review) bool { return a.Rating < b.Rating }
	case domain.SortHelpful:
		return func(a, b domain.Review) bool { return a.LikeCount > b.LikeCount }
	default:
		return func(a, b domain.Review) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
}

// ReviewSource is the read side of the aggregator the projector depends on.
type ReviewSource interface {
	Reviews() []domain.Review
}

// Projector holds the ViewState for one consumer and reprojects on demand.
type Projector struct {
	src ReviewSource

	mu    sync.Mutex
	state domain.ViewState
}

func NewProjector(src ReviewSource) *Projector {
	return &Projector{src: src, state: domain.DefaultViewState()}
}

func (p *Projector) State() domain.ViewState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SetState replaces the view state with its sort key normalized; an invalid
// state is rejected and the old one kept.
func (p *Projector) SetState(vs domain.ViewState) error {
	if err := vs.Validate(); err != nil {
		return err
	}
	k, err := domain.ParseSortKey(string(vs.SortKey))
	if err != nil {
		return err
	}
	vs.SortKey = k
	p.mu.Lock()
	p.state = vs
	p.mu.Unlock()
	return nil
}

func (p *Projector) SetFilter(rating int) error {
	vs := p.State()
	vs.FilterRating = rating
	return p.SetState(vs)
}

func (p *Projector) SetSort(k domain.SortKey) error {
	vs := p.State()
	vs.SortKey = k
	return p.SetState(vs)
}

// View projects the source's current collection.
func (p *Projector) View() domain.View {
	return Project(p.src.Reviews(), p.State())
}
