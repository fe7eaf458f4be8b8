package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"storefront/internal/adapters/observability"
	"storefront/internal/domain"
)

// Result is how every aggregator operation resolves. Operations never panic
// or return a bare error; failures are carried in Err with Outcome Rejected.
//
// A Fulfilled result with Applied false and a NotFound Err means the server
// accepted the call but the review was no longer in the local collection.
type Result struct {
	Class     domain.OpClass  `json:"class"`
	Outcome   domain.Outcome  `json:"outcome"`
	ProductID string          `json:"productId,omitempty"`
	ReviewID  string          `json:"reviewId,omitempty"`
	Review    *domain.Review  `json:"review,omitempty"`
	Reviews   []domain.Review `json:"reviews,omitempty"`
	Applied   bool            `json:"applied"`
	Err       error           `json:"-"`
}

func (r Result) OK() bool { return r.Outcome == domain.Fulfilled }

// ErrMessage is the human-readable failure, "" when there is none.
func (r Result) ErrMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// State is a consistent snapshot of the aggregator.
type State struct {
	ProductID string                    `json:"productId"`
	Reviews   []domain.Review           `json:"reviews"`
	Stats     domain.RatingStatistics   `json:"stats"`
	Pending   map[domain.OpClass]bool   `json:"pending"`
	Errors    map[domain.OpClass]string `json:"errors"`
	LastError string                    `json:"lastError,omitempty"`
}

type opState struct {
	inflight int
	result   *Result
	err      error
	errSeq   uint64
}

// Aggregator owns the review collection of the product being viewed and the
// statistics derived from it. All mutation goes through Fetch, Create,
// Update, Delete and ToggleLike.
//
// The transport call is the only point where an operation waits; state is
// only touched under mu, before dispatch and after resolution. Resolutions
// apply in completion order. Duplicate in-flight operations of one class are
// not prevented.
type Aggregator struct {
	transport domain.ReviewTransport

	mu        sync.Mutex
	productID string
	reviews   []domain.Review
	stats     domain.RatingStatistics
	ops       map[domain.OpClass]*opState
	errSeq    uint64
}

func NewAggregator(t domain.ReviewTransport) *Aggregator {
	ops := make(map[domain.OpClass]*opState, len(domain.OpClasses))
	for _, c := range domain.OpClasses {
		ops[c] = &opState{}
	}
	return &Aggregator{
		transport: t,
		stats:     domain.EmptyStatistics(),
		ops:       ops,
	}
}

// Fetch replaces the whole collection with the transport's result set.
// On failure the previous product's collection stays in place.
func (a *Aggregator) Fetch(ctx context.Context, productID string) Result {
	res := Result{Class: domain.OpFetch, ProductID: productID}
	if err := requireID("productId", productID); err != nil {
		return a.reject(res, err)
	}

	var got []domain.Review
	return a.dispatch(res, func() (err error) {
		got, err = a.transport.FetchReviews(ctx, productID)
		return err
	}, func(r *Result) {
		a.productID = productID
		a.reviews = append(make([]domain.Review, 0, len(got)), got...)
		a.recomputeLocked()
		r.Reviews = a.copyReviewsLocked()
		r.Applied = true
	})
}

// Create submits a review and, once the server commits it, inserts it at the
// front of the collection. Authentication is the caller's job.
func (a *Aggregator) Create(ctx context.Context, in domain.NewReview) Result {
	res := Result{Class: domain.OpCreate, ProductID: in.ProductID}
	if err := ValidateNewReview(in); err != nil {
		return a.reject(res, err)
	}

	var got domain.Review
	return a.dispatch(res, func() (err error) {
		got, err = a.transport.CreateReview(ctx, in)
		return err
	}, func(r *Result) {
		a.reviews = append([]domain.Review{got}, a.reviews...)
		a.recomputeLocked()
		r.Review = &got
		r.ReviewID = got.ID
		r.ProductID = got.ProductID
		r.Applied = true
	})
}

// Update replaces the matching review in place with the server's copy.
func (a *Aggregator) Update(ctx context.Context, reviewID string, fields domain.ReviewFields) Result {
	res := Result{Class: domain.OpUpdate, ReviewID: reviewID}
	if err := requireID("reviewId", reviewID); err != nil {
		return a.reject(res, err)
	}
	if err := ValidateFields(fields); err != nil {
		return a.reject(res, err)
	}

	var got domain.Review
	return a.dispatch(res, func() (err error) {
		got, err = a.transport.UpdateReview(ctx, reviewID, fields)
		return err
	}, func(r *Result) {
		if got.ID == "" {
			got.ID = reviewID
		}
		r.Review = &got
		r.ProductID = got.ProductID
		if a.replaceLocked(r, got) {
			a.recomputeLocked()
		}
	})
}

// Delete removes the matching review once the server confirms.
func (a *Aggregator) Delete(ctx context.Context, reviewID string) Result {
	res := Result{Class: domain.OpDelete, ReviewID: reviewID}
	if err := requireID("reviewId", reviewID); err != nil {
		return a.reject(res, err)
	}

	return a.dispatch(res, func() error {
		return a.transport.DeleteReview(ctx, reviewID)
	}, func(r *Result) {
		i := a.indexLocked(reviewID)
		if i < 0 {
			a.missLocked(r, reviewID)
			return
		}
		r.ProductID = a.reviews[i].ProductID
		next := make([]domain.Review, 0, len(a.reviews)-1)
		next = append(next, a.reviews[:i]...)
		a.reviews = append(next, a.reviews[i+1:]...)
		a.recomputeLocked()
		r.Applied = true
	})
}

// ToggleLike swaps in the server's copy of the review carrying the new like
// count. Statistics are left alone since a like never changes a rating.
func (a *Aggregator) ToggleLike(ctx context.Context, reviewID string) Result {
	res := Result{Class: domain.OpLike, ReviewID: reviewID}
	if err := requireID("reviewId", reviewID); err != nil {
		return a.reject(res, err)
	}

	var got domain.Review
	return a.dispatch(res, func() (err error) {
		got, err = a.transport.ToggleLike(ctx, reviewID)
		return err
	}, func(r *Result) {
		if got.ID == "" {
			got.ID = reviewID
		}
		r.Review = &got
		r.ProductID = got.ProductID
		a.replaceLocked(r, got)
	})
}

// dispatch marks the class pending, runs call without holding the lock, then
// either applies the effect or records the failure.
func (a *Aggregator) dispatch(res Result, call func() error, apply func(*Result)) Result {
	a.mu.Lock()
	a.ops[res.Class].inflight++
	a.mu.Unlock()

	start := time.Now()
	err := call()
	dur := time.Since(start)

	a.mu.Lock()
	op := a.ops[res.Class]
	op.inflight--
	if err != nil {
		res.Outcome = domain.Rejected
		res.Err = err
		a.retainErrLocked(op, err)
	} else {
		res.Outcome = domain.Fulfilled
		apply(&res)
	}
	kept := res
	op.result = &kept
	a.mu.Unlock()

	observability.ObserveOperation(string(res.Class), string(res.Outcome), domain.ErrorKind(res.Err), dur)
	ev := log.Debug()
	if res.Outcome == domain.Rejected {
		ev = log.Warn().Err(res.Err)
	}
	ev.Str("op", string(res.Class)).
		Str("product_id", res.ProductID).
		Str("review_id", res.ReviewID).
		Str("outcome", string(res.Outcome)).
		Bool("applied", res.Applied).
		Dur("duration", dur).
		Msg("review operation resolved")
	return res
}

// reject resolves an operation that failed before dispatch.
func (a *Aggregator) reject(res Result, err error) Result {
	res.Outcome = domain.Rejected
	res.Err = err

	a.mu.Lock()
	op := a.ops[res.Class]
	a.retainErrLocked(op, err)
	kept := res
	op.result = &kept
	a.mu.Unlock()

	observability.ObserveOperation(string(res.Class), string(res.Outcome), domain.ErrorKind(err), 0)
	log.Debug().Err(err).Str("op", string(res.Class)).Msg("review operation rejected before dispatch")
	return res
}

func (a *Aggregator) retainErrLocked(op *opState, err error) {
	a.errSeq++
	op.err = err
	op.errSeq = a.errSeq
}

func (a *Aggregator) missLocked(r *Result, reviewID string) {
	r.Err = fmt.Errorf("%w: review %s is not in the current collection", domain.ErrNotFound, reviewID)
	a.retainErrLocked(a.ops[r.Class], r.Err)
}

// replaceLocked swaps in rv by id, reporting whether a match existed.
func (a *Aggregator) replaceLocked(r *Result, rv domain.Review) bool {
	i := a.indexLocked(rv.ID)
	if i < 0 {
		a.missLocked(r, rv.ID)
		return false
	}
	a.reviews[i] = rv
	r.Applied = true
	return true
}

func (a *Aggregator) indexLocked(id string) int {
	for i := range a.reviews {
		if a.reviews[i].ID == id {
			return i
		}
	}
	return -1
}

func (a *Aggregator) recomputeLocked() {
	a.stats = ComputeStatistics(a.reviews)
}

func (a *Aggregator) copyReviewsLocked() []domain.Review {
	out := make([]domain.Review, len(a.reviews))
	copy(out, a.reviews)
	return out
}

// ---- read side ----

func (a *Aggregator) Reviews() []domain.Review {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.copyReviewsLocked()
}

func (a *Aggregator) Stats() domain.RatingStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stats.Clone()
}

func (a *Aggregator) ProductID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.productID
}

func (a *Aggregator) Pending(c domain.OpClass) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	op, ok := a.ops[c]
	return ok && op.inflight > 0
}

// Err returns the retained failure for c until ClearError is called.
func (a *Aggregator) Err(c domain.OpClass) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if op, ok := a.ops[c]; ok {
		return op.err
	}
	return nil
}

func (a *Aggregator) ClearError(c domain.OpClass) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if op, ok := a.ops[c]; ok {
		op.err = nil
		op.errSeq = 0
	}
}

// TakeResult hands out the last resolution of c once.
func (a *Aggregator) TakeResult(c domain.OpClass) (Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	op, ok := a.ops[c]
	if !ok || op.result == nil {
		return Result{}, false
	}
	r := *op.result
	op.result = nil
	return r, true
}

func (a *Aggregator) Snapshot() State {
	a.mu.Lock()
	defer a.mu.Unlock()

	st := State{
		ProductID: a.productID,
		Reviews:   a.copyReviewsLocked(),
		Stats:     a.stats.Clone(),
		Pending:   make(map[domain.OpClass]bool, len(a.ops)),
		Errors:    make(map[domain.OpClass]string),
	}
	var latest uint64
	for c, op := range a.ops {
		st.Pending[c] = op.inflight > 0
		if op.err == nil {
			continue
		}
		st.Errors[c] = op.err.Error()
		if op.errSeq > latest {
			latest = op.errSeq
			st.LastError = op.err.Error()
		}
	}
	return st
}
