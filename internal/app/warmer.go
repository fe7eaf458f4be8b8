package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"storefront/internal/domain"
)

// refresher is implemented by transports that can bypass their own cache.
type refresher interface {
	Refresh(ctx context.Context, productID string) ([]domain.Review, error)
}

// Warmer pre-fetches review payloads so the cache in front of the transport
// is hot before viewers arrive.
type Warmer struct {
	transport domain.ReviewTransport
	workers   int64
}

func NewWarmer(t domain.ReviewTransport, workers int) *Warmer {
	if workers <= 0 {
		workers = 1
	}
	return &Warmer{transport: t, workers: int64(workers)}
}

// WarmReport counts per-product outcomes of one Warm run.
type WarmReport struct {
	OK     int64
	Failed int64
}

// Warm fetches every product with bounded concurrency. One product failing
// doesn't stop the others; only ctx cancellation aborts the run.
func (w *Warmer) Warm(ctx context.Context, productIDs []string) (WarmReport, error) {
	sem := semaphore.NewWeighted(w.workers)
	var (
		wg     sync.WaitGroup
		ok     atomic.Int64
		failed atomic.Int64
	)

	for _, id := range productIDs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return WarmReport{OK: ok.Load(), Failed: failed.Load()}, err
		}

		wg.Add(1)
		go func(productID string) {
			defer wg.Done()
			defer sem.Release(1)

			rs, err := w.fetch(ctx, productID)
			if err != nil {
				failed.Add(1)
				log.Warn().Str("product_id", productID).Str("kind", domain.ErrorKind(err)).Err(err).Msg("warm failed")
				return
			}
			ok.Add(1)
			log.Info().Str("product_id", productID).Int("reviews", len(rs)).Msg("warm ok")
		}(id)
	}

	wg.Wait()
	return WarmReport{OK: ok.Load(), Failed: failed.Load()}, nil
}

func (w *Warmer) fetch(ctx context.Context, productID string) ([]domain.Review, error) {
	if r, ok := w.transport.(refresher); ok {
		return r.Refresh(ctx, productID)
	}
	return w.transport.FetchReviews(ctx, productID)
}
