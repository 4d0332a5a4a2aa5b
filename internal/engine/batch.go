package engine

import (
	"context"
	"log/slog"
	"sync"

	"github.com/talgya/statecraft/internal/diplomacy"
)

// RefreshAll recomputes every country's vector from its stored metrics
// snapshot using a bounded worker pool. Countries are independent, so the
// pool runs them in parallel; per-country serialization happens inside
// RefreshTraits. Individual failures are logged and counted, not fatal.
func (s *Service) RefreshAll(ctx context.Context, workers int) (int, error) {
	if workers < 1 {
		workers = 1
	}

	countries, err := s.db.ListCountries()
	if err != nil {
		return 0, err
	}

	jobs := make(chan *diplomacy.Country)
	var wg sync.WaitGroup
	var failed sync.Map

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				if _, err := s.RefreshTraits(ctx, c.ID, c.Metrics); err != nil {
					slog.Warn("trait refresh failed", "country", c.ID, "error", err)
					failed.Store(c.ID, struct{}{})
				}
			}
		}()
	}

	for _, c := range countries {
		select {
		case jobs <- c:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return 0, ctx.Err()
		}
	}
	close(jobs)
	wg.Wait()

	refreshed := len(countries)
	failed.Range(func(_, _ any) bool {
		refreshed--
		return true
	})
	return refreshed, nil
}
