package race

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Lister is the slice of the repository the aggregation needs. Races it returns
// are already tagged with the database source.
type Lister interface {
	ListAll(ctx context.Context) ([]Race, error)
}

// ExternalSource fetches upcoming races from the third-party listing service,
// already normalized and tagged.
type ExternalSource interface {
	Name() string
	FetchUpcoming(ctx context.Context, from time.Time) ([]Race, error)
}

// Service aggregates repository races with externally listed ones. The external
// contribution is held in a snapshot cache so a slow or failing third party
// never stalls or breaks the database portion of the page; the scheduler
// refreshes it in the background and a cold or stale cache falls back to a live
// fetch.
type Service struct {
	db       Lister
	external ExternalSource
	cacheTTL time.Duration

	// fetchSeq hands out a monotonic generation per external fetch so a slow
	// superseded fetch can never overwrite a newer snapshot.
	fetchSeq atomic.Uint64

	mu       sync.RWMutex
	cached   []Race
	cachedAt time.Time
	gen      uint64
}

// NewService creates a Service. cacheTTL bounds how long an external snapshot
// is served before a live refresh; zero or negative disables caching and every
// aggregation fetches the external source directly.
func NewService(db Lister, external ExternalSource, cacheTTL time.Duration) *Service {
	return &Service{
		db:       db,
		external: external,
		cacheTTL: cacheTTL,
	}
}

// Aggregate fetches both sources concurrently and returns a brand-new combined
// list: repository races first, then external races, each side keeping its own
// internal order. No deduplication is performed across sources; id namespacing
// already rules out collisions.
//
// A repository failure fails the whole aggregation (retryable by the caller).
// An external failure is logged and contributes nothing, so the page still
// renders database-only results.
func (s *Service) Aggregate(ctx context.Context) ([]Race, error) {
	var (
		wg       sync.WaitGroup
		dbRaces  []Race
		dbErr    error
		extRaces []Race
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		dbRaces, dbErr = s.db.ListAll(ctx)
	}()
	go func() {
		defer wg.Done()
		extRaces = s.externalRaces(ctx)
	}()
	wg.Wait()

	if dbErr != nil {
		return nil, fmt.Errorf("list races: %w", dbErr)
	}

	combined := make([]Race, 0, len(dbRaces)+len(extRaces))
	combined = append(combined, dbRaces...)
	combined = append(combined, extRaces...)
	return combined, nil
}

// externalRaces serves the cached snapshot when fresh, otherwise refreshes
// live. Failures degrade to whatever snapshot exists, possibly empty.
func (s *Service) externalRaces(ctx context.Context) []Race {
	if s.external == nil {
		return nil
	}

	s.mu.RLock()
	fresh := s.cacheTTL > 0 && !s.cachedAt.IsZero() && time.Since(s.cachedAt) < s.cacheTTL
	cached := s.cached
	s.mu.RUnlock()

	if fresh {
		return cached
	}

	if err := s.RefreshExternal(ctx); err != nil {
		log.Printf("external source %s fetch failed: %v; degrading to cached/empty", s.external.Name(), err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cached
}

// RefreshExternal fetches upcoming external races and replaces the snapshot.
// The snapshot only moves forward: a fetch that finishes after a newer one is
// discarded.
func (s *Service) RefreshExternal(ctx context.Context) error {
	if s.external == nil {
		return nil
	}

	gen := s.fetchSeq.Add(1)

	races, err := s.external.FetchUpcoming(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen <= s.gen {
		// A newer fetch already landed.
		return nil
	}
	s.cached = races
	s.cachedAt = time.Now()
	s.gen = gen
	return nil
}
