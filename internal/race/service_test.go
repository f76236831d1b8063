package race

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type stubLister struct {
	races []Race
	err   error
}

func (s stubLister) ListAll(ctx context.Context) ([]Race, error) {
	return s.races, s.err
}

type stubSource struct {
	mu    sync.Mutex
	races []Race
	err   error
	calls int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) FetchUpcoming(ctx context.Context, from time.Time) ([]Race, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.races, s.err
}

func TestAggregateCombinesAndTagsBothSources(t *testing.T) {
	db := stubLister{races: []Race{{ID: "1", Name: "Mud Run", Source: SourceDatabase}}}
	ext := &stubSource{races: []Race{{ID: "runreg-42", Name: "Spring 10K", Source: SourceRunReg}}}

	svc := NewService(db, ext, 0)
	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 races, got %d", len(got))
	}
	if got[0].ID != "1" || got[0].Source != SourceDatabase {
		t.Fatalf("expected database race first, got %+v", got[0])
	}
	if got[1].ID != "runreg-42" || got[1].Source != SourceRunReg {
		t.Fatalf("expected namespaced external race second, got %+v", got[1])
	}
}

func TestAggregateRepositoryFailureFailsWhole(t *testing.T) {
	db := stubLister{err: errors.New("connection refused")}
	ext := &stubSource{races: []Race{{ID: "runreg-42"}}}

	svc := NewService(db, ext, 0)
	if _, err := svc.Aggregate(context.Background()); err == nil {
		t.Fatal("expected aggregation to fail when the repository fails")
	}
}

func TestAggregateExternalFailureDegradesToEmpty(t *testing.T) {
	db := stubLister{races: []Race{{ID: "1", Source: SourceDatabase}}}
	ext := &stubSource{err: errors.New("network down")}

	svc := NewService(db, ext, 0)
	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("external failure must not fail the aggregation: %v", err)
	}
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("expected database-only result, got %+v", got)
	}
}

func TestAggregateServesCachedSnapshot(t *testing.T) {
	db := stubLister{}
	ext := &stubSource{races: []Race{{ID: "runreg-7"}}}

	svc := NewService(db, ext, time.Hour)
	if err := svc.RefreshExternal(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Subsequent failures must not evict the last good snapshot.
	ext.mu.Lock()
	ext.err = errors.New("flaky")
	ext.mu.Unlock()

	for i := 0; i < 3; i++ {
		got, err := svc.Aggregate(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0].ID != "runreg-7" {
			t.Fatalf("expected cached external race, got %+v", got)
		}
	}

	ext.mu.Lock()
	calls := ext.calls
	ext.mu.Unlock()
	if calls != 1 {
		t.Fatalf("expected a single upstream fetch while the cache is fresh, got %d", calls)
	}
}

// gateSource blocks each fetch until the test releases it, so completion order
// can be forced.
type gateSource struct {
	mu      sync.Mutex
	n       int
	started []chan struct{}
	release []chan []Race
}

func (g *gateSource) Name() string { return "gate" }

func (g *gateSource) FetchUpcoming(ctx context.Context, from time.Time) ([]Race, error) {
	g.mu.Lock()
	i := g.n
	g.n++
	g.mu.Unlock()

	close(g.started[i])
	return <-g.release[i], nil
}

func TestRefreshExternalDiscardsStaleFetch(t *testing.T) {
	src := &gateSource{
		started: []chan struct{}{make(chan struct{}), make(chan struct{})},
		release: []chan []Race{make(chan []Race, 1), make(chan []Race, 1)},
	}
	svc := NewService(stubLister{}, src, time.Hour)

	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		_ = svc.RefreshExternal(context.Background())
	}()
	<-src.started[0]

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		_ = svc.RefreshExternal(context.Background())
	}()
	<-src.started[1]

	// The newer fetch lands first, then the stale one.
	src.release[1] <- []Race{{ID: "runreg-new"}}
	<-done2
	src.release[0] <- []Race{{ID: "runreg-old"}}
	<-done1

	got, err := svc.Aggregate(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "runreg-new" {
		t.Fatalf("stale fetch must not overwrite newer snapshot, got %+v", got)
	}
}
