package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nat12323/race-weather-tracker/internal/race"
)

func TestMemoryRaceStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRaceStore()

	created, err := s.Create(ctx, RaceParams{
		Name:      "Mud Run",
		Type:      "OCR",
		RaceDate:  time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC),
		Latitude:  40.7,
		Longitude: -74.0,
		State:     "NY",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID != "1" {
		t.Fatalf("expected id 1, got %s", created.ID)
	}
	if created.Source != race.SourceDatabase {
		t.Fatalf("expected database source tag, got %s", created.Source)
	}
	if len(created.Types) != 1 || created.Types[0] != "OCR" {
		t.Fatalf("expected singleton label list, got %+v", created.Types)
	}

	got, err := s.GetByID(ctx, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Mud Run" {
		t.Fatalf("unexpected race: %+v", got)
	}

	if _, err := s.GetByID(ctx, 99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	updated, err := s.Update(ctx, 1, RaceParams{
		Name:      "Mega Mud Run",
		RaceDate:  time.Date(2026, 9, 13, 0, 0, 0, 0, time.UTC),
		Latitude:  40.7,
		Longitude: -74.0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Mega Mud Run" {
		t.Fatalf("update did not apply: %+v", updated)
	}

	if _, err := s.Update(ctx, 99, RaceParams{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	deleted, err := s.Delete(ctx, 1)
	if err != nil || !deleted {
		t.Fatalf("expected successful delete, got %v %v", deleted, err)
	}
	deleted, err = s.Delete(ctx, 1)
	if err != nil || deleted {
		t.Fatalf("expected no-op delete, got %v %v", deleted, err)
	}
}

func TestMemoryRaceStoreListOrderedByDate(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryRaceStore()

	later := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	sooner := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	if _, err := s.Create(ctx, RaceParams{Name: "Later", RaceDate: later}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := s.Create(ctx, RaceParams{Name: "Sooner", RaceDate: sooner}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 2 || all[0].Name != "Sooner" || all[1].Name != "Later" {
		t.Fatalf("expected date-ascending order, got %+v", all)
	}
}

func TestMemoryUserStoreDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryUserStore()

	u, err := s.CreateUser(ctx, "runner", "runner@example.com", "hash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != 1 {
		t.Fatalf("expected id 1, got %d", u.ID)
	}

	if _, err := s.CreateUser(ctx, "other", "runner@example.com", "hash"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for email, got %v", err)
	}
	if _, err := s.CreateUser(ctx, "runner", "other@example.com", "hash"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for username, got %v", err)
	}

	found, err := s.FindByEmail(ctx, "runner@example.com")
	if err != nil || found.Username != "runner" {
		t.Fatalf("expected to find user by email, got %+v %v", found, err)
	}
	if _, err := s.FindByUsername(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
