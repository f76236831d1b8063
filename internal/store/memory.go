package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nat12323/race-weather-tracker/internal/race"
)

// MemoryRaceStore is a concurrency-safe in-memory RaceStore. It backs the unit
// tests and lets the service run without a DATABASE_URL configured.
type MemoryRaceStore struct {
	mu     sync.RWMutex
	nextID int
	races  map[int]race.Race
}

func NewMemoryRaceStore() *MemoryRaceStore {
	return &MemoryRaceStore{
		nextID: 1,
		races:  make(map[int]race.Race),
	}
}

// ListAll returns every stored race ordered by race date ascending.
func (s *MemoryRaceStore) ListAll(ctx context.Context) ([]race.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]race.Race, 0, len(s.races))
	for _, r := range s.races {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		di, dj := out[i].RaceDate, out[j].RaceDate
		if di == nil || dj == nil {
			return dj == nil && di != nil
		}
		if di.Equal(*dj) {
			return out[i].ID < out[j].ID
		}
		return di.Before(*dj)
	})
	return out, nil
}

func (s *MemoryRaceStore) GetByID(ctx context.Context, id int) (race.Race, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.races[id]
	if !ok {
		return race.Race{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryRaceStore) Create(ctx context.Context, p RaceParams) (race.Race, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++

	r := fromParams(id, p)
	s.races[id] = r
	return r, nil
}

func (s *MemoryRaceStore) Update(ctx context.Context, id int, p RaceParams) (race.Race, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.races[id]; !ok {
		return race.Race{}, ErrNotFound
	}
	r := fromParams(id, p)
	s.races[id] = r
	return r, nil
}

func (s *MemoryRaceStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.races[id]; !ok {
		return false, nil
	}
	delete(s.races, id)
	return true, nil
}

// fromParams builds the normalized race for a database row: decimal-string id,
// singleton label list, database source tag.
func fromParams(id int, p RaceParams) race.Race {
	var types race.TypeList
	if p.Type != "" {
		types = race.TypeList{p.Type}
	}
	date := p.RaceDate
	return race.Race{
		ID:          strconv.Itoa(id),
		Name:        p.Name,
		Types:       types,
		RaceDate:    &date,
		Latitude:    p.Latitude,
		Longitude:   p.Longitude,
		City:        p.City,
		State:       p.State,
		Address:     p.Address,
		Description: p.Description,
		WebsiteURL:  p.WebsiteURL,
		Source:      race.SourceDatabase,
	}
}

// MemoryUserStore is a concurrency-safe in-memory UserStore.
type MemoryUserStore struct {
	mu     sync.RWMutex
	nextID int
	users  map[int]User
}

func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		nextID: 1,
		users:  make(map[int]User),
	}
}

func (s *MemoryUserStore) CreateUser(ctx context.Context, username, email, passwordHash string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return User{}, ErrDuplicate
		}
	}

	u := User{
		ID:           s.nextID,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	s.nextID++
	s.users[u.ID] = u
	return u, nil
}

func (s *MemoryUserStore) FindByEmail(ctx context.Context, email string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}

func (s *MemoryUserStore) FindByUsername(ctx context.Context, username string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrNotFound
}
