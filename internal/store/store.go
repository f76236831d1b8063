package store

import (
	"context"
	"errors"
	"time"

	"github.com/nat12323/race-weather-tracker/internal/race"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a uniqueness constraint.
	ErrDuplicate = errors.New("record already exists")
)

// RaceParams carries the persisted race fields for create and update. The
// database keeps a single category label per race; it becomes a singleton label
// list when the row crosses into the aggregation pipeline.
type RaceParams struct {
	Name        string
	Type        string
	RaceDate    time.Time
	Latitude    float64
	Longitude   float64
	City        string
	State       string
	Address     string
	Description string
	WebsiteURL  string
}

// RaceStore is the contract the Postgres repository (and the in-memory store
// used in tests and keyless dev runs) must satisfy. Every race returned is
// already tagged with the database source.
type RaceStore interface {
	ListAll(ctx context.Context) ([]race.Race, error)
	GetByID(ctx context.Context, id int) (race.Race, error)
	Create(ctx context.Context, p RaceParams) (race.Race, error)
	Update(ctx context.Context, id int, p RaceParams) (race.Race, error)
	Delete(ctx context.Context, id int) (bool, error)
}

// User is a registered account. PasswordHash is the bcrypt hash, never the
// plaintext password.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserStore is the account persistence contract.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, passwordHash string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	FindByUsername(ctx context.Context, username string) (User, error)
}
