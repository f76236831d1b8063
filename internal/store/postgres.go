package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nat12323/race-weather-tracker/internal/race"
)

const uniqueViolation = "23505"

// PostgresStore implements RaceStore and UserStore on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies the connection.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

const raceColumns = `id, race_name, race_type, race_date, latitude, longitude,
	city, state, address, description, website_url`

func (s *PostgresStore) ListAll(ctx context.Context) ([]race.Race, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+raceColumns+` FROM upcoming_races ORDER BY race_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("list races: %w", err)
	}
	defer rows.Close()

	var races []race.Race
	for rows.Next() {
		r, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		races = append(races, r)
	}
	return races, rows.Err()
}

func (s *PostgresStore) GetByID(ctx context.Context, id int) (race.Race, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+raceColumns+` FROM upcoming_races WHERE id = $1`, id)
	r, err := scanRace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return race.Race{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) Create(ctx context.Context, p RaceParams) (race.Race, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO upcoming_races
			(race_name, race_type, race_date, latitude, longitude, city, state, address, description, website_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+raceColumns,
		p.Name, nullable(p.Type), p.RaceDate, p.Latitude, p.Longitude,
		nullable(p.City), nullable(p.State), nullable(p.Address),
		nullable(p.Description), nullable(p.WebsiteURL))
	return scanRace(row)
}

func (s *PostgresStore) Update(ctx context.Context, id int, p RaceParams) (race.Race, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE upcoming_races SET
			race_name=$1, race_type=$2, race_date=$3, latitude=$4, longitude=$5,
			city=$6, state=$7, address=$8, description=$9, website_url=$10
		 WHERE id=$11
		 RETURNING `+raceColumns,
		p.Name, nullable(p.Type), p.RaceDate, p.Latitude, p.Longitude,
		nullable(p.City), nullable(p.State), nullable(p.Address),
		nullable(p.Description), nullable(p.WebsiteURL), id)
	r, err := scanRace(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return race.Race{}, ErrNotFound
	}
	return r, err
}

func (s *PostgresStore) Delete(ctx context.Context, id int) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM upcoming_races WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete race: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// scanRace reads one upcoming_races row into the normalized race shape:
// decimal-string id, singleton label list, database source tag.
func scanRace(row pgx.Row) (race.Race, error) {
	var (
		id                      int
		name                    string
		raceType                *string
		raceDate                *time.Time
		lat, lon                float64
		city, state, address    *string
		description, websiteURL *string
	)
	err := row.Scan(&id, &name, &raceType, &raceDate, &lat, &lon,
		&city, &state, &address, &description, &websiteURL)
	if err != nil {
		return race.Race{}, err
	}

	var types race.TypeList
	if raceType != nil && *raceType != "" {
		types = race.TypeList{*raceType}
	}

	return race.Race{
		ID:          strconv.Itoa(id),
		Name:        name,
		Types:       types,
		RaceDate:    raceDate,
		Latitude:    lat,
		Longitude:   lon,
		City:        deref(city),
		State:       deref(state),
		Address:     deref(address),
		Description: deref(description),
		WebsiteURL:  deref(websiteURL),
		Source:      race.SourceDatabase,
	}, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, username, email, passwordHash string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password)
		 VALUES ($1, $2, $3)
		 RETURNING id, username, email, created_at`,
		username, email, passwordHash).
		Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return User{}, ErrDuplicate
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}
	u.PasswordHash = passwordHash
	return u, nil
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.findUser(ctx, `SELECT id, username, email, password, created_at FROM users WHERE email = $1`, email)
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (User, error) {
	return s.findUser(ctx, `SELECT id, username, email, password, created_at FROM users WHERE username = $1`, username)
}

func (s *PostgresStore) findUser(ctx context.Context, query, arg string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
