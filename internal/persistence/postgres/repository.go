// Package postgres stores users and exercises in PostgreSQL tables shaped like
// the document collections.
package postgres

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/exercisetracker/internal/domain"
)

// seq preserves insertion order. user_id is not a foreign key.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    seq      BIGSERIAL,
    id       TEXT PRIMARY KEY,
    username TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS exercises (
    seq         BIGSERIAL,
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL,
    description TEXT NOT NULL,
    duration    DOUBLE PRECISION NOT NULL,
    date        TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS exercises_user_date_idx ON exercises (user_id, date);
`

// Repository provides Postgres-backed persistence.
type Repository struct {
	pool *pgxpool.Pool

	schemaMu sync.Mutex
	ready    bool
}

// Connect builds a pool for dsn. pgxpool dials lazily, so an unreachable
// server is not an error here; call Ping to find out.
func Connect(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return NewRepository(pool), nil
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the tables if they are missing. Every operation calls
// it until it has succeeded once.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()

	if r.ready {
		return nil
	}
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return err
	}
	r.ready = true
	return nil
}

// UpsertUser implements domain.Repository.
func (r *Repository) UpsertUser(ctx context.Context, username string) (domain.User, bool, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return domain.User{}, false, err
	}

	const insert = `INSERT INTO users (id, username) VALUES ($1, $2)
        ON CONFLICT (username) DO NOTHING
        RETURNING id, username`

	var user domain.User
	err := r.pool.QueryRow(ctx, insert, uuid.NewString(), username).Scan(&user.ID, &user.Username)
	if err == nil {
		return user, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.User{}, false, err
	}

	const query = `SELECT id, username FROM users WHERE username=$1`
	if err := r.pool.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username); err != nil {
		return domain.User{}, false, err
	}
	return user, false, nil
}

// ListUsers implements domain.Repository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, `SELECT id, username FROM users ORDER BY seq`)
}

// FindUsers implements domain.Repository.
func (r *Repository) FindUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, `SELECT id, username FROM users WHERE id = ANY($1) ORDER BY seq`, ids)
}

func (r *Repository) queryUsers(ctx context.Context, query string, args ...interface{}) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.ID, &user.Username); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// InsertExercise implements domain.Repository.
func (r *Repository) InsertExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return domain.Exercise{}, err
	}

	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	exercise.Date = exercise.Date.UTC()

	const insert = `INSERT INTO exercises (id, user_id, description, duration, date)
        VALUES ($1,$2,$3,$4,$5)`

	_, err := r.pool.Exec(ctx, insert,
		exercise.ID,
		exercise.UserID,
		exercise.Description,
		exercise.Duration,
		exercise.Date,
	)
	if err != nil {
		return domain.Exercise{}, err
	}
	return exercise, nil
}

// FindExercises implements domain.Repository.
func (r *Repository) FindExercises(ctx context.Context, query domain.ExerciseQuery) ([]domain.Exercise, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}

	args := []interface{}{query.UserID}
	sql := `SELECT id, user_id, description, duration, date FROM exercises WHERE user_id=$1`

	if query.To != nil {
		args = append(args, *query.To)
		sql += ` AND date <= $` + strconv.Itoa(len(args))
	}
	if query.From != nil {
		args = append(args, *query.From)
		sql += ` AND date >= $` + strconv.Itoa(len(args))
	}

	sql += ` ORDER BY seq`
	if query.Limit > 0 {
		args = append(args, query.Limit)
		sql += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]domain.Exercise, 0)
	for rows.Next() {
		var exercise domain.Exercise
		if err := rows.Scan(&exercise.ID, &exercise.UserID, &exercise.Description, &exercise.Duration, &exercise.Date); err != nil {
			return nil, err
		}
		exercise.Date = exercise.Date.UTC()
		results = append(results, exercise)
	}
	return results, rows.Err()
}

// Ping implements domain.Repository.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// Close implements domain.Repository.
func (r *Repository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

