// Package persistence selects and opens the store backing the exercise
// tracker.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/memory"
	"example.com/exercisetracker/internal/persistence/mongodb"
	"example.com/exercisetracker/internal/persistence/postgres"
)

// Backend names a store implementation.
type Backend string

const (
	BackendMemory   Backend = "memory"
	BackendMongo    Backend = "mongodb"
	BackendPostgres Backend = "postgres"
)

// ErrNoStore is reported by Unavailable when it carries no cause.
var ErrNoStore = errors.New("store unavailable")

// Options controls how Open connects.
type Options struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// BackendFor maps a connection string to its backend by scheme. An empty URI
// selects the in-memory store.
func BackendFor(uri string) (Backend, error) {
	uri = strings.TrimSpace(uri)
	if uri == "" {
		return BackendMemory, nil
	}
	parsed, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse store uri: %w", err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "memory":
		return BackendMemory, nil
	case "mongodb", "mongodb+srv":
		return BackendMongo, nil
	case "postgres", "postgresql":
		return BackendPostgres, nil
	default:
		return "", fmt.Errorf("unsupported store scheme %q", parsed.Scheme)
	}
}

// Open builds the repository for opts.URI and pings it once. It never fails:
// a store that cannot be reached is logged and still returned so requests
// fail individually, and a store that cannot even be constructed is replaced
// by Unavailable.
func Open(ctx context.Context, opts Options, logger *slog.Logger) domain.Repository {
	if logger == nil {
		logger = slog.Default()
	}

	backend, err := BackendFor(opts.URI)
	if err != nil {
		logger.Error("store configuration rejected", "error", err)
		return Unavailable{Err: err}
	}

	repo, err := build(ctx, backend, opts)
	if err != nil {
		logger.Error("store client could not be created", "backend", backend, "error", err)
		return Unavailable{Err: err}
	}

	pingCtx := ctx
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	if err := repo.Ping(pingCtx); err != nil {
		logger.Error("store connection failed", "backend", backend, "error", err)
		return repo
	}

	logger.Info("store connected", "backend", backend)
	return repo
}

func build(ctx context.Context, backend Backend, opts Options) (domain.Repository, error) {
	switch backend {
	case BackendMongo:
		return mongodb.Connect(ctx, opts.URI, opts.Database)
	case BackendPostgres:
		return postgres.Connect(ctx, opts.URI)
	default:
		return memory.NewRepository(), nil
	}
}

// Unavailable is a Repository whose every operation fails with Err.
type Unavailable struct {
	Err error
}

func (u Unavailable) err() error {
	if u.Err == nil {
		return ErrNoStore
	}
	return u.Err
}

func (u Unavailable) UpsertUser(context.Context, string) (domain.User, bool, error) {
	return domain.User{}, false, u.err()
}

func (u Unavailable) ListUsers(context.Context) ([]domain.User, error) { return nil, u.err() }

func (u Unavailable) FindUsers(context.Context, []string) ([]domain.User, error) {
	return nil, u.err()
}

func (u Unavailable) InsertExercise(context.Context, domain.Exercise) (domain.Exercise, error) {
	return domain.Exercise{}, u.err()
}

func (u Unavailable) FindExercises(context.Context, domain.ExerciseQuery) ([]domain.Exercise, error) {
	return nil, u.err()
}

func (u Unavailable) Ping(context.Context) error { return u.err() }

func (u Unavailable) Close(context.Context) error { return nil }
