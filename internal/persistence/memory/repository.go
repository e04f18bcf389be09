// Package memory provides an in-process Repository for local development and
// tests.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"example.com/exercisetracker/internal/domain"
)

// Repository stores users and exercises in insertion order.
type Repository struct {
	mu        sync.RWMutex
	users     []domain.User
	byName    map[string]int
	byID      map[string]int
	exercises []domain.Exercise
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		byName: make(map[string]int),
		byID:   make(map[string]int),
	}
}

// UpsertUser implements domain.Repository.
func (r *Repository) UpsertUser(ctx context.Context, username string) (domain.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, ok := r.byName[username]; ok {
		return r.users[idx], false, nil
	}

	user := domain.User{ID: uuid.NewString(), Username: username}
	r.users = append(r.users, user)
	r.byName[username] = len(r.users) - 1
	r.byID[user.ID] = len(r.users) - 1
	return user, true, nil
}

// ListUsers implements domain.Repository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, len(r.users))
	copy(out, r.users)
	return out, nil
}

// FindUsers implements domain.Repository.
func (r *Repository) FindUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if idx, ok := r.byID[id]; ok {
			out = append(out, r.users[idx])
		}
	}
	return out, nil
}

// InsertExercise implements domain.Repository.
func (r *Repository) InsertExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(exercise.ID) == "" {
		exercise.ID = uuid.NewString()
	}
	exercise.Date = exercise.Date.UTC()
	r.exercises = append(r.exercises, exercise)
	return exercise, nil
}

// FindExercises implements domain.Repository.
func (r *Repository) FindExercises(ctx context.Context, query domain.ExerciseQuery) ([]domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Exercise, 0)
	for _, exercise := range r.exercises {
		if exercise.UserID != query.UserID {
			continue
		}
		if query.To != nil && exercise.Date.After(*query.To) {
			continue
		}
		if query.From != nil && exercise.Date.Before(*query.From) {
			continue
		}
		out = append(out, exercise)
		if query.Limit > 0 && len(out) >= query.Limit {
			break
		}
	}
	return out, nil
}

// DeleteUser removes a user while leaving its exercises in place. No API
// operation deletes users; this exists to reproduce dangling references.
func (r *Repository) DeleteUser(ctx context.Context, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, ok := r.byID[id]
	if !ok {
		return
	}
	r.users = append(r.users[:idx], r.users[idx+1:]...)
	r.byName = make(map[string]int, len(r.users))
	r.byID = make(map[string]int, len(r.users))
	for i, user := range r.users {
		r.byName[user.Username] = i
		r.byID[user.ID] = i
	}
}

// Ping implements domain.Repository.
func (r *Repository) Ping(ctx context.Context) error { return nil }

// Close implements domain.Repository.
func (r *Repository) Close(ctx context.Context) error { return nil }
