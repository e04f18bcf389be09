// Package events defines the domain events emitted by the exercise tracker and
// the publishers that deliver them.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	TypeUserCreated    = "user.created"
	TypeExerciseLogged = "exercise.logged"
)

// Event is a payload that can be published. Key selects the partition.
type Event interface {
	Type() string
	Key() string
}

// UserCreated is emitted the first time a username is registered.
type UserCreated struct {
	UserID     string    `json:"user_id"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (UserCreated) Type() string { return TypeUserCreated }

func (e UserCreated) Key() string { return e.UserID }

// ExerciseLogged is emitted after an exercise is stored and its owner resolved.
type ExerciseLogged struct {
	ExerciseID  string    `json:"exercise_id"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Date        time.Time `json:"date"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (ExerciseLogged) Type() string { return TypeExerciseLogged }

func (e ExerciseLogged) Key() string { return e.UserID }

// Publisher delivers events to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish performs no action.
func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// Close performs no action.
func (NoopPublisher) Close() error { return nil }
