package domain

import (
	"context"
	"time"
)

// User is a registered exercise tracker account.
type User struct {
	ID       string
	Username string
}

// Exercise is a single logged session. UserID is a plain reference; nothing
// guarantees the user still (or ever) exists.
type Exercise struct {
	ID          string
	UserID      string
	Description string
	Duration    float64
	Date        time.Time
}

// ExerciseQuery selects exercises of one user. Nil bounds and a zero Limit
// leave that constraint out.
type ExerciseQuery struct {
	UserID string
	From   *time.Time
	To     *time.Time
	Limit  int
}

// Repository captures persistence operations. Implementations must be safe for
// concurrent use and return results in the store's natural (insertion) order.
type Repository interface {
	// UpsertUser finds the user by exact username or inserts it. created
	// reports whether this call inserted the document.
	UpsertUser(ctx context.Context, username string) (user User, created bool, err error)
	ListUsers(ctx context.Context) ([]User, error)
	// FindUsers returns the users matching ids. Unknown ids are skipped.
	FindUsers(ctx context.Context, ids []string) ([]User, error)
	InsertExercise(ctx context.Context, exercise Exercise) (Exercise, error)
	FindExercises(ctx context.Context, query ExerciseQuery) ([]Exercise, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
