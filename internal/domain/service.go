// Package domain defines the business logic for the exercise tracker.
package domain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"example.com/exercisetracker/internal/events"
	"example.com/exercisetracker/internal/observability"
)

const publishTimeout = 5 * time.Second

// CreateExerciseInput captures the raw payload from the API layer. Duration
// and Date are cast here, not by the transport.
type CreateExerciseInput struct {
	UserID      string
	Description string
	Duration    string
	Date        string
}

// LogFilter carries the raw log query parameters.
type LogFilter struct {
	From  string
	To    string
	Limit string
}

// LoggedExercise is an exercise with its owner's username resolved.
type LoggedExercise struct {
	Exercise
	Username string
}

// Log is the result of a log query. Resolved is false when no exercise in the
// result has an owner that could be resolved; Username is empty then.
type Log struct {
	UserID    string
	Username  string
	Resolved  bool
	Exercises []Exercise
}

// Option configures optional behaviour for the Service.
type Option func(*Service)

// WithClock overrides the time source used for default exercise dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger overrides the logger used to report event publish failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// Service orchestrates user and exercise workflows.
type Service struct {
	repo   Repository
	events events.Publisher
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs a Service. A nil publisher disables domain events.
func NewService(repo Repository, publisher events.Publisher, opts ...Option) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	s := &Service{
		repo:   repo,
		events: publisher,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpsertUser returns the user named username, creating it on first use.
// Repeated calls never modify an existing user.
func (s *Service) UpsertUser(ctx context.Context, username string) (User, error) {
	if err := validateUser(username); err != nil {
		return User{}, storeError("upsert_user", err)
	}

	user, created, err := s.repo.UpsertUser(ctx, username)
	if err != nil {
		return User{}, storeError("upsert_user", err)
	}

	if created {
		observability.RecordUserCreated()
		s.publish(ctx, events.UserCreated{
			UserID:     user.ID,
			Username:   user.Username,
			OccurredAt: s.now().UTC(),
		})
	}
	return user, nil
}

// ListUsers returns every user in store order.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, storeError("list_users", err)
	}
	return users, nil
}

// CreateExercise validates and stores an exercise, then resolves its owner.
// The owner is not checked before the insert: an exercise for an unknown user
// is stored and the call then fails with ErrUserNotFound.
func (s *Service) CreateExercise(ctx context.Context, input CreateExerciseInput) (LoggedExercise, error) {
	exercise, err := buildExercise(input, s.now())
	if err != nil {
		return LoggedExercise{}, storeError("create_exercise", err)
	}

	stored, err := s.repo.InsertExercise(ctx, exercise)
	if err != nil {
		return LoggedExercise{}, storeError("create_exercise", err)
	}
	observability.RecordExerciseLogged(s.now())

	owners, err := s.resolveOwners(ctx, []Exercise{stored})
	if err != nil {
		return LoggedExercise{}, storeError("create_exercise", err)
	}
	owner, ok := owners[stored.UserID]
	if !ok {
		return LoggedExercise{}, storeError("create_exercise", unresolvedOwner(stored.UserID))
	}

	s.publish(ctx, events.ExerciseLogged{
		ExerciseID:  stored.ID,
		UserID:      stored.UserID,
		Username:    owner.Username,
		Description: stored.Description,
		Duration:    stored.Duration,
		Date:        stored.Date,
		OccurredAt:  s.now().UTC(),
	})

	return LoggedExercise{Exercise: stored, Username: owner.Username}, nil
}

// ListExercises returns all exercises of userID with their owner resolved.
func (s *Service) ListExercises(ctx context.Context, userID string) ([]LoggedExercise, error) {
	exercises, err := s.repo.FindExercises(ctx, ExerciseQuery{UserID: userID})
	if err != nil {
		return nil, storeError("list_exercises", err)
	}

	owners, err := s.resolveOwners(ctx, exercises)
	if err != nil {
		return nil, storeError("list_exercises", err)
	}

	out := make([]LoggedExercise, 0, len(exercises))
	for _, exercise := range exercises {
		owner, ok := owners[exercise.UserID]
		if !ok {
			return nil, storeError("list_exercises", unresolvedOwner(exercise.UserID))
		}
		out = append(out, LoggedExercise{Exercise: exercise, Username: owner.Username})
	}
	return out, nil
}

// ExerciseLog returns the exercises of userID within [from, to], capped at
// limit. The username is taken from the first exercise whose owner resolves.
func (s *Service) ExerciseLog(ctx context.Context, userID string, filter LogFilter) (Log, error) {
	query, err := buildLogQuery(userID, filter)
	if err != nil {
		return Log{}, storeError("exercise_log", err)
	}

	exercises, err := s.repo.FindExercises(ctx, query)
	if err != nil {
		return Log{}, storeError("exercise_log", err)
	}

	owners, err := s.resolveOwners(ctx, exercises)
	if err != nil {
		return Log{}, storeError("exercise_log", err)
	}

	log := Log{UserID: userID, Exercises: exercises}
	for _, exercise := range exercises {
		if owner, ok := owners[exercise.UserID]; ok && owner.Username != "" {
			log.Username = owner.Username
			log.Resolved = true
			break
		}
	}
	return log, nil
}

// Ping reports whether the underlying store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func buildLogQuery(userID string, filter LogFilter) (ExerciseQuery, error) {
	query := ExerciseQuery{UserID: userID}

	if filter.To != "" {
		to, ok := ParseDate(filter.To)
		if !ok {
			return ExerciseQuery{}, &CastError{Kind: "date", Value: filter.To, Path: "date", Model: "Exercise"}
		}
		query.To = &to
	}
	if filter.From != "" {
		from, ok := ParseDate(filter.From)
		if !ok {
			return ExerciseQuery{}, &CastError{Kind: "date", Value: filter.From, Path: "date", Model: "Exercise"}
		}
		query.From = &from
	}

	limit, err := parseLimit(filter.Limit)
	if err != nil {
		return ExerciseQuery{}, err
	}
	query.Limit = limit
	return query, nil
}

func (s *Service) resolveOwners(ctx context.Context, exercises []Exercise) (map[string]User, error) {
	owners := make(map[string]User)
	if len(exercises) == 0 {
		return owners, nil
	}

	seen := make(map[string]struct{}, len(exercises))
	ids := make([]string, 0, len(exercises))
	for _, exercise := range exercises {
		if _, ok := seen[exercise.UserID]; ok {
			continue
		}
		seen[exercise.UserID] = struct{}{}
		ids = append(ids, exercise.UserID)
	}

	users, err := s.repo.FindUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		owners[user.ID] = user
	}
	return owners, nil
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", "event_type", event.Type(), "key", event.Key(), "error", err)
	}
}

func unresolvedOwner(userID string) error {
	return fmt.Errorf("%w: cannot read username of user %q", ErrUserNotFound, userID)
}
