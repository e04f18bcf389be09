// Package storetest holds behaviour every domain.Repository must share,
// exercised by each backend's tests.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/exercisetracker/internal/domain"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) domain.Repository

// Run executes the repository contract against repositories built by newRepo.
func Run(t *testing.T, newRepo Factory) {
	t.Run("upsert is idempotent on username", func(t *testing.T) {
		testUpsertIdempotent(t, newRepo(t))
	})
	t.Run("users keep insertion order", func(t *testing.T) {
		testListUsersOrder(t, newRepo(t))
	})
	t.Run("find users skips unknown ids", func(t *testing.T) {
		testFindUsers(t, newRepo(t))
	})
	t.Run("exercises filter by owner and date", func(t *testing.T) {
		testFindExercisesFilters(t, newRepo(t))
	})
	t.Run("limit caps results in insertion order", func(t *testing.T) {
		testFindExercisesLimit(t, newRepo(t))
	})
}

func testUpsertIdempotent(t *testing.T, repo domain.Repository) {
	ctx := context.Background()

	first, created, err := repo.UpsertUser(ctx, "alice")
	require.NoError(t, err)
	require.True(t, created)
	require.NotEmpty(t, first.ID)
	require.Equal(t, "alice", first.Username)

	second, created, err := repo.UpsertUser(ctx, "alice")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first, second)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
}

func testListUsersOrder(t *testing.T, repo domain.Repository) {
	ctx := context.Background()

	names := []string{"carol", "alice", "bob"}
	for _, name := range names {
		_, _, err := repo.UpsertUser(ctx, name)
		require.NoError(t, err)
	}

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, len(names))
	for i, name := range names {
		require.Equal(t, name, users[i].Username)
	}
}

func testFindUsers(t *testing.T, repo domain.Repository) {
	ctx := context.Background()

	alice, _, err := repo.UpsertUser(ctx, "alice")
	require.NoError(t, err)
	_, _, err = repo.UpsertUser(ctx, "bob")
	require.NoError(t, err)

	found, err := repo.FindUsers(ctx, []string{alice.ID, "missing"})
	require.NoError(t, err)
	require.Equal(t, []domain.User{alice}, found)

	found, err = repo.FindUsers(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, found)
}

func testFindExercisesFilters(t *testing.T, repo domain.Repository) {
	ctx := context.Background()

	alice, _, err := repo.UpsertUser(ctx, "alice")
	require.NoError(t, err)
	bob, _, err := repo.UpsertUser(ctx, "bob")
	require.NoError(t, err)

	for _, day := range []time.Time{
		date(2024, time.January, 1),
		date(2024, time.February, 1),
		date(2024, time.March, 1),
	} {
		stored, err := repo.InsertExercise(ctx, domain.Exercise{
			UserID:      alice.ID,
			Description: "run",
			Duration:    30,
			Date:        day,
		})
		require.NoError(t, err)
		require.NotEmpty(t, stored.ID)
		require.True(t, day.Equal(stored.Date))
	}
	_, err = repo.InsertExercise(ctx, domain.Exercise{
		UserID:      bob.ID,
		Description: "swim",
		Duration:    45.5,
		Date:        date(2024, time.February, 1),
	})
	require.NoError(t, err)

	all, err := repo.FindExercises(ctx, domain.ExerciseQuery{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, exercise := range all {
		require.Equal(t, alice.ID, exercise.UserID)
	}

	from := date(2024, time.January, 15)
	to := date(2024, time.February, 15)
	window, err := repo.FindExercises(ctx, domain.ExerciseQuery{UserID: alice.ID, From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	require.True(t, date(2024, time.February, 1).Equal(window[0].Date))

	inclusive := date(2024, time.March, 1)
	upTo, err := repo.FindExercises(ctx, domain.ExerciseQuery{UserID: alice.ID, To: &inclusive})
	require.NoError(t, err)
	require.Len(t, upTo, 3)

	bobs, err := repo.FindExercises(ctx, domain.ExerciseQuery{UserID: bob.ID})
	require.NoError(t, err)
	require.Len(t, bobs, 1)
	require.Equal(t, "swim", bobs[0].Description)
	require.InDelta(t, 45.5, bobs[0].Duration, 0.0001)
}

func testFindExercisesLimit(t *testing.T, repo domain.Repository) {
	ctx := context.Background()

	alice, _, err := repo.UpsertUser(ctx, "alice")
	require.NoError(t, err)

	descriptions := []string{"one", "two", "three", "four", "five"}
	for i, description := range descriptions {
		_, err := repo.InsertExercise(ctx, domain.Exercise{
			UserID:      alice.ID,
			Description: description,
			Duration:    float64(10 * (i + 1)),
			Date:        date(2024, time.May, i+1),
		})
		require.NoError(t, err)
	}

	capped, err := repo.FindExercises(ctx, domain.ExerciseQuery{UserID: alice.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, capped, 2)
	require.Equal(t, "one", capped[0].Description)
	require.Equal(t, "two", capped[1].Description)

	uncapped, err := repo.FindExercises(ctx, domain.ExerciseQuery{UserID: alice.ID})
	require.NoError(t, err)
	require.Len(t, uncapped, len(descriptions))
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
