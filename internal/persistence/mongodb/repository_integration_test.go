//go:build integration

package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	mongocontainer "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"example.com/exercisetracker/internal/domain"
	"example.com/exercisetracker/internal/persistence/storetest"
)

func startMongo(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := mongocontainer.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)
	return uri
}

func TestRepositoryContract(t *testing.T) {
	uri := startMongo(t)

	storetest.Run(t, func(t *testing.T) domain.Repository {
		ctx := context.Background()
		repo, err := Connect(ctx, uri, "tracker_"+uuid.NewString()[:8])
		require.NoError(t, err)
		require.NoError(t, repo.Ping(ctx))
		t.Cleanup(func() { _ = repo.Close(ctx) })
		return repo
	})
}

func TestInvalidObjectIDs(t *testing.T) {
	ctx := context.Background()
	repo, err := Connect(ctx, startMongo(t), "tracker")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(ctx) })

	_, err = repo.InsertExercise(ctx, domain.Exercise{UserID: "nope", Description: "run", Duration: 30, Date: time.Now()})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "user", verr.Fields[0].Path)

	_, err = repo.FindExercises(ctx, domain.ExerciseQuery{UserID: "nope"})
	var cerr *domain.CastError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "ObjectId", cerr.Kind)
}

func TestUnknownOwnerIsStored(t *testing.T) {
	ctx := context.Background()
	repo, err := Connect(ctx, startMongo(t), "tracker")
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close(ctx) })

	ghost := "65a1b2c3d4e5f60718293a4b"
	_, err = repo.InsertExercise(ctx, domain.Exercise{UserID: ghost, Description: "run", Duration: 30, Date: time.Now()})
	require.NoError(t, err)

	users, err := repo.FindUsers(ctx, []string{ghost})
	require.NoError(t, err)
	require.Empty(t, users)
}
