// Package mongodb persists users and exercises as MongoDB documents.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/exercisetracker/internal/domain"
)

const (
	usersCollection     = "users"
	exercisesCollection = "exercises"
)

type userDocument struct {
	ID       primitive.ObjectID `bson:"_id"`
	Username string             `bson:"username"`
}

type exerciseDocument struct {
	ID          primitive.ObjectID `bson:"_id"`
	User        primitive.ObjectID `bson:"user"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	Date        time.Time          `bson:"date"`
}

// Repository provides MongoDB-backed persistence.
type Repository struct {
	client    *mongo.Client
	users     *mongo.Collection
	exercises *mongo.Collection

	indexMu sync.Mutex
	indexed bool
}

// Connect builds a client for uri. The driver connects lazily, so an
// unreachable server is not an error here; call Ping to find out.
func Connect(ctx context.Context, uri, database string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return NewRepository(client, database), nil
}

// NewRepository wraps an existing client.
func NewRepository(client *mongo.Client, database string) *Repository {
	db := client.Database(database)
	return &Repository{
		client:    client,
		users:     db.Collection(usersCollection),
		exercises: db.Collection(exercisesCollection),
	}
}

// EnsureIndexes creates the unique username index and the exercise lookup
// index. It is retried on the next upsert until it succeeds once.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	r.indexMu.Lock()
	defer r.indexMu.Unlock()

	if r.indexed {
		return nil
	}

	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = r.exercises.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}, {Key: "date", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create exercises index: %w", err)
	}

	r.indexed = true
	return nil
}

// UpsertUser implements domain.Repository. The update only sets fields on
// insert, so an existing document is never modified.
func (r *Repository) UpsertUser(ctx context.Context, username string) (domain.User, bool, error) {
	if err := r.EnsureIndexes(ctx); err != nil {
		return domain.User{}, false, err
	}

	newID := primitive.NewObjectID()
	res, err := r.users.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$setOnInsert": bson.M{"_id": newID, "username": username}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return domain.User{}, false, err
	}
	if res.UpsertedCount > 0 {
		return domain.User{ID: newID.Hex(), Username: username}, true, nil
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, bson.M{"username": username}).Decode(&doc); err != nil {
		return domain.User{}, false, err
	}
	return toUser(doc), false, nil
}

// ListUsers implements domain.Repository.
func (r *Repository) ListUsers(ctx context.Context) ([]domain.User, error) {
	cursor, err := r.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toUser(doc))
	}
	return out, nil
}

// FindUsers implements domain.Repository. Ids that are not valid ObjectIDs
// cannot match any document and are skipped.
func (r *Repository) FindUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return nil, nil
	}

	cursor, err := r.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toUser(doc))
	}
	return out, nil
}

// InsertExercise implements domain.Repository.
func (r *Repository) InsertExercise(ctx context.Context, exercise domain.Exercise) (domain.Exercise, error) {
	userID, err := primitive.ObjectIDFromHex(exercise.UserID)
	if err != nil {
		return domain.Exercise{}, &domain.ValidationError{
			Model: "Exercise",
			Fields: []domain.FieldError{{
				Path:    "user",
				Message: (&domain.CastError{Kind: "ObjectId", Value: exercise.UserID, Path: "user"}).Error(),
			}},
		}
	}

	doc := exerciseDocument{
		ID:          primitive.NewObjectID(),
		User:        userID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        exercise.Date.UTC().Truncate(time.Millisecond),
	}
	if _, err := r.exercises.InsertOne(ctx, doc); err != nil {
		return domain.Exercise{}, err
	}
	return toExercise(doc), nil
}

// FindExercises implements domain.Repository.
func (r *Repository) FindExercises(ctx context.Context, query domain.ExerciseQuery) ([]domain.Exercise, error) {
	userID, err := primitive.ObjectIDFromHex(query.UserID)
	if err != nil {
		return nil, &domain.CastError{Kind: "ObjectId", Value: query.UserID, Path: "user", Model: "Exercise"}
	}

	filter := bson.M{"user": userID}
	dateRange := bson.M{}
	if query.To != nil {
		dateRange["$lte"] = *query.To
	}
	if query.From != nil {
		dateRange["$gte"] = *query.From
	}
	if len(dateRange) > 0 {
		filter["date"] = dateRange
	}

	opts := options.Find()
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}

	cursor, err := r.exercises.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []exerciseDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Exercise, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toExercise(doc))
	}
	return out, nil
}

// Ping implements domain.Repository.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close implements domain.Repository.
func (r *Repository) Close(ctx context.Context) error {
	if err := r.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}

func toUser(doc userDocument) domain.User {
	return domain.User{ID: doc.ID.Hex(), Username: doc.Username}
}

func toExercise(doc exerciseDocument) domain.Exercise {
	return domain.Exercise{
		ID:          doc.ID.Hex(),
		UserID:      doc.User.Hex(),
		Description: doc.Description,
		Duration:    doc.Duration,
		Date:        doc.Date.UTC(),
	}
}
