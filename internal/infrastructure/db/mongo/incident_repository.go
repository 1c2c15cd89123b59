package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/citywatch/incident-api/internal/core/domain"
)

const collectionIncidents = "incidents"

// IncidentRepository implements ports.IncidentRepository using MongoDB.
type IncidentRepository struct {
	coll *mongo.Collection
}

func NewIncidentRepository(db *mongo.Database) *IncidentRepository {
	return &IncidentRepository{coll: db.Collection(collectionIncidents)}
}

func (r *IncidentRepository) Insert(ctx context.Context, inc *domain.Incident) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.coll.InsertOne(ctx, inc)
	return err
}

func (r *IncidentRepository) FindByID(ctx context.Context, id string) (*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var inc domain.Incident
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&inc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIncidentNotFound
		}
		return nil, err
	}
	return &inc, nil
}

// List returns all incidents, newest first. The corpus is expected to stay
// small enough for a full scan; pagination is a known scale limitation.
func (r *IncidentRepository) List(ctx context.Context) ([]*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	incidents := []*domain.Incident{}
	if err := cursor.All(ctx, &incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

// UpdateStatus sets only the status field and returns the updated document.
// Immutable fields cannot be touched through this path.
func (r *IncidentRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	update := bson.M{"$set": bson.M{"status": string(status)}}

	var inc domain.Incident
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&inc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIncidentNotFound
		}
		return nil, err
	}
	return &inc, nil
}

// ToggleUpvote flips username's membership in the upvote set with a single
// aggregation-pipeline update, so the read-modify-write happens atomically
// inside MongoDB. Two concurrent toggles by different users serialize at the
// document and both take effect.
func (r *IncidentRepository) ToggleUpvote(ctx context.Context, id, username string) (*domain.Incident, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"upvotes": bson.M{
				"$cond": bson.A{
					bson.M{"$in": bson.A{username, bson.M{"$ifNull": bson.A{"$upvotes", bson.A{}}}}},
					bson.M{"$setDifference": bson.A{"$upvotes", bson.A{username}}},
					bson.M{"$concatArrays": bson.A{bson.M{"$ifNull": bson.A{"$upvotes", bson.A{}}}, bson.A{username}}},
				},
			},
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var inc domain.Incident
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, pipeline, opts).Decode(&inc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrIncidentNotFound
		}
		return nil, err
	}
	return &inc, nil
}

func (r *IncidentRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domain.ErrIncidentNotFound
	}
	return nil
}

// EnsureIndexes creates the indexes backing the list and ownership queries.
func (r *IncidentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}
