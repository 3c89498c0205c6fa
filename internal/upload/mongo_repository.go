package upload

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepository implements Repository using a Mongo collection, for
// deployments without Redis. Consume uses FindOneAndDelete so two racing
// confirmations can never both observe the session. A TTL index on
// expiresAt reaps abandoned sessions.
type MongoRepository struct {
	col *mongo.Collection
}

var _ Repository = (*MongoRepository)(nil)

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "expiresAt", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}
	col.Indexes().CreateOne(context.Background(), idx)
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Create(ctx context.Context, p *PendingUpload) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *MongoRepository) Get(ctx context.Context, token string) (*PendingUpload, error) {
	var p PendingUpload
	if err := r.col.FindOne(ctx, bson.M{"_id": token}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if expiredAt(&p) {
		// Mongo's TTL monitor only runs periodically; treat as missing.
		_, _ = r.col.DeleteOne(ctx, bson.M{"_id": token})
		return nil, ErrTokenNotFound
	}
	return &p, nil
}

func (r *MongoRepository) Consume(ctx context.Context, token string) (*PendingUpload, error) {
	var p PendingUpload
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": token}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}
	if expiredAt(&p) {
		return nil, ErrTokenNotFound
	}
	return &p, nil
}

func expiredAt(p *PendingUpload) bool {
	return !p.ExpiresAt.IsZero() && time.Now().UTC().After(p.ExpiresAt)
}
