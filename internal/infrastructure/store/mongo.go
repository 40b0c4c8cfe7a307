package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chesterzelaya/database-populator/internal/domain"
)

// productDocument is the stored shape: the record fields plus a generated _id
type productDocument struct {
	ID                   primitive.ObjectID `bson:"_id"`
	domain.ProductRecord `bson:",inline"`
}

// MongoRepository inserts products into one collection per category
type MongoRepository struct {
	db *mongo.Database
}

// NewMongoRepository uses db for all inserts
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

// Connect opens a client for uri and verifies it with a ping
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return client, nil
}

// Insert writes record to the collection named after category and returns the hex ObjectID
func (r *MongoRepository) Insert(ctx context.Context, record *domain.ProductRecord, category string) (string, error) {
	if record == nil || category == "" {
		return "", domain.ErrInvalidRequest
	}

	doc := productDocument{ID: primitive.NewObjectID(), ProductRecord: *record}
	if _, err := r.db.Collection(category).InsertOne(ctx, doc); err != nil {
		return "", fmt.Errorf("insert into %s: %w", category, err)
	}
	return doc.ID.Hex(), nil
}
