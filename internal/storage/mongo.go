package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mapstalk/mapstalk/internal/types"
)

// MongoStorage writes records to a MongoDB collection. Like the file
// sinks, a run replaces the collection contents with its own record set.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
	count      int
	logger     *slog.Logger
}

// NewMongoStorage connects to MongoDB and targets the given collection.
func NewMongoStorage(uri, database, collection string, logger *slog.Logger) (*MongoStorage, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		logger:     logger.With("component", "mongo_storage"),
	}, nil
}

func (s *MongoStorage) Name() string { return "mongodb" }

func (s *MongoStorage) Store(records []types.BusinessRecord) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.collection.DeleteMany(ctx, bson.D{}); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("clear collection: %w", err)}
	}
	if len(records) == 0 {
		return nil
	}

	docs := make([]any, len(records))
	for i, rec := range records {
		docs[i] = bson.M{
			"name":          rec.Name,
			"business_type": rec.BusinessType,
			"address":       rec.Address,
			"phone":         rec.Phone,
			"email":         rec.Email,
			"website":       rec.Website,
			"harvested_at":  time.Now(),
		}
	}

	if _, err := s.collection.InsertMany(ctx, docs); err != nil {
		return &types.StorageError{Backend: s.Name(), Err: fmt.Errorf("insert records: %w", err)}
	}
	s.count = len(records)
	return nil
}

func (s *MongoStorage) Close() error {
	s.logger.Info("mongodb storage closing", "records", s.count)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
