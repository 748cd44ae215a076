package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/pantry/internal/repository"
)

const tablesCollection = "tables"

// tableDocument stores one whole-table snapshot.
type tableDocument struct {
	Table     string    `bson:"_id"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoDBRepository implements repository.Store with one document per table.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
	logger   *zap.Logger
}

// NewMongoDBRepository connects to MongoDB and verifies the connection.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: tablesCollection,
		logger:   logger,
	}, nil
}

// Load fetches the snapshot for table, or nil when it was never saved.
func (r *MongoDBRepository) Load(ctx context.Context, table repository.Table) ([]byte, error) {
	var doc tableDocument
	err := r.collection().FindOne(ctx, bson.M{"_id": string(table)}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load table %s: %w", table, err)
	}
	return []byte(doc.Data), nil
}

// Save upserts the snapshot for table.
func (r *MongoDBRepository) Save(ctx context.Context, table repository.Table, data []byte) error {
	doc := tableDocument{
		Table:     string(table),
		Data:      string(data),
		UpdatedAt: time.Now().UTC(),
	}

	_, err := r.collection().ReplaceOne(ctx, bson.M{"_id": doc.Table}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save table %s: %w", table, err)
	}

	r.logger.Debug("table snapshot replaced", zap.String("table", doc.Table))
	return nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}
