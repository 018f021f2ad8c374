package store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.opentelemetry.io/otel"
)

const (
	mongoDatabase   = "line_relay"
	mongoCollection = "delivery_receipts"
)

// MongoRepository stores receipts in a MongoDB collection.
type MongoRepository struct {
	client *mongo.Client
}

func NewMongoRepository(client *mongo.Client) *MongoRepository {
	return &MongoRepository{client: client}
}

func (r *MongoRepository) Save(ctx context.Context, rec ReceiptRecord) error {
	tracer := otel.Tracer("line-relay")
	ctx, span := tracer.Start(ctx, "SaveReceipt")
	defer span.End()

	coll := r.client.Database(mongoDatabase).Collection(mongoCollection)
	if _, err := coll.InsertOne(ctx, rec); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
