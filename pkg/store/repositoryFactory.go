package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zoff-tech/line-relay/pkg/config"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// NewRepository builds the receipt repository selected by the metadata
// settings. "file" keeps the original JSON-file behavior; "postgres"
// and "mongo" persist the same records to a database instead.
func NewRepository(ctx context.Context, cfg config.MetadataSettings) (ReceiptRepository, error) {
	switch cfg.Type {
	case "file":
		return NewFileRepository(cfg.Path)
	case "postgres":
		db, err := sql.Open("postgres", cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &PostgresRepository{Db: db}, nil
	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, err
		}
		return NewMongoRepository(client), nil
	default:
		return nil, fmt.Errorf("unsupported metadata store type: %s", cfg.Type)
	}
}
