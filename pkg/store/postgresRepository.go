package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.opentelemetry.io/otel"
)

// PostgresRepository stores receipts in a delivery_receipts table.
type PostgresRepository struct {
	Db *sql.DB // using database/sql
}

func (r *PostgresRepository) Save(ctx context.Context, rec ReceiptRecord) error {
	tracer := otel.Tracer("line-relay")
	ctx, span := tracer.Start(ctx, "SaveReceipt")
	defer span.End()

	payload, err := json.Marshal(rec.Message)
	if err != nil {
		span.RecordError(err)
		return err
	}

	_, err = r.Db.ExecContext(ctx,
		`INSERT INTO delivery_receipts (user_id, message_id, attempt, payload, created_at)
         VALUES ($1, $2, $3, $4, $5)`,
		rec.UserID, rec.MessageID, rec.Message.Attempt, payload, time.Now())
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *PostgresRepository) Close(context.Context) error {
	return r.Db.Close()
}
