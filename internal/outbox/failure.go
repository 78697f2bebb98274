package outbox

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQWriter parks events that could not be delivered so the DLQ manager can replay them.
type DLQWriter struct {
	pool *pgxpool.Pool
}

// NewDLQWriter returns a DLQWriter on pool.
func NewDLQWriter(pool *pgxpool.Pool) *DLQWriter {
	return &DLQWriter{pool: pool}
}

// Write parks msg with reason, due for retry immediately.
func (w *DLQWriter) Write(ctx context.Context, msg Message, reason string) error {
	return inTenantTx(ctx, w.pool, msg.TenantID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO outbox_dlq (tenant_id, event_id, event_type, topic, payload, reason,
			                         aggregate_type, aggregate_id, schema_subject, partition_key, next_retry_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())`,
			msg.TenantID, msg.EventID, msg.EventType, msg.Topic, []byte(msg.Payload), reason,
			msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey,
		)
		return err
	})
}
