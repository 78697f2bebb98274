//go:build integration

package outbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/healthbridge/internal/events"
	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/store"
	"example.com/healthbridge/internal/store/postgres"
)

func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()
	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("health"),
		postgrescontainer.WithUsername("platform"),
		postgrescontainer.WithPassword("platform"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var pool *pgxpool.Pool
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err = pgxpool.New(ctx, connStr)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				break
			}
			pool.Close()
		}
		require.True(t, time.Now().Before(deadline), "database not ready: %v", err)
		time.Sleep(time.Second)
	}
	t.Cleanup(pool.Close)

	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	migration, err := os.ReadFile(filepath.Join(filepath.Dir(file), "../../db/postgres/migrations/0001_init.up.sql"))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(migration))
	require.NoError(t, err)
	return pool
}

func seedSample(t *testing.T, ctx context.Context, pool *pgxpool.Pool) store.Owner {
	t.Helper()
	owner := store.Owner{TenantID: uuid.NewString(), UserID: uuid.NewString()}
	now := time.Now().UTC()
	require.NoError(t, postgres.NewRepository(pool).InsertSample(ctx, owner, store.SampleRecord{
		Sample: health.Sample{DataType: health.DataTypeSteps, Value: 1200, Unit: health.UnitCount, StartDate: now, EndDate: now},
	}))
	return owner
}

func TestDispatcherPublishesMessages(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	seedSample(t, ctx, pool)

	producer := &stubProducer{}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 42}, 10*time.Millisecond, 5)

	before := testutil.ToFloat64(deliveredCounter.WithLabelValues(events.TypeSampleSaved))
	require.NoError(t, dispatcher.processBatch(ctx))

	require.Len(t, producer.writes, 1)
	require.Equal(t, events.TopicHealthSamples, producer.writes[0].topic)
	require.InDelta(t, before+1, testutil.ToFloat64(deliveredCounter.WithLabelValues(events.TypeSampleSaved)), 0.0001)

	var published int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NOT NULL`).Scan(&published))
	require.Equal(t, 1, published)
}

func TestDispatcherFailureIsReplayedFromDLQ(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	seedSample(t, ctx, pool)

	failing := NewDispatcher(pool, &stubProducer{err: errors.New("kafka write failed")}, &stubRegistry{id: 7}, 10*time.Millisecond, 5)
	beforeDLQ := testutil.ToFloat64(dlqCounter.WithLabelValues(events.TopicHealthSamples))
	require.NoError(t, failing.processBatch(ctx))
	require.InDelta(t, beforeDLQ+1, testutil.ToFloat64(dlqCounter.WithLabelValues(events.TopicHealthSamples)), 0.0001)

	manager := NewDLQManager(pool, 3, time.Second)
	processed, err := manager.RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	producer := &stubProducer{}
	require.NoError(t, NewDispatcher(pool, producer, &stubRegistry{id: 7}, 10*time.Millisecond, 5).processBatch(ctx))
	require.Len(t, producer.writes, 1)

	var remaining int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq`).Scan(&remaining))
	require.Zero(t, remaining)
}

func TestDLQManagerQuarantinesExhaustedEntries(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	owner := seedSample(t, ctx, pool)

	_, err := pool.Exec(ctx, `INSERT INTO outbox_dlq (tenant_id, event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, next_retry_at)
        VALUES ($1, 1, $2, $3, '{}', 'boom', 'sample', 's', $4, 'k', 3, NOW())`,
		owner.TenantID, events.TypeSampleSaved, events.TopicHealthSamples, events.SchemaSubject(events.TopicHealthSamples))
	require.NoError(t, err)

	processed, err := NewDLQManager(pool, 3, time.Second).RunOnce(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, 1, processed)

	var quarantined int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NOT NULL`).Scan(&quarantined))
	require.Equal(t, 1, quarantined)
}

func TestDispatcherParksOnlyUndeliveredTopics(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	owner := seedSample(t, ctx, pool)
	require.NoError(t, postgres.NewRepository(pool).PutGrants(ctx, owner, []store.Grant{
		{DataType: health.DataTypeWeight, Direction: health.DirectionRead, Decision: store.DecisionGranted},
	}))

	producer := &stubProducer{topicErr: map[string]error{events.TopicHealthAuthorization: errors.New("kafka write failed")}}
	require.NoError(t, NewDispatcher(pool, producer, &stubRegistry{id: 9}, 10*time.Millisecond, 5).processBatch(ctx))
	require.Len(t, producer.writes, 1)
	require.Equal(t, events.TopicHealthSamples, producer.writes[0].topic)

	var parked []string
	rows, err := pool.Query(ctx, `SELECT topic FROM outbox_dlq`)
	require.NoError(t, err)
	for rows.Next() {
		var topic string
		require.NoError(t, rows.Scan(&topic))
		parked = append(parked, topic)
	}
	rows.Close()
	require.Equal(t, []string{events.TopicHealthAuthorization}, parked)

	var unpublished int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM outbox WHERE published_at IS NULL`).Scan(&unpublished))
	require.Zero(t, unpublished)
}

func TestDispatcherSkipsFreshClaimsAndReclaimsStaleOnes(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)
	seedSample(t, ctx, pool)

	_, err := pool.Exec(ctx, `UPDATE outbox SET claimed_at = NOW()`)
	require.NoError(t, err)

	producer := &stubProducer{}
	dispatcher := NewDispatcher(pool, producer, &stubRegistry{id: 11}, 10*time.Millisecond, 5)
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Empty(t, producer.writes, "a row claimed by another dispatcher is left alone")

	_, err = pool.Exec(ctx, `UPDATE outbox SET claimed_at = NOW() - interval '1 hour'`)
	require.NoError(t, err)
	require.NoError(t, dispatcher.processBatch(ctx))
	require.Len(t, producer.writes, 1)
}
