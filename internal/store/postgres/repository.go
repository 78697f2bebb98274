// Package postgres implements the health store on PostgreSQL with tenant row level security
// and a transactional outbox.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/healthbridge/internal/events"
	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/observability"
	"example.com/healthbridge/internal/store"
)

// Repository provides Postgres-backed persistence for health data and outbox events.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ store.Store = (*Repository)(nil)

// Ping checks connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// inTenant runs fn in a transaction scoped to the owner's tenant.
func (r *Repository) inTenant(ctx context.Context, owner store.Owner, fn func(pgx.Tx) error) (err error) {
	if err := owner.Validate(); err != nil {
		return err
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	if _, err = tx.Exec(ctx, "SELECT set_config('app.tenant_id', $1, true)", owner.TenantID); err != nil {
		return err
	}
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Grants returns every persisted decision for owner.
func (r *Repository) Grants(ctx context.Context, owner store.Owner) ([]store.Grant, error) {
	const query = `SELECT data_type, direction, decision, updated_at
        FROM health_grants WHERE tenant_id=$1 AND user_id=$2`

	var grants []store.Grant
	err := r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, owner.TenantID, owner.UserID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var g store.Grant
			if err := rows.Scan(&g.DataType, &g.Direction, &g.Decision, &g.UpdatedAt); err != nil {
				return err
			}
			g.UpdatedAt = g.UpdatedAt.UTC()
			grants = append(grants, g)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return grants, nil
}

// PutGrants upserts decisions and records an authorization_changed event for each.
func (r *Repository) PutGrants(ctx context.Context, owner store.Owner, grants []store.Grant) error {
	const upsert = `INSERT INTO health_grants (tenant_id, user_id, data_type, direction, decision, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        ON CONFLICT (tenant_id, user_id, data_type, direction)
        DO UPDATE SET decision = EXCLUDED.decision, updated_at = EXCLUDED.updated_at`

	return r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		for _, g := range grants {
			if g.UpdatedAt.IsZero() {
				g.UpdatedAt = time.Now().UTC()
			}
			if _, err := tx.Exec(ctx, upsert, owner.TenantID, owner.UserID, g.DataType, g.Direction, g.Decision, g.UpdatedAt); err != nil {
				return err
			}
			aggregateID := fmt.Sprintf("%s:%s:%s", owner.UserID, g.DataType, g.Direction)
			dedupeKey := fmt.Sprintf("%s:%d", aggregateID, g.UpdatedAt.UnixNano())
			if err := insertOutbox(ctx, tx, owner, "authorization", aggregateID, dedupeKey, events.TypeAuthorizationChanged, events.AuthorizationChanged{
				TenantID:   owner.TenantID,
				UserID:     owner.UserID,
				DataType:   string(g.DataType),
				Direction:  string(g.Direction),
				Decision:   string(g.Decision),
				OccurredAt: g.UpdatedAt,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

// InsertSample persists a sample and its sample_saved event inside a single transaction.
func (r *Repository) InsertSample(ctx context.Context, owner store.Owner, record store.SampleRecord) error {
	const insert = `INSERT INTO health_samples (sample_id, tenant_id, user_id, data_type, value, unit, start_date, end_date, source_name, source_id, metadata, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	metadata, err := encodeMetadata(record.Metadata)
	if err != nil {
		return err
	}

	s := record.Sample
	err = r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insert,
			record.ID,
			owner.TenantID,
			owner.UserID,
			s.DataType,
			s.Value,
			s.Unit,
			s.StartDate,
			s.EndDate,
			nullIfEmpty(s.SourceName),
			nullIfEmpty(s.SourceID),
			metadata,
			record.CreatedAt,
		); err != nil {
			return err
		}
		return insertOutbox(ctx, tx, owner, "sample", record.ID, record.ID+":"+events.TypeSampleSaved, events.TypeSampleSaved, events.HealthSampleSaved{
			SampleID:   record.ID,
			TenantID:   owner.TenantID,
			UserID:     owner.UserID,
			DataType:   string(s.DataType),
			Value:      s.Value,
			Unit:       string(s.Unit),
			StartDate:  s.StartDate,
			EndDate:    s.EndDate,
			Metadata:   record.Metadata,
			RecordedAt: record.CreatedAt,
		})
	})
	if err != nil {
		return err
	}
	observability.RecordSamplePersisted(record.CreatedAt)
	return nil
}

// ListSamples returns samples of dataType whose start date falls inside q.
func (r *Repository) ListSamples(ctx context.Context, owner store.Owner, dataType health.DataType, q store.Query) ([]store.SampleRecord, error) {
	query := `SELECT sample_id, data_type, value, unit, start_date, end_date, COALESCE(source_name, ''), COALESCE(source_id, ''), metadata, created_at
        FROM health_samples
        WHERE tenant_id=$1 AND user_id=$2 AND data_type=$3 AND start_date >= $4 AND start_date < $5` +
		orderBy("start_date", "sample_id", q.Ascending) + ` LIMIT $6`

	results := make([]store.SampleRecord, 0)
	err := r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, owner.TenantID, owner.UserID, dataType, q.Start, q.End, q.Limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec      store.SampleRecord
				metadata []byte
			)
			s := &rec.Sample
			if err := rows.Scan(&rec.ID, &s.DataType, &s.Value, &s.Unit, &s.StartDate, &s.EndDate, &s.SourceName, &s.SourceID, &metadata, &rec.CreatedAt); err != nil {
				return err
			}
			if rec.Metadata, err = decodeMetadata(metadata); err != nil {
				return err
			}
			s.StartDate, s.EndDate, rec.CreatedAt = s.StartDate.UTC(), s.EndDate.UTC(), rec.CreatedAt.UTC()
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// InsertWorkout stores a workout; redelivered workouts are ignored.
func (r *Repository) InsertWorkout(ctx context.Context, owner store.Owner, record store.WorkoutRecord) error {
	const insert = `INSERT INTO health_workouts (workout_id, tenant_id, user_id, workout_type, duration_seconds, total_energy_kcal, total_distance_m, start_date, end_date, source_name, source_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (tenant_id, user_id, workout_id) DO NOTHING`

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	w := record.Workout
	metadata, err := encodeMetadata(w.Metadata)
	if err != nil {
		return err
	}

	err = r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insert,
			record.ID,
			owner.TenantID,
			owner.UserID,
			w.WorkoutType,
			w.Duration,
			w.TotalEnergyBurned,
			w.TotalDistance,
			w.StartDate,
			w.EndDate,
			nullIfEmpty(w.SourceName),
			nullIfEmpty(w.SourceID),
			metadata,
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordIngest("workout", w.EndDate)
	return nil
}

// ListWorkouts returns workouts inside q, optionally filtered by type.
func (r *Repository) ListWorkouts(ctx context.Context, owner store.Owner, workoutType *health.WorkoutType, q store.Query) ([]store.WorkoutRecord, error) {
	args := []interface{}{owner.TenantID, owner.UserID, q.Start, q.End, q.Limit}
	query := `SELECT workout_id, workout_type, duration_seconds, total_energy_kcal, total_distance_m, start_date, end_date, COALESCE(source_name, ''), COALESCE(source_id, ''), metadata
        FROM health_workouts
        WHERE tenant_id=$1 AND user_id=$2 AND start_date >= $3 AND start_date < $4`
	if workoutType != nil {
		query += ` AND workout_type = $6`
		args = append(args, *workoutType)
	}
	query += orderBy("start_date", "workout_id", q.Ascending) + ` LIMIT $5`

	results := make([]store.WorkoutRecord, 0)
	err := r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				rec      store.WorkoutRecord
				metadata []byte
			)
			w := &rec.Workout
			if err := rows.Scan(&rec.ID, &w.WorkoutType, &w.Duration, &w.TotalEnergyBurned, &w.TotalDistance, &w.StartDate, &w.EndDate, &w.SourceName, &w.SourceID, &metadata); err != nil {
				return err
			}
			if w.Metadata, err = decodeMetadata(metadata); err != nil {
				return err
			}
			w.StartDate, w.EndDate = w.StartDate.UTC(), w.EndDate.UTC()
			results = append(results, rec)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// InsertSleepSession stores a session and its stages; redelivered sessions are ignored.
func (r *Repository) InsertSleepSession(ctx context.Context, owner store.Owner, record store.SleepRecord) error {
	const insert = `INSERT INTO health_sleep_sessions (session_id, tenant_id, user_id, start_date, end_date, duration_seconds, source_name, source_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        ON CONFLICT (tenant_id, user_id, session_id) DO NOTHING`

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	s := record.Session

	err := r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, insert,
			record.ID,
			owner.TenantID,
			owner.UserID,
			s.StartDate,
			s.EndDate,
			s.Duration,
			nullIfEmpty(s.SourceName),
			nullIfEmpty(s.SourceID),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 || len(s.Stages) == 0 {
			return nil
		}

		rows := make([][]interface{}, 0, len(s.Stages))
		for i, st := range s.Stages {
			rows = append(rows, []interface{}{owner.TenantID, owner.UserID, record.ID, i, string(st.Stage), st.StartDate, st.EndDate})
		}
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"health_sleep_stages"},
			[]string{"tenant_id", "user_id", "session_id", "position", "stage", "start_date", "end_date"},
			pgx.CopyFromRows(rows),
		)
		return err
	})
	if err != nil {
		return err
	}
	observability.RecordIngest("sleep", s.EndDate)
	return nil
}

// ListSleepSessions returns sessions inside q with their stages in order.
func (r *Repository) ListSleepSessions(ctx context.Context, owner store.Owner, q store.Query) ([]store.SleepRecord, error) {
	query := `SELECT session_id, start_date, end_date, duration_seconds, COALESCE(source_name, ''), COALESCE(source_id, '')
        FROM health_sleep_sessions
        WHERE tenant_id=$1 AND user_id=$2 AND start_date >= $3 AND start_date < $4` +
		orderBy("start_date", "session_id", q.Ascending) + ` LIMIT $5`

	const stagesQuery = `SELECT session_id, stage, start_date, end_date
        FROM health_sleep_stages
        WHERE tenant_id=$1 AND user_id=$2 AND session_id = ANY($3)
        ORDER BY session_id, position`

	results := make([]store.SleepRecord, 0)
	err := r.inTenant(ctx, owner, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, query, owner.TenantID, owner.UserID, q.Start, q.End, q.Limit)
		if err != nil {
			return err
		}
		index := make(map[string]int)
		ids := make([]string, 0)
		for rows.Next() {
			var rec store.SleepRecord
			s := &rec.Session
			if err := rows.Scan(&rec.ID, &s.StartDate, &s.EndDate, &s.Duration, &s.SourceName, &s.SourceID); err != nil {
				rows.Close()
				return err
			}
			s.StartDate, s.EndDate = s.StartDate.UTC(), s.EndDate.UTC()
			s.Stages = []health.SleepStageInterval{}
			index[rec.ID] = len(results)
			ids = append(ids, rec.ID)
			results = append(results, rec)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		stageRows, err := tx.Query(ctx, stagesQuery, owner.TenantID, owner.UserID, ids)
		if err != nil {
			return err
		}
		defer stageRows.Close()

		for stageRows.Next() {
			var (
				sessionID string
				interval  health.SleepStageInterval
			)
			if err := stageRows.Scan(&sessionID, &interval.Stage, &interval.StartDate, &interval.EndDate); err != nil {
				return err
			}
			interval.StartDate, interval.EndDate = interval.StartDate.UTC(), interval.EndDate.UTC()
			session := &results[index[sessionID]].Session
			session.Stages = append(session.Stages, interval)
		}
		return stageRows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, owner store.Owner, aggregateType, aggregateID, dedupeKey, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta := eventCatalog[eventType]
	if meta.Topic == "" {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	const stmt = `INSERT INTO outbox (tenant_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (dedupe_key) DO NOTHING`

	_, err = tx.Exec(ctx, stmt,
		owner.TenantID,
		aggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		meta.PartitionKeyFn(owner),
		body,
		dedupeKey,
	)
	return err
}

func orderBy(timeColumn, idColumn string, ascending bool) string {
	dir := "DESC"
	if ascending {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, %s %s", timeColumn, dir, idColumn, dir)
}

func encodeMetadata(m map[string]string) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func decodeMetadata(raw []byte) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]string
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	return m, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	SchemaSubject  string
	PartitionKeyFn func(store.Owner) string
}

func ownerKey(o store.Owner) string {
	return fmt.Sprintf("%s:%s", o.TenantID, o.UserID)
}

var eventCatalog = map[string]EventMetadata{
	events.TypeSampleSaved: {
		Topic:          events.TopicHealthSamples,
		SchemaSubject:  events.SchemaSubject(events.TopicHealthSamples),
		PartitionKeyFn: ownerKey,
	},
	events.TypeAuthorizationChanged: {
		Topic:          events.TopicHealthAuthorization,
		SchemaSubject:  events.SchemaSubject(events.TopicHealthAuthorization),
		PartitionKeyFn: ownerKey,
	},
}
