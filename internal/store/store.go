// Package store defines persistence for the native health backend.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"example.com/healthbridge/internal/health"
)

// ErrInvalidOwner is returned when an operation is attempted without a tenant or user.
var ErrInvalidOwner = errors.New("store: owner requires tenant and user")

// Owner scopes every record to one user of one tenant.
type Owner struct {
	TenantID string
	UserID   string
}

// Validate ensures both identifiers are present.
func (o Owner) Validate() error {
	if strings.TrimSpace(o.TenantID) == "" || strings.TrimSpace(o.UserID) == "" {
		return ErrInvalidOwner
	}
	return nil
}

// Decision is a persisted answer to an authorization prompt.
type Decision string

const (
	DecisionGranted Decision = "granted"
	DecisionDenied  Decision = "denied"
)

// Grant records the decision for one data type in one direction.
type Grant struct {
	DataType  health.DataType
	Direction health.Direction
	Decision  Decision
	UpdatedAt time.Time
}

// Query is a store-level window: start dates in [Start, End), at most Limit rows.
type Query struct {
	Start     time.Time
	End       time.Time
	Limit     int
	Ascending bool
}

// QueryFromWindow converts a resolved contract window.
func QueryFromWindow(w health.Window) Query {
	return Query{Start: w.Start, End: w.End, Limit: w.Limit, Ascending: w.Ascending}
}

// SampleRecord is a persisted sample.
type SampleRecord struct {
	ID        string
	Sample    health.Sample
	Metadata  map[string]string
	CreatedAt time.Time
}

// WorkoutRecord is a persisted workout.
type WorkoutRecord struct {
	ID      string
	Workout health.Workout
}

// SleepRecord is a persisted sleep session with its stages.
type SleepRecord struct {
	ID      string
	Session health.SleepSession
}

// Store is implemented by every persistence backend.
type Store interface {
	Grants(ctx context.Context, owner Owner) ([]Grant, error)
	PutGrants(ctx context.Context, owner Owner, grants []Grant) error

	InsertSample(ctx context.Context, owner Owner, record SampleRecord) error
	ListSamples(ctx context.Context, owner Owner, dataType health.DataType, q Query) ([]SampleRecord, error)

	InsertWorkout(ctx context.Context, owner Owner, record WorkoutRecord) error
	ListWorkouts(ctx context.Context, owner Owner, workoutType *health.WorkoutType, q Query) ([]WorkoutRecord, error)

	InsertSleepSession(ctx context.Context, owner Owner, record SleepRecord) error
	ListSleepSessions(ctx context.Context, owner Owner, q Query) ([]SleepRecord, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
