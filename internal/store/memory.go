package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"example.com/healthbridge/internal/health"
)

type grantKey struct {
	dataType  health.DataType
	direction health.Direction
}

type ownerData struct {
	grants   map[grantKey]Grant
	samples  []SampleRecord
	workouts []WorkoutRecord
	sleeps   []SleepRecord
}

// Memory keeps health data in process memory for local development and tests.
type Memory struct {
	mu     sync.RWMutex
	owners map[Owner]*ownerData
}

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{owners: make(map[Owner]*ownerData)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) data(owner Owner) *ownerData {
	d, ok := m.owners[owner]
	if !ok {
		d = &ownerData{grants: make(map[grantKey]Grant)}
		m.owners[owner] = d
	}
	return d
}

// Ping always succeeds.
func (m *Memory) Ping(context.Context) error { return nil }

// Grants returns every persisted decision for owner.
func (m *Memory) Grants(ctx context.Context, owner Owner) ([]Grant, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.owners[owner]
	if !ok {
		return nil, nil
	}
	out := make([]Grant, 0, len(d.grants))
	for _, g := range d.grants {
		out = append(out, g)
	}
	return out, nil
}

// PutGrants upserts decisions.
func (m *Memory) PutGrants(ctx context.Context, owner Owner, grants []Grant) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	d := m.data(owner)
	for _, g := range grants {
		if g.UpdatedAt.IsZero() {
			g.UpdatedAt = time.Now().UTC()
		}
		d.grants[grantKey{g.DataType, g.Direction}] = g
	}
	return nil
}

// InsertSample appends a sample.
func (m *Memory) InsertSample(ctx context.Context, owner Owner, record SampleRecord) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	record.Metadata = copyMap(record.Metadata)
	d := m.data(owner)
	d.samples = append(d.samples, record)
	return nil
}

// ListSamples returns samples of dataType inside q.
func (m *Memory) ListSamples(ctx context.Context, owner Owner, dataType health.DataType, q Query) ([]SampleRecord, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.owners[owner]
	if !ok {
		return []SampleRecord{}, nil
	}
	out := make([]SampleRecord, 0)
	for _, rec := range d.samples {
		if rec.Sample.DataType != dataType || !inWindow(rec.Sample.StartDate, q) {
			continue
		}
		rec.Metadata = copyMap(rec.Metadata)
		out = append(out, rec)
	}
	health.SortByStart(out, q.Ascending,
		func(r SampleRecord) time.Time { return r.Sample.StartDate },
		func(r SampleRecord) string { return r.ID })
	return health.Truncate(out, q.Limit), nil
}

// InsertWorkout stores a workout; a record with a known ID is ignored.
func (m *Memory) InsertWorkout(ctx context.Context, owner Owner, record WorkoutRecord) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	d := m.data(owner)
	for _, existing := range d.workouts {
		if existing.ID == record.ID {
			return nil
		}
	}
	record.Workout.Metadata = copyMap(record.Workout.Metadata)
	d.workouts = append(d.workouts, record)
	return nil
}

// ListWorkouts returns workouts inside q, optionally filtered by type.
func (m *Memory) ListWorkouts(ctx context.Context, owner Owner, workoutType *health.WorkoutType, q Query) ([]WorkoutRecord, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.owners[owner]
	if !ok {
		return []WorkoutRecord{}, nil
	}
	out := make([]WorkoutRecord, 0)
	for _, rec := range d.workouts {
		if workoutType != nil && rec.Workout.WorkoutType != *workoutType {
			continue
		}
		if !inWindow(rec.Workout.StartDate, q) {
			continue
		}
		rec.Workout.Metadata = copyMap(rec.Workout.Metadata)
		out = append(out, rec)
	}
	health.SortByStart(out, q.Ascending,
		func(r WorkoutRecord) time.Time { return r.Workout.StartDate },
		func(r WorkoutRecord) string { return r.ID })
	return health.Truncate(out, q.Limit), nil
}

// InsertSleepSession stores a session; a record with a known ID is ignored.
func (m *Memory) InsertSleepSession(ctx context.Context, owner Owner, record SleepRecord) error {
	if err := owner.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	d := m.data(owner)
	for _, existing := range d.sleeps {
		if existing.ID == record.ID {
			return nil
		}
	}
	record.Session.Stages = append([]health.SleepStageInterval(nil), record.Session.Stages...)
	d.sleeps = append(d.sleeps, record)
	return nil
}

// ListSleepSessions returns sessions inside q.
func (m *Memory) ListSleepSessions(ctx context.Context, owner Owner, q Query) ([]SleepRecord, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.owners[owner]
	if !ok {
		return []SleepRecord{}, nil
	}
	out := make([]SleepRecord, 0)
	for _, rec := range d.sleeps {
		if !inWindow(rec.Session.StartDate, q) {
			continue
		}
		rec.Session.Stages = append([]health.SleepStageInterval(nil), rec.Session.Stages...)
		out = append(out, rec)
	}
	health.SortByStart(out, q.Ascending,
		func(r SleepRecord) time.Time { return r.Session.StartDate },
		func(r SleepRecord) string { return r.ID })
	return health.Truncate(out, q.Limit), nil
}

func inWindow(t time.Time, q Query) bool {
	return !t.Before(q.Start) && t.Before(q.End)
}

func copyMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
