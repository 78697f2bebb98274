package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/healthbridge/internal/health"
)

var (
	alice = Owner{TenantID: "tenant-1", UserID: "alice"}
	bob   = Owner{TenantID: "tenant-1", UserID: "bob"}
	base  = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
)

func TestMemoryRejectsMissingOwner(t *testing.T) {
	m := NewMemory()
	_, err := m.Grants(context.Background(), Owner{TenantID: "t"})
	require.ErrorIs(t, err, ErrInvalidOwner)

	err = m.InsertSample(context.Background(), Owner{UserID: "u"}, SampleRecord{})
	require.ErrorIs(t, err, ErrInvalidOwner)
}

func TestMemoryGrantsUpsert(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.PutGrants(ctx, alice, []Grant{
		{DataType: health.DataTypeSteps, Direction: health.DirectionRead, Decision: DecisionGranted},
		{DataType: health.DataTypeSteps, Direction: health.DirectionWrite, Decision: DecisionDenied},
	}))
	require.NoError(t, m.PutGrants(ctx, alice, []Grant{
		{DataType: health.DataTypeSteps, Direction: health.DirectionWrite, Decision: DecisionGranted},
	}))

	grants, err := m.Grants(ctx, alice)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	for _, g := range grants {
		assert.Equal(t, DecisionGranted, g.Decision)
		assert.False(t, g.UpdatedAt.IsZero())
	}

	other, err := m.Grants(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryListSamplesWindowOrderLimit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	for i := 0; i < 5; i++ {
		start := base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, m.InsertSample(ctx, alice, SampleRecord{Sample: health.Sample{
			DataType:  health.DataTypeSteps,
			Value:     float64(i),
			Unit:      health.UnitCount,
			StartDate: start,
			EndDate:   start.Add(time.Minute),
		}}))
	}
	require.NoError(t, m.InsertSample(ctx, alice, SampleRecord{Sample: health.Sample{
		DataType: health.DataTypeHeartRate, Value: 60, Unit: health.UnitBPM, StartDate: base, EndDate: base,
	}}))
	require.NoError(t, m.InsertSample(ctx, bob, SampleRecord{Sample: health.Sample{
		DataType: health.DataTypeSteps, Value: 99, Unit: health.UnitCount, StartDate: base, EndDate: base,
	}}))

	q := Query{Start: base.Add(time.Hour), End: base.Add(4 * time.Hour), Limit: 10, Ascending: true}
	got, err := m.ListSamples(ctx, alice, health.DataTypeSteps, q)
	require.NoError(t, err)
	require.Len(t, got, 3, "start inclusive, end exclusive")
	assert.Equal(t, []float64{1, 2, 3}, values(got))

	q.Ascending = false
	q.Limit = 2
	got, err = m.ListSamples(ctx, alice, health.DataTypeSteps, q)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 2}, values(got))
	for _, rec := range got {
		assert.NotEmpty(t, rec.ID)
	}
}

func TestMemoryWorkoutsFilterAndDedupe(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	run := WorkoutRecord{ID: "w-1", Workout: health.Workout{WorkoutType: health.WorkoutRunning, StartDate: base, EndDate: base.Add(time.Hour), Duration: 3600}}
	ride := WorkoutRecord{ID: "w-2", Workout: health.Workout{WorkoutType: health.WorkoutCycling, StartDate: base.Add(2 * time.Hour), EndDate: base.Add(3 * time.Hour), Duration: 3600}}
	require.NoError(t, m.InsertWorkout(ctx, alice, run))
	require.NoError(t, m.InsertWorkout(ctx, alice, run))
	require.NoError(t, m.InsertWorkout(ctx, alice, ride))

	q := Query{Start: base, End: base.Add(24 * time.Hour), Limit: 10}
	all, err := m.ListWorkouts(ctx, alice, nil, q)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "w-2", all[0].ID, "newest first")

	filter := health.WorkoutRunning
	runs, err := m.ListWorkouts(ctx, alice, &filter, q)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "w-1", runs[0].ID)
}

func TestMemorySleepSessionsAreCopied(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	stages := []health.SleepStageInterval{{Stage: health.SleepStageDeep, StartDate: base, EndDate: base.Add(time.Hour)}}
	require.NoError(t, m.InsertSleepSession(ctx, alice, SleepRecord{Session: health.SleepSession{
		StartDate: base, EndDate: base.Add(time.Hour), Duration: 3600, Stages: stages,
	}}))
	stages[0].Stage = health.SleepStageAwake

	got, err := m.ListSleepSessions(ctx, alice, Query{Start: base, End: base.Add(time.Hour), Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, health.SleepStageDeep, got[0].Session.Stages[0].Stage)
}

func values(records []SampleRecord) []float64 {
	out := make([]float64, 0, len(records))
	for _, r := range records {
		out = append(out, r.Sample.Value)
	}
	return out
}
