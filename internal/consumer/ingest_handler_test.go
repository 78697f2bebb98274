package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"example.com/healthbridge/internal/events"
	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/store"
)

var ingestOwner = store.Owner{TenantID: "tenant-1", UserID: "user-1"}

func ingestMessage(t *testing.T, eventType, topic string, payload interface{}) Message {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return Message{Topic: topic, EventType: eventType, TenantID: ingestOwner.TenantID, Payload: body}
}

func everything() store.Query {
	return store.Query{Start: time.Unix(0, 0), End: time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC), Limit: 100}
}

func TestIngestWorkout(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	h := NewIngestHandler(mem)

	start := time.Date(2024, time.May, 4, 7, 0, 0, 0, time.UTC)
	distance := 5000.0
	msg := ingestMessage(t, events.TypeWorkoutRecorded, events.TopicWorkoutEvents, events.WorkoutRecorded{
		WorkoutID:     "w-1",
		TenantID:      ingestOwner.TenantID,
		UserID:        ingestOwner.UserID,
		WorkoutType:   "parkour",
		StartDate:     start,
		EndDate:       start.Add(30 * time.Minute),
		TotalDistance: &distance,
		SourceName:    "Watch",
	})
	require.NoError(t, h.Handle(ctx, msg))
	require.NoError(t, h.Handle(ctx, msg), "redelivery is idempotent")

	workouts, err := mem.ListWorkouts(ctx, ingestOwner, nil, everything())
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	w := workouts[0].Workout
	require.Equal(t, health.WorkoutOther, w.WorkoutType)
	require.Equal(t, 1800.0, w.Duration)
	require.Equal(t, 5000.0, *w.TotalDistance)
	require.Nil(t, w.TotalEnergyBurned)
}

func TestIngestSleepSortsStages(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	h := NewIngestHandler(mem)

	bed := time.Date(2024, time.May, 4, 23, 0, 0, 0, time.UTC)
	msg := ingestMessage(t, events.TypeSleepSessionRecorded, events.TopicSleepEvents, events.SleepSessionRecorded{
		SessionID: "s-1",
		TenantID:  ingestOwner.TenantID,
		UserID:    ingestOwner.UserID,
		StartDate: bed,
		EndDate:   bed.Add(7 * time.Hour),
		Stages: []events.SleepStage{
			{Stage: "deep", StartDate: bed.Add(time.Hour), EndDate: bed.Add(2 * time.Hour)},
			{Stage: "light", StartDate: bed, EndDate: bed.Add(time.Hour)},
		},
	})
	require.NoError(t, h.Handle(ctx, msg))

	sessions, err := mem.ListSleepSessions(ctx, ingestOwner, everything())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.Equal(t, 7*3600.0, sessions[0].Session.Duration)
	require.Equal(t, health.SleepStageLight, sessions[0].Session.Stages[0].Stage)
	require.Equal(t, health.SleepStageDeep, sessions[0].Session.Stages[1].Stage)
}

func TestIngestRejectsInvalidPayloads(t *testing.T) {
	ctx := context.Background()
	h := NewIngestHandler(store.NewMemory())
	bed := time.Date(2024, time.May, 4, 23, 0, 0, 0, time.UTC)

	cases := map[string]Message{
		"not json": {EventType: events.TypeWorkoutRecorded, Payload: []byte(`{`)},
		"missing id": ingestMessage(t, events.TypeWorkoutRecorded, events.TopicWorkoutEvents, events.WorkoutRecorded{
			TenantID: ingestOwner.TenantID, UserID: "u", WorkoutType: "running", StartDate: bed, EndDate: bed,
		}),
		"ends before start": ingestMessage(t, events.TypeWorkoutRecorded, events.TopicWorkoutEvents, events.WorkoutRecorded{
			WorkoutID: "w", TenantID: ingestOwner.TenantID, UserID: "u", WorkoutType: "running", StartDate: bed, EndDate: bed.Add(-time.Minute),
		}),
		"tenant mismatch": ingestMessage(t, events.TypeWorkoutRecorded, events.TopicWorkoutEvents, events.WorkoutRecorded{
			WorkoutID: "w", TenantID: "other", UserID: "u", WorkoutType: "running", StartDate: bed, EndDate: bed,
		}),
		"unknown stage": ingestMessage(t, events.TypeSleepSessionRecorded, events.TopicSleepEvents, events.SleepSessionRecorded{
			SessionID: "s", TenantID: ingestOwner.TenantID, UserID: "u", StartDate: bed, EndDate: bed.Add(time.Hour),
			Stages: []events.SleepStage{{Stage: "dreaming", StartDate: bed, EndDate: bed.Add(time.Hour)}},
		}),
		"stage outside session": ingestMessage(t, events.TypeSleepSessionRecorded, events.TopicSleepEvents, events.SleepSessionRecorded{
			SessionID: "s", TenantID: ingestOwner.TenantID, UserID: "u", StartDate: bed, EndDate: bed.Add(time.Hour),
			Stages: []events.SleepStage{{Stage: "rem", StartDate: bed, EndDate: bed.Add(2 * time.Hour)}},
		}),
	}
	for name, msg := range cases {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, h.Handle(ctx, msg), ErrInvalidEvent)
		})
	}
}

func TestIngestAcknowledgesUnknownEventTypes(t *testing.T) {
	h := NewIngestHandler(store.NewMemory())
	msg := Message{Topic: events.TopicWorkoutEvents, EventType: "workout.deleted", Payload: []byte(`{}`)}

	before := testutil.ToFloat64(messagesCounter.WithLabelValues(msg.Topic, msg.EventType, resultIgnored))
	require.NoError(t, h.Handle(context.Background(), msg))
	require.InDelta(t, before+1, testutil.ToFloat64(messagesCounter.WithLabelValues(msg.Topic, msg.EventType, resultIgnored)), 0.0001)
}
