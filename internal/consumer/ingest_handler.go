package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"example.com/healthbridge/internal/events"
	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/store"
)

// ErrInvalidEvent marks payloads that cannot be ingested as sent.
var ErrInvalidEvent = errors.New("consumer: invalid event")

// IngestHandler writes workouts and sleep sessions recorded upstream into the health store.
type IngestHandler struct {
	store    store.Store
	validate *validator.Validate
}

// NewIngestHandler constructs a handler backed by st.
func NewIngestHandler(st store.Store) *IngestHandler {
	return &IngestHandler{store: st, validate: validator.New()}
}

// Handle ingests known event types. Other event types are acknowledged and counted.
func (h *IngestHandler) Handle(ctx context.Context, msg Message) error {
	switch msg.EventType {
	case events.TypeWorkoutRecorded:
		return h.handleWorkout(ctx, msg)
	case events.TypeSleepSessionRecorded:
		return h.handleSleep(ctx, msg)
	default:
		recordResult(msg, resultIgnored)
		return nil
	}
}

func (h *IngestHandler) handleWorkout(ctx context.Context, msg Message) error {
	var evt events.WorkoutRecorded
	if err := h.decode(msg, &evt); err != nil {
		return err
	}
	owner, err := ownerFor(msg, evt.TenantID, evt.UserID)
	if err != nil {
		return err
	}

	duration := evt.DurationSeconds
	if duration == 0 {
		duration = evt.EndDate.Sub(evt.StartDate).Seconds()
	}
	return h.store.InsertWorkout(ctx, owner, store.WorkoutRecord{
		ID: evt.WorkoutID,
		Workout: health.Workout{
			WorkoutType:       health.NormalizeWorkoutType(evt.WorkoutType),
			Duration:          duration,
			TotalEnergyBurned: evt.TotalEnergyBurned,
			TotalDistance:     evt.TotalDistance,
			StartDate:         evt.StartDate.UTC(),
			EndDate:           evt.EndDate.UTC(),
			SourceName:        evt.SourceName,
			SourceID:          evt.SourceID,
			Metadata:          evt.Metadata,
		},
	})
}

func (h *IngestHandler) handleSleep(ctx context.Context, msg Message) error {
	var evt events.SleepSessionRecorded
	if err := h.decode(msg, &evt); err != nil {
		return err
	}
	owner, err := ownerFor(msg, evt.TenantID, evt.UserID)
	if err != nil {
		return err
	}

	stages := make([]health.SleepStageInterval, 0, len(evt.Stages))
	for _, s := range evt.Stages {
		stage := health.SleepStage(s.Stage)
		if !stage.Valid() {
			return fmt.Errorf("%w: unknown sleep stage %q", ErrInvalidEvent, s.Stage)
		}
		if s.StartDate.Before(evt.StartDate) || s.EndDate.After(evt.EndDate) {
			return fmt.Errorf("%w: %s stage outside session bounds", ErrInvalidEvent, s.Stage)
		}
		stages = append(stages, health.SleepStageInterval{Stage: stage, StartDate: s.StartDate.UTC(), EndDate: s.EndDate.UTC()})
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].StartDate.Before(stages[j].StartDate) })

	return h.store.InsertSleepSession(ctx, owner, store.SleepRecord{
		ID: evt.SessionID,
		Session: health.SleepSession{
			StartDate:  evt.StartDate.UTC(),
			EndDate:    evt.EndDate.UTC(),
			Duration:   evt.EndDate.Sub(evt.StartDate).Seconds(),
			SourceName: evt.SourceName,
			SourceID:   evt.SourceID,
			Stages:     stages,
		},
	})
}

func (h *IngestHandler) decode(msg Message, target interface{}) error {
	if err := json.Unmarshal(msg.Payload, target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEvent, msg.EventType, err)
	}
	if err := h.validate.Struct(target); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidEvent, msg.EventType, err)
	}
	return nil
}

// ownerFor rejects payloads whose tenant disagrees with the tenant_id header.
func ownerFor(msg Message, tenantID, userID string) (store.Owner, error) {
	if msg.TenantID != "" && msg.TenantID != tenantID {
		return store.Owner{}, fmt.Errorf("%w: tenant header %q does not match payload tenant %q", ErrInvalidEvent, msg.TenantID, tenantID)
	}
	return store.Owner{TenantID: tenantID, UserID: userID}, nil
}
