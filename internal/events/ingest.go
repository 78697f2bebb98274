package events

import "time"

// WorkoutRecorded is produced by upstream trackers when a workout session finishes.
type WorkoutRecorded struct {
	WorkoutID         string            `json:"workout_id" validate:"required"`
	TenantID          string            `json:"tenant_id" validate:"required"`
	UserID            string            `json:"user_id" validate:"required"`
	WorkoutType       string            `json:"workout_type" validate:"required"`
	StartDate         time.Time         `json:"start_date" validate:"required"`
	EndDate           time.Time         `json:"end_date" validate:"required,gtefield=StartDate"`
	DurationSeconds   float64           `json:"duration_seconds" validate:"gte=0"`
	TotalEnergyBurned *float64          `json:"total_energy_burned_kcal,omitempty" validate:"omitempty,gte=0"`
	TotalDistance     *float64          `json:"total_distance_m,omitempty" validate:"omitempty,gte=0"`
	SourceName        string            `json:"source_name,omitempty"`
	SourceID          string            `json:"source_id,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// SleepStage is one interval of a recorded sleep session.
type SleepStage struct {
	Stage     string    `json:"stage" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required,gtefield=StartDate"`
}

// SleepSessionRecorded is produced by upstream trackers when a sleep session is closed.
type SleepSessionRecorded struct {
	SessionID  string       `json:"session_id" validate:"required"`
	TenantID   string       `json:"tenant_id" validate:"required"`
	UserID     string       `json:"user_id" validate:"required"`
	StartDate  time.Time    `json:"start_date" validate:"required"`
	EndDate    time.Time    `json:"end_date" validate:"required,gtefield=StartDate"`
	SourceName string       `json:"source_name,omitempty"`
	SourceID   string       `json:"source_id,omitempty"`
	Stages     []SleepStage `json:"stages" validate:"dive"`
}
