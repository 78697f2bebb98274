// Package events defines the payloads published and consumed by the health services.
package events

import "time"

// HealthSampleSaved is emitted when a sample is written to the store.
type HealthSampleSaved struct {
	SampleID   string            `json:"sample_id"`
	TenantID   string            `json:"tenant_id"`
	UserID     string            `json:"user_id"`
	DataType   string            `json:"data_type"`
	Value      float64           `json:"value"`
	Unit       string            `json:"unit"`
	StartDate  time.Time         `json:"start_date"`
	EndDate    time.Time         `json:"end_date"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	RecordedAt time.Time         `json:"recorded_at"`
}

// AuthorizationChanged tracks a persisted consent decision for one data type and direction.
type AuthorizationChanged struct {
	TenantID   string    `json:"tenant_id"`
	UserID     string    `json:"user_id"`
	DataType   string    `json:"data_type"`
	Direction  string    `json:"direction"`
	Decision   string    `json:"decision"`
	OccurredAt time.Time `json:"occurred_at"`
}
