package events

// Event types carried in the event_type header and the outbox table.
const (
	TypeSampleSaved          = "health.sample_saved"
	TypeAuthorizationChanged = "health.authorization_changed"
	TypeWorkoutRecorded      = "workout.recorded"
	TypeSleepSessionRecorded = "sleep.session_recorded"
)

// Kafka topics.
const (
	TopicHealthSamples       = "health_samples"
	TopicHealthAuthorization = "health_authorization"
	TopicWorkoutEvents       = "workout_events"
	TopicSleepEvents         = "sleep_events"
)

// SchemaSubject returns the Schema Registry subject for values on topic.
func SchemaSubject(topic string) string {
	return topic + "-value"
}
