package outbox

import "example.com/healthbridge/internal/events"

// SchemaCatalogEntry maps event type to schema definition.
type SchemaCatalogEntry struct {
	Schema string
}

var schemaCatalog = map[string]SchemaCatalogEntry{
	events.TypeSampleSaved:          {Schema: healthSampleSavedSchema},
	events.TypeAuthorizationChanged: {Schema: authorizationChangedSchema},
}

const healthSampleSavedSchema = `{
  "type": "object",
  "title": "HealthSampleSaved",
  "properties": {
    "sample_id": {"type": "string"},
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "data_type": {"type": "string", "enum": ["steps", "distance", "calories", "heartRate", "weight"]},
    "value": {"type": "number", "minimum": 0},
    "unit": {"type": "string"},
    "start_date": {"type": "string", "format": "date-time"},
    "end_date": {"type": "string", "format": "date-time"},
    "metadata": {"type": "object", "additionalProperties": {"type": "string"}},
    "recorded_at": {"type": "string", "format": "date-time"}
  },
  "required": ["sample_id", "tenant_id", "user_id", "data_type", "value", "unit", "start_date", "end_date", "recorded_at"],
  "additionalProperties": false
}`

const authorizationChangedSchema = `{
  "type": "object",
  "title": "AuthorizationChanged",
  "properties": {
    "tenant_id": {"type": "string"},
    "user_id": {"type": "string"},
    "data_type": {"type": "string"},
    "direction": {"type": "string", "enum": ["read", "write"]},
    "decision": {"type": "string", "enum": ["granted", "denied"]},
    "occurred_at": {"type": "string", "format": "date-time"}
  },
  "required": ["tenant_id", "user_id", "data_type", "direction", "decision", "occurred_at"],
  "additionalProperties": false
}`
