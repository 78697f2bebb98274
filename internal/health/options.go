package health

import (
	"fmt"
	"math"
	"time"
)

const (
	// DefaultLimit caps query results when the caller omits a limit.
	DefaultLimit = 100
	// DefaultLookback is the window used when the caller omits a start date.
	DefaultLookback = 24 * time.Hour
)

// QueryOptions selects samples of one data type.
type QueryOptions struct {
	DataType  DataType   `json:"dataType"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Limit     *int       `json:"limit,omitempty"`
	Ascending bool       `json:"ascending,omitempty"`
}

// QueryWorkoutsOptions selects workouts, optionally of one type.
type QueryWorkoutsOptions struct {
	WorkoutType *WorkoutType `json:"workoutType,omitempty"`
	StartDate   *time.Time   `json:"startDate,omitempty"`
	EndDate     *time.Time   `json:"endDate,omitempty"`
	Limit       *int         `json:"limit,omitempty"`
	Ascending   bool         `json:"ascending,omitempty"`
}

// QuerySleepOptions selects sleep sessions.
type QuerySleepOptions struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Limit     *int       `json:"limit,omitempty"`
	Ascending bool       `json:"ascending,omitempty"`
}

// WriteSampleOptions describes a sample to persist.
type WriteSampleOptions struct {
	DataType  DataType          `json:"dataType"`
	Value     float64           `json:"value"`
	Unit      Unit              `json:"unit,omitempty"`
	StartDate *time.Time        `json:"startDate,omitempty"`
	EndDate   *time.Time        `json:"endDate,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Window is a fully defaulted query range: Start inclusive, End exclusive.
type Window struct {
	Start     time.Time
	End       time.Time
	Limit     int
	Ascending bool
}

// Contains reports whether t falls inside [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Ptr returns a pointer to v; handy for optional fields.
func Ptr[T any](v T) *T {
	return &v
}

func resolveWindow(op string, start, end *time.Time, limit *int, ascending bool, now time.Time) (Window, error) {
	w := Window{
		End:       now,
		Limit:     DefaultLimit,
		Ascending: ascending,
	}
	if end != nil {
		w.End = *end
	}
	if start != nil {
		w.Start = *start
	} else {
		w.Start = now.Add(-DefaultLookback)
	}
	if limit != nil {
		if *limit <= 0 {
			return Window{}, InvalidArgument(op, fmt.Sprintf("limit must be > 0, got %d", *limit))
		}
		w.Limit = *limit
	}
	if w.End.Before(w.Start) {
		return Window{}, InvalidArgument(op, "endDate must not be before startDate")
	}
	return w, nil
}

// Resolve validates the options and applies defaults relative to now.
func (o QueryOptions) Resolve(now time.Time) (Window, error) {
	if !o.DataType.Valid() {
		return Window{}, InvalidArgument("readSamples", fmt.Sprintf("unknown data type %q", o.DataType))
	}
	return resolveWindow("readSamples", o.StartDate, o.EndDate, o.Limit, o.Ascending, now)
}

// Resolve validates the options and applies defaults relative to now.
func (o QueryWorkoutsOptions) Resolve(now time.Time) (Window, error) {
	if o.WorkoutType != nil && !o.WorkoutType.Valid() {
		return Window{}, InvalidArgument("queryWorkouts", fmt.Sprintf("unknown workout type %q", *o.WorkoutType))
	}
	return resolveWindow("queryWorkouts", o.StartDate, o.EndDate, o.Limit, o.Ascending, now)
}

// Resolve validates the options and applies defaults relative to now.
func (o QuerySleepOptions) Resolve(now time.Time) (Window, error) {
	return resolveWindow("querySleeps", o.StartDate, o.EndDate, o.Limit, o.Ascending, now)
}

// Resolve validates the write and returns the sample it describes, with the unit
// and dates defaulted. The returned metadata is a copy.
func (o WriteSampleOptions) Resolve(now time.Time) (Sample, map[string]string, error) {
	const op = "saveSample"
	if !o.DataType.Valid() {
		return Sample{}, nil, InvalidArgument(op, fmt.Sprintf("unknown data type %q", o.DataType))
	}
	if !o.DataType.IsQuantity() {
		return Sample{}, nil, NotSupported(op, fmt.Sprintf("data type %q cannot be written as a sample", o.DataType))
	}
	if math.IsNaN(o.Value) || math.IsInf(o.Value, 0) {
		return Sample{}, nil, InvalidArgument(op, "value must be a finite number")
	}
	if o.Value < 0 && !o.DataType.allowsNegative() {
		return Sample{}, nil, InvalidArgument(op, fmt.Sprintf("value for %q must not be negative", o.DataType))
	}

	unit := o.Unit
	if unit == "" {
		unit, _ = o.DataType.DefaultUnit()
	} else if !unit.Valid() {
		return Sample{}, nil, InvalidArgument(op, fmt.Sprintf("unknown unit %q", unit))
	}

	start := now
	if o.StartDate != nil {
		start = *o.StartDate
	}
	end := start
	if o.EndDate != nil {
		end = *o.EndDate
	}
	if end.Before(start) {
		return Sample{}, nil, InvalidArgument(op, "endDate must not be before startDate")
	}

	var metadata map[string]string
	if len(o.Metadata) > 0 {
		metadata = make(map[string]string, len(o.Metadata))
		for k, v := range o.Metadata {
			metadata[k] = v
		}
	}

	return Sample{
		DataType:  o.DataType,
		Value:     o.Value,
		Unit:      unit,
		StartDate: start.UTC(),
		EndDate:   end.UTC(),
	}, metadata, nil
}

// Normalize validates the requested types and drops duplicates, keeping first occurrence order.
func (o AuthorizationOptions) Normalize() (AuthorizationOptions, error) {
	read, err := dedupeTypes(o.Read)
	if err != nil {
		return AuthorizationOptions{}, err
	}
	write, err := dedupeTypes(o.Write)
	if err != nil {
		return AuthorizationOptions{}, err
	}
	return AuthorizationOptions{Read: read, Write: write}, nil
}

// Empty reports whether no type was requested in either direction.
func (o AuthorizationOptions) Empty() bool {
	return len(o.Read) == 0 && len(o.Write) == 0
}

func dedupeTypes(types []DataType) ([]DataType, error) {
	seen := make(map[DataType]struct{}, len(types))
	out := make([]DataType, 0, len(types))
	for _, t := range types {
		if !t.Valid() {
			return nil, InvalidArgument("authorization", fmt.Sprintf("unknown data type %q", t))
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}
