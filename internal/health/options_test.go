package health

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.January, 2, 12, 0, 0, 0, time.UTC)

func TestQueryOptionsDefaults(t *testing.T) {
	w, err := QueryOptions{DataType: DataTypeSteps}.Resolve(now)
	require.NoError(t, err)

	assert.Equal(t, now.Add(-24*time.Hour), w.Start)
	assert.Equal(t, now, w.End)
	assert.Equal(t, DefaultLimit, w.Limit)
	assert.False(t, w.Ascending)
}

func TestQueryOptionsExplicitWindow(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	w, err := QueryOptions{
		DataType:  DataTypeSteps,
		StartDate: &start,
		EndDate:   &end,
		Limit:     Ptr(50),
		Ascending: true,
	}.Resolve(now)
	require.NoError(t, err)

	assert.Equal(t, start, w.Start)
	assert.Equal(t, end, w.End)
	assert.Equal(t, 50, w.Limit)
	assert.True(t, w.Ascending)
	assert.True(t, w.Contains(start), "start is inclusive")
	assert.False(t, w.Contains(end), "end is exclusive")
}

func TestQueryOptionsRejectsBadInput(t *testing.T) {
	start := now
	before := now.Add(-time.Hour)

	cases := map[string]QueryOptions{
		"zero limit":     {DataType: DataTypeSteps, Limit: Ptr(0)},
		"negative limit": {DataType: DataTypeSteps, Limit: Ptr(-3)},
		"end before":     {DataType: DataTypeSteps, StartDate: &start, EndDate: &before},
		"unknown type":   {DataType: "bloodOxygen"},
	}
	for name, opts := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := opts.Resolve(now)
			require.ErrorIs(t, err, ErrInvalidArgument)
		})
	}
}

func TestQueryWorkoutsOptionsRejectsUnknownFilter(t *testing.T) {
	_, err := QueryWorkoutsOptions{WorkoutType: Ptr(WorkoutType("jousting"))}.Resolve(now)
	require.ErrorIs(t, err, ErrInvalidArgument)

	w, err := QueryWorkoutsOptions{WorkoutType: Ptr(WorkoutRowing)}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, DefaultLimit, w.Limit)
}

func TestWriteSampleDefaultsUnitPerType(t *testing.T) {
	expected := map[DataType]Unit{
		DataTypeSteps:     UnitCount,
		DataTypeDistance:  UnitMeter,
		DataTypeCalories:  UnitKilocalorie,
		DataTypeHeartRate: UnitBPM,
		DataTypeWeight:    UnitKilogram,
	}
	for dataType, unit := range expected {
		sample, _, err := WriteSampleOptions{DataType: dataType, Value: 1}.Resolve(now)
		require.NoError(t, err, dataType)
		assert.Equal(t, unit, sample.Unit, dataType)
	}
}

func TestWriteSampleKeepsUnitOverride(t *testing.T) {
	sample, _, err := WriteSampleOptions{DataType: DataTypeWeight, Value: 70, Unit: UnitKilogram}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, UnitKilogram, sample.Unit)

	_, _, err = WriteSampleOptions{DataType: DataTypeWeight, Value: 70, Unit: "stone"}.Resolve(now)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWriteSampleDates(t *testing.T) {
	sample, _, err := WriteSampleOptions{DataType: DataTypeSteps, Value: 10}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, now, sample.StartDate)
	assert.Equal(t, now, sample.EndDate, "end defaults to start")

	start := now.Add(-time.Hour)
	sample, _, err = WriteSampleOptions{DataType: DataTypeSteps, Value: 10, StartDate: &start}.Resolve(now)
	require.NoError(t, err)
	assert.Equal(t, start, sample.EndDate)

	before := start.Add(-time.Minute)
	_, _, err = WriteSampleOptions{DataType: DataTypeSteps, Value: 10, StartDate: &start, EndDate: &before}.Resolve(now)
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestWriteSampleRejectsValues(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		_, _, err := WriteSampleOptions{DataType: DataTypeDistance, Value: v}.Resolve(now)
		require.ErrorIs(t, err, ErrInvalidArgument, "value %v", v)
	}

	_, _, err := WriteSampleOptions{DataType: DataTypeSleep, Value: 1}.Resolve(now)
	require.ErrorIs(t, err, ErrNotSupported)
}

func TestWriteSampleCopiesMetadata(t *testing.T) {
	meta := map[string]string{"device": "scale"}
	_, copied, err := WriteSampleOptions{DataType: DataTypeWeight, Value: 70, Metadata: meta}.Resolve(now)
	require.NoError(t, err)

	meta["device"] = "changed"
	assert.Equal(t, "scale", copied["device"])
}

func TestAuthorizationOptionsNormalize(t *testing.T) {
	opts, err := AuthorizationOptions{
		Read:  []DataType{DataTypeSteps, DataTypeSleep, DataTypeSteps},
		Write: nil,
	}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, []DataType{DataTypeSteps, DataTypeSleep}, opts.Read)
	assert.Empty(t, opts.Write)
	assert.False(t, opts.Empty())

	_, err = AuthorizationOptions{Write: []DataType{"oxygen"}}.Normalize()
	require.ErrorIs(t, err, ErrInvalidArgument)

	empty, err := AuthorizationOptions{Read: []DataType{}, Write: []DataType{}}.Normalize()
	require.NoError(t, err)
	assert.True(t, empty.Empty())
}

func TestErrorKinds(t *testing.T) {
	err := NotSupported("readSamples", "nope")
	assert.True(t, errors.Is(err, ErrNotSupported))
	assert.False(t, errors.Is(err, ErrUnauthorized))
	assert.Equal(t, KindNotSupported, KindOf(err))
	assert.Equal(t, "nope", err.Error())

	cause := errors.New("disk full")
	wrapped := PlatformFailure("saveSample", cause)
	assert.ErrorIs(t, wrapped, ErrPlatformFailure)
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "disk full", wrapped.Error())

	assert.Same(t, err, PlatformFailure("x", err), "contract errors pass through")
	assert.Nil(t, PlatformFailure("x", nil))
	assert.Equal(t, ErrorKind(""), KindOf(cause))
}

func TestSortByStart(t *testing.T) {
	type item struct {
		id    string
		start time.Time
	}
	items := []item{
		{"b", now},
		{"c", now.Add(time.Hour)},
		{"a", now},
		{"d", now.Add(-time.Hour)},
	}
	start := func(i item) time.Time { return i.start }
	key := func(i item) string { return i.id }

	SortByStart(items, true, start, key)
	assert.Equal(t, []string{"d", "a", "b", "c"}, ids(items, key))

	SortByStart(items, false, start, key)
	assert.Equal(t, []string{"c", "b", "a", "d"}, ids(items, key))

	assert.Len(t, Truncate(items, 2), 2)
	assert.Len(t, Truncate(items, 10), 4)
}

func ids[T any](items []T, key func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, key(it))
	}
	return out
}

func TestParseTypes(t *testing.T) {
	dt, err := ParseDataType("heartRate")
	require.NoError(t, err)
	assert.Equal(t, DataTypeHeartRate, dt)

	_, err = ParseDataType("HeartRate")
	require.ErrorIs(t, err, ErrInvalidArgument)

	wt, err := ParseWorkoutType("traditionalStrengthTraining")
	require.NoError(t, err)
	assert.Equal(t, WorkoutTraditionalStrengthTraining, wt)
	assert.Equal(t, WorkoutOther, NormalizeWorkoutType("parkour"))

	_, ok := DataTypeSleep.DefaultUnit()
	assert.False(t, ok)
	assert.Len(t, workoutTypes, 22)
}
