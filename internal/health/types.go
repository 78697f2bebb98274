// Package health defines the cross-platform health data contract: data types, units, query
// options, results, authorization semantics and the Plugin interface every backend implements.
package health

import (
	"fmt"
	"time"
)

// DataType identifies a kind of health data.
type DataType string

// Quantity data types.
const (
	DataTypeSteps     DataType = "steps"
	DataTypeDistance  DataType = "distance"
	DataTypeCalories  DataType = "calories"
	DataTypeHeartRate DataType = "heartRate"
	DataTypeWeight    DataType = "weight"
)

// Category data types.
const (
	DataTypeSleep DataType = "sleep"
)

// Unit is a measurement unit for quantity samples.
type Unit string

const (
	UnitCount       Unit = "count"
	UnitMeter       Unit = "meter"
	UnitKilocalorie Unit = "kilocalorie"
	UnitBPM         Unit = "bpm"
	UnitKilogram    Unit = "kilogram"
)

type quantitySpec struct {
	unit           Unit
	allowsNegative bool
}

var quantityTypes = map[DataType]quantitySpec{
	DataTypeSteps:     {unit: UnitCount},
	DataTypeDistance:  {unit: UnitMeter},
	DataTypeCalories:  {unit: UnitKilocalorie},
	DataTypeHeartRate: {unit: UnitBPM},
	DataTypeWeight:    {unit: UnitKilogram},
}

var categoryTypes = map[DataType]struct{}{
	DataTypeSleep: {},
}

var units = map[Unit]struct{}{
	UnitCount:       {},
	UnitMeter:       {},
	UnitKilocalorie: {},
	UnitBPM:         {},
	UnitKilogram:    {},
}

// DataTypes lists every known data type, quantity types first.
func DataTypes() []DataType {
	return []DataType{DataTypeSteps, DataTypeDistance, DataTypeCalories, DataTypeHeartRate, DataTypeWeight, DataTypeSleep}
}

// Valid reports whether t is a known data type.
func (t DataType) Valid() bool {
	return t.IsQuantity() || t.IsCategory()
}

// IsQuantity reports whether t carries numeric samples.
func (t DataType) IsQuantity() bool {
	_, ok := quantityTypes[t]
	return ok
}

// IsCategory reports whether t is a categorical type such as sleep.
func (t DataType) IsCategory() bool {
	_, ok := categoryTypes[t]
	return ok
}

// DefaultUnit returns the unit used when a write omits one. Category types have none.
func (t DataType) DefaultUnit() (Unit, bool) {
	spec, ok := quantityTypes[t]
	return spec.unit, ok
}

func (t DataType) allowsNegative() bool {
	return quantityTypes[t].allowsNegative
}

// ParseDataType converts raw input into a DataType.
func ParseDataType(raw string) (DataType, error) {
	t := DataType(raw)
	if !t.Valid() {
		return "", InvalidArgument("parseDataType", fmt.Sprintf("unknown data type %q", raw))
	}
	return t, nil
}

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	_, ok := units[u]
	return ok
}

// WorkoutType tags a workout session.
type WorkoutType string

const (
	WorkoutRunning                     WorkoutType = "running"
	WorkoutCycling                     WorkoutType = "cycling"
	WorkoutWalking                     WorkoutType = "walking"
	WorkoutSwimming                    WorkoutType = "swimming"
	WorkoutYoga                        WorkoutType = "yoga"
	WorkoutStrengthTraining            WorkoutType = "strengthTraining"
	WorkoutHiking                      WorkoutType = "hiking"
	WorkoutTennis                      WorkoutType = "tennis"
	WorkoutBasketball                  WorkoutType = "basketball"
	WorkoutSoccer                      WorkoutType = "soccer"
	WorkoutAmericanFootball            WorkoutType = "americanFootball"
	WorkoutBaseball                    WorkoutType = "baseball"
	WorkoutCrossTraining               WorkoutType = "crossTraining"
	WorkoutElliptical                  WorkoutType = "elliptical"
	WorkoutRowing                      WorkoutType = "rowing"
	WorkoutStairClimbing               WorkoutType = "stairClimbing"
	WorkoutTraditionalStrengthTraining WorkoutType = "traditionalStrengthTraining"
	WorkoutWaterFitness                WorkoutType = "waterFitness"
	WorkoutWaterPolo                   WorkoutType = "waterPolo"
	WorkoutWaterSports                 WorkoutType = "waterSports"
	WorkoutWrestling                   WorkoutType = "wrestling"
	WorkoutOther                       WorkoutType = "other"
)

var workoutTypes = map[WorkoutType]struct{}{
	WorkoutRunning: {}, WorkoutCycling: {}, WorkoutWalking: {}, WorkoutSwimming: {}, WorkoutYoga: {},
	WorkoutStrengthTraining: {}, WorkoutHiking: {}, WorkoutTennis: {}, WorkoutBasketball: {},
	WorkoutSoccer: {}, WorkoutAmericanFootball: {}, WorkoutBaseball: {}, WorkoutCrossTraining: {},
	WorkoutElliptical: {}, WorkoutRowing: {}, WorkoutStairClimbing: {},
	WorkoutTraditionalStrengthTraining: {}, WorkoutWaterFitness: {}, WorkoutWaterPolo: {},
	WorkoutWaterSports: {}, WorkoutWrestling: {}, WorkoutOther: {},
}

// Valid reports whether w is a known workout type.
func (w WorkoutType) Valid() bool {
	_, ok := workoutTypes[w]
	return ok
}

// ParseWorkoutType converts raw input into a WorkoutType.
func ParseWorkoutType(raw string) (WorkoutType, error) {
	w := WorkoutType(raw)
	if !w.Valid() {
		return "", InvalidArgument("parseWorkoutType", fmt.Sprintf("unknown workout type %q", raw))
	}
	return w, nil
}

// NormalizeWorkoutType maps unknown tags onto WorkoutOther.
func NormalizeWorkoutType(raw string) WorkoutType {
	if w := WorkoutType(raw); w.Valid() {
		return w
	}
	return WorkoutOther
}

// SleepStage classifies an interval within a sleep session.
type SleepStage string

const (
	SleepStageInBed    SleepStage = "inBed"
	SleepStageAsleep   SleepStage = "asleep"
	SleepStageAwake    SleepStage = "awake"
	SleepStageLight    SleepStage = "light"
	SleepStageDeep     SleepStage = "deep"
	SleepStageREM      SleepStage = "rem"
	SleepStageOutOfBed SleepStage = "outOfBed"
	SleepStageUnknown  SleepStage = "unknown"
)

// Valid reports whether s is a known sleep stage.
func (s SleepStage) Valid() bool {
	switch s {
	case SleepStageInBed, SleepStageAsleep, SleepStageAwake, SleepStageLight,
		SleepStageDeep, SleepStageREM, SleepStageOutOfBed, SleepStageUnknown:
		return true
	}
	return false
}

// Platform tags the host an implementation runs on.
type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
	PlatformWeb     Platform = "web"
	PlatformServer  Platform = "server"
)

// Direction is an authorization direction.
type Direction string

const (
	DirectionRead  Direction = "read"
	DirectionWrite Direction = "write"
)

// AvailabilityResult describes whether the health store can be used on this host.
type AvailabilityResult struct {
	Available bool     `json:"available"`
	Platform  Platform `json:"platform,omitempty"`
	Reason    string   `json:"reason,omitempty"`
}

// AuthorizationOptions lists the data types a caller wants access to, per direction.
type AuthorizationOptions struct {
	Read  []DataType `json:"read,omitempty"`
	Write []DataType `json:"write,omitempty"`
}

// AuthorizationStatus reports the current grant for the requested data types.
// A type absent from both lists of a direction is undetermined.
type AuthorizationStatus struct {
	ReadAuthorized  []DataType `json:"readAuthorized"`
	ReadDenied      []DataType `json:"readDenied"`
	WriteAuthorized []DataType `json:"writeAuthorized"`
	WriteDenied     []DataType `json:"writeDenied"`
}

// NewAuthorizationStatus returns a status with all four lists empty but non-nil.
func NewAuthorizationStatus() AuthorizationStatus {
	return AuthorizationStatus{
		ReadAuthorized:  []DataType{},
		ReadDenied:      []DataType{},
		WriteAuthorized: []DataType{},
		WriteDenied:     []DataType{},
	}
}

// Sample is a single timestamped quantity observation.
type Sample struct {
	DataType   DataType  `json:"dataType"`
	Value      float64   `json:"value"`
	Unit       Unit      `json:"unit"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	SourceName string    `json:"sourceName,omitempty"`
	SourceID   string    `json:"sourceId,omitempty"`
}

// ReadSamplesResult wraps the samples returned by ReadSamples.
type ReadSamplesResult struct {
	Samples []Sample `json:"samples"`
}

// Workout is a bounded exercise session.
type Workout struct {
	WorkoutType       WorkoutType       `json:"workoutType"`
	Duration          float64           `json:"duration"`
	TotalEnergyBurned *float64          `json:"totalEnergyBurned,omitempty"`
	TotalDistance     *float64          `json:"totalDistance,omitempty"`
	StartDate         time.Time         `json:"startDate"`
	EndDate           time.Time         `json:"endDate"`
	SourceName        string            `json:"sourceName,omitempty"`
	SourceID          string            `json:"sourceId,omitempty"`
	Metadata          map[string]string `json:"metadata,omitempty"`
}

// QueryWorkoutsResult wraps the workouts returned by QueryWorkouts.
type QueryWorkoutsResult struct {
	Workouts []Workout `json:"workouts"`
}

// SleepStageInterval is a contiguous stretch of one sleep stage.
type SleepStageInterval struct {
	Stage     SleepStage `json:"stage"`
	StartDate time.Time  `json:"startDate"`
	EndDate   time.Time  `json:"endDate"`
}

// SleepSession is one night (or nap) with its stage breakdown ordered by start date.
type SleepSession struct {
	StartDate  time.Time            `json:"startDate"`
	EndDate    time.Time            `json:"endDate"`
	Duration   float64              `json:"duration"`
	SourceName string               `json:"sourceName,omitempty"`
	SourceID   string               `json:"sourceId,omitempty"`
	Stages     []SleepStageInterval `json:"stages"`
}

// QuerySleepsResult wraps the sessions returned by QuerySleeps.
type QuerySleepsResult struct {
	Sessions []SleepSession `json:"sessions"`
}

// PluginVersion describes the implementation build.
type PluginVersion struct {
	Version string `json:"version"`
}
