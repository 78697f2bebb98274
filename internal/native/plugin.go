// Package native implements the health contract on top of a persistent health store,
// standing in for the OS health SDKs on hosts that run the bridge as a service.
package native

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/store"
)

// Version is the build version reported by GetPluginVersion. Override with
// -ldflags "-X example.com/healthbridge/internal/native.Version=...".
var Version = "dev"

// Option configures optional behaviour for the Plugin.
type Option func(*Plugin)

// WithPrompter sets the consent prompter used by RequestAuthorization.
func WithPrompter(p Prompter) Option {
	return func(pl *Plugin) {
		pl.prompter = p
	}
}

// WithSurface sets the host surface for the settings and privacy policy screens.
func WithSurface(s Surface) Option {
	return func(pl *Plugin) {
		pl.surface = s
	}
}

// WithPlatform overrides the platform tag reported by IsAvailable.
func WithPlatform(platform health.Platform) Option {
	return func(pl *Plugin) {
		pl.platform = platform
	}
}

// WithVersion overrides the reported build version.
func WithVersion(version string) Option {
	return func(pl *Plugin) {
		pl.version = version
	}
}

// WithClock overrides the time source used for defaults.
func WithClock(now func() time.Time) Option {
	return func(pl *Plugin) {
		pl.now = now
	}
}

// WithLogger overrides the logger used to report failures.
func WithLogger(logger *log.Logger) Option {
	return func(pl *Plugin) {
		pl.logger = logger
	}
}

// Plugin serves one owner's health data from a store.
type Plugin struct {
	store    store.Store
	owner    store.Owner
	prompter Prompter
	surface  Surface
	platform health.Platform
	version  string
	now      func() time.Time
	logger   *log.Logger
}

var _ health.Plugin = (*Plugin)(nil)

// New constructs a Plugin bound to owner. Without WithPrompter every prompt is
// left unanswered, so requested types stay undetermined.
func New(st store.Store, owner store.Owner, opts ...Option) *Plugin {
	p := &Plugin{
		store:    st,
		owner:    owner,
		platform: health.PlatformServer,
		version:  Version,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   log.New(log.Writer(), "[native] ", log.LstdFlags|log.Lshortfile),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// IsAvailable reports the store as available unless it fails a ping.
func (p *Plugin) IsAvailable(ctx context.Context) health.AvailabilityResult {
	if pinger, ok := p.store.(store.Pinger); ok {
		if err := pinger.Ping(ctx); err != nil {
			return health.AvailabilityResult{
				Available: false,
				Platform:  p.platform,
				Reason:    fmt.Sprintf("health store unreachable: %v", err),
			}
		}
	}
	return health.AvailabilityResult{Available: true, Platform: p.platform}
}

// ReadSamples returns samples of a quantity type the owner may read.
func (p *Plugin) ReadSamples(ctx context.Context, opts health.QueryOptions) (health.ReadSamplesResult, error) {
	const op = "readSamples"
	window, err := opts.Resolve(p.now())
	if err != nil {
		return health.ReadSamplesResult{}, err
	}
	if !opts.DataType.IsQuantity() {
		return health.ReadSamplesResult{}, health.NotSupported(op, fmt.Sprintf("data type %q is not readable as samples; use querySleeps", opts.DataType))
	}
	if err := p.requireGrant(ctx, op, opts.DataType, health.DirectionRead); err != nil {
		return health.ReadSamplesResult{}, err
	}

	records, err := p.store.ListSamples(ctx, p.owner, opts.DataType, store.QueryFromWindow(window))
	if err != nil {
		return health.ReadSamplesResult{}, p.platformFailure(op, err)
	}
	samples := make([]health.Sample, 0, len(records))
	for _, rec := range records {
		samples = append(samples, rec.Sample)
	}
	return health.ReadSamplesResult{Samples: samples}, nil
}

// SaveSample validates and persists a sample the owner may write.
func (p *Plugin) SaveSample(ctx context.Context, opts health.WriteSampleOptions) error {
	const op = "saveSample"
	now := p.now()
	sample, metadata, err := opts.Resolve(now)
	if err != nil {
		return err
	}
	if err := p.requireGrant(ctx, op, sample.DataType, health.DirectionWrite); err != nil {
		return err
	}

	record := store.SampleRecord{
		ID:        uuid.NewString(),
		Sample:    sample,
		Metadata:  metadata,
		CreatedAt: now,
	}
	if err := p.store.InsertSample(ctx, p.owner, record); err != nil {
		return p.platformFailure(op, err)
	}
	return nil
}

// QueryWorkouts returns workouts once the owner has granted any read access.
func (p *Plugin) QueryWorkouts(ctx context.Context, opts health.QueryWorkoutsOptions) (health.QueryWorkoutsResult, error) {
	const op = "queryWorkouts"
	window, err := opts.Resolve(p.now())
	if err != nil {
		return health.QueryWorkoutsResult{}, err
	}
	grants, err := p.grants(ctx, op)
	if err != nil {
		return health.QueryWorkoutsResult{}, err
	}
	if !grants.anyGranted(health.DirectionRead) {
		return health.QueryWorkoutsResult{}, health.Unauthorized(op, "read permission has not been granted for workouts")
	}

	records, err := p.store.ListWorkouts(ctx, p.owner, opts.WorkoutType, store.QueryFromWindow(window))
	if err != nil {
		return health.QueryWorkoutsResult{}, p.platformFailure(op, err)
	}
	workouts := make([]health.Workout, 0, len(records))
	for _, rec := range records {
		workouts = append(workouts, rec.Workout)
	}
	return health.QueryWorkoutsResult{Workouts: workouts}, nil
}

// QuerySleeps returns sleep sessions the owner may read.
func (p *Plugin) QuerySleeps(ctx context.Context, opts health.QuerySleepOptions) (health.QuerySleepsResult, error) {
	const op = "querySleeps"
	window, err := opts.Resolve(p.now())
	if err != nil {
		return health.QuerySleepsResult{}, err
	}
	if err := p.requireGrant(ctx, op, health.DataTypeSleep, health.DirectionRead); err != nil {
		return health.QuerySleepsResult{}, err
	}

	records, err := p.store.ListSleepSessions(ctx, p.owner, store.QueryFromWindow(window))
	if err != nil {
		return health.QuerySleepsResult{}, p.platformFailure(op, err)
	}
	sessions := make([]health.SleepSession, 0, len(records))
	for _, rec := range records {
		session := rec.Session
		if session.Stages == nil {
			session.Stages = []health.SleepStageInterval{}
		}
		sessions = append(sessions, session)
	}
	return health.QuerySleepsResult{Sessions: sessions}, nil
}

func (p *Plugin) GetPluginVersion(context.Context) health.PluginVersion {
	return health.PluginVersion{Version: p.version}
}

// OpenHealthConnectSettings delegates to the surface, or does nothing without one.
func (p *Plugin) OpenHealthConnectSettings(ctx context.Context) error {
	if p.surface == nil {
		return nil
	}
	if err := p.surface.OpenSettings(ctx); err != nil {
		return p.platformFailure("openHealthConnectSettings", err)
	}
	return nil
}

// ShowPrivacyPolicy delegates to the surface, or does nothing without one.
func (p *Plugin) ShowPrivacyPolicy(ctx context.Context) error {
	if p.surface == nil {
		return nil
	}
	if err := p.surface.ShowPrivacyPolicy(ctx); err != nil {
		return p.platformFailure("showPrivacyPolicy", err)
	}
	return nil
}

func (p *Plugin) platformFailure(op string, err error) error {
	p.logger.Printf("%s failed (tenant=%s, user=%s): %v", op, p.owner.TenantID, p.owner.UserID, err)
	return health.PlatformFailure(op, err)
}
