// Package web is the health backend for hosts without a native health store. It reports the
// store as unavailable and rejects every data operation.
package web

import (
	"context"

	"example.com/healthbridge/internal/health"
)

// Version is reported by GetPluginVersion.
const Version = "web"

// Plugin implements health.Plugin without any backing store.
type Plugin struct{}

// New constructs a Plugin.
func New() *Plugin {
	return &Plugin{}
}

var _ health.Plugin = (*Plugin)(nil)

// IsAvailable always reports the store as unavailable.
func (p *Plugin) IsAvailable(context.Context) health.AvailabilityResult {
	return health.AvailabilityResult{
		Available: false,
		Platform:  health.PlatformWeb,
		Reason:    "Native health APIs are not accessible in a browser environment.",
	}
}

func (p *Plugin) RequestAuthorization(context.Context, health.AuthorizationOptions) (health.AuthorizationStatus, error) {
	return health.AuthorizationStatus{}, health.NotSupported("requestAuthorization", "Health permissions are only available on native platforms.")
}

func (p *Plugin) CheckAuthorization(context.Context, health.AuthorizationOptions) (health.AuthorizationStatus, error) {
	return health.AuthorizationStatus{}, health.NotSupported("checkAuthorization", "Health permissions are only available on native platforms.")
}

func (p *Plugin) ReadSamples(context.Context, health.QueryOptions) (health.ReadSamplesResult, error) {
	return health.ReadSamplesResult{}, health.NotSupported("readSamples", "Reading health data is only available on native platforms.")
}

func (p *Plugin) SaveSample(context.Context, health.WriteSampleOptions) error {
	return health.NotSupported("saveSample", "Writing health data is only available on native platforms.")
}

func (p *Plugin) QueryWorkouts(context.Context, health.QueryWorkoutsOptions) (health.QueryWorkoutsResult, error) {
	return health.QueryWorkoutsResult{}, health.NotSupported("queryWorkouts", "Querying workouts is only available on native platforms.")
}

func (p *Plugin) QuerySleeps(context.Context, health.QuerySleepOptions) (health.QuerySleepsResult, error) {
	return health.QuerySleepsResult{}, health.NotSupported("querySleeps", "Querying sleeps is only available on native platforms.")
}

func (p *Plugin) GetPluginVersion(context.Context) health.PluginVersion {
	return health.PluginVersion{Version: Version}
}

// OpenHealthConnectSettings is a no-op; Health Connect only exists on Android.
func (p *Plugin) OpenHealthConnectSettings(context.Context) error {
	return nil
}

// ShowPrivacyPolicy is a no-op; the Health Connect privacy screen only exists on Android.
func (p *Plugin) ShowPrivacyPolicy(context.Context) error {
	return nil
}
