package health

import "context"

// Plugin is the operation set a host application may perform against a device's health store.
//
// Every call resolves or fails exactly once. Callers bound a call in time through ctx;
// RequestAuthorization in particular may wait on user interaction indefinitely otherwise.
// Failures are *Error values carrying one of the ErrorKind constants.
type Plugin interface {
	// IsAvailable reports whether a health store is reachable on this host. It never fails.
	IsAvailable(ctx context.Context) AvailabilityResult
	// RequestAuthorization asks for read/write access, prompting the user where the platform can.
	RequestAuthorization(ctx context.Context, opts AuthorizationOptions) (AuthorizationStatus, error)
	// CheckAuthorization reports existing grants without prompting.
	CheckAuthorization(ctx context.Context, opts AuthorizationOptions) (AuthorizationStatus, error)
	// ReadSamples returns samples of one quantity type within [start, end).
	ReadSamples(ctx context.Context, opts QueryOptions) (ReadSamplesResult, error)
	// SaveSample persists one sample.
	SaveSample(ctx context.Context, opts WriteSampleOptions) error
	// QueryWorkouts returns workout sessions within [start, end).
	QueryWorkouts(ctx context.Context, opts QueryWorkoutsOptions) (QueryWorkoutsResult, error)
	// QuerySleeps returns sleep sessions within [start, end).
	QuerySleeps(ctx context.Context, opts QuerySleepOptions) (QuerySleepsResult, error)
	// GetPluginVersion describes the implementation build. It never fails.
	GetPluginVersion(ctx context.Context) PluginVersion
	// OpenHealthConnectSettings shows the platform's health settings, or does nothing.
	OpenHealthConnectSettings(ctx context.Context) error
	// ShowPrivacyPolicy shows the app's health privacy policy, or does nothing.
	ShowPrivacyPolicy(ctx context.Context) error
}
