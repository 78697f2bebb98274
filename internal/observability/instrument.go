// Package observability holds Prometheus instrumentation shared by the health services.
package observability

import (
	"context"
	"time"

	"example.com/healthbridge/internal/health"
)

// Instrumented decorates a health.Plugin with per-operation metrics.
type Instrumented struct {
	next     health.Plugin
	platform string
}

// Instrument wraps next, labelling its metrics with platform.
func Instrument(next health.Plugin, platform health.Platform) *Instrumented {
	label := string(platform)
	if label == "" {
		label = "unknown"
	}
	return &Instrumented{next: next, platform: label}
}

var _ health.Plugin = (*Instrumented)(nil)

func (i *Instrumented) observe(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(health.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	operationCounter.WithLabelValues(op, i.platform, outcome).Inc()
	operationDuration.WithLabelValues(op, i.platform).Observe(time.Since(start).Seconds())
}

func (i *Instrumented) IsAvailable(ctx context.Context) health.AvailabilityResult {
	defer i.observe("isAvailable", time.Now(), nil)
	return i.next.IsAvailable(ctx)
}

func (i *Instrumented) RequestAuthorization(ctx context.Context, opts health.AuthorizationOptions) (status health.AuthorizationStatus, err error) {
	defer func(start time.Time) { i.observe("requestAuthorization", start, err) }(time.Now())
	return i.next.RequestAuthorization(ctx, opts)
}

func (i *Instrumented) CheckAuthorization(ctx context.Context, opts health.AuthorizationOptions) (status health.AuthorizationStatus, err error) {
	defer func(start time.Time) { i.observe("checkAuthorization", start, err) }(time.Now())
	return i.next.CheckAuthorization(ctx, opts)
}

func (i *Instrumented) ReadSamples(ctx context.Context, opts health.QueryOptions) (result health.ReadSamplesResult, err error) {
	defer func(start time.Time) { i.observe("readSamples", start, err) }(time.Now())
	return i.next.ReadSamples(ctx, opts)
}

func (i *Instrumented) SaveSample(ctx context.Context, opts health.WriteSampleOptions) (err error) {
	defer func(start time.Time) { i.observe("saveSample", start, err) }(time.Now())
	return i.next.SaveSample(ctx, opts)
}

func (i *Instrumented) QueryWorkouts(ctx context.Context, opts health.QueryWorkoutsOptions) (result health.QueryWorkoutsResult, err error) {
	defer func(start time.Time) { i.observe("queryWorkouts", start, err) }(time.Now())
	return i.next.QueryWorkouts(ctx, opts)
}

func (i *Instrumented) QuerySleeps(ctx context.Context, opts health.QuerySleepOptions) (result health.QuerySleepsResult, err error) {
	defer func(start time.Time) { i.observe("querySleeps", start, err) }(time.Now())
	return i.next.QuerySleeps(ctx, opts)
}

func (i *Instrumented) GetPluginVersion(ctx context.Context) health.PluginVersion {
	defer i.observe("getPluginVersion", time.Now(), nil)
	return i.next.GetPluginVersion(ctx)
}

func (i *Instrumented) OpenHealthConnectSettings(ctx context.Context) (err error) {
	defer func(start time.Time) { i.observe("openHealthConnectSettings", start, err) }(time.Now())
	return i.next.OpenHealthConnectSettings(ctx)
}

func (i *Instrumented) ShowPrivacyPolicy(ctx context.Context) (err error) {
	defer func(start time.Time) { i.observe("showPrivacyPolicy", start, err) }(time.Now())
	return i.next.ShowPrivacyPolicy(ctx)
}
