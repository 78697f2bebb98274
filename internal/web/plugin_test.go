package web

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/healthbridge/internal/health"
)

func TestIsAvailableReportsUnavailable(t *testing.T) {
	result := New().IsAvailable(context.Background())

	assert.False(t, result.Available)
	assert.Equal(t, health.PlatformWeb, result.Platform)
	assert.NotEmpty(t, result.Reason)
}

func TestDataOperationsAreNotSupported(t *testing.T) {
	ctx := context.Background()
	p := New()

	_, err := p.RequestAuthorization(ctx, health.AuthorizationOptions{Read: []health.DataType{}, Write: []health.DataType{}})
	require.ErrorIs(t, err, health.ErrNotSupported)

	_, err = p.CheckAuthorization(ctx, health.AuthorizationOptions{Read: []health.DataType{health.DataTypeSteps}})
	require.ErrorIs(t, err, health.ErrNotSupported)

	_, err = p.ReadSamples(ctx, health.QueryOptions{DataType: health.DataTypeHeartRate})
	require.ErrorIs(t, err, health.ErrNotSupported)

	err = p.SaveSample(ctx, health.WriteSampleOptions{DataType: health.DataTypeWeight, Value: 70})
	require.ErrorIs(t, err, health.ErrNotSupported)

	_, err = p.QueryWorkouts(ctx, health.QueryWorkoutsOptions{})
	require.ErrorIs(t, err, health.ErrNotSupported)

	_, err = p.QuerySleeps(ctx, health.QuerySleepOptions{})
	require.ErrorIs(t, err, health.ErrNotSupported)
}

func TestReadStepsForADayIsRejected(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.January, 2, 0, 0, 0, 0, time.UTC)

	_, err := New().ReadSamples(context.Background(), health.QueryOptions{
		DataType:  health.DataTypeSteps,
		StartDate: &start,
		EndDate:   &end,
		Limit:     health.Ptr(50),
		Ascending: true,
	})
	require.Error(t, err)
	assert.Equal(t, health.KindNotSupported, health.KindOf(err))
}

func TestSettingsAndVersionSucceed(t *testing.T) {
	ctx := context.Background()
	p := New()

	assert.NoError(t, p.OpenHealthConnectSettings(ctx))
	assert.NoError(t, p.ShowPrivacyPolicy(ctx))
	assert.Equal(t, "web", p.GetPluginVersion(ctx).Version)
}
