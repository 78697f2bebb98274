package observability

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/healthbridge/internal/health"
	"example.com/healthbridge/internal/web"
)

func TestInstrumentCountsOutcomes(t *testing.T) {
	ctx := context.Background()
	p := Instrument(web.New(), health.PlatformWeb)

	okBefore := testutil.ToFloat64(operationCounter.WithLabelValues("getPluginVersion", "web", "ok"))
	failBefore := testutil.ToFloat64(operationCounter.WithLabelValues("readSamples", "web", string(health.KindNotSupported)))

	assert.Equal(t, "web", p.GetPluginVersion(ctx).Version)
	_, err := p.ReadSamples(ctx, health.QueryOptions{DataType: health.DataTypeSteps})
	require.ErrorIs(t, err, health.ErrNotSupported)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(operationCounter.WithLabelValues("getPluginVersion", "web", "ok")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(operationCounter.WithLabelValues("readSamples", "web", string(health.KindNotSupported))))
}

func TestInstrumentPassesResultsThrough(t *testing.T) {
	ctx := context.Background()
	p := Instrument(web.New(), "")

	assert.False(t, p.IsAvailable(ctx).Available)
	assert.NoError(t, p.OpenHealthConnectSettings(ctx))
	assert.NoError(t, p.ShowPrivacyPolicy(ctx))

	err := p.SaveSample(ctx, health.WriteSampleOptions{DataType: health.DataTypeWeight, Value: 70})
	assert.Equal(t, health.KindNotSupported, health.KindOf(err))
	assert.Equal(t, "unknown", p.platform)
}
