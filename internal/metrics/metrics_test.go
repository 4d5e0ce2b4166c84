package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDisabledOutsideProduction(t *testing.T) {
	client, err := NewClient(context.Background(), "development")
	require.NoError(t, err)
	assert.False(t, client.Enabled())

	// Disabled clients never reach CloudWatch.
	client.RecordAPIRequest("/api/v1/chords", 200, time.Millisecond)
	client.RecordResolution("chord", 4, true)
	client.RecordRegistryChange("scales")
	assert.NoError(t, client.putMetric(context.Background(), "Resolutions", 1, "Count", nil))
}

func TestNilClientIsDisabled(t *testing.T) {
	var client *Client
	assert.False(t, client.Enabled())
	assert.NotPanics(t, func() {
		client.RecordResolution("chord", 0, false)
	})
}

func TestSentryMetricsWithoutClient(t *testing.T) {
	m := NewSentryMetrics()
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordAPIRequest(ctx, "/health", 200, time.Millisecond)
		m.RecordResolution(ctx, "nashville", "b7^7", 4, nil)
		m.RecordResolution(ctx, "chord", "Cxyz", 0, errors.New("unknown chord type"))
		m.RecordArrangement(ctx, 3, 12, time.Millisecond)
	})
}
