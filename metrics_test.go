package xgb_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xgbnet/xgb"
	"github.com/xgbnet/xgb/internal/xtest"
)

// gather returns the value of the named counter or gauge, or the sample
// count of a histogram, for the series carrying the given label pair.
func gather(t *testing.T, reg *prometheus.Registry, name string, label ...string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			if len(label) == 2 {
				for _, lp := range m.GetLabel() {
					if lp.GetName() == label[0] && lp.GetValue() != label[1] {
						continue metrics
					}
				}
			}
			switch {
			case m.GetCounter() != nil:
				return m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				return m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				return float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return 0
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, s := connect(t, xgb.WithMetrics(reg))
	order := c.Order()

	_, err := c.SendRequest(true, true, getInputFocus(c)).Reply()
	require.NoError(t, err)

	// A reply for a request that expects none.
	c.SendRequest(false, false, request(c, silentOpcode, 0))
	require.NoError(t, s.Send(xtest.Reply(order, 2, 0, nil)))
	_, err = c.SendRequest(true, true, getInputFocus(c)).Reply()
	require.NoError(t, err)

	// An abandoned request whose reply arrives late.
	ck := c.SendRequest(true, true, request(c, silentOpcode, 0))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	_, err = ck.ReplyContext(ctx)
	cancel()
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, float64(1), gather(t, reg, "xgb_pending_requests"))
	require.NoError(t, s.Send(xtest.Reply(order, ck.Sequence, 0, nil)))

	// An error nobody claims, then an event.
	c.SendRequest(false, false, request(c, failOpcode, 0))
	_, err = c.SendRequest(true, true, getInputFocus(c)).Reply()
	require.NoError(t, err)
	require.NoError(t, s.Send(xtest.RawEvent(order, 64, 6)))
	_, xerr := c.WaitForEvent()
	require.NotNil(t, xerr)
	_, xerr = c.WaitForEvent()
	require.Nil(t, xerr)

	assert.Equal(t, float64(4), gather(t, reg, "xgb_requests_total", "kind", "reply"))
	assert.Equal(t, float64(2), gather(t, reg, "xgb_requests_total", "kind", "void"))
	assert.Equal(t, float64(3), gather(t, reg, "xgb_replies_total"))
	assert.Equal(t, float64(3), gather(t, reg, "xgb_round_trip_seconds"))
	assert.Equal(t, float64(1), gather(t, reg, "xgb_abandoned_total"))
	assert.Equal(t, float64(2), gather(t, reg, "xgb_discarded_total"))
	assert.Equal(t, float64(1), gather(t, reg, "xgb_errors_total", "destination", "sink"))
	assert.Equal(t, float64(1), gather(t, reg, "xgb_events_total"))
	assert.Equal(t, float64(0), gather(t, reg, "xgb_pending_requests"))
}

func TestMetricsSync(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, _ := connect(t, xgb.WithMetrics(reg))

	require.NoError(t, c.SendRequest(true, false, request(c, silentOpcode, 0)).Check())
	assert.Equal(t, float64(1), gather(t, reg, "xgb_syncs_total"))
	assert.Equal(t, float64(1), gather(t, reg, "xgb_requests_total", "kind", "checked"))
	assert.Equal(t, float64(0), gather(t, reg, "xgb_pending_requests"))
	assert.Equal(t, float64(0), gather(t, reg, "xgb_discarded_total"))
}

func TestMetricsShared(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, _ := connect(t, xgb.WithMetrics(reg))
	b, _ := connect(t, xgb.WithMetrics(reg))

	_, err := a.SendRequest(true, true, getInputFocus(a)).Reply()
	require.NoError(t, err)
	_, err = b.SendRequest(true, true, getInputFocus(b)).Reply()
	require.NoError(t, err)
	assert.Equal(t, float64(2), gather(t, reg, "xgb_replies_total"))
}
