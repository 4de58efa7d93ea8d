package metrics_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-airtable-forms/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.Authorization(metrics.OutcomeSuccess)
	m.Authorization(metrics.OutcomeSuccess)
	m.TokenRefresh(metrics.OutcomeFailure)
	m.Submission(metrics.OutcomeSuccess)
	m.ObserveUpstream("GET", 200, 10*time.Millisecond)
	m.ObserveHTTP("GET", "/healthz", 200, time.Millisecond)

	pending := 3
	m.TrackFlowStates(func() int { return pending })

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := map[string]float64{}
	for _, mf := range families {
		metric := mf.GetMetric()[0]
		switch {
		case metric.GetCounter() != nil:
			byName[mf.GetName()] = metric.GetCounter().GetValue()
		case metric.GetGauge() != nil:
			byName[mf.GetName()] = metric.GetGauge().GetValue()
		case metric.GetHistogram() != nil:
			byName[mf.GetName()] = float64(metric.GetHistogram().GetSampleCount())
		}
	}
	require.Equal(t, map[string]float64{
		"airtable_forms_authorizations_total":              2,
		"airtable_forms_token_refreshes_total":             1,
		"airtable_forms_submissions_total":                 1,
		"airtable_forms_pending_authorizations":            3,
		"airtable_forms_upstream_request_duration_seconds": 1,
		"airtable_forms_http_request_duration_seconds":     1,
	}, byName)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	require.NotPanics(t, func() {
		m.Authorization(metrics.OutcomeSuccess)
		m.TokenRefresh(metrics.OutcomeSuccess)
		m.Submission(metrics.OutcomeFailure)
		m.ObserveUpstream("POST", 500, time.Second)
		m.ObserveHTTP("GET", "/", 200, time.Second)
		m.TrackFlowStates(func() int { return 0 })
	})
}
