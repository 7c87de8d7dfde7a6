package cron

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carins/carins-backend/internal/expiry"
	"github.com/carins/carins-backend/pkg/metrics"
	"github.com/carins/carins-backend/pkg/types"
)

type fakeDetector struct {
	report expiry.RunReport
	err    error
	calls  int
}

func (f *fakeDetector) Run(context.Context) (expiry.RunReport, error) {
	f.calls++
	return f.report, f.err
}

func TestNewExpiryJobRequiresDetector(t *testing.T) {
	_, err := NewExpiryJob(nil)
	require.Error(t, err)
}

func TestExpiryJobRunsDetector(t *testing.T) {
	detector := &fakeDetector{report: expiry.RunReport{Selected: 2, Created: 2}}
	job, err := NewExpiryJob(detector)
	require.NoError(t, err)

	assert.Equal(t, ExpiryJobName, job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, detector.calls)
}

func TestExpiryJobSurfacesPartialFailure(t *testing.T) {
	detector := &fakeDetector{
		report: expiry.RunReport{TargetDate: types.MustParseDate("2025-05-31"), Selected: 3, Created: 2, Failed: 1},
		err:    errors.New("policy 7: insert expiry log: connection reset"),
	}
	job, err := NewExpiryJob(detector)
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2025-05-31")
	assert.Contains(t, err.Error(), "1 of 3 failed")
	assert.Contains(t, err.Error(), "connection reset")
}

func TestScheduledExpiryJobFeedsCronMetrics(t *testing.T) {
	detector := &fakeDetector{report: expiry.RunReport{Selected: 1, Created: 1}}
	job, err := NewExpiryJob(detector)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	svc := newTestService(t, ServiceParams{
		Registry: NewRegistry(job),
		Metrics:  metrics.NewCronJobMetrics(reg),
	})

	require.NoError(t, svc.RunOnce(context.Background()))
	detector.report = expiry.RunReport{Selected: 2, Failed: 2}
	detector.err = errors.New("insert expiry log: disk full")
	require.NoError(t, svc.RunOnce(context.Background()))

	assert.Equal(t, 2, detector.calls)
	count, err := testutil.GatherAndCount(reg,
		"carins_cron_job_duration_seconds",
		"carins_cron_job_success_total",
		"carins_cron_job_failure_total",
		"carins_cron_job_last_success_timestamp_seconds",
	)
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	gathered, err := reg.Gather()
	require.NoError(t, err)
	values := map[string]float64{}
	for _, mf := range gathered {
		for _, m := range mf.GetMetric() {
			require.Len(t, m.GetLabel(), 1)
			assert.Equal(t, ExpiryJobName, m.GetLabel()[0].GetValue())
			values[mf.GetName()] = seriesValue(m)
		}
	}
	assert.Equal(t, 1.0, values["carins_cron_job_success_total"])
	assert.Equal(t, 1.0, values["carins_cron_job_failure_total"])
	assert.Equal(t, 2.0, values["carins_cron_job_duration_seconds"])
	assert.Greater(t, values["carins_cron_job_last_success_timestamp_seconds"], 0.0)
}

// seriesValue reads counters and gauges as their value and histograms as
// their sample count.
func seriesValue(m *dto.Metric) float64 {
	switch {
	case m.GetCounter() != nil:
		return m.GetCounter().GetValue()
	case m.GetHistogram() != nil:
		return float64(m.GetHistogram().GetSampleCount())
	case m.GetGauge() != nil:
		return m.GetGauge().GetValue()
	}
	return 0
}
