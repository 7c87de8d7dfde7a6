package cron

import (
	"context"
	"fmt"

	"github.com/carins/carins-backend/internal/expiry"
)

// ExpiryJobName identifies the expiry detection job in logs and metrics.
const ExpiryJobName = "expiry-detection"

type expiryRunner interface {
	Run(ctx context.Context) (expiry.RunReport, error)
}

type expiryJob struct {
	detector expiryRunner
}

// NewExpiryJob wraps the expiry detector as a daily job.
func NewExpiryJob(detector expiryRunner) (Job, error) {
	if detector == nil {
		return nil, fmt.Errorf("expiry detector required")
	}
	return &expiryJob{detector: detector}, nil
}

func (j *expiryJob) Name() string { return ExpiryJobName }

// Run reports per-policy failures as a job failure; the detector has already
// logged the summary.
func (j *expiryJob) Run(ctx context.Context) error {
	report, err := j.detector.Run(ctx)
	if err != nil {
		return fmt.Errorf("expiry detection for %s (%d of %d failed): %w", report.TargetDate, report.Failed, report.Selected, err)
	}
	return nil
}
