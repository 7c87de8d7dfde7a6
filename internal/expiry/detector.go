package expiry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/carins/carins-backend/pkg/db/models"
	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/types"
)

// ErrSelectPolicies marks a run that failed before any policy was processed.
var ErrSelectPolicies = errors.New("select expired policies")

type policyStore interface {
	FindByEndDate(ctx context.Context, day types.Date) ([]models.InsurancePolicy, error)
}

type expiryLog interface {
	ExistsForPolicy(ctx context.Context, policyID int64) (bool, error)
	Insert(ctx context.Context, policyID int64) (InsertResult, error)
}

// RunRecorder receives the outcome of each run. *metrics.ExpiryMetrics satisfies it.
type RunRecorder interface {
	ObserveRun(created, alreadyLogged, failed int)
}

// RunReport summarises one detection run.
type RunReport struct {
	TargetDate    types.Date `json:"targetDate"`
	Selected      int        `json:"selected"`
	Created       int        `json:"created"`
	AlreadyLogged int        `json:"alreadyLogged"`
	Failed        int        `json:"failed"`
	// Interrupted is set when the context ended before every selected
	// policy was processed.
	Interrupted bool `json:"interrupted,omitempty"`
}

// DetectorParams wires the detector collaborators.
type DetectorParams struct {
	Logger   *logger.Logger
	Policies policyStore
	Log      expiryLog
	Metrics  RunRecorder
}

// Detector records, exactly once per policy, the policies whose end date was
// yesterday on the host's local calendar.
type Detector struct {
	logg     *logger.Logger
	policies policyStore
	log      expiryLog
	metrics  RunRecorder
	now      func() time.Time
}

// NewDetector constructs an expiry detector.
func NewDetector(params DetectorParams) (*Detector, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Policies == nil {
		return nil, fmt.Errorf("policy store required")
	}
	if params.Log == nil {
		return nil, fmt.Errorf("expiry log required")
	}
	return &Detector{
		logg:     params.Logger,
		policies: params.Policies,
		log:      params.Log,
		metrics:  params.Metrics,
		now:      time.Now,
	}, nil
}

// Run logs every policy that ended yesterday and has no log entry yet.
// Per-policy failures are collected and do not stop the run. A failed
// selection aborts it with ErrSelectPolicies.
func (d *Detector) Run(ctx context.Context) (RunReport, error) {
	target := types.CalendarDate(d.now()).AddDays(-1)
	report := RunReport{TargetDate: target}
	ctx = d.logg.WithField(ctx, "target_date", target.String())

	expired, err := d.policies.FindByEndDate(ctx, target)
	if err != nil {
		return report, fmt.Errorf("%w ending %s: %w", ErrSelectPolicies, target, err)
	}
	report.Selected = len(expired)

	var errs error
	for _, policy := range expired {
		if ctx.Err() != nil {
			report.Interrupted = true
			errs = multierr.Append(errs, ctx.Err())
			break
		}

		result, err := d.record(ctx, policy)
		switch {
		case err != nil:
			report.Failed++
			errs = multierr.Append(errs, err)
			d.logg.Error(d.policyCtx(ctx, policy), "failed to record policy expiry", err)
		case result == InsertCreated:
			report.Created++
			d.logg.Info(d.policyCtx(ctx, policy),
				fmt.Sprintf("policy %d for car %d expired on %s", policy.ID, policy.CarID, policy.EndDate))
		default:
			report.AlreadyLogged++
		}
	}

	if d.metrics != nil {
		d.metrics.ObserveRun(report.Created, report.AlreadyLogged, report.Failed)
	}

	ctx = d.logg.WithFields(ctx, map[string]any{
		"selected":       report.Selected,
		"created":        report.Created,
		"already_logged": report.AlreadyLogged,
		"failed":         report.Failed,
		"interrupted":    report.Interrupted,
	})
	d.logg.Info(ctx, "expiry detection completed")

	return report, errs
}

func (d *Detector) record(ctx context.Context, policy models.InsurancePolicy) (InsertResult, error) {
	logged, err := d.log.ExistsForPolicy(ctx, policy.ID)
	if err != nil {
		return 0, fmt.Errorf("policy %d: check expiry log: %w", policy.ID, err)
	}
	if logged {
		return InsertAlreadyExists, nil
	}

	result, err := d.log.Insert(ctx, policy.ID)
	if err != nil {
		return 0, fmt.Errorf("policy %d: insert expiry log: %w", policy.ID, err)
	}
	return result, nil
}

func (d *Detector) policyCtx(ctx context.Context, policy models.InsurancePolicy) context.Context {
	ctx = d.logg.WithPolicyID(ctx, policy.ID)
	ctx = d.logg.WithCarID(ctx, policy.CarID)
	return d.logg.WithField(ctx, "end_date", policy.EndDate.String())
}
