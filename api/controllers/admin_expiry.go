package controllers

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/multierr"

	"github.com/carins/carins-backend/api/middleware"
	"github.com/carins/carins-backend/api/responses"
	"github.com/carins/carins-backend/internal/expiry"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/logger"
)

// ExpiryRunner runs one expiry detection pass.
type ExpiryRunner interface {
	Run(ctx context.Context) (expiry.RunReport, error)
}

type expiryRunResponse struct {
	expiry.RunReport
	Errors []string `json:"errors,omitempty"`
}

// AdminExpiryRun triggers expiry detection for yesterday. Per-policy failures
// and interruptions are returned in the report; only a run that could not
// select policies fails.
func AdminExpiryRun(runner ExpiryRunner, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if runner == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "expiry detector unavailable"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{
				"trigger": "manual",
				"subject": middleware.SubjectFromContext(ctx),
			})
		}

		report, err := runner.Run(ctx)
		if errors.Is(err, expiry.ErrSelectPolicies) {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expiry detection failed"))
			return
		}

		resp := expiryRunResponse{RunReport: report}
		for _, e := range multierr.Errors(err) {
			resp.Errors = append(resp.Errors, e.Error())
		}
		responses.WriteSuccess(w, resp)
	}
}
