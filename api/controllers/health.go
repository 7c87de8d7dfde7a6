package controllers

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/carins/carins-backend/api/responses"
	"github.com/carins/carins-backend/pkg/config"
	"github.com/carins/carins-backend/pkg/db"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/logger"
)

const (
	envHeader          = "X-Carins-Env"
	readyCheckTimeout  = 2 * time.Second
	readyStatusOK      = "ok"
	readyStatusFailing = "unavailable"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency in checks and reports 503 when any of
// them fails.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]db.Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		statuses := make(map[string]string, len(names))
		var failure error
		for _, name := range names {
			if err := checks[name].Ping(ctx); err != nil {
				statuses[name] = readyStatusFailing
				if failure == nil {
					failure = pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").
						WithDetails(map[string]any{"checks": statuses})
				}
				continue
			}
			statuses[name] = readyStatusOK
		}

		if failure != nil {
			responses.WriteError(r.Context(), logg, w, failure)
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
