package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/types"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseQueryDate reads a required YYYY-MM-DD query parameter.
func ParseQueryDate(r *http.Request, key string) (types.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return types.Date{}, pkgerrors.Newf(pkgerrors.CodeValidation, "query parameter %s is required", key).
			WithDetails(map[string]any{"field": key})
	}
	day, err := types.ParseDate(raw)
	if err != nil {
		return types.Date{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, key+" must be a valid date in format YYYY-MM-DD").
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	return day, nil
}

// ParsePathID reads a positive int64 chi URL parameter.
func ParsePathID(r *http.Request, key string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "%s must be a positive integer", key).
			WithDetails(map[string]any{"field": key, "value": raw})
	}
	return id, nil
}
