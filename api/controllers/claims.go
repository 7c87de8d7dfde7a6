package controllers

import (
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/carins/carins-backend/api/responses"
	"github.com/carins/carins-backend/api/validators"
	"github.com/carins/carins-backend/internal/claims"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/types"
)

// claimRequest fields are validated by the claim service so every violation
// is reported in one details map.
type claimRequest struct {
	ClaimDate   types.Date      `json:"claimDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// ClaimCreate registers a claim against the car in the path.
func ClaimCreate(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}
		carID, err := validators.ParsePathID(r, "carId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body claimRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		claim, err := svc.Register(r.Context(), carID, claims.ClaimInput{
			ClaimDate:   body.ClaimDate,
			Description: body.Description,
			Amount:      body.Amount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, fmt.Sprintf("/api/claims/%d", claim.ID), toClaimDTO(*claim))
	}
}

func ClaimGet(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "claimId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		claim, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toClaimDTO(*claim))
	}
}
