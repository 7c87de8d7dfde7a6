package controllers

import (
	"fmt"
	"net/http"

	"github.com/carins/carins-backend/api/responses"
	"github.com/carins/carins-backend/api/validators"
	"github.com/carins/carins-backend/internal/policies"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/types"
)

// policyRequest leaves date presence and ordering checks to the policy service.
type policyRequest struct {
	CarID     int64      `json:"carId" validate:"omitempty,gt=0"`
	Provider  string     `json:"provider" validate:"max=255"`
	StartDate types.Date `json:"startDate"`
	EndDate   types.Date `json:"endDate"`
}

func (r policyRequest) toInput() policies.PolicyInput {
	return policies.PolicyInput{
		CarID:     r.CarID,
		Provider:  validators.SanitizeString(r.Provider, 255),
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
	}
}

func InsuranceList(svc policies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "policy service unavailable"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapSlice(rows, toPolicyDTO))
	}
}

func CarInsurances(svc policies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "policy service unavailable"))
			return
		}
		carID, err := validators.ParsePathID(r, "carId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.ListByCar(r.Context(), carID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapSlice(rows, toPolicyDTO))
	}
}

func InsuranceGet(svc policies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "policy service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "policyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		policy, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPolicyDTO(*policy))
	}
}

func InsuranceCreate(svc policies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "policy service unavailable"))
			return
		}
		var body policyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		policy, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, fmt.Sprintf("/api/insurances/%d", policy.ID), toPolicyDTO(*policy))
	}
}

func InsuranceUpdate(svc policies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "policy service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "policyId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body policyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		policy, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toPolicyDTO(*policy))
	}
}
