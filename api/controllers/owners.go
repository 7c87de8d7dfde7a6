package controllers

import (
	"fmt"
	"net/http"

	"github.com/carins/carins-backend/api/responses"
	"github.com/carins/carins-backend/api/validators"
	"github.com/carins/carins-backend/internal/owners"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/logger"
)

type ownerRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email,max=255"`
}

func (r ownerRequest) toInput() owners.OwnerInput {
	return owners.OwnerInput{
		Name:  validators.SanitizeString(r.Name, 255),
		Email: r.Email,
	}
}

func OwnerGet(svc owners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "owner service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "ownerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		owner, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOwnerDTO(*owner))
	}
}

func OwnerCreate(svc owners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "owner service unavailable"))
			return
		}
		var body ownerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		owner, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, fmt.Sprintf("/api/owners/%d", owner.ID), toOwnerDTO(*owner))
	}
}

func OwnerUpdate(svc owners.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "owner service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "ownerId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body ownerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		owner, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOwnerDTO(*owner))
	}
}
