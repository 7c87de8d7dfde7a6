package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/carins/carins-backend/api/responses"
	"github.com/carins/carins-backend/api/validators"
	"github.com/carins/carins-backend/internal/cars"
	"github.com/carins/carins-backend/internal/claims"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/logger"
	"github.com/carins/carins-backend/pkg/types"
)

// ValidityChecker answers whether a car was insured on a calendar date.
type ValidityChecker interface {
	IsValid(ctx context.Context, carID int64, date types.Date) (bool, error)
}

type carRequest struct {
	VIN     string `json:"vin" validate:"required,len=8,alphanum"`
	Make    string `json:"make" validate:"max=100"`
	Model   string `json:"model" validate:"max=100"`
	Year    int    `json:"year" validate:"omitempty,gte=1886,lte=2100"`
	OwnerID int64  `json:"ownerId" validate:"required,gt=0"`
}

func (r carRequest) toInput() cars.CarInput {
	return cars.CarInput{
		VIN:               r.VIN,
		Make:              validators.SanitizeString(r.Make, 100),
		Model:             validators.SanitizeString(r.Model, 100),
		YearOfManufacture: r.Year,
		OwnerID:           r.OwnerID,
	}
}

// CarList returns every car with its owner.
func CarList(svc cars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "car service unavailable"))
			return
		}
		rows, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapSlice(rows, toCarDTO))
	}
}

func CarGet(svc cars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "car service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "carId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		car, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCarDTO(*car))
	}
}

func CarCreate(svc cars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "car service unavailable"))
			return
		}
		var body carRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		car, err := svc.Create(r.Context(), body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, fmt.Sprintf("/api/cars/%d", car.ID), toCarDTO(*car))
	}
}

func CarUpdate(svc cars.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "car service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "carId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body carRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		car, err := svc.Update(r.Context(), id, body.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toCarDTO(*car))
	}
}

// CarInsuranceValid reports whether the car had an active policy on ?date.
func CarInsuranceValid(checker ValidityChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "validity checker unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "carId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseQueryDate(r, "date")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		valid, err := checker.IsValid(r.Context(), id, date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, InsuranceValidityDTO{CarID: id, Date: date, Valid: valid})
	}
}

// CarHistory lists the car's claims by claim date.
func CarHistory(svc claims.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "claim service unavailable"))
			return
		}
		id, err := validators.ParsePathID(r, "carId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		rows, err := svc.History(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, mapSlice(rows, toClaimDTO))
	}
}
