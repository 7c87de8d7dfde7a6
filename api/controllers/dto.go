package controllers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carins/carins-backend/pkg/db/models"
	"github.com/carins/carins-backend/pkg/types"
)

// CarDTO is the API shape of a car with its owner flattened in.
type CarDTO struct {
	ID         int64   `json:"id"`
	VIN        string  `json:"vin"`
	Make       string  `json:"make"`
	Model      string  `json:"model"`
	Year       int     `json:"year"`
	OwnerID    int64   `json:"ownerId"`
	OwnerName  *string `json:"ownerName"`
	OwnerEmail *string `json:"ownerEmail"`
}

func toCarDTO(c models.Car) CarDTO {
	dto := CarDTO{
		ID:      c.ID,
		VIN:     c.VIN,
		Make:    c.Make,
		Model:   c.Model,
		Year:    c.YearOfManufacture,
		OwnerID: c.OwnerID,
	}
	if c.Owner != nil {
		dto.OwnerName = &c.Owner.Name
		dto.OwnerEmail = &c.Owner.Email
	}
	return dto
}

type OwnerDTO struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toOwnerDTO(o models.Owner) OwnerDTO {
	return OwnerDTO{ID: o.ID, Name: o.Name, Email: o.Email}
}

type InsurancePolicyDTO struct {
	ID        int64      `json:"id"`
	CarID     int64      `json:"carId"`
	Provider  string     `json:"provider"`
	StartDate types.Date `json:"startDate"`
	EndDate   types.Date `json:"endDate"`
}

func toPolicyDTO(p models.InsurancePolicy) InsurancePolicyDTO {
	return InsurancePolicyDTO{
		ID:        p.ID,
		CarID:     p.CarID,
		Provider:  p.Provider,
		StartDate: p.StartDate,
		EndDate:   p.EndDate,
	}
}

type ClaimDTO struct {
	ID          int64           `json:"id"`
	CarID       int64           `json:"carId"`
	ClaimDate   types.Date      `json:"claimDate"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func toClaimDTO(c models.Claim) ClaimDTO {
	return ClaimDTO{
		ID:          c.ID,
		CarID:       c.CarID,
		ClaimDate:   c.ClaimDate,
		Description: c.Description,
		Amount:      c.Amount,
		CreatedAt:   c.CreatedAt,
	}
}

// InsuranceValidityDTO answers whether a car was insured on a date.
type InsuranceValidityDTO struct {
	CarID int64      `json:"carId"`
	Date  types.Date `json:"date"`
	Valid bool       `json:"valid"`
}

func mapSlice[T, D any](rows []T, fn func(T) D) []D {
	out := make([]D, 0, len(rows))
	for _, row := range rows {
		out = append(out, fn(row))
	}
	return out
}
