// Package validity answers whether a car is insured on a given calendar date.
package validity

import (
	"context"
	"fmt"

	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/types"
)

var (
	// MinDate and MaxDate bound the dates a query may ask about, inclusive.
	MinDate = types.NewDate(1900, 1, 1)
	MaxDate = types.NewDate(2100, 12, 31)
)

type policyStore interface {
	ExistsActiveOnDate(ctx context.Context, carID int64, day types.Date) (bool, error)
}

type carStore interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Checker evaluates coverage against the policy store. It has no side
// effects and never consults the expiry log.
type Checker struct {
	policies policyStore
	cars     carStore
}

// NewChecker constructs a validity checker.
func NewChecker(policies policyStore, cars carStore) (*Checker, error) {
	if policies == nil {
		return nil, fmt.Errorf("policy store required")
	}
	if cars == nil {
		return nil, fmt.Errorf("car store required")
	}
	return &Checker{policies: policies, cars: cars}, nil
}

// IsValid reports whether any policy of the car covers date, bounds inclusive.
func (c *Checker) IsValid(ctx context.Context, carID int64, date types.Date) (bool, error) {
	if carID <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "carId is required")
	}
	if date.IsZero() {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "date is required")
	}
	if !date.Within(MinDate, MaxDate) {
		return false, pkgerrors.Newf(pkgerrors.CodeValidation,
			"date %s is outside the supported range %s to %s", date, MinDate, MaxDate)
	}

	known, err := c.cars.Exists(ctx, carID)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup car")
	}
	if !known {
		return false, pkgerrors.Newf(pkgerrors.CodeNotFound, "car with id %d not found", carID)
	}

	valid, err := c.policies.ExistsActiveOnDate(ctx, carID, date)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup policies")
	}
	return valid, nil
}
