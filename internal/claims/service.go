package claims

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db/models"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/types"
)

const (
	maxDescriptionLen = 500
	maxAmountFraction = 2
)

// maxAmount is the exclusive upper bound, six integer digits.
var maxAmount = decimal.NewFromInt(1_000_000)

type claimsRepository interface {
	Create(ctx context.Context, claim *models.Claim) (*models.Claim, error)
	FindByID(ctx context.Context, id int64) (*models.Claim, error)
	ListByCar(ctx context.Context, carID int64) ([]models.Claim, error)
}

type carsRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service exposes claim registration and car history.
type Service interface {
	Register(ctx context.Context, carID int64, input ClaimInput) (*models.Claim, error)
	Get(ctx context.Context, id int64) (*models.Claim, error)
	History(ctx context.Context, carID int64) ([]models.Claim, error)
}

// ClaimInput carries the fields of a new claim.
type ClaimInput struct {
	ClaimDate   types.Date
	Description string
	Amount      decimal.Decimal
}

type service struct {
	repo claimsRepository
	cars carsRepository
	now  func() time.Time
}

// NewService builds a claim service backed by the provided repositories.
func NewService(repo claimsRepository, cars carsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("claim repository required")
	}
	if cars == nil {
		return nil, fmt.Errorf("car repository required")
	}
	return &service{repo: repo, cars: cars, now: time.Now}, nil
}

func (s *service) Register(ctx context.Context, carID int64, input ClaimInput) (*models.Claim, error) {
	description := strings.TrimSpace(input.Description)
	if err := s.validate(input, description); err != nil {
		return nil, err
	}
	if err := s.ensureCar(ctx, carID); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &models.Claim{
		CarID:       carID,
		ClaimDate:   input.ClaimDate,
		Description: description,
		Amount:      input.Amount,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create claim")
	}
	return created, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Claim, error) {
	claim, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "claim with id %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup claim")
	}
	return claim, nil
}

func (s *service) History(ctx context.Context, carID int64) ([]models.Claim, error) {
	if err := s.ensureCar(ctx, carID); err != nil {
		return nil, err
	}
	rows, err := s.repo.ListByCar(ctx, carID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claims")
	}
	return rows, nil
}

func (s *service) ensureCar(ctx context.Context, carID int64) error {
	if carID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "carId is required")
	}
	ok, err := s.cars.Exists(ctx, carID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup car")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "car with id %d not found", carID)
	}
	return nil
}

func (s *service) validate(input ClaimInput, description string) error {
	fields := map[string]string{}

	switch {
	case input.ClaimDate.IsZero():
		fields["claimDate"] = "claim date must not be null"
	case input.ClaimDate.After(types.CalendarDate(s.now())):
		fields["claimDate"] = "claim date cannot be in the future"
	}

	switch {
	case description == "":
		fields["description"] = "description must not be blank"
	case utf8.RuneCountInString(description) > maxDescriptionLen:
		fields["description"] = fmt.Sprintf("description must not exceed %d characters", maxDescriptionLen)
	}

	switch {
	case !input.Amount.IsPositive():
		fields["amount"] = "amount must be positive"
	case input.Amount.GreaterThanOrEqual(maxAmount):
		fields["amount"] = "amount must be lower than 1.000.000"
	case !input.Amount.Equal(input.Amount.Truncate(maxAmountFraction)):
		fields["amount"] = "amount must have at most 2 decimals"
	}

	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid claim").WithDetails(fields)
}
