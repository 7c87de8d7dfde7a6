package policies

import (
	"context"
	"fmt"
	"strings"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db/models"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/types"
)

type policiesRepository interface {
	Create(ctx context.Context, policy *models.InsurancePolicy) (*models.InsurancePolicy, error)
	Update(ctx context.Context, policy *models.InsurancePolicy) error
	FindByID(ctx context.Context, id int64) (*models.InsurancePolicy, error)
	List(ctx context.Context) ([]models.InsurancePolicy, error)
	FindByCarID(ctx context.Context, carID int64) ([]models.InsurancePolicy, error)
}

type carsRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// Service exposes insurance policy management.
type Service interface {
	List(ctx context.Context) ([]models.InsurancePolicy, error)
	Get(ctx context.Context, id int64) (*models.InsurancePolicy, error)
	ListByCar(ctx context.Context, carID int64) ([]models.InsurancePolicy, error)
	Create(ctx context.Context, input PolicyInput) (*models.InsurancePolicy, error)
	Update(ctx context.Context, id int64, input PolicyInput) (*models.InsurancePolicy, error)
}

// PolicyInput carries the writable policy fields. On update a zero CarID
// keeps the current car.
type PolicyInput struct {
	CarID     int64
	Provider  string
	StartDate types.Date
	EndDate   types.Date
}

type service struct {
	repo policiesRepository
	cars carsRepository
}

// NewService builds a policy service backed by the provided repositories.
func NewService(repo policiesRepository, cars carsRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("policy repository required")
	}
	if cars == nil {
		return nil, fmt.Errorf("car repository required")
	}
	return &service{repo: repo, cars: cars}, nil
}

func (s *service) List(ctx context.Context) ([]models.InsurancePolicy, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list policies")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.InsurancePolicy, error) {
	policy, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "insurance policy with id %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup policy")
	}
	return policy, nil
}

// ListByCar returns the car's policies ordered by start date.
func (s *service) ListByCar(ctx context.Context, carID int64) ([]models.InsurancePolicy, error) {
	if err := s.ensureCar(ctx, carID); err != nil {
		return nil, err
	}
	rows, err := s.repo.FindByCarID(ctx, carID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list car policies")
	}
	return rows, nil
}

func (s *service) Create(ctx context.Context, input PolicyInput) (*models.InsurancePolicy, error) {
	if input.CarID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "carId is required")
	}
	if err := validateWindow(input); err != nil {
		return nil, err
	}
	if err := s.ensureCar(ctx, input.CarID); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, &models.InsurancePolicy{
		CarID:     input.CarID,
		Provider:  strings.TrimSpace(input.Provider),
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create policy")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id int64, input PolicyInput) (*models.InsurancePolicy, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateWindow(input); err != nil {
		return nil, err
	}
	if input.CarID > 0 {
		if err := s.ensureCar(ctx, input.CarID); err != nil {
			return nil, err
		}
		existing.CarID = input.CarID
	}

	existing.Provider = strings.TrimSpace(input.Provider)
	existing.StartDate = input.StartDate
	existing.EndDate = input.EndDate

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update policy")
	}
	return existing, nil
}

func (s *service) ensureCar(ctx context.Context, carID int64) error {
	ok, err := s.cars.Exists(ctx, carID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup car")
	}
	if !ok {
		return pkgerrors.Newf(pkgerrors.CodeNotFound, "car with id %d not found", carID)
	}
	return nil
}

func validateWindow(input PolicyInput) error {
	if input.StartDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "startDate is required")
	}
	if input.EndDate.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "endDate is required")
	}
	if input.StartDate.After(input.EndDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "start date must not be after end date")
	}
	return nil
}
