package cars

import (
	"context"
	"fmt"
	"strings"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/db/models"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
)

const (
	vinIndex  = "ux_cars_vin"
	vinColumn = "cars.vin"
)

type carsRepository interface {
	Create(ctx context.Context, car *models.Car) (*models.Car, error)
	Update(ctx context.Context, car *models.Car) error
	FindByID(ctx context.Context, id int64) (*models.Car, error)
	List(ctx context.Context) ([]models.Car, error)
	ExistsByVIN(ctx context.Context, vin string, excludeID int64) (bool, error)
}

type ownersRepository interface {
	FindByID(ctx context.Context, id int64) (*models.Owner, error)
}

// Service exposes car registration and lookup.
type Service interface {
	List(ctx context.Context) ([]models.Car, error)
	Get(ctx context.Context, id int64) (*models.Car, error)
	Create(ctx context.Context, input CarInput) (*models.Car, error)
	Update(ctx context.Context, id int64, input CarInput) (*models.Car, error)
}

// CarInput carries the writable car fields.
type CarInput struct {
	VIN               string
	Make              string
	Model             string
	YearOfManufacture int
	OwnerID           int64
}

type service struct {
	repo   carsRepository
	owners ownersRepository
}

// NewService builds a car service backed by the provided repositories.
func NewService(repo carsRepository, owners ownersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("car repository required")
	}
	if owners == nil {
		return nil, fmt.Errorf("owner repository required")
	}
	return &service{repo: repo, owners: owners}, nil
}

// NormalizeVIN trims and upper-cases a VIN.
func NormalizeVIN(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

func (s *service) List(ctx context.Context) ([]models.Car, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list cars")
	}
	return rows, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Car, error) {
	car, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "car with id %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup car")
	}
	return car, nil
}

func (s *service) Create(ctx context.Context, input CarInput) (*models.Car, error) {
	vin := NormalizeVIN(input.VIN)
	if err := s.ensureVINFree(ctx, vin, 0); err != nil {
		return nil, err
	}
	owner, err := s.owner(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	car := &models.Car{
		VIN:               vin,
		Make:              strings.TrimSpace(input.Make),
		Model:             strings.TrimSpace(input.Model),
		YearOfManufacture: input.YearOfManufacture,
		OwnerID:           owner.ID,
	}
	if _, err := s.repo.Create(ctx, car); err != nil {
		return nil, mapWriteError(err, vin, "create car")
	}
	car.Owner = owner
	return car, nil
}

func (s *service) Update(ctx context.Context, id int64, input CarInput) (*models.Car, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	vin := NormalizeVIN(input.VIN)
	if err := s.ensureVINFree(ctx, vin, id); err != nil {
		return nil, err
	}
	owner, err := s.owner(ctx, input.OwnerID)
	if err != nil {
		return nil, err
	}

	existing.VIN = vin
	existing.Make = strings.TrimSpace(input.Make)
	existing.Model = strings.TrimSpace(input.Model)
	if input.YearOfManufacture > 0 {
		existing.YearOfManufacture = input.YearOfManufacture
	}
	existing.OwnerID = owner.ID
	existing.Owner = owner

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, mapWriteError(err, vin, "update car")
	}
	return existing, nil
}

func (s *service) ensureVINFree(ctx context.Context, vin string, excludeID int64) error {
	if vin == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "vin is required")
	}
	taken, err := s.repo.ExistsByVIN(ctx, vin, excludeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check vin")
	}
	if taken {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "car with VIN %s already exists", vin)
	}
	return nil
}

func (s *service) owner(ctx context.Context, id int64) (*models.Owner, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "ownerId is required")
	}
	owner, err := s.owners.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "owner with id %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup owner")
	}
	return owner, nil
}

// mapWriteError turns a lost VIN race into the same conflict the pre-check reports.
func mapWriteError(err error, vin, action string) error {
	if db.IsUniqueViolation(err, vinIndex, vinColumn) {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "car with VIN %s already exists", vin)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
