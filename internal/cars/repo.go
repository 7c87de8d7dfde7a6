package cars

import (
	"context"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes car persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a car repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new car row.
func (r *Repository) Create(ctx context.Context, car *models.Car) (*models.Car, error) {
	if err := r.DB(ctx).Omit("Owner").Create(car).Error; err != nil {
		return nil, err
	}
	return car, nil
}

// Update persists the mutable car columns.
func (r *Repository) Update(ctx context.Context, car *models.Car) error {
	return r.DB(ctx).Model(car).Updates(map[string]any{
		"vin":                 car.VIN,
		"make":                car.Make,
		"model":               car.Model,
		"year_of_manufacture": car.YearOfManufacture,
		"owner_id":            car.OwnerID,
	}).Error
}

// FindByID returns the car with its owner, or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Car, error) {
	var car models.Car
	if err := r.DB(ctx).Preload("Owner").First(&car, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &car, nil
}

// List returns every car with its owner, ordered by id.
func (r *Repository) List(ctx context.Context) ([]models.Car, error) {
	var rows []models.Car
	if err := r.DB(ctx).Preload("Owner").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Exists reports whether a car with the given id is stored.
func (r *Repository) Exists(ctx context.Context, id int64) (bool, error) {
	return r.Base.Exists(ctx, &models.Car{}, "id = ?", id)
}

// ExistsByVIN reports whether another car already uses vin, compared
// case-insensitively. excludeID skips the car being updated.
func (r *Repository) ExistsByVIN(ctx context.Context, vin string, excludeID int64) (bool, error) {
	if excludeID > 0 {
		return r.Base.Exists(ctx, &models.Car{}, "UPPER(vin) = UPPER(?) AND id <> ?", vin, excludeID)
	}
	return r.Base.Exists(ctx, &models.Car{}, "UPPER(vin) = UPPER(?)", vin)
}
