package claims

import (
	"context"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes claim persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a claim repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new claim row.
func (r *Repository) Create(ctx context.Context, claim *models.Claim) (*models.Claim, error) {
	if err := r.DB(ctx).Omit("Car").Create(claim).Error; err != nil {
		return nil, err
	}
	return claim, nil
}

// FindByID returns the claim or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Claim, error) {
	var claim models.Claim
	if err := r.DB(ctx).First(&claim, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &claim, nil
}

// ListByCar returns the car's claims, oldest claim date first.
func (r *Repository) ListByCar(ctx context.Context, carID int64) ([]models.Claim, error) {
	var rows []models.Claim
	err := r.DB(ctx).
		Where("car_id = ?", carID).
		Order("claim_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
