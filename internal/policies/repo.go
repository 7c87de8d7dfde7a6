package policies

import (
	"context"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db/models"
	"github.com/carins/carins-backend/pkg/types"
	"gorm.io/gorm"
)

// Repository exposes insurance policy persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs a policy repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new policy row.
func (r *Repository) Create(ctx context.Context, policy *models.InsurancePolicy) (*models.InsurancePolicy, error) {
	if err := r.DB(ctx).Create(policy).Error; err != nil {
		return nil, err
	}
	return policy, nil
}

// Update persists the mutable policy columns.
func (r *Repository) Update(ctx context.Context, policy *models.InsurancePolicy) error {
	return r.DB(ctx).Model(policy).Updates(map[string]any{
		"car_id":     policy.CarID,
		"provider":   policy.Provider,
		"start_date": policy.StartDate,
		"end_date":   policy.EndDate,
	}).Error
}

// FindByID returns the policy or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.InsurancePolicy, error) {
	var policy models.InsurancePolicy
	if err := r.DB(ctx).First(&policy, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &policy, nil
}

// List returns every policy ordered by id.
func (r *Repository) List(ctx context.Context) ([]models.InsurancePolicy, error) {
	var rows []models.InsurancePolicy
	if err := r.DB(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByCarID returns the car's policies ordered by start date.
func (r *Repository) FindByCarID(ctx context.Context, carID int64) ([]models.InsurancePolicy, error) {
	var rows []models.InsurancePolicy
	err := r.DB(ctx).
		Where("car_id = ?", carID).
		Order("start_date ASC").Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByEndDate returns the policies whose end date equals day exactly.
func (r *Repository) FindByEndDate(ctx context.Context, day types.Date) ([]models.InsurancePolicy, error) {
	var rows []models.InsurancePolicy
	if err := r.DB(ctx).Where("end_date = ?", day).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ExistsActiveOnDate reports whether any policy of the car covers day,
// start and end inclusive.
func (r *Repository) ExistsActiveOnDate(ctx context.Context, carID int64, day types.Date) (bool, error) {
	return r.Exists(ctx, &models.InsurancePolicy{},
		"car_id = ? AND start_date <= ? AND end_date >= ?", carID, day, day)
}
