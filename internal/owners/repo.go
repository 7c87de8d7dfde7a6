package owners

import (
	"context"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes owner persistence operations.
type Repository struct {
	repo.Base
}

// NewRepository constructs an owner repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Create inserts a new owner row.
func (r *Repository) Create(ctx context.Context, owner *models.Owner) (*models.Owner, error) {
	if err := r.DB(ctx).Create(owner).Error; err != nil {
		return nil, err
	}
	return owner, nil
}

// Update persists the owner's name and email.
func (r *Repository) Update(ctx context.Context, owner *models.Owner) error {
	return r.DB(ctx).Model(owner).Updates(map[string]any{
		"name":  owner.Name,
		"email": owner.Email,
	}).Error
}

// FindByID returns the owner or gorm.ErrRecordNotFound.
func (r *Repository) FindByID(ctx context.Context, id int64) (*models.Owner, error) {
	var owner models.Owner
	if err := r.DB(ctx).First(&owner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &owner, nil
}

// ExistsByEmail reports whether another owner already uses email, compared
// case-insensitively. excludeID skips the owner being updated.
func (r *Repository) ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error) {
	if excludeID > 0 {
		return r.Exists(ctx, &models.Owner{}, "LOWER(email) = LOWER(?) AND id <> ?", email, excludeID)
	}
	return r.Exists(ctx, &models.Owner{}, "LOWER(email) = LOWER(?)", email)
}
