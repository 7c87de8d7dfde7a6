package owners

import (
	"context"
	"fmt"
	"strings"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/db/models"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
)

type ownersRepository interface {
	Create(ctx context.Context, owner *models.Owner) (*models.Owner, error)
	Update(ctx context.Context, owner *models.Owner) error
	FindByID(ctx context.Context, id int64) (*models.Owner, error)
	ExistsByEmail(ctx context.Context, email string, excludeID int64) (bool, error)
}

// Service exposes owner management.
type Service interface {
	Get(ctx context.Context, id int64) (*models.Owner, error)
	Create(ctx context.Context, input OwnerInput) (*models.Owner, error)
	Update(ctx context.Context, id int64, input OwnerInput) (*models.Owner, error)
}

// OwnerInput carries the writable owner fields.
type OwnerInput struct {
	Name  string
	Email string
}

type service struct {
	repo ownersRepository
}

// NewService builds an owner service backed by the provided repository.
func NewService(repo ownersRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("owner repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, id int64) (*models.Owner, error) {
	owner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "owner with id %d not found", id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup owner")
	}
	return owner, nil
}

func (s *service) Create(ctx context.Context, input OwnerInput) (*models.Owner, error) {
	owner, err := s.prepare(ctx, input, 0)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(ctx, owner); err != nil {
		return nil, mapWriteError(err, owner.Email, "create owner")
	}
	return owner, nil
}

func (s *service) Update(ctx context.Context, id int64, input OwnerInput) (*models.Owner, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.prepare(ctx, input, id)
	if err != nil {
		return nil, err
	}

	existing.Name = next.Name
	existing.Email = next.Email
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, mapWriteError(err, existing.Email, "update owner")
	}
	return existing, nil
}

func (s *service) prepare(ctx context.Context, input OwnerInput, excludeID int64) (*models.Owner, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	taken, err := s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}
	if taken {
		return nil, pkgerrors.Newf(pkgerrors.CodeConflict, "owner with email %s already exists", email)
	}
	return &models.Owner{Name: name, Email: email}, nil
}

func mapWriteError(err error, email, action string) error {
	if db.IsUniqueViolation(err, "ux_owners_email", "owners.email") {
		return pkgerrors.Newf(pkgerrors.CodeConflict, "owner with email %s already exists", email)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, action)
}
