package expiry

import (
	"context"

	"github.com/carins/carins-backend/internal/repo"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/db/models"
	"gorm.io/gorm"
)

// InsertResult tells the caller whether Insert wrote a new entry.
type InsertResult int

const (
	// InsertCreated means this call wrote the entry.
	InsertCreated InsertResult = iota + 1
	// InsertAlreadyExists means the policy was already logged, possibly by a
	// concurrent run.
	InsertAlreadyExists
)

func (r InsertResult) String() string {
	switch r {
	case InsertCreated:
		return "created"
	case InsertAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// LogRepository is the append-only policy_expiry_log store.
type LogRepository struct {
	repo.Base
}

// NewLogRepository constructs an expiry log repository tied to the provided GORM DB.
func NewLogRepository(db *gorm.DB) *LogRepository {
	return &LogRepository{Base: repo.NewBase(db)}
}

// ExistsForPolicy reports whether an entry exists for the policy.
func (r *LogRepository) ExistsForPolicy(ctx context.Context, policyID int64) (bool, error) {
	return r.Exists(ctx, &models.PolicyExpiryLog{}, "policy_id = ?", policyID)
}

// Insert appends an entry for the policy. A unique violation on policy_id is
// reported as InsertAlreadyExists with a nil error.
func (r *LogRepository) Insert(ctx context.Context, policyID int64) (InsertResult, error) {
	entry := models.PolicyExpiryLog{PolicyID: policyID}
	err := r.DB(ctx).Omit("Policy").Create(&entry).Error
	if err == nil {
		return InsertCreated, nil
	}
	if db.IsUniqueViolation(err, models.PolicyExpiryLogPolicyIndex, models.PolicyExpiryLogPolicyColumn) {
		return InsertAlreadyExists, nil
	}
	return 0, err
}

// ListByPolicy returns the entries for a policy. Used for audits and tests.
func (r *LogRepository) ListByPolicy(ctx context.Context, policyID int64) ([]models.PolicyExpiryLog, error) {
	var rows []models.PolicyExpiryLog
	if err := r.DB(ctx).Where("policy_id = ?", policyID).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
