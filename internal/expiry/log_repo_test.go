package expiry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carins/carins-backend/pkg/db/dbtest"
	"github.com/carins/carins-backend/pkg/db/models"
)

func TestLogRepositoryInsertIsIdempotent(t *testing.T) {
	db := dbtest.Open(t)
	owner := dbtest.Owner(t, db, "Ana", "ana@example.com")
	car := dbtest.Car(t, db, owner.ID, "VINLOG01")
	policy := dbtest.Policy(t, db, car.ID, "Allianz", "2024-06-01", "2025-05-31")

	r := NewLogRepository(db)
	ctx := context.Background()

	logged, err := r.ExistsForPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.False(t, logged)

	result, err := r.Insert(ctx, policy.ID)
	require.NoError(t, err)
	assert.Equal(t, InsertCreated, result)

	result, err = r.Insert(ctx, policy.ID)
	require.NoError(t, err)
	assert.Equal(t, InsertAlreadyExists, result)

	logged, err = r.ExistsForPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.True(t, logged)

	rows, err := r.ListByPolicy(ctx, policy.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].CreatedAt.IsZero())
}

func TestLoggedPolicyCannotBeDeleted(t *testing.T) {
	db := dbtest.Open(t)
	owner := dbtest.Owner(t, db, "Ana", "ana@example.com")
	car := dbtest.Car(t, db, owner.ID, "VINLOG02")
	policy := dbtest.Policy(t, db, car.ID, "Allianz", "2024-06-01", "2025-05-31")

	r := NewLogRepository(db)
	ctx := context.Background()
	_, err := r.Insert(ctx, policy.ID)
	require.NoError(t, err)

	var fkEnabled int
	require.NoError(t, db.Raw("PRAGMA foreign_keys").Scan(&fkEnabled).Error)
	require.Equal(t, 1, fkEnabled)
	assert.True(t, db.Migrator().HasConstraint(&models.PolicyExpiryLog{}, "Policy"))

	err = db.Delete(&models.InsurancePolicy{}, policy.ID).Error
	require.Error(t, err)

	rows, err := r.ListByPolicy(ctx, policy.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLogRepositoryInsertSurfacesOtherErrors(t *testing.T) {
	db := dbtest.Open(t)
	r := NewLogRepository(db)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	result, err := r.Insert(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, InsertResult(0), result)
}

func TestInsertResultString(t *testing.T) {
	assert.Equal(t, "created", InsertCreated.String())
	assert.Equal(t, "already_exists", InsertAlreadyExists.String())
	assert.Equal(t, "unknown", InsertResult(0).String())
}
