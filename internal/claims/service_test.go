package claims

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carins/carins-backend/internal/cars"
	"github.com/carins/carins-backend/pkg/db/dbtest"
	pkgerrors "github.com/carins/carins-backend/pkg/errors"
	"github.com/carins/carins-backend/pkg/types"
)

func newTestService(t *testing.T) (*service, int64) {
	t.Helper()
	db := dbtest.Open(t)
	owner := dbtest.Owner(t, db, "Ana", "ana@example.com")
	car := dbtest.Car(t, db, owner.ID, "VINCLAIM")

	svc, err := NewService(NewRepository(db), cars.NewRepository(db))
	require.NoError(t, err)
	impl := svc.(*service)
	impl.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return impl, car.ID
}

func TestRegisterAndHistoryOrderedByDate(t *testing.T) {
	svc, carID := newTestService(t)
	ctx := context.Background()

	for _, in := range []ClaimInput{
		{ClaimDate: types.MustParseDate("2025-05-20"), Description: "rear bumper", Amount: decimal.RequireFromString("850.00")},
		{ClaimDate: types.MustParseDate("2024-11-02"), Description: "windshield", Amount: decimal.RequireFromString("320.50")},
		{ClaimDate: types.MustParseDate("2025-06-01"), Description: "mirror", Amount: decimal.RequireFromString("99.99")},
	} {
		_, err := svc.Register(ctx, carID, in)
		require.NoError(t, err)
	}

	history, err := svc.History(ctx, carID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "2024-11-02", history[0].ClaimDate.String())
	assert.Equal(t, "2025-05-20", history[1].ClaimDate.String())
	assert.Equal(t, "2025-06-01", history[2].ClaimDate.String())
	assert.True(t, history[0].Amount.Equal(decimal.RequireFromString("320.5")))

	got, err := svc.Get(ctx, history[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "rear bumper", got.Description)
}

func TestRegisterValidatesFields(t *testing.T) {
	svc, carID := newTestService(t)

	_, err := svc.Register(context.Background(), carID, ClaimInput{
		ClaimDate:   types.MustParseDate("2025-06-02"),
		Description: strings.Repeat("x", 501),
		Amount:      decimal.RequireFromString("1000000"),
	})
	require.Error(t, err)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "claim date cannot be in the future", details["claimDate"])
	assert.Contains(t, details["description"], "500")
	assert.Equal(t, "amount must be lower than 1.000.000", details["amount"])
}

func TestRegisterRejectsAmountShape(t *testing.T) {
	svc, carID := newTestService(t)
	base := ClaimInput{ClaimDate: types.MustParseDate("2025-01-01"), Description: "dent"}

	for raw, want := range map[string]string{
		"0":      "amount must be positive",
		"-10":    "amount must be positive",
		"10.005": "amount must have at most 2 decimals",
	} {
		in := base
		in.Amount = decimal.RequireFromString(raw)
		_, err := svc.Register(context.Background(), carID, in)
		require.Error(t, err, raw)
		details := pkgerrors.As(err).Details().(map[string]string)
		assert.Equal(t, want, details["amount"], raw)
	}

	in := base
	in.Amount = decimal.RequireFromString("999999.99")
	_, err := svc.Register(context.Background(), carID, in)
	require.NoError(t, err)
}

func TestRegisterAndHistoryRequireKnownCar(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), 999, ClaimInput{
		ClaimDate:   types.MustParseDate("2025-01-01"),
		Description: "dent",
		Amount:      decimal.NewFromInt(10),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.History(context.Background(), 999)
	require.Error(t, err)
	assert.Equal(t, "car with id 999 not found", pkgerrors.As(err).Message())

	_, err = svc.Get(context.Background(), 12345)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
