// Package dbtest opens migrated in-memory SQLite databases and seeds fixtures
// for repository and end-to-end tests.
package dbtest

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/carins/carins-backend/pkg/db/models"
	"github.com/carins/carins-backend/pkg/types"
)

// Open returns a private in-memory database with every model migrated. The
// pool is pinned to one connection so concurrent callers share the database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "?mode=memory&cache=shared&_foreign_keys=on"

	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.New(log.New(io.Discard, "", 0), gormlogger.Config{LogLevel: gormlogger.Silent}),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("auto-migrate: %v", err)
	}
	return conn
}

// Owner inserts an owner row.
func Owner(t testing.TB, db *gorm.DB, name, email string) models.Owner {
	t.Helper()
	owner := models.Owner{Name: name, Email: email}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return owner
}

// Car inserts a car row owned by ownerID.
func Car(t testing.TB, db *gorm.DB, ownerID int64, vin string) models.Car {
	t.Helper()
	car := models.Car{VIN: vin, Make: "Dacia", Model: "Logan", YearOfManufacture: 2018, OwnerID: ownerID}
	if err := db.Create(&car).Error; err != nil {
		t.Fatalf("create car: %v", err)
	}
	return car
}

// Policy inserts a policy row covering [start, end].
func Policy(t testing.TB, db *gorm.DB, carID int64, provider, start, end string) models.InsurancePolicy {
	t.Helper()
	policy := models.InsurancePolicy{
		CarID:     carID,
		Provider:  provider,
		StartDate: types.MustParseDate(start),
		EndDate:   types.MustParseDate(end),
	}
	if err := db.Create(&policy).Error; err != nil {
		t.Fatalf("create policy: %v", err)
	}
	return policy
}

// Claim inserts a claim row.
func Claim(t testing.TB, db *gorm.DB, carID int64, date, description, amount string) models.Claim {
	t.Helper()
	claim := models.Claim{
		CarID:       carID,
		ClaimDate:   types.MustParseDate(date),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
	}
	if err := db.Create(&claim).Error; err != nil {
		t.Fatalf("create claim: %v", err)
	}
	return claim
}

// Seed holds the rows created by SeedScenario.
type Seed struct {
	Owners   []models.Owner
	Cars     []models.Car
	Policies []models.InsurancePolicy
}

// SeedScenario loads the reference data set: car 1 covered through 2025,
// car 2 covered only from 2025-03-01, car 3 with a policy ending on
// expiredOn.
func SeedScenario(t testing.TB, db *gorm.DB, expiredOn types.Date) Seed {
	t.Helper()

	ana := Owner(t, db, "Ana Pop", "ana.pop@example.com")
	bogdan := Owner(t, db, "Bogdan Ionescu", "bogdan.ionescu@example.com")

	car1 := Car(t, db, ana.ID, "VIN12345")
	car2 := Car(t, db, bogdan.ID, "VIN67890")
	car3 := Car(t, db, bogdan.ID, "VINEXPIR")

	return Seed{
		Owners: []models.Owner{ana, bogdan},
		Cars:   []models.Car{car1, car2, car3},
		Policies: []models.InsurancePolicy{
			Policy(t, db, car1.ID, "Allianz", "2024-01-01", "2024-12-31"),
			Policy(t, db, car1.ID, "Groupama", "2025-01-01", "2025-12-31"),
			Policy(t, db, car2.ID, "Allianz", "2025-03-01", "2025-09-30"),
			Policy(t, db, car3.ID, "Omniasig", expiredOn.AddYears(-1).AddDays(1).String(), expiredOn.String()),
		},
	}
}
