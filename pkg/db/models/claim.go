package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/carins/carins-backend/pkg/types"
)

// Claim is an insurance claim registered against a car.
type Claim struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	CarID       int64           `gorm:"column:car_id;not null;index:idx_claims_car_date,priority:1"`
	Car         *Car            `gorm:"foreignKey:CarID"`
	ClaimDate   types.Date      `gorm:"column:claim_date;not null;index:idx_claims_car_date,priority:2"`
	Description string          `gorm:"column:description;size:500;not null"`
	Amount      decimal.Decimal `gorm:"column:amount;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Claim) TableName() string { return "claims" }
