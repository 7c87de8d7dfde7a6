package models

import (
	"time"

	"github.com/carins/carins-backend/pkg/types"
)

// InsurancePolicy covers a car over the inclusive window [StartDate, EndDate].
type InsurancePolicy struct {
	ID        int64      `gorm:"column:id;primaryKey;autoIncrement"`
	CarID     int64      `gorm:"column:car_id;not null;index:idx_insurance_policies_car_dates,priority:1"`
	Car       *Car       `gorm:"foreignKey:CarID"`
	Provider  string     `gorm:"column:provider"`
	StartDate types.Date `gorm:"column:start_date;not null;index:idx_insurance_policies_car_dates,priority:2"`
	EndDate   types.Date `gorm:"column:end_date;not null;index:idx_insurance_policies_end_date"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (InsurancePolicy) TableName() string { return "insurance_policies" }
