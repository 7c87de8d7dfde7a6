package models

import "time"

// Car is the insured vehicle. VIN is stored upper-cased and is unique.
type Car struct {
	ID                int64     `gorm:"column:id;primaryKey;autoIncrement"`
	VIN               string    `gorm:"column:vin;size:8;not null;uniqueIndex:ux_cars_vin"`
	Make              string    `gorm:"column:make"`
	Model             string    `gorm:"column:model"`
	YearOfManufacture int       `gorm:"column:year_of_manufacture"`
	OwnerID           int64     `gorm:"column:owner_id;not null;index:idx_cars_owner_id"`
	Owner             *Owner    `gorm:"foreignKey:OwnerID"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Car) TableName() string { return "cars" }
