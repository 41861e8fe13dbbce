package models

import "time"

type MenuCategory struct {
	ID           uint      `gorm:"primaryKey" json:"categoryId"`
	CategoryName string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"categoryName"`
	Discount     float64   `gorm:"type:decimal(5,2);not null;default:0" json:"discount"`
	IsActive     bool      `gorm:"not null;index" json:"isActive"`
	CreatedBy    *uint     `gorm:"index" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
