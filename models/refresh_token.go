package models

import "time"

type RefreshToken struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Token      string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"-"`
	CustomerID uint      `gorm:"not null;index" json:"customerId"`
	IsActive   bool      `gorm:"not null;index" json:"isActive"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
