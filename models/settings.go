package models

import "time"

const (
	DefaultOutletName     = "My Restaurant"
	DefaultOutletCurrency = "USD"
)

// Settings is a singleton row holding outlet display options.
type Settings struct {
	ID                 uint      `gorm:"primaryKey" json:"-"`
	Logo               string    `gorm:"type:varchar(255)" json:"logo"`
	ShowCuisineFilter  bool      `gorm:"not null" json:"showCuisineFilter"`
	ShowModifiers      bool      `gorm:"not null" json:"showModifiers"`
	ShowModifiersPrice bool      `gorm:"not null" json:"showModifiersPrice"`
	OutletName         string    `gorm:"type:varchar(100);not null" json:"outletName"`
	OutletCurrency     string    `gorm:"type:varchar(10);not null" json:"outletCurrency"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func DefaultSettings() Settings {
	return Settings{
		ShowCuisineFilter:  true,
		ShowModifiers:      true,
		ShowModifiersPrice: true,
		OutletName:         DefaultOutletName,
		OutletCurrency:     DefaultOutletCurrency,
	}
}
