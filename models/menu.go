package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

type Modifier struct {
	ModifierName  string  `json:"modifierName"`
	ModifierPrice float64 `json:"modifierPrice"`
}

// MenuItem is an orderable dish. Price is the list price and Discount a
// percentage.
type MenuItem struct {
	ID              uint                           `gorm:"primaryKey" json:"itemId"`
	CategoryID      uint                           `gorm:"not null;index:idx_item_category_active" json:"categoryId"`
	CategoryName    string                         `gorm:"type:varchar(100)" json:"categoryName"`
	ItemName        string                         `gorm:"type:varchar(255);not null;index" json:"itemName"`
	ItemDescription string                         `gorm:"type:text" json:"itemDescription"`
	ItemImage       string                         `gorm:"type:varchar(255)" json:"itemImage"`
	IsVeg           bool                           `gorm:"not null;index" json:"isVeg"`
	Cuisine         string                         `gorm:"type:varchar(100);index" json:"cuisine"`
	Price           float64                        `gorm:"type:decimal(10,2);not null" json:"price"`
	Discount        float64                        `gorm:"type:decimal(5,2);not null;default:0" json:"discount"`
	Modifiers       datatypes.JSONType[[]Modifier] `json:"modifiers"`
	IsActive        bool                           `gorm:"not null;index:idx_item_category_active" json:"isActive"`
	CreatedBy       *uint                          `gorm:"index" json:"-"`
	CreatedAt       time.Time                      `json:"createdAt"`
	UpdatedAt       time.Time                      `json:"updatedAt"`
}

func (MenuItem) TableName() string {
	return "items"
}

// FinalPrice is the list price after the item discount, rounded to cents.
func (m *MenuItem) FinalPrice() float64 {
	p := m.Price - m.Price*m.Discount/100
	return math.Round(p*100) / 100
}
