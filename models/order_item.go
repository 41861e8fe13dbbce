package models

import (
	"time"

	"gorm.io/datatypes"
)

type SelectedModifier struct {
	ModifierName  string  `json:"modifierName"`
	ModifierPrice float64 `json:"modifierPrice"`
}

// OrderItem is one purchased line. Price is the discounted unit price,
// ActualPrice the price before discount.
type OrderItem struct {
	ID                uint                                   `gorm:"primaryKey" json:"id"`
	OrderID           uint                                   `gorm:"not null;index" json:"-"`
	ItemID            uint                                   `gorm:"index" json:"itemId"`
	ItemName          string                                 `gorm:"type:varchar(255)" json:"itemName"`
	ItemImage         string                                 `gorm:"type:varchar(255)" json:"itemImage"`
	Quantity          int                                    `gorm:"not null" json:"quantity"`
	Price             float64                                `gorm:"type:decimal(10,2);not null" json:"price"`
	ActualPrice       float64                                `gorm:"type:decimal(10,2)" json:"actualPrice"`
	Discount          float64                                `gorm:"type:decimal(5,2)" json:"discount"`
	SelectedModifiers datatypes.JSONType[[]SelectedModifier] `json:"selectedModifiers"`
	ItemTotal         float64                                `gorm:"type:decimal(10,2);not null" json:"itemTotal"`
	CreatedAt         time.Time                              `json:"createdAt"`
}

func (oi *OrderItem) Modifiers() []SelectedModifier {
	return oi.SelectedModifiers.Data()
}
