package models

import (
	"time"

	"gorm.io/datatypes"
)

// Cart is the draft list of menu item ids for one customer. At most one cart
// per customer has OrderIsPlaced=false; this holds by query pattern only.
type Cart struct {
	ID             uint                       `gorm:"primaryKey" json:"id"`
	RestaurantCode string                     `gorm:"type:varchar(50);index" json:"restaurantCode"`
	CustomerID     uint                       `gorm:"not null;index" json:"userId"`
	MobileNumber   string                     `gorm:"type:varchar(20);index" json:"mobileNumber"`
	Items          datatypes.JSONType[[]uint] `json:"items"`
	OrderID        string                     `gorm:"type:varchar(32);index" json:"orderId"`
	TableID        *uint                      `gorm:"index" json:"tableId"`
	TableName      string                     `gorm:"type:varchar(50)" json:"tableName"`
	OrderIsPlaced  bool                       `gorm:"not null;index" json:"orderIsPlaced"`
	CreatedAt      time.Time                  `json:"createdAt"`
	UpdatedAt      time.Time                  `json:"updatedAt"`
}

func (c *Cart) ItemIDs() []uint {
	ids := c.Items.Data()
	out := make([]uint, len(ids))
	copy(out, ids)
	return out
}

func (c *Cart) HasItem(itemID uint) bool {
	for _, id := range c.Items.Data() {
		if id == itemID {
			return true
		}
	}
	return false
}

// AddItem appends itemID unless it is already present.
func (c *Cart) AddItem(itemID uint) bool {
	if c.HasItem(itemID) {
		return false
	}
	c.Items = datatypes.NewJSONType(append(c.ItemIDs(), itemID))
	return true
}

func (c *Cart) RemoveItem(itemID uint) bool {
	ids := c.ItemIDs()
	for i, id := range ids {
		if id == itemID {
			c.Items = datatypes.NewJSONType(append(ids[:i], ids[i+1:]...))
			return true
		}
	}
	return false
}

func (c *Cart) MarkPlaced(orderNumber string) {
	c.OrderID = orderNumber
	c.OrderIsPlaced = true
}
