package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MobileTypeAndroid = "android"
	MobileTypeIOS     = "ios"
)

// Customer is one device scanning table QR codes. UniqueID is the device key.
type Customer struct {
	ID               uint                         `gorm:"primaryKey" json:"id"`
	MobileNumber     string                       `gorm:"type:varchar(20);not null;index" json:"mobileNumber"`
	UniqueID         string                       `gorm:"type:varchar(191);uniqueIndex;not null" json:"uniqueId"`
	MobileType       string                       `gorm:"type:varchar(10);not null" json:"mobileType"`
	TableID          *uint                        `gorm:"index" json:"tableId"`
	TableName        string                       `gorm:"type:varchar(50)" json:"tableName"`
	SessionActive    bool                         `gorm:"not null;index" json:"sessionActive"`
	SessionStartedAt *time.Time                   `json:"sessionStartedAt"`
	SessionEndedAt   *time.Time                   `gorm:"index" json:"sessionEndedAt"`
	SessionVersion   int                          `gorm:"not null;default:0" json:"-"`
	ActiveOrderIDs   datatypes.JSONType[[]string] `json:"activeOrderIds"`
	OrderID          string                       `gorm:"type:varchar(32)" json:"orderId"`
	CreatedAt        time.Time                    `json:"createdAt"`
	UpdatedAt        time.Time                    `json:"updatedAt"`
}

func IsValidMobileType(t string) bool {
	return t == MobileTypeAndroid || t == MobileTypeIOS
}

// StartSession binds the customer to a table and opens a new session.
// The session version moves forward so tokens from the previous session stop
// matching.
func (c *Customer) StartSession(tableID *uint, tableName string, now time.Time) {
	c.TableID = tableID
	c.TableName = tableName
	c.SessionActive = true
	c.SessionStartedAt = &now
	c.SessionEndedAt = nil
	c.SessionVersion++
	c.ActiveOrderIDs = datatypes.NewJSONType([]string{})
}

// EndSession releases the table binding and forgets the session's orders.
func (c *Customer) EndSession(now time.Time) {
	c.SessionActive = false
	c.SessionEndedAt = &now
	c.TableID = nil
	c.TableName = ""
	c.ActiveOrderIDs = datatypes.NewJSONType([]string{})
}

// AddOrderToSession records an order number once and remembers it as the
// last order.
func (c *Customer) AddOrderToSession(orderNumber string) {
	ids := c.ActiveOrders()
	for _, id := range ids {
		if id == orderNumber {
			c.OrderID = orderNumber
			return
		}
	}
	c.ActiveOrderIDs = datatypes.NewJSONType(append(ids, orderNumber))
	c.OrderID = orderNumber
}

func (c *Customer) ActiveOrders() []string {
	ids := c.ActiveOrderIDs.Data()
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
