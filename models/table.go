package models

import "time"

const (
	DefaultTablePax = 4
	MinTablePax     = 1
	MaxTablePax     = 50
)

type Table struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	TableName      string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"tableName"`
	Pax            int        `gorm:"not null;default:4" json:"pax"`
	IsAvailable    bool       `gorm:"not null;index" json:"isAvailable"`
	OrderID        string     `gorm:"type:varchar(32)" json:"orderId"`
	SessionPin     *string    `gorm:"type:varchar(6)" json:"sessionPin"`
	PinGeneratedAt *time.Time `json:"pinGeneratedAt"`
	CustomerID     *uint      `gorm:"index" json:"customerId"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// AssignPin stores pin as the only live PIN of the table, owned by customerID.
func (t *Table) AssignPin(pin string, customerID uint, now time.Time) {
	t.SessionPin = &pin
	t.PinGeneratedAt = &now
	t.CustomerID = &customerID
}

// VerifyPin compares digits only. Ownership is checked by OwnedBy.
func (t *Table) VerifyPin(pin string) bool {
	if t.SessionPin == nil || *t.SessionPin == "" {
		return false
	}
	return *t.SessionPin == pin
}

// OwnedBy reports whether the PIN owner (if any) is customerID.
func (t *Table) OwnedBy(customerID uint) bool {
	return t.CustomerID == nil || *t.CustomerID == customerID
}

func (t *Table) ClearSessionPin() {
	t.SessionPin = nil
	t.PinGeneratedAt = nil
	t.CustomerID = nil
}

// OccupyWithOrder marks a free table as taken by orderNumber. A table that is
// already occupied keeps its first order reference.
func (t *Table) OccupyWithOrder(orderNumber string) bool {
	if !t.IsAvailable {
		return false
	}
	t.OrderID = orderNumber
	t.IsAvailable = false
	return true
}

// MakeAvailable resets the table after settlement.
func (t *Table) MakeAvailable() {
	t.IsAvailable = true
	t.OrderID = ""
	t.ClearSessionPin()
}
