package models

import (
	"time"
)

const (
	PaymentMethodCash   = "cash"
	PaymentMethodCard   = "card"
	PaymentMethodMobile = "mobile"
	PaymentMethodOther  = "other"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusCancelled = "cancelled"
	PaymentStatusRefunded  = "refunded"
)

const (
	OrderStatusNew       = "new"
	OrderStatusPreparing = "preparing"
	OrderStatusReady     = "ready"
	OrderStatusServed    = "served"
	OrderStatusCompleted = "completed"
	OrderStatusCancelled = "cancelled"
)

func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodMobile, PaymentMethodOther:
		return true
	}
	return false
}

// OrderCustomer is free-text contact info stored inline on the order.
type OrderCustomer struct {
	Name  string `gorm:"type:varchar(100)" json:"name"`
	Phone string `gorm:"type:varchar(20);index" json:"phone"`
	Email string `gorm:"type:varchar(100)" json:"email"`
}

// Order totals are derived at write time and Total always equals Subtotal.
// Discount is recorded from the line items but never deducted, and Tax
// stays zero.
type Order struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	OrderNumber   string        `gorm:"type:varchar(32);uniqueIndex;not null" json:"orderNumber"`
	CartID        *uint         `gorm:"index" json:"cartId"`
	TableID       *uint         `gorm:"index" json:"tableId"`
	TableName     string        `gorm:"type:varchar(50)" json:"tableName"`
	Items         []OrderItem   `gorm:"foreignKey:OrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	Subtotal      float64       `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	Discount      float64       `gorm:"type:decimal(10,2);not null;default:0" json:"discount"`
	Tax           float64       `gorm:"type:decimal(10,2);not null;default:0" json:"tax"`
	Total         float64       `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	PaymentMethod string        `gorm:"type:varchar(10);not null;default:'cash'" json:"paymentMethod"`
	PaymentStatus string        `gorm:"type:varchar(20);not null;default:'pending';index" json:"paymentStatus"`
	OrderStatus   string        `gorm:"type:varchar(20);not null;default:'new';index" json:"orderStatus"`
	Customer      OrderCustomer `gorm:"embedded;embeddedPrefix:customer_" json:"customer"`
	Notes         string        `gorm:"type:text" json:"notes"`
	BillIsSettle  bool          `gorm:"not null;index" json:"billIsSettle"`
	CreatedAt     time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Settle closes the order as paid with method.
func (o *Order) Settle(method string) {
	o.PaymentMethod = method
	o.PaymentStatus = PaymentStatusCompleted
	o.BillIsSettle = true
	o.OrderStatus = OrderStatusCompleted
}
