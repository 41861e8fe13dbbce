package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	KOTTypeNewOrder  = "NEW_ORDER"
	KOTTypeAmendment = "ORDER_AMENDMENT"
)

const (
	KitchenStatusPending      = "PENDING"
	KitchenStatusAcknowledged = "ACKNOWLEDGED"
	KitchenStatusCompleted    = "COMPLETED"
)

const (
	KOTItemPending   = "PENDING"
	KOTItemPreparing = "PREPARING"
	KOTItemReady     = "READY"
)

func IsValidKOTType(t string) bool {
	return t == KOTTypeNewOrder || t == KOTTypeAmendment
}

type KOTItem struct {
	ItemID     uint               `json:"itemId"`
	ItemName   string             `json:"itemName"`
	Quantity   int                `json:"quantity"`
	Modifiers  []SelectedModifier `json:"modifiers"`
	KOTStatus  string             `json:"kotStatus"`
	Price      float64            `json:"price"`
	TotalPrice float64            `json:"totalPrice"`
}

// KOT is a kitchen order ticket. Amendments point at the first NEW_ORDER
// ticket of the same order through ParentKOTID when one exists.
type KOT struct {
	ID              uint                          `gorm:"primaryKey" json:"id"`
	KOTID           string                        `gorm:"column:kot_id;type:varchar(40);uniqueIndex;not null" json:"kotId"`
	ParentKOTID     *string                       `gorm:"column:parent_kot_id;type:varchar(40)" json:"parentKotId"`
	OrderID         uint                          `gorm:"not null;index" json:"orderId"`
	OrderNumber     string                        `gorm:"type:varchar(32);index" json:"orderNumber"`
	KOTType         string                        `gorm:"column:kot_type;type:varchar(20);not null;index" json:"kotType"`
	TableName       string                        `gorm:"type:varchar(50)" json:"tableName"`
	Items           datatypes.JSONType[[]KOTItem] `json:"items"`
	AmendmentReason *string                       `gorm:"type:varchar(255)" json:"amendmentReason"`
	Timestamp       time.Time                     `gorm:"not null;index" json:"timestamp"`
	KitchenStatus   string                        `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"kitchenStatus"`
	AcknowledgedBy  *string                       `gorm:"type:varchar(100)" json:"acknowledgedBy"`
	AcknowledgedAt  *time.Time                    `json:"acknowledgedAt"`
	CompletedAt     *time.Time                    `json:"completedAt"`
	CreatedAt       time.Time                     `json:"createdAt"`
	UpdatedAt       time.Time                     `json:"updatedAt"`
}
