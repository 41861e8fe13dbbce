package services

import (
	"context"
	"time"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/utils"
)

type PinGeneratedEvent struct {
	TableID              uint      `json:"tableId"`
	TableName            string    `json:"tableName"`
	SessionPin           string    `json:"sessionPin"`
	CustomerID           uint      `json:"customerId"`
	CustomerMobileNumber string    `json:"customerMobileNumber"`
	PinGeneratedAt       time.Time `json:"pinGeneratedAt"`
}

type OrderCreatedEvent struct {
	OrderID              uint               `json:"orderId"`
	OrderNumber          string             `json:"orderNumber"`
	TableID              *uint              `json:"tableId"`
	TableName            string             `json:"tableName"`
	CustomerID           uint               `json:"customerId"`
	CustomerMobileNumber string             `json:"customerMobileNumber"`
	Items                []models.OrderItem `json:"items"`
	Subtotal             float64            `json:"subtotal"`
	Discount             float64            `json:"discount"`
	Tax                  float64            `json:"tax"`
	Total                float64            `json:"total"`
	PaymentStatus        string             `json:"paymentStatus"`
	OrderStatus          string             `json:"orderStatus"`
	CreatedAt            time.Time          `json:"createdAt"`
	IsUpdate             bool               `json:"isUpdate"`
}

func newOrderCreatedEvent(order *models.Order, customer *models.Customer, isUpdate bool) OrderCreatedEvent {
	return OrderCreatedEvent{
		OrderID:              order.ID,
		OrderNumber:          order.OrderNumber,
		TableID:              order.TableID,
		TableName:            order.TableName,
		CustomerID:           customer.ID,
		CustomerMobileNumber: customer.MobileNumber,
		Items:                order.Items,
		Subtotal:             order.Subtotal,
		Discount:             order.Discount,
		Tax:                  order.Tax,
		Total:                order.Total,
		PaymentStatus:        order.PaymentStatus,
		OrderStatus:          order.OrderStatus,
		CreatedAt:            order.CreatedAt,
		IsUpdate:             isUpdate,
	}
}

// publishBestEffort never fails the caller. A broken notifier only costs a
// log line.
func publishBestEffort(ctx context.Context, p notifier.EventPublisher, topic string, payload interface{}) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, payload); err != nil {
		utils.ErrorLogger.WithField("event", topic).WithError(err).Warn("event publish failed")
	}
}
