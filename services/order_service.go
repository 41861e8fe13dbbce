package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/utils"
)

const (
	orderNumberAttempts = 5

	reasonMergedOnPlace = "Customer added more items to existing order"
	reasonAddItems      = "Customer requested additional items"
)

type OrderItemInput struct {
	ItemID        uint                      `json:"itemId"`
	ItemName      string                    `json:"itemName"`
	ItemImage     string                    `json:"itemImage"`
	Quantity      int                       `json:"quantity"`
	Price         float64                   `json:"price"`
	Discount      float64                   `json:"discount"`
	ModifierPrice float64                   `json:"modifierPrice"`
	Modifiers     []models.SelectedModifier `json:"modifiers"`
}

type PlaceOrderInput struct {
	CartID         *uint            `json:"cartId"`
	Items          []OrderItemInput `json:"items"`
	TotalItems     int              `json:"totalItems"`
	TotalAmount    float64          `json:"totalAmount"`
	DiscountAmount float64          `json:"discountAmount"`
	TableID        *uint            `json:"tableId"`
	TableName      string           `json:"tableName"`
	MobileNumber   string           `json:"mobileNumber"`
	Note           string           `json:"note"`
	SessionPin     string           `json:"sessionPin"`
}

type PlaceOrderResult struct {
	CartID       *uint   `json:"cartId"`
	OrderID      uint    `json:"orderId"`
	OrderNumber  string  `json:"orderNumber"`
	IsUpdate     bool    `json:"isUpdate"`
	TotalItems   int     `json:"totalItems"`
	UpdatedTotal float64 `json:"updatedTotal"`
}

type AddItemsResult struct {
	OrderID      uint               `json:"orderId"`
	OrderNumber  string             `json:"orderNumber"`
	NewItemCount int                `json:"newItemCount"`
	UpdatedTotal float64            `json:"updatedTotal"`
	Items        []models.OrderItem `json:"items"`
}

type SettleInput struct {
	PaymentMethod string
	CustomerID    *uint
	TableID       *uint
	StaffUserID   uint
}

type SettleResult struct {
	SettledOrders []string `json:"settledOrders"`
	TotalAmount   float64  `json:"totalAmount"`
	OrderCount    int      `json:"orderCount"`
}

// OrderService turns carts into orders, merges follow-up orders into the
// open order of a table, and settles a session's bill.
//
// None of the steps share a transaction. Side effects after the order write
// (broadcast, customer session bookkeeping, table occupancy, cart flag, KOT)
// are best effort and only logged on failure.
type OrderService struct {
	DB        *gorm.DB
	Sessions  *SessionService
	KOTs      *KOTService
	Carts     *CartService
	Publisher notifier.EventPublisher
	Now       func() time.Time
	Suffix    func() int
}

func NewOrderService(db *gorm.DB, sessions *SessionService, kots *KOTService, carts *CartService, publisher notifier.EventPublisher) *OrderService {
	if publisher == nil {
		publisher = notifier.Discard{}
	}
	return &OrderService{
		DB:        db,
		Sessions:  sessions,
		KOTs:      kots,
		Carts:     carts,
		Publisher: publisher,
		Now:       time.Now,
		Suffix:    func() int { return rand.IntN(10000) },
	}
}

// FormatOrderNumber renders ORD-YYYYMMDD-NNNN.
func FormatOrderNumber(now time.Time, suffix int) string {
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), suffix%10000)
}

// OriginalPrice back-computes the list price from a discounted price and a
// discount percentage. Unusable inputs fall back to the discounted price.
func OriginalPrice(discounted, discountPct float64) float64 {
	if discountPct <= 0 {
		return discounted
	}
	p := discounted / (1 - discountPct/100)
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return discounted
	}
	return p
}

// BuildLineItems prices request items: (unit price + modifiers) * quantity.
// The modifier price is the explicit modifierPrice or, when zero, the sum of
// the selected modifiers.
func BuildLineItems(in []OrderItemInput) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(in))
	for _, it := range in {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		mods := it.Modifiers
		if mods == nil {
			mods = []models.SelectedModifier{}
		}
		modPrice := it.ModifierPrice
		if modPrice == 0 {
			for _, m := range mods {
				modPrice += m.ModifierPrice
			}
		}
		out = append(out, models.OrderItem{
			ItemID:            it.ItemID,
			ItemName:          it.ItemName,
			ItemImage:         it.ItemImage,
			Quantity:          qty,
			Price:             it.Price,
			ActualPrice:       OriginalPrice(it.Price, it.Discount),
			Discount:          it.Discount,
			SelectedModifiers: datatypes.NewJSONType(mods),
			ItemTotal:         (it.Price + modPrice) * float64(qty),
		})
	}
	return out
}

func sumItemTotals(items []models.OrderItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.ItemTotal
	}
	return sum
}

// sumDiscount is the money saved on items: (original - discounted) * qty.
func sumDiscount(items []models.OrderItem) float64 {
	var sum float64
	for _, it := range items {
		if it.Discount > 0 {
			sum += (OriginalPrice(it.Price, it.Discount) - it.Price) * float64(it.Quantity)
		}
	}
	return sum
}

func kotItemsFrom(items []models.OrderItem) []models.KOTItem {
	out := make([]models.KOTItem, 0, len(items))
	for _, it := range items {
		out = append(out, models.KOTItem{
			ItemID:     it.ItemID,
			ItemName:   it.ItemName,
			Quantity:   it.Quantity,
			Modifiers:  it.Modifiers(),
			KOTStatus:  models.KOTItemPending,
			Price:      it.Price,
			TotalPrice: it.ItemTotal,
		})
	}
	return out
}

// PlaceOrder verifies the session PIN and either creates a new order or
// merges the items into the open order of the same table.
func (s *OrderService) PlaceOrder(ctx context.Context, customer *models.Customer, in PlaceOrderInput) (*PlaceOrderResult, error) {
	if len(in.Items) == 0 {
		return nil, utils.BadRequest("Items are required to place order")
	}
	if in.SessionPin == "" {
		return nil, utils.BadRequest("Session PIN is required to place order. Please ask staff for the PIN.").
			WithFlag("requiresPin", true)
	}

	var table *models.Table
	if in.TableID != nil {
		t, err := s.Sessions.VerifyPin(ctx, *in.TableID, in.SessionPin, customer.ID)
		if err != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{
				"customerId": customer.ID,
				"tableId":    *in.TableID,
			}).WithError(err).Warn("session PIN rejected")
			return nil, err
		}
		table = t
	}

	lineItems := BuildLineItems(in.Items)
	db := s.DB.WithContext(ctx)

	var existing *models.Order
	if in.TableID != nil {
		var o models.Order
		err := db.Where("table_id = ? AND bill_is_settle = ? AND order_status = ?", *in.TableID, false, models.OrderStatusNew).
			Order("id ASC").Take(&o).Error
		switch {
		case err == nil:
			existing = &o
		case !utils.IsNotFound(err):
			return nil, utils.Internal(err)
		}
	}

	var order *models.Order
	var err error
	if existing != nil {
		order, err = s.mergeInto(ctx, existing, lineItems)
	} else {
		order, err = s.createOrder(ctx, in, lineItems)
	}
	if err != nil {
		return nil, err
	}
	isUpdate := existing != nil

	log := utils.InfoLogger.WithFields(logrus.Fields{
		"customerId":  customer.ID,
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"isUpdate":    isUpdate,
	})
	log.Info("order stored")

	publishBestEffort(ctx, s.Publisher, notifier.EventOrderCreated, newOrderCreatedEvent(order, customer, isUpdate))

	customer.AddOrderToSession(order.OrderNumber)
	if err := db.Model(customer).Select("active_order_ids", "order_id").Updates(customer).Error; err != nil {
		utils.ErrorLogger.WithField("customerId", customer.ID).WithError(err).Error("recording order on session failed")
	}

	if table != nil && table.OccupyWithOrder(order.OrderNumber) {
		if err := db.Model(table).Select("is_available", "order_id").Updates(table).Error; err != nil {
			utils.ErrorLogger.WithField("tableId", table.ID).WithError(err).Error("marking table occupied failed")
		}
	}

	if in.CartID != nil && s.Carts != nil {
		if err := s.Carts.markPlaced(ctx, customer.ID, *in.CartID, order.OrderNumber); err != nil {
			utils.ErrorLogger.WithField("cartId", *in.CartID).WithError(err).Error("flagging cart as placed failed")
		}
	}

	kotIn := KOTInput{KOTType: models.KOTTypeNewOrder, Items: kotItemsFrom(lineItems)}
	if isUpdate {
		kotIn.KOTType = models.KOTTypeAmendment
		kotIn.Reason = reasonMergedOnPlace
	}
	s.sendKOT(ctx, order, kotIn)

	return &PlaceOrderResult{
		CartID:       in.CartID,
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		IsUpdate:     isUpdate,
		TotalItems:   len(order.Items),
		UpdatedTotal: order.Total,
	}, nil
}

func (s *OrderService) sendKOT(ctx context.Context, order *models.Order, in KOTInput) {
	if s.KOTs == nil {
		return
	}
	if _, err := s.KOTs.Create(ctx, order, in); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"orderId": order.ID,
			"kotType": in.KOTType,
		}).WithError(err).Error("sending KOT to kitchen failed")
	}
}

// createOrder inserts a fresh order. A collision on the order number is
// retried with a new suffix.
func (s *OrderService) createOrder(ctx context.Context, in PlaceOrderInput, items []models.OrderItem) (*models.Order, error) {
	subtotal := sumItemTotals(items)
	now := s.Now()

	order := &models.Order{
		CartID:        in.CartID,
		TableID:       in.TableID,
		TableName:     in.TableName,
		Subtotal:      subtotal,
		Discount:      sumDiscount(items),
		Tax:           0,
		Total:         subtotal,
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusPending,
		OrderStatus:   models.OrderStatusNew,
		Customer:      models.OrderCustomer{Phone: in.MobileNumber},
		Notes:         in.Note,
	}

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		order.ID = 0
		order.Items = cloneItems(items)
		order.OrderNumber = FormatOrderNumber(now, s.Suffix())
		err = s.DB.WithContext(ctx).Create(order).Error
		if err == nil {
			return order, nil
		}
		if !utils.IsDuplicateKey(err) {
			break
		}
		utils.ErrorLogger.WithField("orderNumber", order.OrderNumber).Warn("order number collision, retrying")
	}
	return nil, utils.Internal(err)
}

func cloneItems(items []models.OrderItem) []models.OrderItem {
	out := make([]models.OrderItem, len(items))
	copy(out, items)
	return out
}

// mergeInto appends items to order and adds only their contribution to the
// stored aggregates.
func (s *OrderService) mergeInto(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	db := s.DB.WithContext(ctx)

	added := cloneItems(items)
	for i := range added {
		added[i].OrderID = order.ID
	}
	if err := db.Create(&added).Error; err != nil {
		return nil, utils.Internal(err)
	}

	order.Subtotal += sumItemTotals(added)
	order.Discount += sumDiscount(added)
	order.Total = order.Subtotal
	if err := db.Model(order).Updates(map[string]interface{}{
		"subtotal": order.Subtotal,
		"discount": order.Discount,
		"total":    order.Total,
	}).Error; err != nil {
		return nil, utils.Internal(err)
	}

	if err := db.Where("order_id = ?", order.ID).Order("id ASC").Find(&order.Items).Error; err != nil {
		return nil, utils.Internal(err)
	}
	return order, nil
}

// AddItems appends items to a specific unsettled order. Line totals here are
// price * quantity; modifiers are recorded but not charged.
func (s *OrderService) AddItems(ctx context.Context, customer *models.Customer, orderID uint, items []OrderItemInput, sessionPin string) (*AddItemsResult, error) {
	if orderID == 0 || len(items) == 0 {
		return nil, utils.BadRequest("Order ID and items are required")
	}
	db := s.DB.WithContext(ctx)

	var order models.Order
	if err := db.First(&order, orderID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NotFound("Order not found")
		}
		return nil, utils.Internal(err)
	}
	if order.BillIsSettle {
		return nil, utils.BadRequest("Cannot modify order that has been settled")
	}

	if sessionPin != "" && order.TableID != nil {
		var table models.Table
		err := db.First(&table, *order.TableID).Error
		if err != nil && !utils.IsNotFound(err) {
			return nil, utils.Internal(err)
		}
		if err != nil || !table.VerifyPin(sessionPin) {
			return nil, utils.Forbidden("Invalid PIN. Please check the PIN and try again.").WithFlag("invalidPin", true)
		}
	}

	added := make([]models.OrderItem, 0, len(items))
	for _, it := range items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		mods := it.Modifiers
		if mods == nil {
			mods = []models.SelectedModifier{}
		}
		added = append(added, models.OrderItem{
			OrderID:           order.ID,
			ItemID:            it.ItemID,
			ItemName:          it.ItemName,
			ItemImage:         it.ItemImage,
			Quantity:          qty,
			Price:             it.Price,
			ActualPrice:       OriginalPrice(it.Price, it.Discount),
			Discount:          it.Discount,
			SelectedModifiers: datatypes.NewJSONType(mods),
			ItemTotal:         it.Price * float64(qty),
		})
	}
	if err := db.Create(&added).Error; err != nil {
		return nil, utils.Internal(err)
	}

	extra := sumItemTotals(added)
	order.Subtotal += extra
	order.Total += extra
	if err := db.Model(&order).Updates(map[string]interface{}{
		"subtotal": order.Subtotal,
		"total":    order.Total,
	}).Error; err != nil {
		return nil, utils.Internal(err)
	}
	if err := db.Where("order_id = ?", order.ID).Order("id ASC").Find(&order.Items).Error; err != nil {
		return nil, utils.Internal(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"customerId":   customer.ID,
		"orderId":      order.ID,
		"newItemCount": len(added),
		"updatedTotal": order.Total,
	}).Info("items added to order")

	s.sendKOT(ctx, &order, KOTInput{
		KOTType: models.KOTTypeAmendment,
		Items:   kotItemsFrom(added),
		Reason:  reasonAddItems,
	})

	return &AddItemsResult{
		OrderID:      order.ID,
		OrderNumber:  order.OrderNumber,
		NewItemCount: len(added),
		UpdatedTotal: order.Total,
		Items:        order.Items,
	}, nil
}

// GetOrder returns an order only to the customer whose mobile number it was
// placed with.
func (s *OrderService) GetOrder(ctx context.Context, customer *models.Customer, orderID uint) (*models.Order, error) {
	if orderID == 0 {
		return nil, utils.BadRequest("Order ID is required")
	}
	var order models.Order
	err := s.DB.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	}).Where("id = ? AND customer_phone = ?", orderID, customer.MobileNumber).Take(&order).Error
	if utils.IsNotFound(err) {
		return nil, utils.NotFound("Order not found")
	}
	if err != nil {
		return nil, utils.Internal(err)
	}
	return &order, nil
}

// Find loads an order by id for staff and kitchen flows.
func (s *OrderService) Find(ctx context.Context, orderID uint) (*models.Order, error) {
	var order models.Order
	if err := s.DB.WithContext(ctx).First(&order, orderID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NotFound("Order not found")
		}
		return nil, utils.Internal(err)
	}
	return &order, nil
}

// SettleBill closes every unsettled order of the customer's session, frees
// the table and ends the session. Orders are settled one by one; a failure
// part way leaves the earlier ones settled.
func (s *OrderService) SettleBill(ctx context.Context, in SettleInput) (*SettleResult, error) {
	if in.PaymentMethod == "" {
		return nil, utils.BadRequest("Payment method is required")
	}
	if !models.IsValidPaymentMethod(in.PaymentMethod) {
		return nil, utils.BadRequest("Invalid payment method")
	}
	db := s.DB.WithContext(ctx)

	var customer models.Customer
	var table *models.Table
	switch {
	case in.CustomerID != nil:
		if err := db.First(&customer, *in.CustomerID).Error; err != nil {
			if utils.IsNotFound(err) {
				return nil, utils.NotFound("Customer not found")
			}
			return nil, utils.Internal(err)
		}
	case in.TableID != nil:
		var t models.Table
		if err := db.First(&t, *in.TableID).Error; err != nil {
			if utils.IsNotFound(err) {
				return nil, utils.NotFound("Table not found")
			}
			return nil, utils.Internal(err)
		}
		if t.CustomerID == nil {
			return nil, utils.BadRequest("No customer associated with this table")
		}
		if err := db.First(&customer, *t.CustomerID).Error; err != nil {
			if utils.IsNotFound(err) {
				return nil, utils.NotFound("Customer not found for this table")
			}
			return nil, utils.Internal(err)
		}
		table = &t
	default:
		return nil, utils.BadRequest("Customer ID or Table ID is required")
	}

	active := customer.ActiveOrders()
	if len(active) == 0 {
		return nil, utils.BadRequest("No active orders to settle")
	}

	var orders []models.Order
	if err := db.Where("order_number IN ? AND bill_is_settle = ?", active, false).
		Order("id ASC").Find(&orders).Error; err != nil {
		return nil, utils.Internal(err)
	}
	if len(orders) == 0 {
		return nil, utils.NotFound("No unsettled orders found")
	}

	result := &SettleResult{SettledOrders: []string{}}
	for i := range orders {
		o := &orders[i]
		o.Settle(in.PaymentMethod)
		if err := db.Model(o).Updates(map[string]interface{}{
			"payment_method": o.PaymentMethod,
			"payment_status": o.PaymentStatus,
			"bill_is_settle": o.BillIsSettle,
			"order_status":   o.OrderStatus,
		}).Error; err != nil {
			return nil, utils.Internal(err)
		}
		result.TotalAmount += o.Total
		result.SettledOrders = append(result.SettledOrders, o.OrderNumber)
		utils.InfoLogger.WithFields(logrus.Fields{
			"staffUserId": in.StaffUserID,
			"customerId":  customer.ID,
			"orderNumber": o.OrderNumber,
			"amount":      o.Total,
		}).Info("order settled")
	}
	result.TotalAmount = utils.RoundMoney(result.TotalAmount)
	result.OrderCount = len(result.SettledOrders)

	if customer.TableID != nil && (table == nil || table.ID != *customer.TableID) {
		var t models.Table
		err := db.First(&t, *customer.TableID).Error
		switch {
		case err == nil:
			table = &t
		case utils.IsNotFound(err):
			table = nil
		default:
			return nil, utils.Internal(err)
		}
	}
	if table != nil {
		table.MakeAvailable()
		if err := db.Model(table).
			Select("is_available", "order_id", "session_pin", "pin_generated_at", "customer_id").
			Updates(table).Error; err != nil {
			return nil, utils.Internal(err)
		}
	}

	if err := s.Sessions.EndSession(ctx, &customer); err != nil {
		return nil, utils.Internal(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"staffUserId": in.StaffUserID,
		"customerId":  customer.ID,
		"orderCount":  result.OrderCount,
		"totalAmount": result.TotalAmount,
	}).Info("bill settled")
	return result, nil
}
