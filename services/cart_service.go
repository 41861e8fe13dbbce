package services

import (
	"context"

	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/utils"
)

// CartService mutates the single open cart of a customer. Reads and writes
// are not guarded: two concurrent adds may lose one of the items.
type CartService struct {
	DB *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{DB: db}
}

type CartView struct {
	models.Cart
	MenuItems []models.MenuItem `json:"menuItems,omitempty"`
}

func (cs *CartService) orderableItem(ctx context.Context, itemID uint) (*models.MenuItem, error) {
	var item models.MenuItem
	if err := cs.DB.WithContext(ctx).First(&item, itemID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NotFound("Item not found")
		}
		return nil, utils.Internal(err)
	}
	if !item.IsActive {
		return nil, utils.BadRequest("Item is not available")
	}
	return &item, nil
}

// Add puts itemID in the customer's open cart, creating the cart on first
// use. Table fields are overwritten only when supplied.
func (cs *CartService) Add(ctx context.Context, customer *models.Customer, itemID uint, tableID *uint, tableName *string) (*models.Cart, error) {
	if itemID == 0 {
		return nil, utils.BadRequest("Item ID is required")
	}
	if _, err := cs.orderableItem(ctx, itemID); err != nil {
		return nil, err
	}

	db := cs.DB.WithContext(ctx)
	var cart models.Cart
	err := db.Where("customer_id = ? AND order_is_placed = ?", customer.ID, false).Take(&cart).Error
	switch {
	case err == nil:
		cart.AddItem(itemID)
		if tableID != nil {
			cart.TableID = tableID
		}
		if tableName != nil {
			cart.TableName = *tableName
		}
		err = db.Save(&cart).Error
	case utils.IsNotFound(err):
		cart = models.Cart{
			CustomerID:   customer.ID,
			MobileNumber: customer.MobileNumber,
			Items:        datatypes.NewJSONType([]uint{itemID}),
			TableID:      tableID,
		}
		if tableName != nil {
			cart.TableName = *tableName
		}
		err = db.Create(&cart).Error
	}
	if err != nil {
		return nil, utils.Internal(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"customerId": customer.ID,
		"cartId":     cart.ID,
		"itemId":     itemID,
	}).Info("item added to cart")
	return &cart, nil
}

func (cs *CartService) openCart(ctx context.Context, customer *models.Customer, cartID uint) (*models.Cart, error) {
	var cart models.Cart
	err := cs.DB.WithContext(ctx).
		Where("id = ? AND customer_id = ? AND order_is_placed = ?", cartID, customer.ID, false).
		Take(&cart).Error
	if utils.IsNotFound(err) {
		return nil, utils.NotFound("Cart not found or order already placed")
	}
	if err != nil {
		return nil, utils.Internal(err)
	}
	return &cart, nil
}

// Update adds itemID to a specific open cart.
func (cs *CartService) Update(ctx context.Context, customer *models.Customer, cartID, itemID uint) (*models.Cart, error) {
	if itemID == 0 {
		return nil, utils.BadRequest("Item ID is required")
	}
	cart, err := cs.openCart(ctx, customer, cartID)
	if err != nil {
		return nil, err
	}
	if _, err := cs.orderableItem(ctx, itemID); err != nil {
		return nil, err
	}
	if cart.AddItem(itemID) {
		if err := cs.DB.WithContext(ctx).Save(cart).Error; err != nil {
			return nil, utils.Internal(err)
		}
	}
	return cart, nil
}

func (cs *CartService) RemoveItem(ctx context.Context, customer *models.Customer, cartID, itemID uint) (*models.Cart, error) {
	if itemID == 0 {
		return nil, utils.BadRequest("Item ID is required")
	}
	cart, err := cs.openCart(ctx, customer, cartID)
	if err != nil {
		return nil, err
	}
	if !cart.RemoveItem(itemID) {
		return nil, utils.NotFound("Item not found in cart")
	}
	if err := cs.DB.WithContext(ctx).Save(cart).Error; err != nil {
		return nil, utils.Internal(err)
	}
	return cart, nil
}

// Get returns the cart with its menu items in cart order. A cart that was
// already turned into an order is rejected.
func (cs *CartService) Get(ctx context.Context, customer *models.Customer, cartID uint) (*CartView, error) {
	db := cs.DB.WithContext(ctx)
	var cart models.Cart
	if err := db.Where("id = ? AND customer_id = ?", cartID, customer.ID).Take(&cart).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NotFound("Cart not found")
		}
		return nil, utils.Internal(err)
	}
	if cart.OrderIsPlaced {
		return nil, utils.BadRequest("Order has already been placed for this cart").WithFlag("orderId", cart.OrderID)
	}

	ids := cart.ItemIDs()
	view := &CartView{Cart: cart, MenuItems: []models.MenuItem{}}
	if len(ids) == 0 {
		return view, nil
	}
	var items []models.MenuItem
	if err := db.Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, utils.Internal(err)
	}
	byID := make(map[uint]models.MenuItem, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			view.MenuItems = append(view.MenuItems, it)
		}
	}
	return view, nil
}

// SetOrderStatus lets the client flag a cart by hand. Nil fields are left
// unchanged.
func (cs *CartService) SetOrderStatus(ctx context.Context, customer *models.Customer, cartID uint, orderID *string, placed *bool) (*models.Cart, error) {
	db := cs.DB.WithContext(ctx)
	var cart models.Cart
	if err := db.Where("id = ? AND customer_id = ?", cartID, customer.ID).Take(&cart).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NotFound("Cart not found")
		}
		return nil, utils.Internal(err)
	}
	if orderID != nil {
		cart.OrderID = *orderID
	}
	if placed != nil {
		cart.OrderIsPlaced = *placed
	}
	if err := db.Save(&cart).Error; err != nil {
		return nil, utils.Internal(err)
	}
	return &cart, nil
}

// markPlaced flags the customer's open cart cartID as turned into
// orderNumber. A missing cart is only logged.
func (cs *CartService) markPlaced(ctx context.Context, customerID, cartID uint, orderNumber string) error {
	db := cs.DB.WithContext(ctx)
	var cart models.Cart
	err := db.Where("id = ? AND customer_id = ? AND order_is_placed = ?", cartID, customerID, false).Take(&cart).Error
	if utils.IsNotFound(err) {
		utils.ErrorLogger.WithFields(logrus.Fields{"cartId": cartID, "customerId": customerID}).Warn("cart not found for order update")
		return nil
	}
	if err != nil {
		return err
	}
	cart.MarkPlaced(orderNumber)
	return db.Save(&cart).Error
}
