package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/middlewares"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

type CartController struct {
	DB    *gorm.DB
	Carts *services.CartService
}

func NewCartController(db *gorm.DB, carts *services.CartService) *CartController {
	return &CartController{DB: db, Carts: carts}
}

func requiredQueryID(c *gin.Context, key, message string) (uint, bool) {
	id, ok := parseID(c.Query(key))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: message})
		return 0, false
	}
	return id, true
}

// AddToCart -> reuse the open cart of the customer or start a new one
func (cc *CartController) AddToCart(c *gin.Context) {
	var req struct {
		ItemID    uint    `json:"itemId"`
		TableID   *uint   `json:"tableId"`
		TableName *string `json:"tableName"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.Add(c.Request.Context(), middlewares.CurrentCustomer(c), req.ItemID, req.TableID, req.TableName)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item added to cart successfully", cart)
}

// UpdateCart -> add an item to ?cartId=
func (cc *CartController) UpdateCart(c *gin.Context) {
	cartID, ok := requiredQueryID(c, "cartId", "Cart ID is required")
	if !ok {
		return
	}
	var req struct {
		ItemID uint `json:"itemId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	cart, err := cc.Carts.Update(c.Request.Context(), middlewares.CurrentCustomer(c), cartID, req.ItemID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated successfully", cart)
}

func (cc *CartController) GetCart(c *gin.Context) {
	cartID, ok := requiredQueryID(c, "cartId", "Cart ID is required")
	if !ok {
		return
	}

	view, err := cc.Carts.Get(c.Request.Context(), middlewares.CurrentCustomer(c), cartID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSONWithFlags(c, http.StatusOK, "Cart items fetched successfully", view, gin.H{
		"count": len(view.MenuItems),
	})
}

func (cc *CartController) RemoveCartItem(c *gin.Context) {
	cartID, ok := requiredQueryID(c, "cartId", "Cart ID is required")
	if !ok {
		return
	}
	itemID, ok := requiredQueryID(c, "itemId", "Item ID is required")
	if !ok {
		return
	}

	cart, err := cc.Carts.RemoveItem(c.Request.Context(), middlewares.CurrentCustomer(c), cartID, itemID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Item removed from cart successfully", cart)
}

// UpdateCartOrderStatus -> client side flagging of ?cartId= as ordered
func (cc *CartController) UpdateCartOrderStatus(c *gin.Context) {
	cartID, ok := requiredQueryID(c, "cartId", "Cart ID is required")
	if !ok {
		return
	}
	var req struct {
		OrderID       *string `json:"orderId"`
		OrderIsPlaced *bool   `json:"orderIsPlaced"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.OrderID != nil && req.OrderIsPlaced == nil {
		placed := true
		req.OrderIsPlaced = &placed
	}

	cart, err := cc.Carts.SetOrderStatus(c.Request.Context(), middlewares.CurrentCustomer(c), cartID, req.OrderID, req.OrderIsPlaced)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart order status updated successfully", cart)
}
