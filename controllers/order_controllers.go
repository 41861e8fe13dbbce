package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/middlewares"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

type OrderController struct {
	DB       *gorm.DB
	Orders   *services.OrderService
	Sessions *services.SessionService
}

func NewOrderController(db *gorm.DB, orders *services.OrderService, sessions *services.SessionService) *OrderController {
	return &OrderController{DB: db, Orders: orders, Sessions: sessions}
}

// optionalID parses an optional numeric query parameter.
func optionalID(c *gin.Context, key string) (*uint, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	id, ok := parseID(raw)
	if !ok {
		return nil, false
	}
	return &id, true
}

// bindOptionalJSON binds a body that may be left out entirely. A malformed
// body is answered with 400 and false.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		utils.RespondError(c, http.StatusBadRequest, err)
		return false
	}
	return true
}

// PlaceOrder -> create an order, or merge into the open order of the table
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	var req services.PlaceOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := oc.Orders.PlaceOrder(c.Request.Context(), middlewares.CurrentCustomer(c), req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	msg := "Order placed successfully"
	if res.IsUpdate {
		msg = "Items added to existing order successfully"
	}
	utils.RespondJSON(c, http.StatusCreated, msg, res)
}

// GetOrder -> ?orderId=, only for the customer who placed it
func (oc *OrderController) GetOrder(c *gin.Context) {
	id, ok := optionalID(c, "orderId")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid order ID"})
		return
	}
	var orderID uint
	if id != nil {
		orderID = *id
	}

	order, err := oc.Orders.GetOrder(c.Request.Context(), middlewares.CurrentCustomer(c), orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order retrieved successfully", order)
}

// AddItems -> append items to ?orderId=
func (oc *OrderController) AddItems(c *gin.Context) {
	id, ok := optionalID(c, "orderId")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid order ID"})
		return
	}
	var req struct {
		Items      []services.OrderItemInput `json:"items"`
		SessionPin string                    `json:"sessionPin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	var orderID uint
	if id != nil {
		orderID = *id
	}

	res, err := oc.Orders.AddItems(c.Request.Context(), middlewares.CurrentCustomer(c), orderID, req.Items, req.SessionPin)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Items added to order successfully", res)
}

// VerifyPin -> lets the client check a PIN before ordering
func (oc *OrderController) VerifyPin(c *gin.Context) {
	var req struct {
		TableID    uint   `json:"tableId"`
		SessionPin string `json:"sessionPin"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.SessionPin == "" {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Session PIN is required"})
		return
	}
	if req.TableID == 0 {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Table ID is required"})
		return
	}

	customer := middlewares.CurrentCustomer(c)
	table, err := oc.Sessions.VerifyPin(c.Request.Context(), req.TableID, req.SessionPin, customer.ID)
	if err != nil {
		if utils.StatusOf(err) == http.StatusForbidden {
			utils.RespondJSONWithFlags(c, http.StatusForbidden, err.Error(), nil, gin.H{"isValid": false})
			return
		}
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSONWithFlags(c, http.StatusOK, "PIN verified successfully", gin.H{
		"tableId":   table.ID,
		"tableName": table.TableName,
	}, gin.H{"isValid": true})
}

// SettleBill -> staff closes every open order of a session
func (oc *OrderController) SettleBill(c *gin.Context) {
	customerID, ok := optionalID(c, "customerId")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid customer ID"})
		return
	}
	tableID, ok := optionalID(c, "tableId")
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid table ID"})
		return
	}

	in := services.SettleInput{
		PaymentMethod: c.Query("paymentMethod"),
		CustomerID:    customerID,
		TableID:       tableID,
	}
	if staff := middlewares.CurrentStaff(c); staff != nil {
		in.StaffUserID = staff.UserID
	}

	res, err := oc.Orders.SettleBill(c.Request.Context(), in)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSONWithFlags(c, http.StatusOK, "Bill settled successfully. Thank you for your visit!", res, gin.H{
		"sessionEnded":    true,
		"requiresNewScan": true,
	})
}
