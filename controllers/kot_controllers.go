package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

type KOTController struct {
	DB     *gorm.DB
	KOTs   *services.KOTService
	Orders *services.OrderService
}

func NewKOTController(db *gorm.DB, kots *services.KOTService, orders *services.OrderService) *KOTController {
	return &KOTController{DB: db, KOTs: kots, Orders: orders}
}

type kotItemRequest struct {
	ItemID    uint                      `json:"itemId"`
	ItemName  string                    `json:"itemName"`
	Quantity  int                       `json:"quantity"`
	Modifiers []models.SelectedModifier `json:"modifiers"`
	Price     float64                   `json:"price"`
}

// SendKOT -> manual kitchen ticket for an existing order
func (kc *KOTController) SendKOT(c *gin.Context) {
	var req struct {
		OrderID uint             `json:"orderId"`
		KOTType string           `json:"kotType"`
		Items   []kotItemRequest `json:"items"`
		Reason  string           `json:"reason"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.OrderID == 0 || req.KOTType == "" || len(req.Items) == 0 {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Order ID, KOT type, and items are required"})
		return
	}
	if !models.IsValidKOTType(req.KOTType) {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid KOT type. Must be NEW_ORDER or ORDER_AMENDMENT"})
		return
	}

	ctx := c.Request.Context()
	order, err := kc.Orders.Find(ctx, req.OrderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	items := make([]models.KOTItem, 0, len(req.Items))
	for _, it := range req.Items {
		qty := it.Quantity
		if qty <= 0 {
			qty = 1
		}
		items = append(items, models.KOTItem{
			ItemID:     it.ItemID,
			ItemName:   it.ItemName,
			Quantity:   qty,
			Modifiers:  it.Modifiers,
			Price:      it.Price,
			TotalPrice: utils.RoundMoney(it.Price * float64(qty)),
		})
	}

	kot, err := kc.KOTs.Create(ctx, order, services.KOTInput{KOTType: req.KOTType, Items: items, Reason: req.Reason})
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "KOT sent to kitchen successfully", gin.H{
		"kotId":       kot.KOTID,
		"orderId":     order.ID,
		"orderNumber": order.OrderNumber,
		"kotType":     kot.KOTType,
		"tableName":   order.TableName,
		"itemCount":   len(items),
		"timestamp":   kot.Timestamp,
	})
}

// GetKOTsByOrder -> tickets of ?orderId= in creation order
func (kc *KOTController) GetKOTsByOrder(c *gin.Context) {
	orderID, ok := parseID(c.Query("orderId"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Order ID is required"})
		return
	}
	kots, err := kc.KOTs.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSONWithFlags(c, http.StatusOK, "KOTs retrieved successfully", kots, gin.H{"count": len(kots)})
}

func (kc *KOTController) AcknowledgeKOT(c *gin.Context) {
	kotID := strings.TrimSpace(c.Query("kotId"))
	if kotID == "" {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "KOT ID is required"})
		return
	}
	var req struct {
		AcknowledgedBy string `json:"acknowledgedBy"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}

	kot, err := kc.KOTs.Acknowledge(c.Request.Context(), kotID, req.AcknowledgedBy)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "KOT acknowledged successfully", kot)
}

func (kc *KOTController) CompleteKOT(c *gin.Context) {
	kotID := strings.TrimSpace(c.Query("kotId"))
	if kotID == "" {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "KOT ID is required"})
		return
	}

	kot, err := kc.KOTs.Complete(c.Request.Context(), kotID)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "KOT completed successfully", kot)
}
