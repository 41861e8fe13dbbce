package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

type menuItemView struct {
	models.MenuItem
	FinalPrice float64 `json:"finalPrice"`
}

func toMenuViews(items []models.MenuItem) []menuItemView {
	out := make([]menuItemView, 0, len(items))
	for i := range items {
		out = append(out, menuItemView{MenuItem: items[i], FinalPrice: items[i].FinalPrice()})
	}
	return out
}

// GetAllItems -> active items sorted by name
func (mc *MenuController) GetAllItems(c *gin.Context) {
	var items []models.MenuItem
	if err := mc.DB.Where("is_active = ?", true).Order("item_name ASC").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of items", toMenuViews(items))
}

// GetItemsByCategory -> active items of ?categoryId=
func (mc *MenuController) GetItemsByCategory(c *gin.Context) {
	raw := c.Query("categoryId")
	if raw == "" {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Category ID is required"})
		return
	}
	categoryID, ok := parseID(raw)
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid category ID"})
		return
	}

	var items []models.MenuItem
	if err := mc.DB.Where("category_id = ? AND is_active = ?", categoryID, true).
		Order("item_name ASC").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of items by category", toMenuViews(items))
}
