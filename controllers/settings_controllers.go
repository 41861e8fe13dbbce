package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/utils"
)

type SettingsController struct {
	DB *gorm.DB
}

func NewSettingsController(db *gorm.DB) *SettingsController {
	return &SettingsController{DB: db}
}

// GetOutletConfig -> the settings singleton, created with defaults on first read
func (sc *SettingsController) GetOutletConfig(c *gin.Context) {
	var settings models.Settings
	err := sc.DB.WithContext(c.Request.Context()).
		Order("id ASC").
		Attrs(models.DefaultSettings()).
		FirstOrCreate(&settings).Error
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("loading outlet configuration failed")
		utils.RespondError(c, http.StatusInternalServerError, &utils.CustomError{Message: "Error fetching outlet configuration"})
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Outlet configuration fetched successfully", settings)
}
