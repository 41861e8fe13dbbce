package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

type TableController struct {
	DB       *gorm.DB
	Sessions *services.SessionService
}

func NewTableController(db *gorm.DB, sessions *services.SessionService) *TableController {
	return &TableController{DB: db, Sessions: sessions}
}

func parseID(raw string) (uint, bool) {
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// CreateTable -> adds a new table, free and without PIN
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableName string `json:"tableName" binding:"required"`
		Pax       *int   `json:"pax"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{
		TableName:   req.TableName,
		Pax:         models.DefaultTablePax,
		IsAvailable: true,
	}
	if req.Pax != nil {
		if *req.Pax < models.MinTablePax || *req.Pax > models.MaxTablePax {
			utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Pax must be between 1 and 50"})
			return
		}
		table.Pax = *req.Pax
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Table name already exists"})
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{"tableId": table.ID, "tableName": table.TableName}).Info("table created")
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> every table, optionally filtered with ?available=true|false
func (tc *TableController) GetAllTables(c *gin.Context) {
	query := tc.DB.Order("table_name ASC")
	if raw := c.Query("available"); raw != "" {
		available, err := strconv.ParseBool(raw)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "available must be true or false"})
			return
		}
		query = query.Where("is_available = ?", available)
	}

	var tables []models.Table
	if err := query.Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", gin.H{
		"tables": tables,
		"stats":  tc.tableStats(),
	})
}

// GetTableByID -> one table
func (tc *TableController) GetTableByID(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid table ID"})
		return
	}
	var table models.Table
	if err := tc.DB.First(&table, id).Error; err != nil {
		if utils.IsNotFound(err) {
			utils.RespondError(c, http.StatusNotFound, &utils.CustomError{Message: "Table not found"})
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table detail", table)
}

// RegeneratePin -> new PIN for the customer seated at the table
func (tc *TableController) RegeneratePin(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid table ID"})
		return
	}
	table, pin, err := tc.Sessions.RegeneratePin(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session PIN generated successfully", gin.H{
		"tableId":        table.ID,
		"tableName":      table.TableName,
		"sessionPin":     pin,
		"customerId":     table.CustomerID,
		"pinGeneratedAt": table.PinGeneratedAt,
	})
}

func (tc *TableController) tableStats() map[string]int64 {
	var available, occupied int64
	tc.DB.Model(&models.Table{}).Where("is_available = ?", true).Count(&available)
	tc.DB.Model(&models.Table{}).Where("is_available = ?", false).Count(&occupied)

	return map[string]int64{
		"available": available,
		"occupied":  occupied,
		"total":     available + occupied,
	}
}
