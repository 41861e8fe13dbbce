package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/middlewares"
	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

type CustomerController struct {
	DB       *gorm.DB
	Sessions *services.SessionService
	Tokens   *services.TokenService
}

func NewCustomerController(db *gorm.DB, sessions *services.SessionService, tokens *services.TokenService) *CustomerController {
	return &CustomerController{DB: db, Sessions: sessions, Tokens: tokens}
}

// Register -> QR scan entry point, starts a fresh session for the device
func (cc *CustomerController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res, err := cc.Sessions.Register(c.Request.Context(), req)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}

	msg := "Customer logged in successfully"
	if res.IsNew {
		msg = "Customer registered successfully"
	}
	utils.RespondJSON(c, http.StatusOK, msg, res)
}

// RefreshToken -> trade a refresh token for a new access token
func (cc *CustomerController) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.RefreshToken == "" {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Refresh token is required"})
		return
	}

	access, _, err := cc.Tokens.Refresh(c.Request.Context(), req.RefreshToken, middlewares.BearerToken(c))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Access token refreshed successfully", gin.H{
		"accessToken": access,
		"expiresIn":   services.FormatTTL(cc.Tokens.AccessTTL()),
	})
}

type customerProfile struct {
	*models.Customer
	Table *tableSummary `json:"table"`
}

type tableSummary struct {
	ID          uint   `json:"id"`
	TableName   string `json:"tableName"`
	Pax         int    `json:"pax"`
	IsAvailable bool   `json:"isAvailable"`
}

// Me -> current customer with its table
func (cc *CustomerController) Me(c *gin.Context) {
	customer := middlewares.CurrentCustomer(c)
	profile := customerProfile{Customer: customer}

	if customer.TableID != nil {
		var table models.Table
		err := cc.DB.WithContext(c.Request.Context()).First(&table, *customer.TableID).Error
		if err != nil && !utils.IsNotFound(err) {
			utils.RespondAppError(c, utils.Internal(err))
			return
		}
		if err == nil {
			profile.Table = &tableSummary{
				ID:          table.ID,
				TableName:   table.TableName,
				Pax:         table.Pax,
				IsAvailable: table.IsAvailable,
			}
		}
	}
	utils.RespondJSON(c, http.StatusOK, "Customer retrieved successfully", gin.H{"customer": profile})
}

// Logout -> end the session and revoke the presented token
func (cc *CustomerController) Logout(c *gin.Context) {
	customer := middlewares.CurrentCustomer(c)
	if err := cc.Sessions.Logout(c.Request.Context(), customer, middlewares.CurrentToken(c)); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out successfully", nil)
}
