package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/middlewares"
	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

type UserController struct {
	DB     *gorm.DB
	Tokens *services.TokenService
}

func NewUserController(db *gorm.DB, tokens *services.TokenService) *UserController {
	return &UserController{DB: db, Tokens: tokens}
}

var errInvalidCredentials = &utils.CustomError{Message: "Invalid username or password"}

// Register -> admin creates a staff or admin account
func (uc *UserController) Register(c *gin.Context) {
	var req struct {
		UserName     string `json:"userName" binding:"required"`
		Password     string `json:"password" binding:"required,min=6"`
		StaffName    string `json:"staffName"`
		Role         int    `json:"role"`
		MobileNumber string `json:"mobileNumber"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Role == 0 {
		req.Role = models.RoleStaff
	}
	if !models.IsValidRole(req.Role) {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid role"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	user := models.User{
		UserName:     strings.TrimSpace(req.UserName),
		StaffName:    req.StaffName,
		Password:     string(hashed),
		Role:         req.Role,
		MobileNumber: req.MobileNumber,
		IsActive:     true,
	}
	if err := uc.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		if utils.IsDuplicateKey(err) {
			utils.RespondError(c, http.StatusConflict, &utils.CustomError{Message: "User name already exists"})
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{"userId": user.ID, "role": user.Role}).Info("staff account created")
	utils.RespondJSON(c, http.StatusCreated, "User registered", user)
}

// Login -> staff access token
func (uc *UserController) Login(c *gin.Context) {
	var input struct {
		UserName string `json:"userName" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).Where("user_name = ?", input.UserName).First(&user).Error; err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}
	if !user.IsActive {
		utils.RespondError(c, http.StatusForbidden, &utils.CustomError{Message: "Account is disabled"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		utils.RespondError(c, http.StatusUnauthorized, errInvalidCredentials)
		return
	}

	token, err := uc.Tokens.IssueStaffAccess(&user)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.WithFields(logrus.Fields{"userId": user.ID, "userName": user.UserName}).Info("staff login")
	utils.RespondJSON(c, http.StatusOK, "Login successful", gin.H{
		"accessToken": token,
		"user":        user,
	})
}

// Logout -> blacklists the token the request came with
func (uc *UserController) Logout(c *gin.Context) {
	claims := middlewares.CurrentStaff(c)
	entry := models.TokenBlacklist{
		Token:     middlewares.CurrentToken(c),
		UserID:    &claims.UserID,
		Reason:    models.BlacklistReasonLogout,
		ExpiresAt: utils.ExpiresAt(claims.RegisteredClaims, uc.Tokens.Now().Add(uc.Tokens.AccessTTL())),
	}
	if err := uc.Tokens.Blacklist(c.Request.Context(), entry); err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Logged out successfully", nil)
}

// GetProfile -> the staff account behind the token
func (uc *UserController) GetProfile(c *gin.Context) {
	claims := middlewares.CurrentStaff(c)
	var user models.User
	if err := uc.DB.WithContext(c.Request.Context()).First(&user, claims.UserID).Error; err != nil {
		if utils.IsNotFound(err) {
			utils.RespondError(c, http.StatusNotFound, &utils.CustomError{Message: "User not found"})
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Profile retrieved", user)
}
