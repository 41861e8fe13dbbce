package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/utils"
)

type HealthController struct {
	DB      *gorm.DB
	Started time.Time
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{DB: db, Started: time.Now()}
}

// Health -> uptime and database reachability
func (hc *HealthController) Health(c *gin.Context) {
	dbState := "up"
	if sqlDB, err := hc.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbState = "down"
	}

	code := http.StatusOK
	if dbState != "up" {
		code = http.StatusServiceUnavailable
	}
	utils.RespondJSON(c, code, "Server is running", gin.H{
		"uptime":   time.Since(hc.Started).Round(time.Second).String(),
		"database": dbState,
	})
}
