package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/table-ordering/utils"
)

type QRController struct{}

func NewQRController() *QRController {
	return &QRController{}
}

func emptyTableID(v interface{}) bool {
	switch id := v.(type) {
	case nil:
		return true
	case string:
		return id == ""
	case float64:
		return id == 0
	}
	return false
}

// EncryptTableData -> payload for a table QR link
func (qc *QRController) EncryptTableData(c *gin.Context) {
	var req utils.TablePayload
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.TableName == "" || emptyTableID(req.TableID) {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "tableName and tableId are required"})
		return
	}

	encoded, err := utils.EncodeTablePayload(req)
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, &utils.CustomError{Message: "Error encrypting data"})
		return
	}
	utils.InfoLogger.WithFields(logrus.Fields{"tableName": req.TableName, "tableId": req.TableID}).Info("table data encrypted")
	c.JSON(http.StatusOK, gin.H{"success": true, "encryptedData": encoded})
}

// DecryptTableData -> inverse of EncryptTableData
func (qc *QRController) DecryptTableData(c *gin.Context) {
	var req struct {
		EncryptedData string `json:"encryptedData"`
	}
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.EncryptedData == "" {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "encryptedData is required"})
		return
	}

	payload, err := utils.DecodeTablePayload(req.EncryptedData)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, &utils.CustomError{Message: "Invalid encrypted data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": payload})
}
