package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

// RespondJSONWithFlags writes the envelope plus extra top-level fields such
// as sessionEnded or requiresNewScan.
func RespondJSONWithFlags(c *gin.Context, code int, message string, data interface{}, flags gin.H) {
	body := gin.H{
		"status":  code >= 200 && code < 300,
		"message": message,
	}
	if data != nil {
		body["data"] = data
	}
	for k, v := range flags {
		body[k] = v
	}
	c.JSON(code, body)
}

func RespondError(c *gin.Context, code int, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) && len(appErr.Flags) > 0 {
		RespondJSONWithFlags(c, code, appErr.Error(), nil, appErr.Flags)
		return
	}
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondAppError maps err to its HTTP status. Errors that are not an
// *AppError become a 500.
func RespondAppError(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondError(c, appErr.Code, appErr)
		return
	}
	ErrorLogger.WithError(err).WithField("path", c.Request.URL.Path).Error("unhandled error")
	RespondError(c, http.StatusInternalServerError, err)
}
