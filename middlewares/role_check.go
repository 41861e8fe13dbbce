package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-ordering/utils"
)

// RequireRole admits staff whose role is one of roles. It must run after
// RequireStaff.
func RequireRole(roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		staff := CurrentStaff(c)
		if staff == nil {
			utils.RespondError(c, http.StatusUnauthorized, &utils.CustomError{Message: "unauthorized"})
			c.Abort()
			return
		}

		for _, r := range roles {
			if staff.Role == r {
				c.Next()
				return
			}
		}
		utils.RespondError(c, http.StatusForbidden, utils.ErrNoPermission)
		c.Abort()
	}
}
