package middlewares

import (
	"github.com/gin-gonic/gin"
)

// WebSocketTokenFromQuery lets browsers, which cannot set headers on a
// websocket handshake, pass the bearer token as ?token=.
func WebSocketTokenFromQuery() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			if token := c.Query("token"); token != "" {
				c.Request.Header.Set("Authorization", "Bearer "+token)
			}
		}
		c.Next()
	}
}
