package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

const (
	ctxCustomer       = "customer"
	ctxCustomerClaims = "customerClaims"
	ctxStaff          = "staff"
	ctxToken          = "token"
)

// Authenticator resolves a bearer token into an AuthResult.
type Authenticator interface {
	Authenticate(ctx context.Context, want services.CredentialKind, token string) services.AuthResult
}

// BearerToken returns the token of an "Authorization: Bearer <token>" header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func RequireCustomer(auth Authenticator) gin.HandlerFunc {
	return requireCredential(auth, services.CredentialCustomer)
}

func RequireStaff(auth Authenticator) gin.HandlerFunc {
	return requireCredential(auth, services.CredentialStaff)
}

func requireCredential(auth Authenticator, want services.CredentialKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		res := auth.Authenticate(c.Request.Context(), want, token)
		if res.Kind != want {
			utils.RespondAppError(c, res.Err)
			c.Abort()
			return
		}

		c.Set(ctxToken, token)
		switch res.Kind {
		case services.CredentialCustomer:
			c.Set(ctxCustomer, res.Customer)
			c.Set(ctxCustomerClaims, res.Claims)
		case services.CredentialStaff:
			c.Set(ctxStaff, res.Staff)
		}
		c.Next()
	}
}

func CurrentCustomer(c *gin.Context) *models.Customer {
	v, ok := c.Get(ctxCustomer)
	if !ok {
		return nil
	}
	customer, _ := v.(*models.Customer)
	return customer
}

func CurrentStaff(c *gin.Context) *utils.StaffClaims {
	v, ok := c.Get(ctxStaff)
	if !ok {
		return nil
	}
	claims, _ := v.(*utils.StaffClaims)
	return claims
}

// CurrentToken is the raw bearer token the request was authenticated with.
func CurrentToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
