package services

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/utils"
)

type CredentialKind int

const (
	CredentialInvalid CredentialKind = iota
	CredentialCustomer
	CredentialStaff
)

func (k CredentialKind) String() string {
	switch k {
	case CredentialCustomer:
		return "customer"
	case CredentialStaff:
		return "staff"
	}
	return "invalid"
}

// AuthResult is exactly one of: a customer with a live session, a staff
// identity, or invalid with the error that explains why.
type AuthResult struct {
	Kind     CredentialKind
	Customer *models.Customer
	Claims   *utils.CustomerClaims
	Staff    *utils.StaffClaims
	Err      error
}

func invalid(err error) AuthResult {
	return AuthResult{Kind: CredentialInvalid, Err: err}
}

// AuthService verifies bearer tokens for both actor classes through one
// entry point.
type AuthService struct {
	Tokens   *TokenService
	Sessions *SessionService
}

func NewAuthService(tokens *TokenService, sessions *SessionService) *AuthService {
	return &AuthService{Tokens: tokens, Sessions: sessions}
}

// Authenticate checks token as a credential of kind want.
func (as *AuthService) Authenticate(ctx context.Context, want CredentialKind, token string) AuthResult {
	switch want {
	case CredentialCustomer:
		return as.authenticateCustomer(ctx, token)
	case CredentialStaff:
		return as.authenticateStaff(ctx, token)
	}
	return invalid(utils.Unauthorized("Unsupported credential."))
}

func (as *AuthService) authenticateCustomer(ctx context.Context, token string) AuthResult {
	if token == "" {
		return invalid(utils.Unauthorized("Access denied. No token provided."))
	}

	blacklisted, err := as.Tokens.IsBlacklisted(ctx, token)
	if err != nil {
		return invalid(utils.Internal(err))
	}
	if blacklisted {
		return invalid(utils.Unauthorized("Token has been invalidated. Please refresh your token.").
			WithFlag("requiresRefresh", true))
	}

	claims, err := as.Tokens.ParseCustomer(token)
	if errors.Is(err, utils.ErrTokenExpired) {
		if bErr := as.Tokens.Blacklist(ctx, models.TokenBlacklist{
			Token:      token,
			CustomerID: &claims.CustomerID,
			Reason:     models.BlacklistReasonExpired,
			ExpiresAt:  utils.ExpiresAt(claims.RegisteredClaims, as.Tokens.Now().Add(as.Tokens.AccessTTL())),
		}); bErr != nil {
			utils.ErrorLogger.WithField("customerId", claims.CustomerID).WithError(bErr).Warn("blacklisting expired token failed")
		}
		return invalid(utils.Unauthorized("Token has expired. Please refresh your token.").
			WithFlag("requiresRefresh", true))
	}
	if err != nil {
		return invalid(utils.Unauthorized("Invalid token."))
	}

	customer, err := as.Sessions.ResolveCustomer(ctx, claims)
	if err != nil {
		return invalid(err)
	}
	return AuthResult{Kind: CredentialCustomer, Customer: customer, Claims: claims}
}

func (as *AuthService) authenticateStaff(ctx context.Context, token string) AuthResult {
	if token == "" {
		return invalid(utils.Unauthorized("Access token is required"))
	}

	blacklisted, err := as.Tokens.IsBlacklisted(ctx, token)
	if err != nil {
		return invalid(utils.Internal(err))
	}
	if blacklisted {
		return invalid(utils.Unauthorized("Token has been invalidated"))
	}

	claims, err := as.Tokens.ParseStaff(token)
	if errors.Is(err, utils.ErrTokenExpired) {
		entry := models.TokenBlacklist{
			Token:     token,
			Reason:    models.BlacklistReasonExpired,
			ExpiresAt: utils.ExpiresAt(claims.RegisteredClaims, as.Tokens.Now()),
		}
		if claims.UserID != 0 {
			entry.UserID = &claims.UserID
		}
		if bErr := as.Tokens.Blacklist(ctx, entry); bErr != nil {
			utils.ErrorLogger.WithFields(logrus.Fields{"userId": claims.UserID}).WithError(bErr).Warn("blacklisting expired staff token failed")
		}
		return invalid(utils.Unauthorized("Token has expired"))
	}
	if err != nil {
		return invalid(utils.Unauthorized("Invalid token - signature verification failed."))
	}

	if claims.UserID == 0 || claims.UserName == "" || claims.UserType == "" {
		return invalid(utils.Unauthorized("Invalid token structure. Required fields missing."))
	}
	if claims.UserType != models.UserTypeStaff {
		return invalid(utils.Unauthorized("Invalid token type. Staff token required."))
	}
	return AuthResult{Kind: CredentialStaff, Staff: claims}
}
