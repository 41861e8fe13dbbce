package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

const tokenIssuer = "TableOrdering"

var (
	ErrTokenExpired = &CustomError{"token has expired"}
	ErrTokenInvalid = &CustomError{"invalid token"}
)

// CustomerClaims is the payload of customer access and refresh tokens.
// SessionVersion ties the token to one QR-scan session.
type CustomerClaims struct {
	CustomerID     uint   `json:"customerId"`
	Type           string `json:"type"`
	SessionVersion int    `json:"sv"`
	jwt.RegisteredClaims
}

// StaffClaims is the payload of staff tokens, signed with a separate secret.
type StaffClaims struct {
	UserID   uint   `json:"userId"`
	UserName string `json:"userName"`
	Role     int    `json:"role"`
	UserType string `json:"userType"`
	jwt.RegisteredClaims
}

// Signer signs and parses HS256 tokens with one secret.
type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

// RegisteredClaims builds the standard block with a unique jti so two tokens
// issued in the same second never share a string.
func RegisteredClaims(now time.Time, ttl time.Duration) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
}

func (s *Signer) Sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ParseCustomer verifies a customer token. On expiry the decoded claims are
// still returned together with ErrTokenExpired.
func (s *Signer) ParseCustomer(tokenString string) (*CustomerClaims, error) {
	claims := &CustomerClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return claims, err
		}
		return nil, err
	}
	return claims, nil
}

// ParseStaff verifies a staff token. On expiry the decoded claims are still
// returned together with ErrTokenExpired.
func (s *Signer) ParseStaff(tokenString string) (*StaffClaims, error) {
	claims := &StaffClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		if errors.Is(err, ErrTokenExpired) {
			return claims, err
		}
		return nil, err
	}
	return claims, nil
}

func (s *Signer) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && token != nil {
			return ErrTokenExpired
		}
		return ErrTokenInvalid
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}

// ExpiresAt returns the exp claim, or fallback when the token has none.
func ExpiresAt(rc jwt.RegisteredClaims, fallback time.Time) time.Time {
	if rc.ExpiresAt == nil {
		return fallback
	}
	return rc.ExpiresAt.Time
}
