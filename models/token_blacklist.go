package models

import "time"

const (
	BlacklistReasonExpired           = "expired"
	BlacklistReasonLogout            = "logout"
	BlacklistReasonRefreshed         = "refreshed"
	BlacklistReasonNewSessionStarted = "new_session_started"
)

// TokenBlacklist marks one token string as unusable until ExpiresAt, which
// mirrors the token's own exp claim.
type TokenBlacklist struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Token      string    `gorm:"type:varchar(512);uniqueIndex;not null" json:"-"`
	UserID     *uint     `gorm:"index" json:"userId"`
	CustomerID *uint     `gorm:"index" json:"customerId"`
	Reason     string    `gorm:"type:varchar(32);not null;default:'expired'" json:"reason"`
	ExpiresAt  time.Time `gorm:"not null;index" json:"expiresAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (TokenBlacklist) TableName() string {
	return "token_blacklist"
}
