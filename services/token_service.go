package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/utils"
)

const blacklistCachePrefix = "blacklist:"

type TokenConfig struct {
	CustomerSecret string
	StaffSecret    string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	StaffTTL       time.Duration
}

// TokenService issues and revokes customer and staff credentials. Revocation
// state lives in the token_blacklist and refresh_tokens tables; Redis, when
// configured, caches positive blacklist hits.
type TokenService struct {
	DB    *gorm.DB
	Cache *redis.Client
	Now   func() time.Time

	customer   *utils.Signer
	staff      *utils.Signer
	accessTTL  time.Duration
	refreshTTL time.Duration
	staffTTL   time.Duration
}

func NewTokenService(db *gorm.DB, cfg TokenConfig, cache *redis.Client) *TokenService {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 3 * time.Hour
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 30 * 24 * time.Hour
	}
	if cfg.StaffTTL <= 0 {
		cfg.StaffTTL = 12 * time.Hour
	}
	return &TokenService{
		DB:         db,
		Cache:      cache,
		Now:        time.Now,
		customer:   utils.NewSigner(cfg.CustomerSecret),
		staff:      utils.NewSigner(cfg.StaffSecret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		staffTTL:   cfg.StaffTTL,
	}
}

func (ts *TokenService) AccessTTL() time.Duration { return ts.accessTTL }

func (ts *TokenService) IssueCustomerAccess(customer *models.Customer) (string, error) {
	claims := &utils.CustomerClaims{
		CustomerID:       customer.ID,
		Type:             utils.TokenTypeAccess,
		SessionVersion:   customer.SessionVersion,
		RegisteredClaims: utils.RegisteredClaims(ts.Now(), ts.accessTTL),
	}
	return ts.customer.Sign(claims)
}

// IssueCustomerRefresh signs a refresh token and records it as active.
func (ts *TokenService) IssueCustomerRefresh(ctx context.Context, customer *models.Customer) (string, error) {
	now := ts.Now()
	claims := &utils.CustomerClaims{
		CustomerID:       customer.ID,
		Type:             utils.TokenTypeRefresh,
		SessionVersion:   customer.SessionVersion,
		RegisteredClaims: utils.RegisteredClaims(now, ts.refreshTTL),
	}
	token, err := ts.customer.Sign(claims)
	if err != nil {
		return "", err
	}
	record := models.RefreshToken{
		Token:      token,
		CustomerID: customer.ID,
		IsActive:   true,
		ExpiresAt:  now.Add(ts.refreshTTL),
	}
	if err := ts.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return "", err
	}
	return token, nil
}

func (ts *TokenService) IssueStaffAccess(user *models.User) (string, error) {
	claims := &utils.StaffClaims{
		UserID:           user.ID,
		UserName:         user.UserName,
		Role:             user.Role,
		UserType:         models.UserTypeStaff,
		RegisteredClaims: utils.RegisteredClaims(ts.Now(), ts.staffTTL),
	}
	return ts.staff.Sign(claims)
}

// SignStaff signs arbitrary staff claims. Used for tokens minted by the POS
// back office and by tests.
func (ts *TokenService) SignStaff(claims *utils.StaffClaims) (string, error) {
	return ts.staff.Sign(claims)
}

func (ts *TokenService) ParseCustomer(token string) (*utils.CustomerClaims, error) {
	return ts.customer.ParseCustomer(token)
}

func (ts *TokenService) ParseStaff(token string) (*utils.StaffClaims, error) {
	return ts.staff.ParseStaff(token)
}

func (ts *TokenService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	if ts.Cache != nil {
		n, err := ts.Cache.Exists(ctx, cacheKey(token)).Result()
		if err == nil && n > 0 {
			return true, nil
		}
		if err != nil && !errors.Is(err, redis.Nil) {
			utils.ErrorLogger.WithError(err).Warn("blacklist cache lookup failed")
		}
	}

	var entry models.TokenBlacklist
	err := ts.DB.WithContext(ctx).Select("id", "expires_at").Where("token = ?", token).Take(&entry).Error
	if utils.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ts.cacheBlacklisted(ctx, token, entry.ExpiresAt)
	return true, nil
}

// Blacklist inserts a blacklist row. A row that already exists for the token
// is not an error.
func (ts *TokenService) Blacklist(ctx context.Context, entry models.TokenBlacklist) error {
	if entry.Reason == "" {
		entry.Reason = models.BlacklistReasonExpired
	}
	err := ts.DB.WithContext(ctx).Create(&entry).Error
	if err != nil && !utils.IsDuplicateKey(err) {
		return err
	}
	ts.cacheBlacklisted(ctx, entry.Token, entry.ExpiresAt)
	return nil
}

// BlacklistCustomerToken decodes token for its exp and blacklists it. Tokens
// that do not even decode are skipped.
func (ts *TokenService) BlacklistCustomerToken(ctx context.Context, token string, customerID uint, reason string) error {
	claims, err := ts.customer.ParseCustomer(token)
	if claims == nil {
		return err
	}
	return ts.Blacklist(ctx, models.TokenBlacklist{
		Token:      token,
		CustomerID: &customerID,
		Reason:     reason,
		ExpiresAt:  utils.ExpiresAt(claims.RegisteredClaims, ts.Now().Add(ts.accessTTL)),
	})
}

func (ts *TokenService) DeactivateRefreshTokens(ctx context.Context, customerID uint) error {
	return ts.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("customer_id = ? AND is_active = ?", customerID, true).
		Update("is_active", false).Error
}

// RevokeCustomerTokens is run when a device scans again while its previous
// session is still live: every active refresh token is blacklisted and
// deactivated, and earlier blacklist rows are re-tagged.
func (ts *TokenService) RevokeCustomerTokens(ctx context.Context, customerID uint) error {
	db := ts.DB.WithContext(ctx)

	var active []models.RefreshToken
	if err := db.Where("customer_id = ? AND is_active = ?", customerID, true).Find(&active).Error; err != nil {
		return err
	}
	for _, rt := range active {
		if err := ts.Blacklist(ctx, models.TokenBlacklist{
			Token:      rt.Token,
			CustomerID: &customerID,
			Reason:     models.BlacklistReasonNewSessionStarted,
			ExpiresAt:  rt.ExpiresAt,
		}); err != nil {
			return err
		}
	}

	if err := db.Model(&models.TokenBlacklist{}).
		Where("customer_id = ?", customerID).
		Update("reason", models.BlacklistReasonNewSessionStarted).Error; err != nil {
		return err
	}
	return ts.DeactivateRefreshTokens(ctx, customerID)
}

// Refresh exchanges a stored, active refresh token for a new access token.
// The access token the client still holds, if any, is blacklisted with
// reason "refreshed"; failures there are logged only.
func (ts *TokenService) Refresh(ctx context.Context, refreshToken, oldAccess string) (string, *models.Customer, error) {
	claims, err := ts.customer.ParseCustomer(refreshToken)
	if err != nil || claims.Type != utils.TokenTypeRefresh {
		return "", nil, utils.Unauthorized("Invalid or expired refresh token")
	}

	db := ts.DB.WithContext(ctx)
	var stored models.RefreshToken
	err = db.Where("token = ? AND customer_id = ? AND is_active = ?", refreshToken, claims.CustomerID, true).Take(&stored).Error
	if utils.IsNotFound(err) {
		return "", nil, utils.Unauthorized("Refresh token is invalid or has been revoked")
	}
	if err != nil {
		return "", nil, utils.Internal(err)
	}

	var customer models.Customer
	if err := db.First(&customer, claims.CustomerID).Error; err != nil {
		if utils.IsNotFound(err) {
			return "", nil, utils.NotFound("Customer not found")
		}
		return "", nil, utils.Internal(err)
	}

	if oldAccess != "" {
		if old, _ := ts.customer.ParseCustomer(oldAccess); old != nil && old.Type == utils.TokenTypeAccess {
			if err := ts.Blacklist(ctx, models.TokenBlacklist{
				Token:      oldAccess,
				CustomerID: &customer.ID,
				Reason:     models.BlacklistReasonRefreshed,
				ExpiresAt:  utils.ExpiresAt(old.RegisteredClaims, ts.Now().Add(ts.accessTTL)),
			}); err != nil {
				utils.ErrorLogger.WithError(err).WithField("customerId", customer.ID).Warn("could not blacklist refreshed access token")
			}
		}
	}

	access, err := ts.IssueCustomerAccess(&customer)
	if err != nil {
		return "", nil, utils.Internal(err)
	}
	return access, &customer, nil
}

// PurgeExpired deletes blacklist rows and refresh tokens whose expiry passed.
func (ts *TokenService) PurgeExpired(ctx context.Context) (blacklisted, refresh int64, err error) {
	now := ts.Now()
	db := ts.DB.WithContext(ctx)

	res := db.Where("expires_at < ?", now).Delete(&models.TokenBlacklist{})
	if res.Error != nil {
		return 0, 0, res.Error
	}
	blacklisted = res.RowsAffected

	res = db.Where("expires_at < ?", now).Delete(&models.RefreshToken{})
	if res.Error != nil {
		return blacklisted, 0, res.Error
	}
	return blacklisted, res.RowsAffected, nil
}

func (ts *TokenService) cacheBlacklisted(ctx context.Context, token string, expiresAt time.Time) {
	if ts.Cache == nil {
		return
	}
	ttl := expiresAt.Sub(ts.Now())
	if ttl <= 0 {
		return
	}
	if err := ts.Cache.Set(ctx, cacheKey(token), 1, ttl).Err(); err != nil {
		utils.ErrorLogger.WithFields(logrus.Fields{"ttl": ttl}).WithError(err).Warn("blacklist cache write failed")
	}
}

func cacheKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return blacklistCachePrefix + hex.EncodeToString(sum[:])
}
