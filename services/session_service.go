package services

import (
	"context"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/utils"
)

const DefaultSessionIdleTimeout = 30 * time.Minute

// SessionService owns the customer session lifecycle and the table PIN that
// gates ordering.
type SessionService struct {
	DB          *gorm.DB
	Tokens      *TokenService
	Publisher   notifier.EventPublisher
	IdleTimeout time.Duration
	Now         func() time.Time
	NewPin      func() string
}

func NewSessionService(db *gorm.DB, tokens *TokenService, publisher notifier.EventPublisher, idle time.Duration) *SessionService {
	if idle <= 0 {
		idle = DefaultSessionIdleTimeout
	}
	if publisher == nil {
		publisher = notifier.Discard{}
	}
	return &SessionService{
		DB:          db,
		Tokens:      tokens,
		Publisher:   publisher,
		IdleTimeout: idle,
		Now:         time.Now,
		NewPin:      GeneratePin,
	}
}

// GeneratePin returns a random six digit PIN.
func GeneratePin() string {
	return strconv.Itoa(100000 + rand.IntN(900000))
}

// SessionExpired is the single idle-session rule shared by the auth
// middleware and the cleanup sweep: an active session that has placed no
// order within idle of its start is over.
func SessionExpired(c *models.Customer, now time.Time, idle time.Duration) bool {
	if !c.SessionActive || c.SessionStartedAt == nil {
		return false
	}
	if len(c.ActiveOrderIDs.Data()) > 0 {
		return false
	}
	return now.Sub(*c.SessionStartedAt) > idle
}

type RegisterInput struct {
	MobileNumber string `json:"mobileNumber" binding:"required,numeric,max=9"`
	MobileType   string `json:"mobileType" binding:"required,oneof=android ios"`
	UniqueID     string `json:"uniqueId" binding:"required,numeric"`
	TableID      *uint  `json:"tableId"`
	TableName    string `json:"tableName"`
}

type RegisterResult struct {
	Customer     *models.Customer `json:"customer"`
	SessionPin   *string          `json:"sessionPin"`
	AccessToken  string           `json:"accessToken"`
	RefreshToken string           `json:"refreshToken"`
	ExpiresIn    string           `json:"expiresIn"`
	IsNew        bool             `json:"-"`
}

// Register finds or creates the customer for the device and starts a fresh
// session. A device that still had a live session loses every token of it.
func (ss *SessionService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	db := ss.DB.WithContext(ctx)
	now := ss.Now()

	var customer models.Customer
	isNew := false
	err := db.Where("unique_id = ?", in.UniqueID).Take(&customer).Error
	switch {
	case utils.IsNotFound(err):
		isNew = true
		customer = models.Customer{
			MobileNumber: in.MobileNumber,
			MobileType:   in.MobileType,
			UniqueID:     in.UniqueID,
		}
	case err != nil:
		return nil, utils.Internal(err)
	default:
		customer.MobileNumber = in.MobileNumber
		customer.MobileType = in.MobileType
		if customer.SessionActive {
			utils.InfoLogger.WithFields(logrus.Fields{
				"customerId":        customer.ID,
				"previousTableId":   tableIDField(customer.TableID),
				"previousTableName": customer.TableName,
			}).Info("ending previous session on rescan")
			if err := ss.Tokens.RevokeCustomerTokens(ctx, customer.ID); err != nil {
				return nil, utils.Internal(err)
			}
		}
	}

	var table *models.Table
	if in.TableID != nil {
		var t models.Table
		err := db.First(&t, *in.TableID).Error
		switch {
		case err == nil:
			table = &t
		case utils.IsNotFound(err):
			utils.ErrorLogger.WithFields(logrus.Fields{"tableId": *in.TableID, "uniqueId": in.UniqueID}).Warn("registration for unknown table")
		default:
			return nil, utils.Internal(err)
		}
	}

	tableName := in.TableName
	if tableName == "" && table != nil {
		tableName = table.TableName
	}
	customer.StartSession(in.TableID, tableName, now)

	if isNew {
		err = db.Create(&customer).Error
	} else {
		err = db.Save(&customer).Error
	}
	if err != nil {
		if utils.IsDuplicateKey(err) {
			return nil, utils.NewAppError(409, "Device registration is already in progress, please retry")
		}
		return nil, utils.Internal(err)
	}

	var pin *string
	if table != nil {
		p, err := ss.issuePin(ctx, table, &customer)
		if err != nil {
			return nil, utils.Internal(err)
		}
		pin = &p
	}

	access, err := ss.Tokens.IssueCustomerAccess(&customer)
	if err != nil {
		return nil, utils.Internal(err)
	}
	refresh, err := ss.Tokens.IssueCustomerRefresh(ctx, &customer)
	if err != nil {
		return nil, utils.Internal(err)
	}

	utils.InfoLogger.WithFields(logrus.Fields{
		"customerId": customer.ID,
		"tableId":    tableIDField(customer.TableID),
		"isNew":      isNew,
	}).Info("customer session started")

	return &RegisterResult{
		Customer:     &customer,
		SessionPin:   pin,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    FormatTTL(ss.Tokens.AccessTTL()),
		IsNew:        isNew,
	}, nil
}

// issuePin replaces the table's PIN with a new one owned by customer and
// announces it to the cashier displays.
func (ss *SessionService) issuePin(ctx context.Context, table *models.Table, customer *models.Customer) (string, error) {
	pin := ss.NewPin()
	now := ss.Now()
	table.AssignPin(pin, customer.ID, now)

	if err := ss.DB.WithContext(ctx).Model(table).
		Select("session_pin", "pin_generated_at", "customer_id").
		Updates(table).Error; err != nil {
		return "", err
	}

	publishBestEffort(ctx, ss.Publisher, notifier.EventPinGenerated, PinGeneratedEvent{
		TableID:              table.ID,
		TableName:            table.TableName,
		SessionPin:           pin,
		CustomerID:           customer.ID,
		CustomerMobileNumber: customer.MobileNumber,
		PinGeneratedAt:       now,
	})
	return pin, nil
}

// RegeneratePin issues a new PIN for the customer currently bound to the
// table. The previous PIN stops verifying immediately.
func (ss *SessionService) RegeneratePin(ctx context.Context, tableID uint) (*models.Table, string, error) {
	db := ss.DB.WithContext(ctx)

	var table models.Table
	if err := db.First(&table, tableID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, "", utils.NotFound("Table not found")
		}
		return nil, "", utils.Internal(err)
	}
	if table.CustomerID == nil {
		return nil, "", utils.BadRequest("No customer associated with this table")
	}

	var customer models.Customer
	if err := db.First(&customer, *table.CustomerID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, "", utils.NotFound("Customer not found for this table")
		}
		return nil, "", utils.Internal(err)
	}
	if !customer.SessionActive {
		return nil, "", utils.BadRequest("Customer session is not active")
	}

	pin, err := ss.issuePin(ctx, &table, &customer)
	if err != nil {
		return nil, "", utils.Internal(err)
	}
	return &table, pin, nil
}

// VerifyPin checks pin against the table and that the PIN belongs to
// customerID.
func (ss *SessionService) VerifyPin(ctx context.Context, tableID uint, pin string, customerID uint) (*models.Table, error) {
	var table models.Table
	if err := ss.DB.WithContext(ctx).First(&table, tableID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NotFound("Table not found")
		}
		return nil, utils.Internal(err)
	}
	if !table.VerifyPin(pin) {
		return &table, utils.Forbidden("Invalid PIN. Please check the PIN provided by staff and try again.").
			WithFlag("invalidPin", true)
	}
	if !table.OwnedBy(customerID) {
		return &table, utils.Forbidden("This PIN is not valid for your session.").
			WithFlag("invalidPin", true)
	}
	return &table, nil
}

// ResolveCustomer turns verified access-token claims into the live customer,
// enforcing session state. An idle session found here is ended on the spot.
func (ss *SessionService) ResolveCustomer(ctx context.Context, claims *utils.CustomerClaims) (*models.Customer, error) {
	if claims.Type != utils.TokenTypeAccess {
		return nil, utils.Unauthorized("Invalid token type.")
	}

	var customer models.Customer
	if err := ss.DB.WithContext(ctx).First(&customer, claims.CustomerID).Error; err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.Unauthorized("Customer not found.")
		}
		return nil, utils.Internal(err)
	}

	if !customer.SessionActive {
		return nil, utils.Unauthorized("Session has ended. Please scan the QR code again.").
			WithFlag("sessionEnded", true).
			WithFlag("requiresNewScan", true)
	}
	if claims.SessionVersion != customer.SessionVersion {
		return nil, utils.Unauthorized("This session was replaced by a new scan. Please scan the QR code again.").
			WithFlag("sessionEnded", true).
			WithFlag("requiresNewScan", true)
	}
	if SessionExpired(&customer, ss.Now(), ss.IdleTimeout) {
		if err := ss.EndSession(ctx, &customer); err != nil {
			return nil, utils.Internal(err)
		}
		utils.InfoLogger.WithField("customerId", customer.ID).Info("idle session expired on request")
		return nil, utils.Unauthorized("Session expired due to inactivity. Please scan the QR code again.").
			WithFlag("sessionExpired", true).
			WithFlag("requiresNewScan", true)
	}
	return &customer, nil
}

// EndSession closes the customer's session, clears the PIN of the table the
// customer still holds and deactivates its refresh tokens. Deactivation
// failures are logged only.
func (ss *SessionService) EndSession(ctx context.Context, customer *models.Customer) error {
	if customer.TableID != nil {
		if err := ss.releaseTablePin(ctx, *customer.TableID, customer.ID); err != nil {
			return err
		}
	}
	customer.EndSession(ss.Now())
	if err := ss.DB.WithContext(ctx).Save(customer).Error; err != nil {
		return err
	}
	if err := ss.Tokens.DeactivateRefreshTokens(ctx, customer.ID); err != nil {
		utils.ErrorLogger.WithField("customerId", customer.ID).WithError(err).Error("deactivating refresh tokens failed")
	}
	return nil
}

// releaseTablePin clears the table PIN when customerID owns it. A table
// that was rescanned by someone else is left alone.
func (ss *SessionService) releaseTablePin(ctx context.Context, tableID, customerID uint) error {
	db := ss.DB.WithContext(ctx)
	var table models.Table
	err := db.First(&table, tableID).Error
	if utils.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if table.CustomerID == nil || *table.CustomerID != customerID {
		return nil
	}
	table.ClearSessionPin()
	return db.Model(&table).Select("session_pin", "pin_generated_at", "customer_id").Updates(&table).Error
}

// Logout ends the session and revokes the presented access token.
func (ss *SessionService) Logout(ctx context.Context, customer *models.Customer, accessToken string) error {
	if err := ss.EndSession(ctx, customer); err != nil {
		return utils.Internal(err)
	}

	if accessToken != "" {
		if err := ss.Tokens.BlacklistCustomerToken(ctx, accessToken, customer.ID, models.BlacklistReasonLogout); err != nil {
			utils.ErrorLogger.WithField("customerId", customer.ID).WithError(err).Warn("blacklisting logout token failed")
		}
	}
	return nil
}

// tableIDField renders an optional table id for log fields.
func tableIDField(id *uint) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

// ExpireIdleSessions ends every session that SessionExpired reports as over.
func (ss *SessionService) ExpireIdleSessions(ctx context.Context) ([]uint, error) {
	now := ss.Now()
	cutoff := now.Add(-ss.IdleTimeout)

	var candidates []models.Customer
	if err := ss.DB.WithContext(ctx).
		Where("session_active = ? AND session_started_at < ?", true, cutoff).
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	var ended []uint
	for i := range candidates {
		c := &candidates[i]
		if !SessionExpired(c, now, ss.IdleTimeout) {
			continue
		}
		if err := ss.EndSession(ctx, c); err != nil {
			utils.ErrorLogger.WithField("customerId", c.ID).WithError(err).Error("ending idle session failed")
			continue
		}
		ended = append(ended, c.ID)
	}
	return ended, nil
}

// ScrubEndedSessions clears leftovers of sessions that ended before the
// retention window.
func (ss *SessionService) ScrubEndedSessions(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := ss.Now().Add(-retention)
	res := ss.DB.WithContext(ctx).Model(&models.Customer{}).
		Where("session_active = ? AND session_ended_at < ?", false, cutoff).
		Updates(map[string]interface{}{"session_ended_at": nil, "order_id": ""})
	return res.RowsAffected, res.Error
}

// FormatTTL renders whole hours as "3h" and anything else in minutes.
func FormatTTL(d time.Duration) string {
	if d%time.Hour == 0 {
		return strconv.Itoa(int(d/time.Hour)) + "h"
	}
	return strconv.Itoa(int(d/time.Minute)) + "m"
}
