package Controllers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
)

func TestRegisterCustomer(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")

	first := app.registerCustomer(t, "1001", table.ID)
	assert.Len(t, first.Pin, 6)
	assert.NotEmpty(t, first.AccessToken)
	assert.NotEmpty(t, first.RefreshToken)

	pins := app.Events.Topic(notifier.EventPinGenerated)
	require.Len(t, pins, 1)

	var stored models.Table
	require.NoError(t, app.DB.First(&stored, table.ID).Error)
	require.NotNil(t, stored.SessionPin)
	assert.Equal(t, first.Pin, *stored.SessionPin)
	assert.Equal(t, first.CustomerID, *stored.CustomerID)
}

func TestRegisterAgainEndsPreviousSession(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")

	first := app.registerCustomer(t, "1001", table.ID)
	code, resp := app.do(t, http.MethodPost, "/api/v1/customer/register", "", map[string]interface{}{
		"mobileNumber": "812345678",
		"mobileType":   "ios",
		"uniqueId":     "1001",
		"tableId":      table.ID,
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Customer logged in successfully", resp["message"])

	// the access token of the first scan belongs to an older session
	code, resp = app.do(t, http.MethodGet, "/api/v1/customer/me", first.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, true, resp["requiresNewScan"])

	// and its refresh token was revoked
	code, _ = app.do(t, http.MethodPost, "/api/v1/customer/refresh-token", "", map[string]string{"refreshToken": first.RefreshToken})
	assert.Equal(t, http.StatusUnauthorized, code)

	var reasons []string
	app.DB.Model(&models.TokenBlacklist{}).Pluck("reason", &reasons)
	require.NotEmpty(t, reasons)
	for _, r := range reasons {
		assert.Equal(t, models.BlacklistReasonNewSessionStarted, r)
	}
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t)

	code, resp := app.do(t, http.MethodPost, "/api/v1/customer/register", "", map[string]string{
		"mobileNumber": "812345678",
		"mobileType":   "windows",
		"uniqueId":     "1001",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, resp["status"])
}

func TestRegisterUnknownTableStillStartsSession(t *testing.T) {
	app := newTestApp(t)

	reg := app.registerCustomer(t, "1002", 999)
	assert.Empty(t, reg.Pin)
	assert.Empty(t, app.Events.Topic(notifier.EventPinGenerated))
}

func TestCustomerMe(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "Patio 3")
	reg := app.registerCustomer(t, "1001", table.ID)

	code, resp := app.do(t, http.MethodGet, "/api/v1/customer/me", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)

	customer := resp["data"].(map[string]interface{})["customer"].(map[string]interface{})
	assert.Equal(t, "812345678", customer["mobileNumber"])
	assert.Equal(t, true, customer["sessionActive"])
	tableInfo := customer["table"].(map[string]interface{})
	assert.Equal(t, "Patio 3", tableInfo["tableName"])
}

func TestRefreshToken(t *testing.T) {
	app := newTestApp(t)
	reg := app.registerCustomer(t, "1001", 0)

	code, resp := app.do(t, http.MethodPost, "/api/v1/customer/refresh-token", reg.AccessToken, map[string]string{
		"refreshToken": reg.RefreshToken,
	})
	require.Equal(t, http.StatusOK, code)
	data := resp["data"].(map[string]interface{})
	fresh := data["accessToken"].(string)
	assert.NotEqual(t, reg.AccessToken, fresh)
	assert.Equal(t, "3h", data["expiresIn"])

	// the access token sent along is retired
	code, resp = app.do(t, http.MethodGet, "/api/v1/customer/me", reg.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, true, resp["requiresRefresh"])

	code, _ = app.do(t, http.MethodGet, "/api/v1/customer/me", fresh, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestRefreshTokenRejectsBadInput(t *testing.T) {
	app := newTestApp(t)
	reg := app.registerCustomer(t, "1001", 0)

	code, resp := app.do(t, http.MethodPost, "/api/v1/customer/refresh-token", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Refresh token is required", resp["message"])

	code, _ = app.do(t, http.MethodPost, "/api/v1/customer/refresh-token", "", map[string]string{"refreshToken": reg.AccessToken})
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestCustomerLogout(t *testing.T) {
	app := newTestApp(t)
	table := app.seedTable(t, "T1")
	reg := app.registerCustomer(t, "1001", table.ID)

	code, resp := app.do(t, http.MethodPost, "/api/v1/customer/logout", reg.AccessToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Logged out successfully", resp["message"])

	var stored models.Table
	require.NoError(t, app.DB.First(&stored, table.ID).Error)
	assert.Nil(t, stored.SessionPin)
	assert.Nil(t, stored.CustomerID)

	var customer models.Customer
	require.NoError(t, app.DB.First(&customer, reg.CustomerID).Error)
	assert.False(t, customer.SessionActive)

	code, _ = app.do(t, http.MethodGet, "/api/v1/customer/me", reg.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestExpiredAccessTokenIsBlacklisted(t *testing.T) {
	app := newTestApp(t)
	reg := app.registerCustomer(t, "1001", 0)

	var customer models.Customer
	require.NoError(t, app.DB.First(&customer, reg.CustomerID).Error)
	app.Tokens.Now = func() time.Time { return time.Now().Add(-4 * time.Hour) }
	expired, err := app.Tokens.IssueCustomerAccess(&customer)
	require.NoError(t, err)
	app.Tokens.Now = time.Now

	code, resp := app.do(t, http.MethodGet, "/api/v1/customer/me", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Token has expired. Please refresh your token.", resp["message"])
	assert.Equal(t, true, resp["requiresRefresh"])

	var entry models.TokenBlacklist
	require.NoError(t, app.DB.Where("token = ?", expired).First(&entry).Error)
	assert.Equal(t, models.BlacklistReasonExpired, entry.Reason)
}

func TestIdleSessionExpiresOnRequest(t *testing.T) {
	app := newTestApp(t)
	reg := app.registerCustomer(t, "1001", 0)

	app.Sessions.Now = func() time.Time { return time.Now().Add(31 * time.Minute) }

	code, resp := app.do(t, http.MethodGet, "/api/v1/customer/me", reg.AccessToken, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, true, resp["sessionExpired"])
	assert.Equal(t, true, resp["requiresNewScan"])

	var customer models.Customer
	require.NoError(t, app.DB.First(&customer, reg.CustomerID).Error)
	assert.False(t, customer.SessionActive)
}

func TestMissingTokenIsRejected(t *testing.T) {
	app := newTestApp(t)

	code, resp := app.do(t, http.MethodGet, "/api/v1/customer/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Access denied. No token provided.", resp["message"])
}
