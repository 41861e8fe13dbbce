package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/utils"
)

func TestSessionExpired(t *testing.T) {
	now := time.Now()
	started := now.Add(-31 * time.Minute)

	c := &models.Customer{SessionActive: true, SessionStartedAt: &started}
	assert.True(t, SessionExpired(c, now, 30*time.Minute))
	assert.False(t, SessionExpired(c, now, time.Hour))

	c.AddOrderToSession("ORD-20260101-0001")
	assert.False(t, SessionExpired(c, now, 30*time.Minute))

	assert.False(t, SessionExpired(&models.Customer{SessionActive: false, SessionStartedAt: &started}, now, 30*time.Minute))
	assert.False(t, SessionExpired(&models.Customer{SessionActive: true}, now, 30*time.Minute))
}

func TestGeneratePinIsSixDigits(t *testing.T) {
	for i := 0; i < 100; i++ {
		pin := GeneratePin()
		require.Len(t, pin, 6)
		assert.NotEqual(t, '0', rune(pin[0]))
	}
}

func TestFormatTTL(t *testing.T) {
	assert.Equal(t, "3h", FormatTTL(3*time.Hour))
	assert.Equal(t, "90m", FormatTTL(90*time.Minute))
}

func TestRegisterIssuesPinAndAnnouncesIt(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "A1")
	f.Sessions.NewPin = func() string { return "424242" }

	res := f.register(t, "9001", &table.ID)
	require.NotNil(t, res.SessionPin)
	assert.Equal(t, "424242", *res.SessionPin)
	assert.True(t, res.IsNew)
	assert.Equal(t, "A1", res.Customer.TableName)
	assert.Equal(t, "3h", res.ExpiresIn)

	var stored models.Table
	require.NoError(t, f.DB.First(&stored, table.ID).Error)
	assert.True(t, stored.VerifyPin("424242"))
	assert.True(t, stored.OwnedBy(res.Customer.ID))

	events := f.Events.Topic(notifier.EventPinGenerated)
	require.Len(t, events, 1)
	assert.Equal(t, "424242", events[0].Data.(PinGeneratedEvent).SessionPin)
}

func TestRegisterAgainRevokesPreviousSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.register(t, "9001", nil)
	second := f.register(t, "9001", nil)

	assert.False(t, second.IsNew)
	assert.Equal(t, first.Customer.ID, second.Customer.ID)

	blacklisted, err := f.Tokens.IsBlacklisted(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	_, _, err = f.Tokens.Refresh(ctx, first.RefreshToken, "")
	assert.Equal(t, 401, utils.StatusOf(err))

	claims, err := f.Tokens.ParseCustomer(first.AccessToken)
	require.NoError(t, err)
	_, err = f.Sessions.ResolveCustomer(ctx, claims)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replaced by a new scan")

	claims, err = f.Tokens.ParseCustomer(second.AccessToken)
	require.NoError(t, err)
	customer, err := f.Sessions.ResolveCustomer(ctx, claims)
	require.NoError(t, err)
	assert.Equal(t, second.Customer.ID, customer.ID)
}

func TestRegeneratePinInvalidatesOldPin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.table(t, "A1")
	pins := []string{"111111", "222222"}
	f.Sessions.NewPin = func() string {
		p := pins[0]
		pins = pins[1:]
		return p
	}
	res := f.register(t, "9001", &table.ID)

	_, pin, err := f.Sessions.RegeneratePin(ctx, table.ID)
	require.NoError(t, err)
	assert.Equal(t, "222222", pin)

	_, err = f.Sessions.VerifyPin(ctx, table.ID, "111111", res.Customer.ID)
	assert.Equal(t, 403, utils.StatusOf(err))
	_, err = f.Sessions.VerifyPin(ctx, table.ID, "222222", res.Customer.ID)
	assert.NoError(t, err)
}

func TestRegeneratePinNeedsActiveCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.table(t, "A1")

	_, _, err := f.Sessions.RegeneratePin(ctx, table.ID)
	assert.Equal(t, 400, utils.StatusOf(err))

	_, _, err = f.Sessions.RegeneratePin(ctx, 999)
	assert.Equal(t, 404, utils.StatusOf(err))
}

func TestVerifyPinChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.table(t, "A1")
	owner := f.register(t, "9001", &table.ID)
	other := f.register(t, "9002", nil)

	_, err := f.Sessions.VerifyPin(ctx, table.ID, *owner.SessionPin, other.Customer.ID)
	require.Error(t, err)
	assert.Equal(t, "This PIN is not valid for your session.", err.Error())

	_, err = f.Sessions.VerifyPin(ctx, table.ID, *owner.SessionPin, owner.Customer.ID)
	assert.NoError(t, err)
}

func TestResolveCustomerEndsIdleSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res := f.register(t, "9001", nil)
	claims, err := f.Tokens.ParseCustomer(res.AccessToken)
	require.NoError(t, err)

	f.Clock.Advance(31 * time.Minute)
	_, err = f.Sessions.ResolveCustomer(ctx, claims)
	require.Error(t, err)
	var appErr *utils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, true, appErr.Flags["sessionExpired"])

	c := f.reload(t, res.Customer.ID)
	assert.False(t, c.SessionActive)
	assert.NotNil(t, c.SessionEndedAt)

	var active int64
	f.DB.Model(&models.RefreshToken{}).Where("customer_id = ? AND is_active = ?", c.ID, true).Count(&active)
	assert.Zero(t, active)
}

func TestResolveCustomerRejectsRefreshToken(t *testing.T) {
	f := newFixture(t)
	res := f.register(t, "9001", nil)
	claims, err := f.Tokens.ParseCustomer(res.RefreshToken)
	require.NoError(t, err)

	_, err = f.Sessions.ResolveCustomer(context.Background(), claims)
	assert.Equal(t, 401, utils.StatusOf(err))
}

func TestLogoutClearsTablePin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	table := f.table(t, "A1")
	res := f.register(t, "9001", &table.ID)

	customer := f.reload(t, res.Customer.ID)
	require.NoError(t, f.Sessions.Logout(ctx, &customer, res.AccessToken))

	var stored models.Table
	require.NoError(t, f.DB.First(&stored, table.ID).Error)
	assert.Nil(t, stored.SessionPin)
	assert.Nil(t, stored.CustomerID)

	blacklisted, err := f.Tokens.IsBlacklisted(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.True(t, blacklisted)
}

func TestExpireIdleSessionsAndScrub(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	idle := f.register(t, "9001", nil)
	busy := f.register(t, "9002", nil)

	busyCustomer := f.reload(t, busy.Customer.ID)
	busyCustomer.AddOrderToSession("ORD-20260101-0001")
	require.NoError(t, f.DB.Save(&busyCustomer).Error)

	f.Clock.Advance(45 * time.Minute)
	ended, err := f.Sessions.ExpireIdleSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint{idle.Customer.ID}, ended)
	assert.True(t, f.reload(t, busy.Customer.ID).SessionActive)

	scrubbed, err := f.Sessions.ScrubEndedSessions(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, scrubbed)

	f.Clock.Advance(8 * 24 * time.Hour)
	scrubbed, err = f.Sessions.ScrubEndedSessions(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scrubbed)
	assert.Nil(t, f.reload(t, idle.Customer.ID).SessionEndedAt)
}

func (f *fixture) storedTable(t *testing.T, id uint) models.Table {
	t.Helper()
	var table models.Table
	require.NoError(t, f.DB.First(&table, id).Error)
	return table
}

func TestIdleSweepClearsTablePin(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T5")
	res := f.register(t, "9001", &table.ID)
	require.NotNil(t, f.storedTable(t, table.ID).SessionPin)

	f.Clock.Advance(31 * time.Minute)
	ended, err := f.Sessions.ExpireIdleSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []uint{res.Customer.ID}, ended)

	stored := f.storedTable(t, table.ID)
	assert.Nil(t, stored.SessionPin)
	assert.Nil(t, stored.PinGeneratedAt)
	assert.Nil(t, stored.CustomerID)

	_, _, err = f.Sessions.RegeneratePin(context.Background(), table.ID)
	assert.Equal(t, 400, utils.StatusOf(err))
}

func TestIdleRequestClearsTablePin(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T6")
	res := f.register(t, "9001", &table.ID)
	claims, err := f.Tokens.ParseCustomer(res.AccessToken)
	require.NoError(t, err)

	f.Clock.Advance(31 * time.Minute)
	_, err = f.Sessions.ResolveCustomer(context.Background(), claims)
	require.Error(t, err)

	stored := f.storedTable(t, table.ID)
	assert.Nil(t, stored.SessionPin)
	assert.Nil(t, stored.CustomerID)
}

func TestEndSessionKeepsPinOfNewOwner(t *testing.T) {
	f := newFixture(t)
	table := f.table(t, "T7")
	first := f.register(t, "9001", &table.ID)
	second := f.register(t, "9002", &table.ID)

	customer := f.reload(t, first.Customer.ID)
	require.NoError(t, f.Sessions.EndSession(context.Background(), &customer))

	stored := f.storedTable(t, table.ID)
	require.NotNil(t, stored.SessionPin)
	assert.Equal(t, *second.SessionPin, *stored.SessionPin)
	assert.Equal(t, second.Customer.ID, *stored.CustomerID)
}

func TestSessionLogFieldsCarryTableID(t *testing.T) {
	f := newFixture(t)
	hook := logtest.NewLocal(utils.InfoLogger)
	table := f.table(t, "T8")

	f.register(t, "9001", &table.ID)
	f.register(t, "9002", nil)

	var started []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Message == "customer session started" {
			started = append(started, e)
		}
	}
	require.Len(t, started, 2)
	assert.Equal(t, table.ID, started[0].Data["tableId"])
	assert.Nil(t, started[1].Data["tableId"])
}
