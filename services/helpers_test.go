package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/table-ordering/database"
	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/utils"
)

type fixture struct {
	DB       *gorm.DB
	Tokens   *TokenService
	Sessions *SessionService
	KOTs     *KOTService
	Carts    *CartService
	Orders   *OrderService
	Events   *notifier.Recorder
	Clock    *clock
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	utils.InitLogger()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	clk := &clock{now: time.Now()}
	events := &notifier.Recorder{}
	tokens := NewTokenService(db, TokenConfig{CustomerSecret: "c-secret", StaffSecret: "s-secret"}, nil)
	sessions := NewSessionService(db, tokens, events, 0)
	sessions.Now = clk.Now
	kots := NewKOTService(db)
	carts := NewCartService(db)
	orders := NewOrderService(db, sessions, kots, carts, events)

	return &fixture{
		DB:       db,
		Tokens:   tokens,
		Sessions: sessions,
		KOTs:     kots,
		Carts:    carts,
		Orders:   orders,
		Events:   events,
		Clock:    clk,
	}
}

func (f *fixture) table(t *testing.T, name string) models.Table {
	t.Helper()
	table := models.Table{TableName: name, Pax: 2, IsAvailable: true}
	require.NoError(t, f.DB.Create(&table).Error)
	return table
}

func (f *fixture) register(t *testing.T, uniqueID string, tableID *uint) *RegisterResult {
	t.Helper()
	res, err := f.Sessions.Register(context.Background(), RegisterInput{
		MobileNumber: "812345678",
		MobileType:   "ios",
		UniqueID:     uniqueID,
		TableID:      tableID,
	})
	require.NoError(t, err)
	return res
}

func (f *fixture) reload(t *testing.T, id uint) models.Customer {
	t.Helper()
	var c models.Customer
	require.NoError(t, f.DB.First(&c, id).Error)
	return c
}

func ptr[T any](v T) *T { return &v }
