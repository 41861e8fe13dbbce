package Controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/table-ordering/database"
	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/router"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Tokens   *services.TokenService
	Sessions *services.SessionService
	Orders   *services.OrderService
	Events   *notifier.Recorder
}

// setupTestDB opens a private in-memory SQLite database per test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	utils.InitLogger()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	events := &notifier.Recorder{}
	tokens := services.NewTokenService(db, services.TokenConfig{
		CustomerSecret: "customer-test-secret",
		StaffSecret:    "staff-test-secret",
	}, nil)
	sessions := services.NewSessionService(db, tokens, events, 0)
	kots := services.NewKOTService(db)
	carts := services.NewCartService(db)
	orders := services.NewOrderService(db, sessions, kots, carts, events)

	r := router.SetupRouter(router.Deps{
		DB:          db,
		Hub:         notifier.NewHub(utils.InfoLogger),
		Tokens:      tokens,
		Sessions:    sessions,
		Auth:        services.NewAuthService(tokens, sessions),
		Carts:       carts,
		Orders:      orders,
		KOTs:        kots,
		CORSOrigins: []string{"*"},
	})

	return &testApp{DB: db, Router: r, Tokens: tokens, Sessions: sessions, Orders: orders, Events: events}
}

// do sends a JSON request and decodes the JSON response.
func (a *testApp) do(t *testing.T, method, url, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	return a.doRaw(t, method, url, token, buf.String())
}

// doRaw is do with the body sent verbatim.
func (a *testApp) doRaw(t *testing.T, method, url, token, body string) (int, map[string]interface{}) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w.Code, response
}

func (a *testApp) seedTable(t *testing.T, name string) models.Table {
	t.Helper()
	table := models.Table{TableName: name, Pax: 4, IsAvailable: true}
	require.NoError(t, a.DB.Create(&table).Error)
	return table
}

func (a *testApp) seedItem(t *testing.T, name string, price float64, active bool) models.MenuItem {
	t.Helper()
	category := models.MenuCategory{CategoryName: "Cat " + name, IsActive: true}
	require.NoError(t, a.DB.Create(&category).Error)
	item := models.MenuItem{
		CategoryID:   category.ID,
		CategoryName: category.CategoryName,
		ItemName:     name,
		Price:        price,
		IsActive:     active,
	}
	require.NoError(t, a.DB.Create(&item).Error)
	return item
}

func (a *testApp) staffToken(t *testing.T, userName string, role int) string {
	t.Helper()
	user := models.User{UserName: userName, Password: "x", Role: role, IsActive: true}
	require.NoError(t, a.DB.Create(&user).Error)
	token, err := a.Tokens.IssueStaffAccess(&user)
	require.NoError(t, err)
	return token
}

type registered struct {
	CustomerID   uint
	AccessToken  string
	RefreshToken string
	Pin          string
}

// registerCustomer scans the QR of table (0 = no table) from device uniqueID.
func (a *testApp) registerCustomer(t *testing.T, uniqueID string, tableID uint) registered {
	t.Helper()
	body := map[string]interface{}{
		"mobileNumber": "812345678",
		"mobileType":   "android",
		"uniqueId":     uniqueID,
	}
	if tableID != 0 {
		body["tableId"] = tableID
	}
	code, resp := a.do(t, http.MethodPost, "/api/v1/customer/register", "", body)
	require.Equal(t, http.StatusOK, code, resp)

	data := resp["data"].(map[string]interface{})
	customer := data["customer"].(map[string]interface{})
	out := registered{
		CustomerID:   uint(customer["id"].(float64)),
		AccessToken:  data["accessToken"].(string),
		RefreshToken: data["refreshToken"].(string),
	}
	if pin, ok := data["sessionPin"].(string); ok {
		out.Pin = pin
	}
	return out
}

func orderPayload(itemID uint, price float64, qty int, tableID uint, pin string) map[string]interface{} {
	return map[string]interface{}{
		"items": []map[string]interface{}{
			{"itemId": itemID, "itemName": "Dish", "quantity": qty, "price": price},
		},
		"tableId":      tableID,
		"tableName":    "T1",
		"mobileNumber": "812345678",
		"sessionPin":   pin,
	}
}
