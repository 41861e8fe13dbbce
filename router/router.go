package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/yeremiapane/table-ordering/config"
	"github.com/yeremiapane/table-ordering/controllers"
	"github.com/yeremiapane/table-ordering/middlewares"
	"github.com/yeremiapane/table-ordering/models"
	"github.com/yeremiapane/table-ordering/notifier"
	"github.com/yeremiapane/table-ordering/services"
	"github.com/yeremiapane/table-ordering/utils"
)

// Deps is everything the HTTP layer needs. Redis may be nil.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Hub         *notifier.Hub
	Tokens      *services.TokenService
	Sessions    *services.SessionService
	Auth        *services.AuthService
	Carts       *services.CartService
	Orders      *services.OrderService
	KOTs        *services.KOTService
	RateLimit   config.RateLimitConfig
	CORSOrigins []string
	Production  bool
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middlewares.Recovery(d.Production))
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders(d.Production))
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigins))

	strict := func(c *gin.Context) { c.Next() }
	if d.RateLimit.Enabled {
		r.Use(middlewares.NewRateLimiter(rate.Limit(d.RateLimit.RequestsPerSec), d.RateLimit.Burst).RateLimit())
		r.Use(middlewares.RedisRateLimit(d.Redis, d.RateLimit.Prefix, d.RateLimit.Capacity, d.RateLimit.RefillInterval))
		strict = middlewares.NewStrictRateLimiter(d.RateLimit.AuthPerMinute).RateLimit()
	}

	customerAuth := middlewares.RequireCustomer(d.Auth)
	staffAuth := middlewares.RequireStaff(d.Auth)

	healthCtrl := controllers.NewHealthController(d.DB)
	customerCtrl := controllers.NewCustomerController(d.DB, d.Sessions, d.Tokens)
	userCtrl := controllers.NewUserController(d.DB, d.Tokens)
	tableCtrl := controllers.NewTableController(d.DB, d.Sessions)
	categoryCtrl := controllers.NewMenuCategoryController(d.DB)
	menuCtrl := controllers.NewMenuController(d.DB)
	settingsCtrl := controllers.NewSettingsController(d.DB)
	cartCtrl := controllers.NewCartController(d.DB, d.Carts)
	orderCtrl := controllers.NewOrderController(d.DB, d.Orders, d.Sessions)
	kotCtrl := controllers.NewKOTController(d.DB, d.KOTs, d.Orders)
	qrCtrl := controllers.NewQRController()
	cashierCtrl := controllers.NewCashierController(d.Hub)

	api := r.Group("/api/v1")
	api.GET("/health", healthCtrl.Health)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	api.POST("/customer/register", strict, customerCtrl.Register)
	api.POST("/customer/refresh-token", strict, customerCtrl.RefreshToken)
	api.POST("/staff/login", strict, userCtrl.Login)
	api.POST("/qr/encrypt", qrCtrl.EncryptTableData)
	api.POST("/qr/decrypt", qrCtrl.DecryptTableData)

	// ----------------------------------------------------------------
	//                      CUSTOMER ROUTES
	// ----------------------------------------------------------------
	customer := api.Group("/")
	customer.Use(customerAuth)
	{
		customer.POST("/customer/logout", customerCtrl.Logout)
		customer.GET("/customer/me", customerCtrl.Me)

		customer.GET("/category", categoryCtrl.GetAllCategories)
		customer.GET("/category/active", categoryCtrl.GetActiveCategories)
		customer.GET("/category/:id", categoryCtrl.GetCategoryByID)

		customer.GET("/item", menuCtrl.GetAllItems)
		customer.GET("/item/category", menuCtrl.GetItemsByCategory)

		customer.GET("/outletConfig", settingsCtrl.GetOutletConfig)

		customer.POST("/cart/add", cartCtrl.AddToCart)
		customer.PUT("/cart/update", cartCtrl.UpdateCart)
		customer.GET("/cart", cartCtrl.GetCart)
		customer.DELETE("/cart/item", cartCtrl.RemoveCartItem)
		customer.PATCH("/cart/order", cartCtrl.UpdateCartOrderStatus)

		customer.POST("/order/place", orderCtrl.PlaceOrder)
		customer.GET("/order/get", orderCtrl.GetOrder)
		customer.PUT("/order/add-items", orderCtrl.AddItems)
		customer.POST("/order/verify-pin", orderCtrl.VerifyPin)

		customer.POST("/kot/send", kotCtrl.SendKOT)
		customer.GET("/kot/order", kotCtrl.GetKOTsByOrder)
	}

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := api.Group("/")
	staff.Use(staffAuth)
	{
		staff.POST("/staff/logout", userCtrl.Logout)
		staff.GET("/staff/profile", userCtrl.GetProfile)
		staff.POST("/staff/register", middlewares.RequireRole(models.RoleAdmin), userCtrl.Register)

		staff.POST("/table", tableCtrl.CreateTable)
		staff.GET("/table", tableCtrl.GetAllTables)
		staff.GET("/table/:id", tableCtrl.GetTableByID)
		staff.POST("/table/:id/pin", tableCtrl.RegeneratePin)

		staff.PATCH("/order/settle", orderCtrl.SettleBill)

		staff.PATCH("/kot/acknowledge", kotCtrl.AcknowledgeKOT)
		staff.PATCH("/kot/complete", kotCtrl.CompleteKOT)
	}

	ws := api.Group("/ws")
	ws.Use(middlewares.WebSocketTokenFromQuery(), staffAuth)
	{
		ws.GET("/cashier", cashierCtrl.CashierSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusNotFound, "Route not found", nil)
	})

	return r
}
