package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"canteen-backend/internal/access"
	"canteen-backend/internal/catalog"
	"canteen-backend/internal/chat"
	"canteen-backend/internal/config"
	"canteen-backend/internal/database"
	"canteen-backend/internal/events"
	"canteen-backend/internal/fanout"
	"canteen-backend/internal/handlers"
	"canteen-backend/internal/middleware"
	"canteen-backend/internal/models"
	"canteen-backend/internal/orders"
	"canteen-backend/internal/payments"
	"canteen-backend/internal/qr"
	"canteen-backend/internal/sms"
	"canteen-backend/internal/storage"
	"canteen-backend/internal/tenants"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found")
	}
	if err := config.Load(); err != nil {
		log.Fatal("Configuration error: ", err)
	}
	cfg := config.AppConfig

	database.Connect()
	db := database.DB

	var store storage.Store
	if cfg.Storage.Driver == "disk" {
		disk, err := storage.NewDiskStore(cfg.Storage.UploadDir, cfg.Server.BaseURL)
		if err != nil {
			log.Fatal("Storage error: ", err)
		}
		store = disk
	} else {
		store = storage.NullStore{}
	}

	bus := events.NewBus()

	tenantSvc := tenants.NewService(db, store)
	accessSvc := access.NewService(db)
	catalogSvc := catalog.NewService(db)
	qrSvc := qr.NewService(db, store, cfg.Server.BaseURL)
	orderSvc := orders.NewService(db, catalogSvc, bus)
	paymentSvc := payments.NewService(
		&payments.GormOrderStore{DB: db},
		&payments.GormConfigStore{DB: db},
		payments.NewHTTPGateway(),
		bus,
	)
	deviceStore := &fanout.GormDeviceStore{DB: db}
	registry := fanout.NewRegistry(deviceStore)
	fanout.NewDispatcher(deviceStore, fanout.NewHTTPSender("https://fcm.googleapis.com/fcm/send")).Attach(bus)
	chatSvc := chat.NewService(db, store)
	otpSvc := sms.NewOTPService(sms.LogProvider{})

	// Pending-payment sweeper: abandoned gateway sessions get cancelled
	// so their seats and stock gates free up.
	go func() {
		timeout := time.Duration(cfg.Orders.PendingTimeoutMinutes) * time.Minute
		for range time.Tick(time.Minute) {
			paymentSvc.SweepPending(timeout)
		}
	}()

	authH := &handlers.AuthHandler{DB: db, Tenants: tenantSvc}
	tenantH := &handlers.TenantHandler{Tenants: tenantSvc}
	accessH := &handlers.AccessHandler{Access: accessSvc}
	catalogH := &handlers.CatalogHandler{Catalog: catalogSvc}
	qrH := &handlers.QRHandler{QR: qrSvc}
	orderH := &handlers.OrderHandler{Orders: orderSvc}
	paymentH := &handlers.PaymentHandler{Payments: paymentSvc}
	deviceH := &handlers.DeviceHandler{Registry: registry}
	chatH := &handlers.ChatHandler{Chat: chatSvc}
	smsH := &handlers.SMSHandler{OTP: otpSvc}
	uploadH := &handlers.UploadHandler{Store: store}

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })
	r.HEAD("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.POST("/login", authH.Login)
	r.Static("/uploads", cfg.Storage.UploadDir)

	if cfg.Server.AllowRegistration {
		r.POST("/register", authH.Register)
		log.Println("WARNING: Registration route is OPEN. Disable this in production!")
	}

	// Customer-facing QR surface: no login, tenant comes from the path.
	public := r.Group("/api/public/:theaterId")
	{
		public.GET("/menu", catalogH.CustomerMenu)
		public.POST("/orders", orderH.Create)
		public.GET("/orders/:orderId", orderH.Get)
		public.POST("/orders/:orderId/payment", paymentH.CreateGatewayOrder)
		public.POST("/orders/:orderId/payment/verify", paymentH.Verify)
		public.POST("/orders/:orderId/payment/cancel", paymentH.Cancel)
	}
	smsGroup := r.Group("/api/sms")
	{
		smsGroup.POST("/send-otp", smsH.SendOTP)
		smsGroup.POST("/verify-otp", smsH.VerifyOTP)
	}

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/me", authH.Me)
		api.GET("/check-route", accessH.CheckRoute)

		admin := api.Group("/")
		admin.Use(middleware.RequireRole())
		{
			admin.GET("/theaters", tenantH.List)
			admin.POST("/theaters", tenantH.Create)
			admin.DELETE("/theaters/:theaterId", tenantH.Delete)
			admin.GET("/chat/threads", chatH.ListThreads)
		}

		t := api.Group("/theaters/:theaterId")
		t.Use(middleware.TenantScope("theaterId"))
		{
			t.GET("", tenantH.Get)
			t.PUT("", middleware.RequireRole(models.RoleTenantAdmin), tenantH.Update)
			t.GET("/menu", accessH.Menu)

			t.GET("/settings", tenantH.GetSettings)
			t.PUT("/settings", middleware.RequireRole(models.RoleTenantAdmin), tenantH.UpdateSettings)

			users := t.Group("/users", middleware.RequireRole(models.RoleTenantAdmin))
			{
				users.GET("", tenantH.ListUsers)
				users.POST("", tenantH.CreateUser)
				users.PUT("/:userId/status", tenantH.SetUserStatus)
			}

			pages := t.Group("/page-access", middleware.RequireRole(models.RoleTenantAdmin))
			{
				pages.GET("", accessH.ListPages)
				pages.POST("", accessH.AddPage)
				pages.DELETE("/:pageId", accessH.RemovePage)
			}
			roles := t.Group("/roles", middleware.RequireRole(models.RoleTenantAdmin))
			{
				roles.GET("", accessH.ListRoles)
				roles.POST("", accessH.UpsertRole)
				roles.DELETE("/:roleId", accessH.DeleteRole)
			}

			t.GET("/products", catalogH.ListProducts)
			t.GET("/products/:productId", catalogH.GetProduct)
			t.POST("/products", middleware.RequireRole(models.RoleTenantAdmin), catalogH.CreateProduct)
			t.PUT("/products/:productId", middleware.RequireRole(models.RoleTenantAdmin), catalogH.UpdateProduct)
			t.DELETE("/products/:productId", middleware.RequireRole(models.RoleTenantAdmin), catalogH.DeleteProduct)
			t.GET("/categories", catalogH.ListCategories)
			t.POST("/categories", middleware.RequireRole(models.RoleTenantAdmin), catalogH.CreateCategory)
			t.GET("/kiosk-types", catalogH.ListKioskTypes)
			t.POST("/kiosk-types", middleware.RequireRole(models.RoleTenantAdmin), catalogH.CreateKioskType)

			t.POST("/stock", catalogH.RecordStock)
			t.GET("/stock/balances", catalogH.GetDailyBalances)
			t.GET("/stock/:productId", catalogH.GetMonthlyStock)

			t.GET("/reports/sales", middleware.RequireRole(models.RoleTenantAdmin), orderH.SalesReport)
			t.GET("/reports/valuation", middleware.RequireRole(models.RoleTenantAdmin), catalogH.StockValuation)

			qrGroup := t.Group("/qr", middleware.RequireRole(models.RoleTenantAdmin))
			{
				qrGroup.GET("", qrH.List)
				qrGroup.POST("", qrH.CreateGroup)
				qrGroup.DELETE("/:groupId", qrH.DeleteGroup)
				qrGroup.POST("/:groupId/seats", qrH.AddSeats)
				qrGroup.DELETE("/:groupId/seats/:label", qrH.RemoveSeat)
				qrGroup.POST("/:groupId/regenerate", qrH.Regenerate)
			}

			t.POST("/orders", orderH.Create)
			t.GET("/orders", orderH.List)
			t.GET("/orders/:orderId", orderH.Get)
			t.PUT("/orders/:orderId/status", orderH.UpdateStatus)
			t.POST("/orders/:orderId/payment", paymentH.CreateGatewayOrder)
			t.POST("/orders/:orderId/payment/verify", paymentH.Verify)
			t.POST("/orders/:orderId/payment/cancel", paymentH.Cancel)

			pay := t.Group("/payments", middleware.RequireRole(models.RoleTenantAdmin))
			{
				pay.GET("/config/:channel", paymentH.GetConfig)
				pay.PUT("/config/:channel", paymentH.UpsertConfig)
			}

			t.POST("/devices", deviceH.Register)
			t.GET("/devices", deviceH.List)
			t.DELETE("/devices/:deviceId", deviceH.Remove)

			t.GET("/chat/messages", chatH.GetMessages)
			t.POST("/chat/messages", chatH.Send)
			t.POST("/chat/read", chatH.MarkRead)

			t.POST("/upload", middleware.RequireRole(models.RoleTenantAdmin), uploadH.Upload)
		}
	}

	log.Println("Server starting on " + cfg.Server.BaseURL)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
