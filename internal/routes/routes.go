package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/config"
	"github.com/example/cryptocoins/internal/handlers"
	"github.com/example/cryptocoins/internal/middleware"
	"github.com/example/cryptocoins/internal/services"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	telegram := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramAdminChat)
	sms := services.NewSMSService(cfg.SMSGatewayURL, cfg.SMSGatewayKey, cfg.SMSSenderName)

	ledger := services.NewLedgerService(db)
	workflow := services.NewWorkflowService(db, ledger, telegram)
	referrals := services.NewReferralService(db)
	prices := services.NewPriceService(db, cfg.PriceAPIBaseURL, services.NewPriceCache(cfg.PriceCacheTTL))

	authHandler := handlers.NewAuthHandler(db, cfg, referrals, sms)
	userHandler := handlers.NewUserHandler(db)
	coinHandler := handlers.NewCoinHandler(db, prices)
	transactionHandler := handlers.NewTransactionHandler(workflow, cfg.UploadDir)
	adminHandler := handlers.NewAdminHandler(db, ledger, workflow)
	supportHandler := handlers.NewSupportHandler(db, telegram)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/verify-otp", authHandler.VerifyOTP)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Public coin listings
	coins := api.Group("/coins")
	coins.Get("/", coinHandler.ListCoins)
	coins.Get("/refresh-prices", coinHandler.RefreshPrices)
	coins.Get("/:id", coinHandler.GetCoin)

	// Protected user routes
	protected := api.Group("", middleware.AuthMiddleware(cfg, db))

	protected.Get("/auth/me", authHandler.Me)
	protected.Put("/auth/change-password", authHandler.ChangePassword)

	user := protected.Group("/user")
	user.Get("/profile", userHandler.GetProfile)
	user.Put("/profile", userHandler.UpdateProfile)
	user.Get("/wallet", userHandler.GetWallet)
	user.Get("/investments", userHandler.GetInvestments)
	user.Get("/transactions", userHandler.GetTransactions)
	user.Get("/settings", userHandler.GetSettings)
	user.Get("/referrals", userHandler.GetReferrals)

	transactions := protected.Group("/transactions")
	transactions.Post("/deposit", transactionHandler.Deposit)
	transactions.Post("/invest", transactionHandler.Invest)
	transactions.Post("/withdraw", transactionHandler.Withdraw)

	support := protected.Group("/support")
	support.Post("/", supportHandler.Create)
	support.Get("/", supportHandler.ListMine)

	// Admin routes
	admin := protected.Group("/admin", middleware.AdminMiddleware())
	admin.Get("/dashboard", adminHandler.Dashboard)
	admin.Get("/analytics", adminHandler.Analytics)

	admin.Get("/users", adminHandler.ListUsers)
	admin.Get("/users/:id", adminHandler.GetUser)
	admin.Put("/users/:id/wallet", adminHandler.UpdateUserWallet)
	admin.Put("/users/:id/profit", adminHandler.CreditProfit)
	admin.Put("/users/:id/status", adminHandler.UpdateUserStatus)

	admin.Get("/transactions", adminHandler.ListTransactions)
	admin.Put("/transactions/:id", adminHandler.DecideTransaction)

	admin.Post("/coins", adminHandler.CreateCoin)
	admin.Put("/coins/:id", adminHandler.UpdateCoin)
	admin.Delete("/coins/:id", adminHandler.DeleteCoin)

	admin.Get("/settings", adminHandler.GetSettings)
	admin.Put("/settings", adminHandler.UpdateSettings)

	admin.Get("/referrals", adminHandler.ListReferralUsers)
	admin.Get("/referrals/stats", adminHandler.ReferralStats)
	admin.Put("/referrals/:id/approve", adminHandler.ApproveReferralBonus)

	admin.Get("/support", supportHandler.AdminList)
	admin.Put("/support/:id", supportHandler.AdminUpdate)
	admin.Delete("/support/:id", supportHandler.AdminDelete)
}
