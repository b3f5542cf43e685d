package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/models"
	"github.com/example/cryptocoins/internal/services"
	"github.com/example/cryptocoins/internal/utils"
)

// AdminHandler manages admin-only endpoints.
type AdminHandler struct {
	db       *gorm.DB
	ledger   *services.LedgerService
	workflow *services.WorkflowService
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(db *gorm.DB, ledger *services.LedgerService, workflow *services.WorkflowService) *AdminHandler {
	return &AdminHandler{db: db, ledger: ledger, workflow: workflow}
}

// Dashboard returns aggregate platform statistics.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	var totalUsers int64
	if err := h.db.Model(&models.User{}).Where("role = ?", models.RoleUser).Count(&totalUsers).Error; err != nil {
		return err
	}

	var totalDeposits decimal.Decimal
	if err := h.db.Model(&models.Transaction{}).
		Where("type = ? AND status = ?", models.TransactionDeposit, models.StatusApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalDeposits).Error; err != nil {
		return err
	}

	var totalInvestments decimal.Decimal
	if err := h.db.Model(&models.Transaction{}).
		Where("type = ?", models.TransactionInvestment).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalInvestments).Error; err != nil {
		return err
	}

	var totalProfitDistributed decimal.Decimal
	if err := h.db.Model(&models.User{}).
		Select("COALESCE(SUM(total_profit), 0)").
		Scan(&totalProfitDistributed).Error; err != nil {
		return err
	}

	var pendingTransactions int64
	if err := h.db.Model(&models.Transaction{}).
		Where("status = ?", models.StatusPending).
		Count(&pendingTransactions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_users":              totalUsers,
			"total_deposits":           totalDeposits,
			"total_investments":        totalInvestments,
			"total_profit_distributed": totalProfitDistributed,
			"pending_transactions":     pendingTransactions,
		},
	})
}

// ListUsers returns all non-admin users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var users []models.User
	if err := h.db.Where("role = ?", models.RoleUser).
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": users})
}

// GetUser returns one user with investments and transaction history.
func (h *AdminHandler) GetUser(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var user models.User
	if err := h.db.Preload("Investments").Preload("Referrals").
		First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		return err
	}

	var transactions []models.Transaction
	if err := h.db.Where("user_id = ?", userID).
		Preload("Coin").
		Order("created_at desc").
		Find(&transactions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"user":         user,
		"transactions": transactions,
	})
}

type walletUpdateRequest struct {
	Amount string `json:"amount"`
	Action string `json:"action"`
}

// UpdateUserWallet adds or deducts funds from a user's wallet.
func (h *AdminHandler) UpdateUserWallet(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var req walletUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !utils.ValidateAmount(amount) {
		return fiber.NewError(fiber.StatusBadRequest, "please provide a valid amount")
	}

	switch req.Action {
	case "add":
		err = h.ledger.Credit(c.Context(), userID, amount)
	case "deduct":
		err = h.ledger.Debit(c.Context(), userID, amount)
	default:
		return fiber.NewError(fiber.StatusBadRequest, "action must be add or deduct")
	}
	if err != nil {
		return serviceError(err)
	}

	var user models.User
	if err := h.db.Select("id", "wallet_balance").First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        fmt.Sprintf("Successfully %sed amount", req.Action),
		"wallet_balance": user.WalletBalance,
	})
}

type creditProfitRequest struct {
	Amount string `json:"amount"`
	Notes  string `json:"notes"`
}

// CreditProfit credits profit to a user's wallet and accumulated total.
func (h *AdminHandler) CreditProfit(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var req creditProfitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !utils.ValidateAmount(amount) {
		return fiber.NewError(fiber.StatusBadRequest, "please provide a valid amount")
	}

	txn, err := h.ledger.CreditProfit(c.Context(), userID, amount, req.Notes)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Profit credited successfully",
		"transaction": txn,
	})
}

type statusUpdateRequest struct {
	IsActive *bool `json:"is_active"`
}

// UpdateUserStatus activates or deactivates a user account.
func (h *AdminHandler) UpdateUserStatus(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	var req statusUpdateRequest
	if err := c.BodyParser(&req); err != nil || req.IsActive == nil {
		return fiber.NewError(fiber.StatusBadRequest, "is_active is required")
	}

	res := h.db.Model(&models.User{}).Where("id = ?", userID).Update("is_active", *req.IsActive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	verb := "deactivated"
	if *req.IsActive {
		verb = "activated"
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"message":   fmt.Sprintf("User %s successfully", verb),
		"is_active": *req.IsActive,
	})
}

// ListTransactions returns all transactions with optional status/type filters.
func (h *AdminHandler) ListTransactions(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Transaction{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if txType := c.Query("type"); txType != "" {
		query = query.Where("type = ?", txType)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var transactions []models.Transaction
	if err := query.Preload("User").Preload("Coin").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&transactions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    transactions,
		"pagination": fiber.Map{
			"page":  pg.Page,
			"limit": pg.Limit,
			"total": total,
		},
	})
}

type decideRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

// DecideTransaction approves or rejects a pending transaction.
func (h *AdminHandler) DecideTransaction(c *fiber.Ctx) error {
	transactionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid transaction id")
	}

	var req decideRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Status != models.StatusApproved && req.Status != models.StatusRejected {
		return fiber.NewError(fiber.StatusBadRequest, "status must be approved or rejected")
	}

	txn, err := h.workflow.Decide(c.Context(), transactionID, req.Status, req.AdminNotes)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     fmt.Sprintf("Transaction %s successfully", req.Status),
		"transaction": txn,
	})
}

type coinRequest struct {
	Name             string `json:"name"`
	Symbol           string `json:"symbol"`
	CurrentPrice     string `json:"current_price"`
	ProfitPercentage string `json:"profit_percentage"`
	PriceChange24h   string `json:"price_change_24h"`
	Icon             string `json:"icon"`
	IsActive         *bool  `json:"is_active"`
}

// CreateCoin adds a new coin listing.
func (h *AdminHandler) CreateCoin(c *fiber.Ctx) error {
	var req coinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Symbol == "" || req.CurrentPrice == "" {
		return fiber.NewError(fiber.StatusBadRequest, "please provide name, symbol and current price")
	}

	price, err := decimal.NewFromString(req.CurrentPrice)
	if err != nil || !price.IsPositive() {
		return fiber.NewError(fiber.StatusBadRequest, "current price must be greater than zero")
	}

	coin := models.Coin{
		Name:         req.Name,
		Symbol:       req.Symbol,
		CurrentPrice: price,
		Icon:         req.Icon,
		IsActive:     true,
	}
	if req.ProfitPercentage != "" {
		if coin.ProfitPercentage, err = decimal.NewFromString(req.ProfitPercentage); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid profit percentage")
		}
	}
	if req.PriceChange24h != "" {
		if coin.PriceChange24h, err = decimal.NewFromString(req.PriceChange24h); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid price change")
		}
	}

	if err := h.db.Create(&coin).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": coin})
}

// UpdateCoin updates coin fields; omitted fields keep their values.
func (h *AdminHandler) UpdateCoin(c *fiber.Ctx) error {
	coinID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coin id")
	}

	var coin models.Coin
	if err := h.db.First(&coin, "id = ?", coinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "coin not found")
		}
		return err
	}

	var req coinRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name != "" {
		coin.Name = req.Name
	}
	if req.Symbol != "" {
		coin.Symbol = req.Symbol
	}
	if req.Icon != "" {
		coin.Icon = req.Icon
	}
	if req.CurrentPrice != "" {
		price, err := decimal.NewFromString(req.CurrentPrice)
		if err != nil || !price.IsPositive() {
			return fiber.NewError(fiber.StatusBadRequest, "current price must be greater than zero")
		}
		coin.CurrentPrice = price
	}
	if req.ProfitPercentage != "" {
		if coin.ProfitPercentage, err = decimal.NewFromString(req.ProfitPercentage); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid profit percentage")
		}
	}
	if req.PriceChange24h != "" {
		if coin.PriceChange24h, err = decimal.NewFromString(req.PriceChange24h); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid price change")
		}
	}
	if req.IsActive != nil {
		coin.IsActive = *req.IsActive
	}

	if err := h.db.Save(&coin).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": coin})
}

// DeleteCoin soft-deletes a coin by flipping IsActive.
func (h *AdminHandler) DeleteCoin(c *fiber.Ctx) error {
	coinID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coin id")
	}

	res := h.db.Model(&models.Coin{}).Where("id = ?", coinID).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "coin not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Coin deactivated successfully"})
}

// Analytics returns coin purchase totals and deposit revenue.
func (h *AdminHandler) Analytics(c *fiber.Ctx) error {
	type coinPurchase struct {
		CoinID      uuid.UUID       `json:"coin_id"`
		CoinName    string          `json:"coin_name"`
		Count       int64           `json:"count"`
		TotalAmount decimal.Decimal `json:"total_amount"`
	}

	var purchases []coinPurchase
	if err := h.db.Model(&models.Transaction{}).
		Select("transactions.coin_id, coins.name AS coin_name, COUNT(*) AS count, COALESCE(SUM(transactions.amount), 0) AS total_amount").
		Joins("JOIN coins ON coins.id = transactions.coin_id").
		Where("transactions.type = ?", models.TransactionInvestment).
		Group("transactions.coin_id, coins.name").
		Scan(&purchases).Error; err != nil {
		return err
	}

	var totalRevenue decimal.Decimal
	if err := h.db.Model(&models.Transaction{}).
		Where("type = ? AND status = ?", models.TransactionDeposit, models.StatusApproved).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalRevenue).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"coin_purchases": purchases,
			"total_revenue":  totalRevenue,
		},
	})
}

// GetSettings returns the settings singleton, creating it on first use.
func (h *AdminHandler) GetSettings(c *fiber.Ctx) error {
	var settings models.Settings
	if err := h.db.FirstOrCreate(&settings, models.Settings{}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// UpdateSettings updates platform settings. An uploaded QR code is also
// stored as base64 so it survives ephemeral filesystems.
func (h *AdminHandler) UpdateSettings(c *fiber.Ctx) error {
	var settings models.Settings
	if err := h.db.FirstOrCreate(&settings, models.Settings{}).Error; err != nil {
		return err
	}

	if file, err := c.FormFile("qr_code"); err == nil {
		src, err := file.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			return err
		}

		contentType := file.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "image/png"
		}
		settings.QRCodeImage = file.Filename
		settings.QRCodeBase64 = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	}

	if v := c.FormValue("maintenance_mode"); v != "" {
		settings.MaintenanceMode = v == "true"
	}
	if v := c.FormValue("platform_fee"); v != "" {
		fee, err := decimal.NewFromString(v)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid platform fee")
		}
		settings.PlatformFee = fee
	}

	if err := h.db.Save(&settings).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": settings})
}

// ListReferralUsers returns users carrying an unapproved referral bonus.
func (h *AdminHandler) ListReferralUsers(c *fiber.Ctx) error {
	var users []models.User
	if err := h.db.Where("referral_bonus > 0 AND referral_bonus_approved = ?", false).
		Order("created_at desc").
		Find(&users).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": users})
}

// ReferralStats summarizes the referral program.
func (h *AdminHandler) ReferralStats(c *fiber.Ctx) error {
	var totalReferrals int64
	if err := h.db.Model(&models.User{}).Where("referred_by_id IS NOT NULL").Count(&totalReferrals).Error; err != nil {
		return err
	}

	var pendingBonuses int64
	if err := h.db.Model(&models.User{}).
		Where("referral_bonus > 0 AND referral_bonus_approved = ?", false).
		Count(&pendingBonuses).Error; err != nil {
		return err
	}

	var approvedBonuses int64
	if err := h.db.Model(&models.User{}).
		Where("referral_bonus_approved = ?", true).
		Count(&approvedBonuses).Error; err != nil {
		return err
	}

	var totalBonusPending decimal.Decimal
	if err := h.db.Model(&models.User{}).
		Where("referral_bonus > 0 AND referral_bonus_approved = ?", false).
		Select("COALESCE(SUM(referral_bonus), 0)").
		Scan(&totalBonusPending).Error; err != nil {
		return err
	}

	var totalBonusPaid decimal.Decimal
	if err := h.db.Model(&models.User{}).
		Where("referral_bonus_approved = ?", true).
		Select("COALESCE(SUM(referral_bonus), 0)").
		Scan(&totalBonusPaid).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"total_referrals":     totalReferrals,
			"pending_bonuses":     pendingBonuses,
			"approved_bonuses":    approvedBonuses,
			"total_bonus_pending": totalBonusPending,
			"total_bonus_paid":    totalBonusPaid,
		},
	})
}

// ApproveReferralBonus credits a user's pending referral bonus.
func (h *AdminHandler) ApproveReferralBonus(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	user, err := h.ledger.ApproveReferralBonus(c.Context(), userID)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("₹%s referral bonus approved and added to wallet", user.ReferralBonus.StringFixed(0)),
		"user": fiber.Map{
			"id":                      user.ID,
			"full_name":               user.FullName,
			"phone_number":            user.PhoneNumber,
			"wallet_balance":          user.WalletBalance,
			"referral_bonus":          user.ReferralBonus,
			"referral_bonus_approved": user.ReferralBonusApproved,
		},
	})
}
