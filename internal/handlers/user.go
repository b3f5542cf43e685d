package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/middleware"
	"github.com/example/cryptocoins/internal/models"
	"github.com/example/cryptocoins/internal/utils"
)

// UserHandler manages authenticated user endpoints.
type UserHandler struct {
	db *gorm.DB
}

// NewUserHandler constructs UserHandler.
func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// GetProfile returns the user's profile with investments.
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("Investments").Preload("Referrals").
		First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "user": user})
}

type updateProfileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// UpdateProfile updates the user's name and email.
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.FullName != "" {
		updates["full_name"] = utils.SanitizeInput(req.FullName)
	}
	if req.Email != "" {
		updates["email"] = utils.SanitizeInput(req.Email)
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}

	if err := h.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "message": "profile updated"})
}

// GetWallet returns wallet balance and invested totals.
func (h *UserHandler) GetWallet(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Select("id", "wallet_balance", "total_invested", "total_profit").
		First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"wallet_balance": user.WalletBalance,
			"total_invested": user.TotalInvested,
			"total_profit":   user.TotalProfit,
		},
	})
}

type positionView struct {
	models.Position
	LiveValue decimal.Decimal `json:"live_value"`
}

// GetInvestments lists the user's positions. Live value is a read-time
// computation from the coin's current price, never a stored field.
func (h *UserHandler) GetInvestments(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var positions []models.Position
	if err := h.db.Where("user_id = ?", userID).
		Order("purchase_date desc").
		Find(&positions).Error; err != nil {
		return err
	}

	coinIDs := make([]interface{}, 0, len(positions))
	for _, p := range positions {
		coinIDs = append(coinIDs, p.CoinID)
	}

	prices := map[string]decimal.Decimal{}
	if len(coinIDs) > 0 {
		var coins []models.Coin
		if err := h.db.Where("id IN ?", coinIDs).Find(&coins).Error; err != nil {
			return err
		}
		for _, coin := range coins {
			prices[coin.ID.String()] = coin.CurrentPrice
		}
	}

	views := make([]positionView, 0, len(positions))
	for _, p := range positions {
		view := positionView{Position: p, LiveValue: p.CurrentValue}
		if price, ok := prices[p.CoinID.String()]; ok {
			view.LiveValue = p.CoinQuantity.Mul(price)
		}
		views = append(views, view)
	}

	return c.JSON(fiber.Map{"success": true, "data": views})
}

// GetTransactions lists the user's transaction history.
func (h *UserHandler) GetTransactions(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	pg := utils.ParsePagination(c)

	var transactions []models.Transaction
	if err := h.db.Where("user_id = ?", userID).
		Preload("Coin").
		Order("created_at desc").
		Limit(pg.Limit).Offset(pg.Offset).
		Find(&transactions).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": transactions})
}

// GetSettings returns platform settings relevant to users (payment QR code).
func (h *UserHandler) GetSettings(c *fiber.Ctx) error {
	var settings models.Settings
	if err := h.db.FirstOrCreate(&settings, models.Settings{}).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"qr_code_image":    settings.QRCodeImage,
			"qr_code_base64":   settings.QRCodeBase64,
			"maintenance_mode": settings.MaintenanceMode,
		},
	})
}

// GetReferrals returns the user's referral code and whom they referred.
func (h *UserHandler) GetReferrals(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("Referrals").First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"referral_code":           user.ReferralCode,
			"referral_bonus":          user.ReferralBonus,
			"referral_bonus_approved": user.ReferralBonusApproved,
			"has_invested":            user.HasInvested,
			"referrals":               user.Referrals,
		},
	})
}
