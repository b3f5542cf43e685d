package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/config"
	"github.com/example/cryptocoins/internal/middleware"
	"github.com/example/cryptocoins/internal/models"
	"github.com/example/cryptocoins/internal/services"
	"github.com/example/cryptocoins/internal/utils"
)

// AuthHandler bundles dependencies for authentication endpoints.
type AuthHandler struct {
	db        *gorm.DB
	cfg       *config.Config
	referrals *services.ReferralService
	sms       *services.SMSService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(db *gorm.DB, cfg *config.Config, referrals *services.ReferralService, sms *services.SMSService) *AuthHandler {
	return &AuthHandler{db: db, cfg: cfg, referrals: referrals, sms: sms}
}

type registerRequest struct {
	PhoneNumber  string `json:"phone_number"`
	Password     string `json:"password"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`
	ReferralCode string `json:"referral_code"`
}

// Register creates a new user account, optionally attributed to a referrer.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.PhoneNumber == "" || req.Password == "" || req.FullName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	if !utils.ValidatePhoneNumber(req.PhoneNumber) {
		return fiber.NewError(fiber.StatusBadRequest, "please provide a valid phone number")
	}

	if problems := utils.ValidatePasswordStrength(req.Password); len(problems) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(problems, "; "))
	}

	var existing models.User
	if err := h.db.Where("phone_number = ?", req.PhoneNumber).First(&existing).Error; err == nil {
		return fiber.NewError(fiber.StatusConflict, "user already exists with this phone number")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	user := models.User{
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: passwordHash,
		FullName:     utils.SanitizeInput(req.FullName),
		Email:        strings.ToLower(utils.SanitizeInput(req.Email)),
		Role:         models.RoleUser,
		IsActive:     true,
	}

	if err := h.referrals.Register(c.Context(), &user, strings.TrimSpace(req.ReferralCode)); err != nil {
		return serviceError(err)
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	message := "Account created successfully!"
	if user.ReferredByID != nil {
		message = "Account created! ₹" + user.ReferralBonus.StringFixed(0) + " referral bonus pending admin approval."
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": message,
		"token":   token,
		"user": fiber.Map{
			"id":             user.ID,
			"phone_number":   user.PhoneNumber,
			"full_name":      user.FullName,
			"email":          user.Email,
			"role":           user.Role,
			"referral_code":  user.ReferralCode,
			"referral_bonus": user.ReferralBonus,
		},
	})
}

type loginRequest struct {
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// Login authenticates an existing user.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.db.Where("phone_number = ?", req.PhoneNumber).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	if !user.IsActive {
		return fiber.NewError(fiber.StatusUnauthorized, "your account has been deactivated")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, user.ID, h.cfg.TokenExpires)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate token")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"token":   token,
		"user": fiber.Map{
			"id":                      user.ID,
			"phone_number":            user.PhoneNumber,
			"full_name":               user.FullName,
			"email":                   user.Email,
			"role":                    user.Role,
			"wallet_balance":          user.WalletBalance,
			"referral_code":           user.ReferralCode,
			"referral_bonus":          user.ReferralBonus,
			"referral_bonus_approved": user.ReferralBonusApproved,
			"has_invested":            user.HasInvested,
		},
	})
}

type forgotPasswordRequest struct {
	PhoneNumber string `json:"phone_number"`
}

// ForgotPassword issues a single-use OTP to the user's phone.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req forgotPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.PhoneNumber == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone number is required")
	}

	var user models.User
	if err := h.db.Where("phone_number = ?", req.PhoneNumber).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found with this phone number")
		}
		return err
	}

	code, err := services.GenerateOTP()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to generate code")
	}

	otp := models.OTP{
		PhoneNumber: req.PhoneNumber,
		Code:        code,
		ExpiresAt:   time.Now().Add(10 * time.Minute),
	}
	if err := h.db.Create(&otp).Error; err != nil {
		return err
	}

	// Delivery failure is non-fatal: the code is stored and can be relayed
	// through an admin-assisted channel.
	_ = h.sms.SendOTP(req.PhoneNumber, code)

	return c.JSON(fiber.Map{
		"success": true,
		"message": "OTP sent successfully to your phone number",
	})
}

type verifyOTPRequest struct {
	PhoneNumber string `json:"phone_number"`
	OTP         string `json:"otp"`
}

// VerifyOTP marks a matching, unexpired code as used.
func (h *AuthHandler) VerifyOTP(c *fiber.Ctx) error {
	var req verifyOTPRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.PhoneNumber == "" || req.OTP == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone number and OTP are required")
	}

	var otp models.OTP
	err := h.db.Where("phone_number = ? AND code = ? AND is_used = ? AND expires_at > ?",
		req.PhoneNumber, req.OTP, false, time.Now()).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid or expired OTP")
		}
		return err
	}

	if err := h.db.Model(&otp).Update("is_used", true).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"verified": true,
		"message":  "OTP verified successfully",
	})
}

type resetPasswordRequest struct {
	PhoneNumber string `json:"phone_number"`
	NewPassword string `json:"new_password"`
}

// ResetPassword sets a new password after a recent OTP verification.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.PhoneNumber == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "phone number and new password are required")
	}

	if problems := utils.ValidatePasswordStrength(req.NewPassword); len(problems) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(problems, "; "))
	}

	var otp models.OTP
	err := h.db.Where("phone_number = ? AND is_used = ? AND created_at > ?",
		req.PhoneNumber, true, time.Now().Add(-10*time.Minute)).
		Order("created_at desc").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, "please verify OTP first")
		}
		return err
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	res := h.db.Model(&models.User{}).
		Where("phone_number = ?", req.PhoneNumber).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "user not found")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password reset successfully",
	})
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var user models.User
	if err := h.db.Preload("Investments").First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "user": user})
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ChangePassword updates the password for the authenticated user.
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.CurrentPassword == "" || req.NewPassword == "" {
		return fiber.NewError(fiber.StatusBadRequest, "current and new password are required")
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return fiber.NewError(fiber.StatusUnauthorized, "current password is incorrect")
	}

	if problems := utils.ValidatePasswordStrength(req.NewPassword); len(problems) > 0 {
		return fiber.NewError(fiber.StatusBadRequest, strings.Join(problems, "; "))
	}

	passwordHash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to hash password")
	}

	if err := h.db.Model(&user).Update("password_hash", passwordHash).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Password changed successfully",
	})
}
