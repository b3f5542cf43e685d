package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Role values for User.Role.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a platform account together with its wallet ledger fields.
// WalletBalance, TotalInvested, TotalProfit and the referral bonus fields are
// only mutated through the ledger service.
type User struct {
	BaseModel
	PhoneNumber  string `gorm:"uniqueIndex" json:"phone_number"`
	PasswordHash string `json:"-"`
	FullName     string `json:"full_name"`
	Email        string `json:"email"`

	WalletBalance decimal.Decimal `gorm:"type:numeric(20,8);default:0" json:"wallet_balance"`
	TotalInvested decimal.Decimal `gorm:"type:numeric(20,8);default:0" json:"total_invested"`
	TotalProfit   decimal.Decimal `gorm:"type:numeric(20,8);default:0" json:"total_profit"`

	Investments []Position `json:"investments,omitempty"`

	// ReferralCode is generated once at registration and never changes.
	ReferralCode          string          `gorm:"uniqueIndex" json:"referral_code"`
	ReferredByID          *uuid.UUID      `gorm:"type:uuid" json:"referred_by_id"`
	ReferralBonus         decimal.Decimal `gorm:"type:numeric(20,8);default:0" json:"referral_bonus"`
	ReferralBonusApproved bool            `gorm:"default:false" json:"referral_bonus_approved"`
	HasInvested           bool            `gorm:"default:false" json:"has_invested"`
	Referrals             []Referral      `gorm:"foreignKey:ReferrerID" json:"referrals,omitempty"`

	// No default tag on IsActive: GORM drops zero-valued defaulted fields at
	// insert, so an account created deactivated would come back active.
	Role     string `gorm:"default:user" json:"role"`
	IsActive bool   `json:"is_active"`
}

// Referral records one signup attributed to a referrer.
type Referral struct {
	BaseModel
	ReferrerID uuid.UUID `gorm:"type:uuid;index" json:"referrer_id"`
	ReferredID uuid.UUID `gorm:"type:uuid;index" json:"referred_id"`
	JoinedAt   time.Time `json:"joined_at"`
	BonusPaid  bool      `gorm:"default:false" json:"bonus_paid"`
}
