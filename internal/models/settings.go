package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Settings is a singleton row holding platform-wide configuration. The QR
// code is stored both as a file reference and as base64 so it survives
// ephemeral filesystems.
type Settings struct {
	BaseModel
	QRCodeImage     string          `json:"qr_code_image"`
	QRCodeBase64    string          `json:"qr_code_base64"`
	MaintenanceMode bool            `gorm:"default:false" json:"maintenance_mode"`
	PlatformFee     decimal.Decimal `gorm:"type:numeric(10,4);default:0" json:"platform_fee"`
}

// OTP tracks single-use password-reset codes sent to users.
type OTP struct {
	BaseModel
	PhoneNumber string    `gorm:"index" json:"phone_number"`
	Code        string    `json:"code"`
	IsUsed      bool      `gorm:"default:false" json:"is_used"`
	ExpiresAt   time.Time `json:"expires_at"`
}
