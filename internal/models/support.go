package models

import (
	"time"

	"github.com/google/uuid"
)

// SupportMessage is a user-raised ticket answered by an admin.
type SupportMessage struct {
	BaseModel
	UserID        uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	User          *User      `json:"user,omitempty"`
	Subject       string     `json:"subject"`
	Message       string     `json:"message"`
	Category      string     `gorm:"default:other" json:"category"`
	Priority      string     `gorm:"default:medium" json:"priority"`
	Status        string     `gorm:"index;default:open" json:"status"`
	AdminResponse string     `json:"admin_response"`
	RespondedAt   *time.Time `json:"responded_at"`
}
