package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Position is one investment purchase belonging to a user. All fields except
// CurrentValue are fixed at creation; CoinQuantity * PurchasePrice equals
// AmountInvested up to division precision.
type Position struct {
	BaseModel
	UserID           uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	CoinID           uuid.UUID       `gorm:"type:uuid;index" json:"coin_id"`
	CoinName         string          `json:"coin_name"`
	CoinSymbol       string          `json:"coin_symbol"`
	AmountInvested   decimal.Decimal `gorm:"type:numeric(20,8)" json:"amount_invested"`
	CoinQuantity     decimal.Decimal `gorm:"type:numeric(32,18)" json:"coin_quantity"`
	PurchasePrice    decimal.Decimal `gorm:"type:numeric(20,8)" json:"purchase_price"`
	CurrentValue     decimal.Decimal `gorm:"type:numeric(20,8)" json:"current_value"`
	ProfitPercentage decimal.Decimal `gorm:"type:numeric(10,4)" json:"profit_percentage"`
	PurchaseDate     time.Time       `json:"purchase_date"`
}
