package models

import "github.com/shopspring/decimal"

// Coin is an admin-curated listing users can invest into. Deleting a coin
// only flips IsActive; investments against inactive coins are rejected.
// IsActive carries no column default: GORM drops zero-valued fields that have
// a default tag, which would silently activate coins created inactive. Every
// create site sets it explicitly.
type Coin struct {
	BaseModel
	Name             string          `json:"name"`
	Symbol           string          `gorm:"index" json:"symbol"`
	CurrentPrice     decimal.Decimal `gorm:"type:numeric(20,8)" json:"current_price"`
	PriceChange24h   decimal.Decimal `gorm:"column:price_change_24h;type:numeric(10,4);default:0" json:"price_change_24h"`
	ProfitPercentage decimal.Decimal `gorm:"type:numeric(10,4);default:0" json:"profit_percentage"`
	Icon             string          `json:"icon"`
	IsActive         bool            `json:"is_active"`
}
