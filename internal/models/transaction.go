package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TransactionDeposit    = "deposit"
	TransactionWithdrawal = "withdrawal"
	TransactionInvestment = "investment"
	TransactionProfit     = "profit"
)

// Transaction statuses. Status moves pending -> approved|rejected exactly
// once; investment and profit transactions are created already approved.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Transaction is the audit record for every wallet movement. Withdrawal bank
// details live in structured columns rather than being packed into the
// admin-notes text.
type Transaction struct {
	BaseModel
	UserID       uuid.UUID       `gorm:"type:uuid;index" json:"user_id"`
	User         *User           `json:"user,omitempty"`
	Type         string          `gorm:"index" json:"type"`
	Amount       decimal.Decimal `gorm:"type:numeric(20,8)" json:"amount"`
	CoinID       *uuid.UUID      `gorm:"type:uuid" json:"coin_id"`
	Coin         *Coin           `json:"coin,omitempty"`
	Status       string          `gorm:"index;default:pending" json:"status"`
	PaymentProof string          `json:"payment_proof"`
	AdminNotes   string          `json:"admin_notes"`

	AccountNumber      string          `json:"account_number,omitempty"`
	IFSCCode           string          `json:"ifsc_code,omitempty"`
	AccountHolderName  string          `json:"account_holder_name,omitempty"`
	BankCharges        decimal.Decimal `gorm:"type:numeric(20,8);default:0" json:"bank_charges"`
	AmountAfterCharges decimal.Decimal `gorm:"type:numeric(20,8);default:0" json:"amount_after_charges"`
}
