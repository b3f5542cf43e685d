package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Platform ledger constants, in INR.
var (
	// MinBalance must remain in the wallet after any withdrawal.
	MinBalance = decimal.NewFromInt(200)
	// BankChargeRate is deducted from the paid-out amount, not the wallet.
	BankChargeRate = decimal.NewFromFloat(0.02)
	// ReferralBonusAmount is granted at registration when a valid code is supplied.
	ReferralBonusAmount = decimal.NewFromInt(200)
)

// Sentinel errors shared across the service layer.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientFunds   = errors.New("insufficient wallet balance")
	ErrCoinNotFound        = errors.New("coin not found")
	ErrCoinInactive        = errors.New("this coin is not available for investment")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyDecided      = errors.New("transaction has already been decided")
	ErrInvalidReferralCode = errors.New("invalid referral code")
	ErrNoBonusPending      = errors.New("no referral bonus to approve")
	ErrAlreadyApproved     = errors.New("referral bonus already approved")
	ErrUserNotFound        = errors.New("user not found")
)

// BelowMinimumBalanceError is returned when a withdrawal would leave the
// wallet under MinBalance. The message reports the exact shortfall.
type BelowMinimumBalanceError struct {
	Amount  decimal.Decimal
	Balance decimal.Decimal
}

func (e *BelowMinimumBalanceError) Error() string {
	required := e.Amount.Add(MinBalance)
	return fmt.Sprintf(
		"insufficient balance: you need ₹%s (₹%s withdrawal + ₹%s minimum balance), current balance ₹%s",
		required.String(), e.Amount.String(), MinBalance.String(), e.Balance.String(),
	)
}

// ReferralInvestmentRequiredError gates the entire withdrawal, not just the
// bonus portion, while an unused referral bonus is carried.
type ReferralInvestmentRequiredError struct {
	Bonus decimal.Decimal
}

func (e *ReferralInvestmentRequiredError) Error() string {
	return fmt.Sprintf(
		"you have a ₹%s referral bonus: you must invest in at least one coin before you can withdraw",
		e.Bonus.String(),
	)
}
