package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/models"
)

// LedgerService is the sole authority for mutating wallet balance, invested
// totals, referral bonus state and the position list. Every mutation is either
// a single conditional UPDATE or wrapped in a database transaction so a
// failure leaves the ledger in its pre-operation state.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService constructs a LedgerService.
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// WithTx returns a LedgerService bound to an open database transaction.
func (s *LedgerService) WithTx(tx *gorm.DB) *LedgerService {
	return &LedgerService{db: tx}
}

// Credit adds amount to the user's wallet balance.
func (s *LedgerService) Credit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Debit subtracts amount from the user's wallet balance. The balance check
// and the subtraction happen in one conditional UPDATE, so no debit through
// this path can drive the balance negative.
func (s *LedgerService) Debit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND wallet_balance >= ?", userID, amount).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).
			Where("id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrUserNotFound
		}
		return ErrInsufficientFunds
	}
	return nil
}

// OpenPosition debits the principal, appends a position snapshot and bumps
// the invested totals as one logical unit. The coin must be active and the
// debit must succeed, otherwise nothing is applied.
func (s *LedgerService) OpenPosition(ctx context.Context, userID uuid.UUID, coin *models.Coin, amount decimal.Decimal) (*models.Position, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !coin.IsActive {
		return nil, ErrCoinInactive
	}
	if !coin.CurrentPrice.IsPositive() {
		return nil, ErrCoinInactive
	}

	position := &models.Position{
		UserID:           userID,
		CoinID:           coin.ID,
		CoinName:         coin.Name,
		CoinSymbol:       coin.Symbol,
		AmountInvested:   amount,
		CoinQuantity:     amount.Div(coin.CurrentPrice),
		PurchasePrice:    coin.CurrentPrice,
		CurrentValue:     amount,
		ProfitPercentage: coin.ProfitPercentage,
		PurchaseDate:     time.Now(),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ledger := s.WithTx(tx)
		if err := ledger.Debit(ctx, userID, amount); err != nil {
			return err
		}

		if err := tx.Create(position).Error; err != nil {
			return err
		}

		return tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"total_invested": gorm.Expr("total_invested + ?", amount),
				"has_invested":   true,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	return position, nil
}

// ApproveReferralBonus credits the pending bonus and flips the approved flag
// in a single conditional UPDATE, so a crash cannot leave one without the
// other. The referrer's Referral row is marked paid in the same database
// transaction.
func (s *LedgerService) ApproveReferralBonus(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.ReferralBonusApproved {
		return nil, ErrAlreadyApproved
	}
	if !user.ReferralBonus.IsPositive() {
		return nil, ErrNoBonusPending
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ? AND referral_bonus_approved = ? AND referral_bonus > 0", userID, false).
			Updates(map[string]interface{}{
				"wallet_balance":          gorm.Expr("wallet_balance + referral_bonus"),
				"referral_bonus_approved": true,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Lost the race with a concurrent approval.
			return ErrAlreadyApproved
		}

		// The referrer's ledger entry flips to paid with the credit.
		if user.ReferredByID != nil {
			return tx.Model(&models.Referral{}).
				Where("referrer_id = ? AND referred_id = ?", *user.ReferredByID, userID).
				Update("bonus_paid", true).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// CreditProfit is the only path that writes total_profit. It credits the
// wallet, bumps the accumulated profit and records an approved profit
// transaction together.
func (s *LedgerService) CreditProfit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, notes string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	txn := &models.Transaction{
		UserID:     userID,
		Type:       models.TransactionProfit,
		Amount:     amount,
		Status:     models.StatusApproved,
		AdminNotes: notes,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", userID).
			Updates(map[string]interface{}{
				"wallet_balance": gorm.Expr("wallet_balance + ?", amount),
				"total_profit":   gorm.Expr("total_profit + ?", amount),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUserNotFound
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, err
	}

	return txn, nil
}
