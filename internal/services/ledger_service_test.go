package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cryptocoins/internal/models"
)

func TestCredit(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(100))

	err := ledger.Credit(ctx, user.ID, decimal.NewFromInt(50))
	require.NoError(t, err)

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(150)),
		"expected 150, got %s", fresh.WalletBalance)
}

func TestCreditRejectsNonPositiveAmount(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(100))

	assert.ErrorIs(t, ledger.Credit(ctx, user.ID, decimal.Zero), ErrInvalidAmount)
	assert.ErrorIs(t, ledger.Credit(ctx, user.ID, decimal.NewFromInt(-5)), ErrInvalidAmount)

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(100)))
}

func TestCreditUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	err := ledger.Credit(context.Background(), uuid.New(), decimal.NewFromInt(50))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestDebit(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(100))

	require.NoError(t, ledger.Debit(ctx, user.ID, decimal.NewFromInt(60)))

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(40)))
}

func TestDebitInsufficientFunds(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(100))

	err := ledger.Debit(ctx, user.ID, decimal.NewFromInt(101))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(100)),
		"failed debit must not touch the balance")
}

func TestDebitUnknownUser(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	err := ledger.Debit(context.Background(), uuid.New(), decimal.NewFromInt(10))
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestOpenPosition(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(5000))
	coin := createTestCoin(t, db, "BTC", decimal.NewFromInt(2500000), true)

	position, err := ledger.OpenPosition(ctx, user.ID, coin, decimal.NewFromInt(1000))
	require.NoError(t, err)

	assert.True(t, position.CoinQuantity.Equal(decimal.NewFromFloat(0.0004)),
		"expected 0.0004, got %s", position.CoinQuantity)
	assert.True(t, position.PurchasePrice.Equal(coin.CurrentPrice))
	assert.True(t, position.AmountInvested.Equal(decimal.NewFromInt(1000)))
	assert.True(t, position.CurrentValue.Equal(decimal.NewFromInt(1000)))
	assert.True(t, position.CoinQuantity.Mul(position.PurchasePrice).Equal(position.AmountInvested),
		"quantity * price must equal principal")

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(4000)))
	assert.True(t, fresh.TotalInvested.Equal(decimal.NewFromInt(1000)))
	assert.True(t, fresh.HasInvested)

	var count int64
	require.NoError(t, db.Model(&models.Position{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOpenPositionInactiveCoin(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(5000))
	coin := createTestCoin(t, db, "DOGE", decimal.NewFromInt(12), false)

	_, err := ledger.OpenPosition(ctx, user.ID, coin, decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, ErrCoinInactive)

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(5000)))
	assert.True(t, fresh.TotalInvested.IsZero())
	assert.False(t, fresh.HasInvested)
}

func TestOpenPositionInsufficientFunds(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(500))
	coin := createTestCoin(t, db, "ETH", decimal.NewFromInt(250000), true)

	_, err := ledger.OpenPosition(ctx, user.ID, coin, decimal.NewFromInt(1000))
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(500)))
	assert.False(t, fresh.HasInvested)

	var count int64
	require.NoError(t, db.Model(&models.Position{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count, "failed debit must not append a position")
}

func TestApproveReferralBonus(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(100))
	require.NoError(t, db.Model(user).Update("referral_bonus", ReferralBonusAmount).Error)

	approved, err := ledger.ApproveReferralBonus(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, approved.WalletBalance.Equal(decimal.NewFromInt(300)),
		"expected 300, got %s", approved.WalletBalance)
	assert.True(t, approved.ReferralBonusApproved)

	// Second approval must fail and leave the balance untouched.
	_, err = ledger.ApproveReferralBonus(ctx, user.ID)
	assert.ErrorIs(t, err, ErrAlreadyApproved)

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(300)))
}

func TestApproveReferralBonusNoBonus(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(100))

	_, err := ledger.ApproveReferralBonus(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrNoBonusPending)
}

func TestApproveReferralBonusMarksReferrerLedger(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	referrer := createTestUser(t, db, "9876543210", decimal.Zero)
	referred := createTestUser(t, db, "9123456780", decimal.Zero)
	require.NoError(t, db.Model(referred).Updates(map[string]interface{}{
		"referred_by_id": referrer.ID,
		"referral_bonus": ReferralBonusAmount,
	}).Error)
	require.NoError(t, db.Create(&models.Referral{
		ReferrerID: referrer.ID,
		ReferredID: referred.ID,
	}).Error)

	_, err := ledger.ApproveReferralBonus(ctx, referred.ID)
	require.NoError(t, err)

	var entry models.Referral
	require.NoError(t, db.First(&entry, "referrer_id = ? AND referred_id = ?", referrer.ID, referred.ID).Error)
	assert.True(t, entry.BonusPaid)
}

func TestCreditProfit(t *testing.T) {
	db := setupTestDB(t)
	ledger := NewLedgerService(db)
	ctx := context.Background()

	user := createTestUser(t, db, "9876543210", decimal.NewFromInt(100))

	txn, err := ledger.CreditProfit(ctx, user.ID, decimal.NewFromInt(75), "weekly payout")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionProfit, txn.Type)
	assert.Equal(t, models.StatusApproved, txn.Status)

	fresh := reloadUser(t, db, user)
	assert.True(t, fresh.WalletBalance.Equal(decimal.NewFromInt(175)))
	assert.True(t, fresh.TotalProfit.Equal(decimal.NewFromInt(75)))
}
