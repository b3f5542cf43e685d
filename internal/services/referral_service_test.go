package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/cryptocoins/internal/models"
)

func TestRegisterWithoutReferralCode(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db)

	user := &models.User{
		FullName:     "New User",
		PhoneNumber:  "9876543210",
		PasswordHash: "hash",
	}
	require.NoError(t, referrals.Register(context.Background(), user, ""))

	assert.Nil(t, user.ReferredByID)
	assert.True(t, user.ReferralBonus.IsZero())
	assert.NotEmpty(t, user.ReferralCode)
}

func TestRegisterWithReferralCode(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db)
	ctx := context.Background()

	referrer := createTestUser(t, db, "9123456789", decimal.Zero)

	user := &models.User{
		FullName:     "New User",
		PhoneNumber:  "9876543210",
		PasswordHash: "hash",
	}
	require.NoError(t, referrals.Register(ctx, user, referrer.ReferralCode))

	require.NotNil(t, user.ReferredByID)
	assert.Equal(t, referrer.ID, *user.ReferredByID)
	assert.True(t, user.ReferralBonus.Equal(ReferralBonusAmount))
	assert.False(t, user.ReferralBonusApproved, "bonus waits for admin approval")

	// The bonus is a liability, not spendable balance.
	var fresh models.User
	require.NoError(t, db.First(&fresh, "id = ?", user.ID).Error)
	assert.True(t, fresh.WalletBalance.IsZero())

	var referral models.Referral
	require.NoError(t, db.First(&referral, "referrer_id = ?", referrer.ID).Error)
	assert.Equal(t, user.ID, referral.ReferredID)
	assert.False(t, referral.BonusPaid)
}

func TestRegisterWithInvalidReferralCode(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db)

	user := &models.User{
		FullName:     "New User",
		PhoneNumber:  "9876543210",
		PasswordHash: "hash",
	}
	err := referrals.Register(context.Background(), user, "987NOPE654")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count, "registration must not proceed with a bad code")
}

func TestResolveReferrer(t *testing.T) {
	db := setupTestDB(t)
	referrals := NewReferralService(db)
	ctx := context.Background()

	referrer := createTestUser(t, db, "9123456789", decimal.Zero)

	found, err := referrals.ResolveReferrer(ctx, referrer.ReferralCode)
	require.NoError(t, err)
	assert.Equal(t, referrer.ID, found.ID)

	_, err = referrals.ResolveReferrer(ctx, "does-not-exist")
	assert.ErrorIs(t, err, ErrInvalidReferralCode)
}

func TestGenerateReferralCode(t *testing.T) {
	code, err := GenerateReferralCode("9876543210")
	require.NoError(t, err)

	// Middle six digits of 9876543210 are 765432: three digits, four random
	// alphanumerics, three digits.
	require.Len(t, code, 10)
	assert.Equal(t, "765", code[:3])
	assert.Equal(t, "432", code[7:])
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{4}$`), code[3:7])

	// Short inputs are zero-padded rather than rejected.
	short, err := GenerateReferralCode("42")
	require.NoError(t, err)
	require.Len(t, short, 10)
	assert.Equal(t, "000", short[:3])
	assert.Equal(t, "042", short[7:])
}
