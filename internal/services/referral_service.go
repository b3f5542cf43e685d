package services

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"
	"time"

	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/models"
)

const (
	referralSuffixChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referralCodeAttempts = 5
)

var nonDigits = regexp.MustCompile(`\D`)

// ReferralService resolves referral codes at registration time and grants
// the fixed bonus pending admin approval.
type ReferralService struct {
	db *gorm.DB
}

// NewReferralService constructs a ReferralService.
func NewReferralService(db *gorm.DB) *ReferralService {
	return &ReferralService{db: db}
}

// ResolveReferrer maps a referral code to its owner.
func (s *ReferralService) ResolveReferrer(ctx context.Context, code string) (*models.User, error) {
	var referrer models.User
	if err := s.db.WithContext(ctx).First(&referrer, "referral_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, err
	}
	return &referrer, nil
}

// Register persists a new user with a freshly generated referral code,
// retrying on code collision. When a referral code was supplied the fixed
// bonus is granted pending admin approval and a ledger entry is appended to
// the referrer.
func (s *ReferralService) Register(ctx context.Context, user *models.User, referralCode string) error {
	var referrer *models.User
	if referralCode != "" {
		resolved, err := s.ResolveReferrer(ctx, referralCode)
		if err != nil {
			return err
		}
		referrer = resolved
		user.ReferredByID = &referrer.ID
		user.ReferralBonus = ReferralBonusAmount
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var createErr error
		for attempt := 0; attempt < referralCodeAttempts; attempt++ {
			code, err := GenerateReferralCode(user.PhoneNumber)
			if err != nil {
				return err
			}
			user.ReferralCode = code

			createErr = tx.Create(user).Error
			if createErr == nil {
				break
			}
			if !errors.Is(createErr, gorm.ErrDuplicatedKey) {
				return createErr
			}
		}
		if createErr != nil {
			return createErr
		}

		if referrer == nil {
			return nil
		}

		return tx.Create(&models.Referral{
			ReferrerID: referrer.ID,
			ReferredID: user.ID,
			JoinedAt:   time.Now(),
		}).Error
	})
}

// GenerateReferralCode mixes the middle six digits of the phone number with
// four random alphanumerics: first three digits, random block, last three.
func GenerateReferralCode(phoneNumber string) (string, error) {
	digits := nonDigits.ReplaceAllString(phoneNumber, "")
	for len(digits) < 6 {
		digits = "0" + digits
	}
	start := (len(digits) - 6) / 2
	middle := digits[start : start+6]

	suffix := make([]byte, 4)
	max := big.NewInt(int64(len(referralSuffixChars)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix[i] = referralSuffixChars[n.Int64()]
	}

	return middle[:3] + string(suffix) + middle[3:], nil
}
