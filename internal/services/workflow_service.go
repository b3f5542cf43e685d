package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/models"
)

// BankDetails carries the payout destination supplied with a withdrawal
// request. Stored as structured columns on the transaction.
type BankDetails struct {
	AccountNumber     string
	IFSCCode          string
	AccountHolderName string
}

// WorkflowService creates deposit, investment and withdrawal transactions
// and applies admin decisions to the ledger exactly once.
type WorkflowService struct {
	db     *gorm.DB
	ledger *LedgerService
	notify *TelegramService
}

// NewWorkflowService constructs a WorkflowService.
func NewWorkflowService(db *gorm.DB, ledger *LedgerService, notify *TelegramService) *WorkflowService {
	return &WorkflowService{db: db, ledger: ledger, notify: notify}
}

// CreateDeposit files a pending deposit request. The wallet is only credited
// once an admin approves it.
func (s *WorkflowService) CreateDeposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, proofRef string) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	txn := &models.Transaction{
		UserID:       userID,
		Type:         models.TransactionDeposit,
		Amount:       amount,
		Status:       models.StatusPending,
		PaymentProof: proofRef,
	}

	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.NotifyTransaction("Deposit", userID.String(), amount)
	}

	return txn, nil
}

// CreateInvestment opens a position against an active coin and records an
// already-approved investment transaction. Investments have no pending phase:
// they are bounded entirely by the user's own balance.
func (s *WorkflowService) CreateInvestment(ctx context.Context, userID uuid.UUID, coinID uuid.UUID, amount decimal.Decimal) (*models.Transaction, *models.Position, error) {
	if !amount.IsPositive() {
		return nil, nil, ErrInvalidAmount
	}

	var coin models.Coin
	if err := s.db.WithContext(ctx).First(&coin, "id = ?", coinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCoinNotFound
		}
		return nil, nil, err
	}
	if !coin.IsActive {
		return nil, nil, ErrCoinInactive
	}

	var (
		position *models.Position
		txn      *models.Transaction
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		position, err = s.ledger.WithTx(tx).OpenPosition(ctx, userID, &coin, amount)
		if err != nil {
			return err
		}

		txn = &models.Transaction{
			UserID: userID,
			Type:   models.TransactionInvestment,
			Amount: amount,
			CoinID: &coin.ID,
			Status: models.StatusApproved,
		}
		return tx.Create(txn).Error
	})
	if err != nil {
		return nil, nil, err
	}

	return txn, position, nil
}

// CreateWithdrawal files a pending withdrawal after both gates pass. Nothing
// is debited here; the debit happens at approval time.
func (s *WorkflowService) CreateWithdrawal(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, bank BankDetails) (*models.Transaction, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// A carried, never-invested referral bonus blocks the whole withdrawal,
	// not just the bonus portion.
	if user.ReferralBonus.IsPositive() && !user.HasInvested {
		return nil, &ReferralInvestmentRequiredError{Bonus: user.ReferralBonus}
	}

	if user.WalletBalance.LessThan(amount.Add(MinBalance)) {
		return nil, &BelowMinimumBalanceError{Amount: amount, Balance: user.WalletBalance}
	}

	bankCharges := amount.Mul(BankChargeRate)

	txn := &models.Transaction{
		UserID:             userID,
		Type:               models.TransactionWithdrawal,
		Amount:             amount,
		Status:             models.StatusPending,
		AccountNumber:      bank.AccountNumber,
		IFSCCode:           bank.IFSCCode,
		AccountHolderName:  bank.AccountHolderName,
		BankCharges:        bankCharges,
		AmountAfterCharges: amount.Sub(bankCharges),
	}

	if err := s.db.WithContext(ctx).Create(txn).Error; err != nil {
		return nil, err
	}

	if s.notify != nil {
		s.notify.NotifyTransaction("Withdrawal", user.PhoneNumber, amount)
	}

	return txn, nil
}

// Decide applies an admin approval or rejection to a pending transaction.
// The pending -> decided flip is a conditional UPDATE inside one database
// transaction together with the ledger effect: a repeated or concurrent call
// reports ErrAlreadyDecided, and a failed withdrawal debit rolls the status
// flip back instead of approving with no funds moved.
func (s *WorkflowService) Decide(ctx context.Context, transactionID uuid.UUID, status, adminNotes string) (*models.Transaction, error) {
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, errors.New("status must be approved or rejected")
	}

	var txn models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&txn, "id = ?", transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}

		updates := map[string]interface{}{"status": status}
		if adminNotes != "" {
			updates["admin_notes"] = adminNotes
		}

		res := tx.Model(&models.Transaction{}).
			Where("id = ? AND status = ?", transactionID, models.StatusPending).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyDecided
		}

		if status == models.StatusApproved {
			ledger := s.ledger.WithTx(tx)
			switch txn.Type {
			case models.TransactionDeposit:
				if err := ledger.Credit(ctx, txn.UserID, txn.Amount); err != nil {
					return err
				}
			case models.TransactionWithdrawal:
				if err := ledger.Debit(ctx, txn.UserID, txn.Amount); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	txn.Status = status
	if adminNotes != "" {
		txn.AdminNotes = adminNotes
	}
	return &txn, nil
}
