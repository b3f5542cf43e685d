package handlers

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/cryptocoins/internal/middleware"
	"github.com/example/cryptocoins/internal/services"
	"github.com/example/cryptocoins/internal/utils"
)

// TransactionHandler manages user-initiated deposits, investments and
// withdrawals.
type TransactionHandler struct {
	workflow  *services.WorkflowService
	uploadDir string
}

// NewTransactionHandler constructs TransactionHandler.
func NewTransactionHandler(workflow *services.WorkflowService, uploadDir string) *TransactionHandler {
	return &TransactionHandler{workflow: workflow, uploadDir: uploadDir}
}

// Deposit files a pending deposit request with an optional payment proof
// screenshot. The proof is stored on disk; only its path travels with the
// transaction.
func (h *TransactionHandler) Deposit(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	amount, err := decimal.NewFromString(c.FormValue("amount"))
	if err != nil || !utils.ValidateAmount(amount) {
		return fiber.NewError(fiber.StatusBadRequest, "please provide a valid amount")
	}

	proofRef := ""
	if file, err := c.FormFile("payment_proof"); err == nil {
		if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
			return err
		}
		name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), userID.String(), filepath.Ext(file.Filename))
		proofRef = filepath.Join(h.uploadDir, name)
		if err := c.SaveFile(file, proofRef); err != nil {
			return err
		}
	}

	txn, err := h.workflow.CreateDeposit(c.Context(), userID, amount, proofRef)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Deposit request submitted successfully",
		"transaction": txn,
	})
}

type investRequest struct {
	CoinID string `json:"coin_id"`
	Amount string `json:"amount"`
}

// Invest opens a position against an active coin.
func (h *TransactionHandler) Invest(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req investRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	coinID, err := uuid.Parse(req.CoinID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coin id")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !utils.ValidateAmount(amount) {
		return fiber.NewError(fiber.StatusBadRequest, "please provide a valid amount")
	}

	txn, position, err := h.workflow.CreateInvestment(c.Context(), userID, coinID, amount)
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"message":     "Investment successful",
		"transaction": txn,
		"position":    position,
	})
}

type withdrawRequest struct {
	Amount            string `json:"amount"`
	AccountNumber     string `json:"account_number"`
	IFSCCode          string `json:"ifsc_code"`
	AccountHolderName string `json:"account_holder_name"`
}

// Withdraw files a pending withdrawal request subject to the referral and
// minimum-balance gates.
func (h *TransactionHandler) Withdraw(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !utils.ValidateAmount(amount) {
		return fiber.NewError(fiber.StatusBadRequest, "please provide a valid amount")
	}

	if req.AccountNumber == "" || req.IFSCCode == "" || req.AccountHolderName == "" {
		return fiber.NewError(fiber.StatusBadRequest, "please provide bank account details")
	}

	txn, err := h.workflow.CreateWithdrawal(c.Context(), userID, amount, services.BankDetails{
		AccountNumber:     req.AccountNumber,
		IFSCCode:          req.IFSCCode,
		AccountHolderName: req.AccountHolderName,
	})
	if err != nil {
		return serviceError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":              true,
		"message":              "Withdrawal request submitted successfully",
		"transaction":          txn,
		"bank_charges":         txn.BankCharges,
		"amount_after_charges": txn.AmountAfterCharges,
	})
}
