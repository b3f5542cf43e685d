package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/example/cryptocoins/internal/services"
)

// serviceError maps service-layer failures onto HTTP statuses. AlreadyDecided
// maps to 409 so the admin UI can tell "someone already acted on this" apart
// from "not found". Anything unmapped bubbles up as a 500.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrCoinNotFound),
		errors.Is(err, services.ErrTransactionNotFound),
		errors.Is(err, services.ErrUserNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrAlreadyDecided):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrInsufficientFunds),
		errors.Is(err, services.ErrCoinInactive),
		errors.Is(err, services.ErrInvalidReferralCode),
		errors.Is(err, services.ErrNoBonusPending),
		errors.Is(err, services.ErrAlreadyApproved):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	var minBalance *services.BelowMinimumBalanceError
	var needInvest *services.ReferralInvestmentRequiredError
	if errors.As(err, &minBalance) || errors.As(err, &needInvest) {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return err
}
