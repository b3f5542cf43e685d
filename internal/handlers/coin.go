package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/models"
	"github.com/example/cryptocoins/internal/services"
)

// CoinHandler manages public coin endpoints.
type CoinHandler struct {
	db     *gorm.DB
	prices *services.PriceService
}

// NewCoinHandler constructs CoinHandler.
func NewCoinHandler(db *gorm.DB, prices *services.PriceService) *CoinHandler {
	return &CoinHandler{db: db, prices: prices}
}

// ListCoins returns active coin listings.
func (h *CoinHandler) ListCoins(c *fiber.Ctx) error {
	var coins []models.Coin
	if err := h.db.Where("is_active = ?", true).Order("name asc").Find(&coins).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": coins})
}

// GetCoin returns one coin by id.
func (h *CoinHandler) GetCoin(c *fiber.Ctx) error {
	coinID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid coin id")
	}

	var coin models.Coin
	if err := h.db.First(&coin, "id = ?", coinID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "coin not found")
		}
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": coin})
}

// RefreshPrices pulls the latest quotes onto active coins.
func (h *CoinHandler) RefreshPrices(c *fiber.Ctx) error {
	updated, err := h.prices.RefreshCoinPrices(c.Context())
	if err != nil {
		return err
	}

	var coins []models.Coin
	if err := h.db.Where("is_active = ?", true).Order("name asc").Find(&coins).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"updated": updated,
		"data":    coins,
	})
}
