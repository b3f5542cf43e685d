package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/cryptocoins/internal/middleware"
	"github.com/example/cryptocoins/internal/models"
	"github.com/example/cryptocoins/internal/services"
	"github.com/example/cryptocoins/internal/utils"
)

// SupportHandler manages support ticket endpoints.
type SupportHandler struct {
	db       *gorm.DB
	telegram *services.TelegramService
}

// NewSupportHandler constructs SupportHandler.
func NewSupportHandler(db *gorm.DB, telegram *services.TelegramService) *SupportHandler {
	return &SupportHandler{db: db, telegram: telegram}
}

type createSupportRequest struct {
	Subject  string `json:"subject"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Priority string `json:"priority"`
}

// Create files a new support ticket for the authenticated user.
func (h *SupportHandler) Create(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var req createSupportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Subject == "" || req.Message == "" {
		return fiber.NewError(fiber.StatusBadRequest, "please provide subject and message")
	}

	category := req.Category
	if category == "" {
		category = "other"
	}
	priority := req.Priority
	if priority == "" {
		priority = "medium"
	}

	ticket := models.SupportMessage{
		UserID:   userID,
		Subject:  utils.SanitizeInput(req.Subject),
		Message:  utils.SanitizeInput(req.Message),
		Category: category,
		Priority: priority,
		Status:   "open",
	}

	if err := h.db.Create(&ticket).Error; err != nil {
		return err
	}

	if h.telegram != nil {
		h.telegram.NotifySupport(ticket.Subject, userID.String())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Support request submitted successfully",
		"data":    ticket,
	})
}

// ListMine returns the authenticated user's tickets.
func (h *SupportHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := middleware.GetCurrentUserID(c)
	if !ok {
		return fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	var tickets []models.SupportMessage
	if err := h.db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&tickets).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": tickets})
}

// AdminList returns all tickets with optional filters.
func (h *SupportHandler) AdminList(c *fiber.Ctx) error {
	query := h.db.Model(&models.SupportMessage{})

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}

	var tickets []models.SupportMessage
	if err := query.Preload("User").Order("created_at desc").Find(&tickets).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"success": true, "data": tickets})
}

type updateSupportRequest struct {
	Status        string `json:"status"`
	Priority      string `json:"priority"`
	AdminResponse string `json:"admin_response"`
}

// AdminUpdate lets an admin respond to or reclassify a ticket.
func (h *SupportHandler) AdminUpdate(c *fiber.Ctx) error {
	ticketID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid ticket id")
	}

	var ticket models.SupportMessage
	if err := h.db.First(&ticket, "id = ?", ticketID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "support message not found")
		}
		return err
	}

	var req updateSupportRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Status != "" {
		ticket.Status = req.Status
	}
	if req.Priority != "" {
		ticket.Priority = req.Priority
	}
	if req.AdminResponse != "" {
		ticket.AdminResponse = req.AdminResponse
		now := time.Now()
		ticket.RespondedAt = &now
	}

	if err := h.db.Save(&ticket).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Support message updated successfully",
		"data":    ticket,
	})
}

// AdminDelete removes a ticket.
func (h *SupportHandler) AdminDelete(c *fiber.Ctx) error {
	ticketID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid ticket id")
	}

	res := h.db.Delete(&models.SupportMessage{}, "id = ?", ticketID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fiber.NewError(fiber.StatusNotFound, "support message not found")
	}

	return c.JSON(fiber.Map{"success": true, "message": "Support message deleted"})
}
