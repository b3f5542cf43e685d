package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/shopspring/decimal"
)

// TelegramService handles sending notifications to the admin Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(botToken, adminChatID string) *TelegramService {
	return &TelegramService{
		botToken:    botToken,
		adminChatID: adminChatID,
	}
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendMessage sends a message to the specified chat.
func (s *TelegramService) SendMessage(chatID, text string) error {
	if s.botToken == "" {
		log.Println("[Telegram] Bot token not configured")
		return nil
	}

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", s.botToken)

	msg := telegramMessage{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Telegram] Failed to send message: %v", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[Telegram] Unexpected status: %d", resp.StatusCode)
		return fmt.Errorf("telegram returned status %d", resp.StatusCode)
	}

	return nil
}

// SendToAdmin sends a message to the admin chat.
func (s *TelegramService) SendToAdmin(text string) error {
	if s.adminChatID == "" {
		log.Println("[Telegram] Admin chat ID not configured")
		return nil
	}
	return s.SendMessage(s.adminChatID, text)
}

// NotifyTransaction tells the admin chat about a new pending request.
// Best-effort: failures are logged, never surfaced to the user.
func (s *TelegramService) NotifyTransaction(kind, who string, amount decimal.Decimal) {
	text := fmt.Sprintf("<b>%s request</b>\nUser: %s\nAmount: ₹%s\nAwaiting review.", kind, who, amount.StringFixed(2))
	if err := s.SendToAdmin(text); err != nil {
		log.Printf("[Telegram] %s notification failed: %v", kind, err)
	}
}

// NotifySupport tells the admin chat about a new support ticket.
func (s *TelegramService) NotifySupport(subject, who string) {
	text := fmt.Sprintf("<b>Support ticket</b>\nUser: %s\nSubject: %s", who, subject)
	if err := s.SendToAdmin(text); err != nil {
		log.Printf("[Telegram] Support notification failed: %v", err)
	}
}
