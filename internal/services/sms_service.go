package services

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/http"
	"time"
)

// SMSService delivers OTP codes through an HTTP SMS gateway. When the
// gateway is unconfigured or the call fails, the code is logged so an admin
// can relay it through another channel; the code still counts as issued.
type SMSService struct {
	gatewayURL string
	apiKey     string
	sender     string
	client     *http.Client
}

// NewSMSService constructs an SMSService.
func NewSMSService(gatewayURL, apiKey, sender string) *SMSService {
	return &SMSService{
		gatewayURL: gatewayURL,
		apiKey:     apiKey,
		sender:     sender,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type smsPayload struct {
	To      string `json:"to"`
	From    string `json:"from"`
	Message string `json:"message"`
	APIKey  string `json:"api_key"`
}

// SendOTP sends the verification code to the given phone number.
func (s *SMSService) SendOTP(phoneNumber, code string) error {
	if s.gatewayURL == "" {
		log.Printf("[SMS] Gateway not configured. OTP for %s: %s", phoneNumber, code)
		return nil
	}

	payload := smsPayload{
		To:      phoneNumber,
		From:    s.sender,
		Message: fmt.Sprintf("Your %s verification code is: %s. Valid for 5 minutes.", s.sender, code),
		APIKey:  s.apiKey,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.gatewayURL, "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[SMS] Failed to send OTP to %s: %v (code: %s)", phoneNumber, err, code)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("[SMS] Gateway returned status %d for %s (code: %s)", resp.StatusCode, phoneNumber, code)
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}

	return nil
}

// GenerateOTP returns a 6-digit verification code.
func GenerateOTP() (string, error) {
	max := big.NewInt(1000000)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
