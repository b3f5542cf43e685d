package utils

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	phonePattern   = regexp.MustCompile(`^(\+91|91)?[6-9]\d{9}$`)
	upperPattern   = regexp.MustCompile(`[A-Z]`)
	lowerPattern   = regexp.MustCompile(`[a-z]`)
	digitPattern   = regexp.MustCompile(`[0-9]`)
	specialPattern = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
)

// maxAmount caps single-operation amounts at one crore INR.
var maxAmount = decimal.NewFromInt(10000000)

// ValidatePhoneNumber checks Indian mobile number formats:
// +91XXXXXXXXXX, 91XXXXXXXXXX or a bare 10-digit number.
func ValidatePhoneNumber(phone string) bool {
	return phonePattern.MatchString(strings.ReplaceAll(phone, " ", ""))
}

// ValidatePasswordStrength returns the list of unmet password requirements.
// An empty slice means the password is acceptable.
func ValidatePasswordStrength(password string) []string {
	var errs []string

	if len(password) < 8 {
		errs = append(errs, "Password must be at least 8 characters long")
	}
	if !upperPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one uppercase letter")
	}
	if !lowerPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one lowercase letter")
	}
	if !digitPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one number")
	}
	if !specialPattern.MatchString(password) {
		errs = append(errs, "Password must contain at least one special character")
	}

	return errs
}

// ValidateAmount checks that an amount is positive and below the platform cap.
func ValidateAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThanOrEqual(maxAmount)
}

// SanitizeInput strips HTML tags and trims whitespace from user-provided text.
func SanitizeInput(input string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(input, ""))
}
