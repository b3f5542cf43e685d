package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidatePhoneNumber(t *testing.T) {
	valid := []string{"9876543210", "+919876543210", "919876543210", "+91 98765 43210"}
	for _, phone := range valid {
		assert.True(t, ValidatePhoneNumber(phone), phone)
	}

	invalid := []string{"", "12345", "5876543210", "98765432101", "abcdefghij"}
	for _, phone := range invalid {
		assert.False(t, ValidatePhoneNumber(phone), phone)
	}
}

func TestValidatePasswordStrength(t *testing.T) {
	assert.Empty(t, ValidatePasswordStrength("Str0ng!pass"))

	weak := ValidatePasswordStrength("abc")
	assert.Len(t, weak, 4)

	noSpecial := ValidatePasswordStrength("Passw0rdd")
	assert.Len(t, noSpecial, 1)
	assert.Contains(t, noSpecial[0], "special character")
}

func TestValidateAmount(t *testing.T) {
	assert.True(t, ValidateAmount(decimal.NewFromFloat(0.01)))
	assert.True(t, ValidateAmount(decimal.NewFromInt(10000000)))
	assert.False(t, ValidateAmount(decimal.Zero))
	assert.False(t, ValidateAmount(decimal.NewFromInt(-5)))
	assert.False(t, ValidateAmount(decimal.NewFromInt(10000001)))
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "alert(1)", SanitizeInput("<script>alert(1)</script>"))
	assert.Equal(t, "plain text", SanitizeInput("plain text"))
}
