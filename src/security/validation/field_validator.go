package validation

import (
	"errors"
	"fmt"
	"strings"
)

var ErrValidationFailed = errors.New("validation failed")

// ValidateStringNotEmpty checks a required field has content after trimming.
func ValidateStringNotEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength rejects strings longer than max characters.
func ValidateStringMaxLength(value string, max int, fieldName string) error {
	if len(value) > max {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrValidationFailed, fieldName, max)
	}
	return nil
}

// ValidateSymbol rejects ticker symbols that are empty, too long, or contain
// characters outside the uppercase/digit/dot/dash set providers use.
func ValidateSymbol(symbol string) error {
	if symbol == "" || len(symbol) > 12 {
		return fmt.Errorf("%w: invalid ticker symbol", ErrValidationFailed)
	}
	for _, r := range symbol {
		ok := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '.' || r == '-'
		if !ok {
			return fmt.Errorf("%w: invalid ticker symbol", ErrValidationFailed)
		}
	}
	return nil
}
