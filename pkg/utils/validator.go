package utils

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	controlChars   = regexp.MustCompile(`[\x00-\x1f\x7f]`)
	referenceRe    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._/\-]{0,63}$`)
	currencyRe     = regexp.MustCompile(`^[A-Z]{3}$`)
	unsafeFileChar = regexp.MustCompile(`[^A-Za-z0-9._\-]+`)
)

// ValidateReference checks a project, contract or request reference such as "PRJ-2024/001"
func ValidateReference(ref string) error {
	if !referenceRe.MatchString(ref) {
		return fmt.Errorf("invalid reference format: %q", ref)
	}
	return nil
}

// ValidateCurrency checks an ISO 4217 style currency code
func ValidateCurrency(code string) error {
	if !currencyRe.MatchString(code) {
		return fmt.Errorf("currency must be a 3-letter upper-case code: %q", code)
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return controlChars.ReplaceAllString(s, "")
}

// SanitizeFileName turns free text into a safe file name stem
func SanitizeFileName(s string) string {
	s = strings.TrimSpace(SanitizeString(s))
	s = strings.ReplaceAll(s, "..", "")
	s = unsafeFileChar.ReplaceAllString(s, "_")
	return strings.Trim(s, "._")
}
