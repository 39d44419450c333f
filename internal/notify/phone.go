package notify

import (
	"regexp"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

var nonDigit = regexp.MustCompile(`\D`)

// NormalizePhone converts a Brazilian phone number in any common written
// form to the bare international format the gateway expects
// (55 + DDD + number). Accepts numbers with or without the country code.
func NormalizePhone(raw string) (string, error) {
	digits := nonDigit.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 12 || len(digits) == 13:
		if digits[:2] != "55" {
			return "", errors.New(errors.CodeValidation, "phone has 12+ digits but no 55 country code")
		}
		return digits, nil
	case len(digits) == 10 || len(digits) == 11:
		return "55" + digits, nil
	default:
		return "", errors.New(errors.CodeValidation, "phone must have a DDD plus 8 or 9 digits")
	}
}
