package tracking

import (
	"regexp"
	"strings"

	"github.com/GuilhermeGouveiaCampos/Sistema-Assistencia-Backend/pkg/errors"
)

var (
	nonHex     = regexp.MustCompile(`[^0-9a-fA-F]`)
	uidPattern = regexp.MustCompile(`^[0-9A-F]{8,}$`)
)

// NormalizeUID strips separators from a raw tag read and returns the
// canonical uppercase hex form. Readers report UIDs in several shapes
// ("04 A1 B2 C3", "04:a1:b2:c3", "04a1b2c3"); all collapse to the same
// canonical value.
func NormalizeUID(raw string) (string, error) {
	uid := strings.ToUpper(nonHex.ReplaceAllString(raw, ""))
	if !uidPattern.MatchString(uid) {
		return "", errors.New(errors.CodeValidation, "uid must contain at least 8 hex digits")
	}
	return uid, nil
}
