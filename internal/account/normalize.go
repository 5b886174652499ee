package account

import (
	"fmt"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/nyaruka/phonenumbers"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CompanyNameKey folds a company name to the form used for uniqueness:
// accents stripped, lowercased and inner whitespace collapsed.
func CompanyNameKey(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// ValidateEmail checks the email format.
func ValidateEmail(email string) error {
	return validation.Validate(strings.TrimSpace(email),
		validation.Required,
		validation.Length(6, 256),
		is.Email,
	)
}

// DefaultPhoneRegion is used for phone numbers written without a country code.
const DefaultPhoneRegion = "VE"

// NormalizePhone parses a phone number and formats it as E.164.
func NormalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return "", fmt.Errorf("parsing phone number: %w", err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", fmt.Errorf("phone number %q is not valid", raw)
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
