// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when the caller passes an empty region.
const DefaultRegion = "US"

// NormalizeE164 formats a phone number to E.164 for the given ISO region.
// If parsing fails the trimmed input is returned unchanged.
func NormalizeE164(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultRegion
	}

	number, err := phonenumbers.Parse(trimmed, strings.ToUpper(region))
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Digits returns only the national significant digits, which is the form the
// PAS insured record stores. Falls back to stripping non-digits.
func Digits(input, region string) string {
	e164 := NormalizeE164(input, region)
	if strings.HasPrefix(e164, "+") {
		if number, err := phonenumbers.Parse(e164, ""); err == nil {
			return phonenumbers.GetNationalSignificantNumber(number)
		}
	}
	var b strings.Builder
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
