// Package format renders listing values as display strings for the
// marketing preview: localized currency amounts and grouped phone numbers.
package format

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the display currency code for listing prices.
const Currency = "AED"

// ContactSeller is drawn in place of a price when the listing has none.
const ContactSeller = "Contact Seller"

var printer = message.NewPrinter(language.English)

// Price formats a numeric price as a localized currency string,
// e.g. 550000 -> "AED 550,000".
func Price(amount int64) string {
	return printer.Sprintf("%s %d", Currency, amount)
}

// PriceOrContact returns the formatted price, or the literal contact-seller
// string when amount is nil.
func PriceOrContact(amount *int64) string {
	if amount == nil {
		return ContactSeller
	}
	return Price(*amount)
}

// Phone formats a UAE phone number with display grouping,
// e.g. "+971501234567" -> "+971 50 123 4567". Local numbers ("0501234567")
// are promoted to international form. Anything that does not look like a
// UAE number is returned with whitespace collapsed, unchanged otherwise.
func Phone(raw string) string {
	digits := digitsOf(raw)

	switch {
	case strings.HasPrefix(digits, "00971"):
		digits = digits[2:]
	case strings.HasPrefix(digits, "0") && len(digits) == 10:
		digits = "971" + digits[1:]
	}

	// 971 + 2-digit operator + 3 + 4 subscriber digits.
	if strings.HasPrefix(digits, "971") && len(digits) == 12 {
		return "+971 " + digits[3:5] + " " + digits[5:8] + " " + digits[8:]
	}

	return strings.Join(strings.Fields(raw), " ")
}

// digitsOf strips everything but decimal digits.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
