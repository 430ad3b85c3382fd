// Package notify decides whether a customer SMS goes out, sends it through a
// gateway and records the outcome in sms_logs.
package notify

import (
	"regexp"
	"strings"

	"ms-ordering/internal/utils"
)

var (
	phonePattern = regexp.MustCompile(`^\+?[0-9]{8,15}$`)
	phoneChars   = regexp.MustCompile(`^\s*\+?[0-9\-. ()]*$`)
)

// NormalizePhone strips spaces, dashes, dots and parentheses. A leading
// plus sign is kept.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func ValidatePhone(raw string) error {
	if !phoneChars.MatchString(raw) || !phonePattern.MatchString(NormalizePhone(raw)) {
		return utils.NewValidationError("phone", "phone must be 8 to 15 digits, optionally starting with +")
	}
	return nil
}

// PhoneRules is the whitelist/blacklist pair from business settings.
type PhoneRules struct {
	Whitelist []string
	Blacklist []string
}

// Allows applies the rules: blacklisted numbers never receive SMS; when a
// whitelist exists only listed numbers do.
func (r PhoneRules) Allows(phone string) bool {
	p := NormalizePhone(phone)
	if contains(r.Blacklist, p) {
		return false
	}
	if len(r.Whitelist) > 0 {
		return contains(r.Whitelist, p)
	}
	return true
}

func contains(list []string, phone string) bool {
	for _, entry := range list {
		if NormalizePhone(entry) == phone {
			return true
		}
	}
	return false
}

// ParsePhoneList splits a comma or newline separated setting value.
func ParsePhoneList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if p := NormalizePhone(f); p != "" {
			out = append(out, p)
		}
	}
	return out
}
