package validate

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length ceilings, applied after sanitisation.
const (
	MaxNameLen       = 100
	MaxEmailLen      = 150
	MaxPhoneLen      = 30
	MaxNotesLen      = 1000
	MaxRouteLen      = 120
	MaxTimeLen       = 20
	MaxSourcePageLen = 200
	MaxAdminNotesLen = 4000
)

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[A-Za-z0-9-]{2,}$`)
	dateRe       = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	phoneKeepRe  = regexp.MustCompile(`[^0-9+\-().x\s]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
	digitsRe     = regexp.MustCompile(`\D`)
)

// CleanText normalises a free-text field: control characters stripped, angle
// brackets removed, whitespace runs collapsed, ends trimmed, then truncated.
// The function is a fixed point: cleaning already clean text changes nothing.
func CleanText(raw string, max int) string {
	out := stripControl(raw)
	out = strings.ReplaceAll(out, "<", "")
	out = strings.ReplaceAll(out, ">", "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	return strings.TrimSpace(truncate(out, max))
}

// SanitizeEmail lowercases, removes all whitespace and truncates.
func SanitizeEmail(raw string) string {
	out := stripControl(raw)
	out = whitespaceRe.ReplaceAllString(out, "")
	out = strings.ToLower(out)
	return truncate(out, MaxEmailLen)
}

// ValidEmail reports whether the sanitised value has a local@domain.tld shape
// with a TLD segment of at least two characters.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// SanitizePhone keeps digits, +, -, parentheses, dots, whitespace and the
// extension marker x, then truncates.
func SanitizePhone(raw string) string {
	out := stripControl(raw)
	out = phoneKeepRe.ReplaceAllString(out, "")
	out = whitespaceRe.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	return strings.TrimSpace(truncate(out, MaxPhoneLen))
}

// ValidPhone requires 6 to 15 digits once everything else is removed.
func ValidPhone(phone string) bool {
	digits := digitsRe.ReplaceAllString(phone, "")
	return len(digits) >= 6 && len(digits) <= 15
}

// ValidDate reports whether the value is an ISO calendar date.
func ValidDate(value string) bool {
	if !dateRe.MatchString(value) {
		return false
	}
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}

// DateBefore reports whether a is strictly before b. Both must already be
// valid ISO dates; the lexicographic order of YYYY-MM-DD matches calendar
// order.
func DateBefore(a, b string) bool {
	return a < b
}

// Today renders the current calendar day for date comparisons.
func Today(now time.Time) string {
	return now.Format("2006-01-02")
}

func stripControl(raw string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, raw)
}

// truncate caps the value at max bytes without splitting a multi-byte rune,
// so the result is always valid UTF-8.
func truncate(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut]
}
