package validate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,50}$`)
	reQ        = regexp.MustCompile(`^[\p{L}\p{N} _'\-]{1,50}$`)
	reCategory = regexp.MustCompile(`^[\p{L}\p{N} &_'\-]{1,100}$`)
)

// Email trims and lowercases s; the normalized form is returned even when invalid.
func Email(s string) (string, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) == 0 || len(s) > 100 {
		return s, false
	}
	return s, reEmail.MatchString(s)
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Password enforces the length window. bcrypt ignores anything past 72 bytes.
func Password(s string) bool {
	return len(s) >= 6 && len(s) <= 72
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

func Category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reCategory.MatchString(s)
}

// ID parses a positive numeric resource identifier.
func ID(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Price parses a non-negative amount with at most two decimal places.
func Price(s string) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || d.IsNegative() || d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return decimal.Zero, false
	}
	return d.Round(2), true
}

// Stock parses a non-negative stock count.
func Stock(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Page clamps limit/offset query values.
func Page(limitS, offsetS string) (limit, offset int) {
	limit, err := strconv.Atoi(strings.TrimSpace(limitS))
	if err != nil || limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	} // clamp to avoid abuse
	offset, err = strconv.Atoi(strings.TrimSpace(offsetS))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
