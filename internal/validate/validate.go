package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reQ   = regexp.MustCompile(`^[A-Za-z0-9 _'\-&]{1,50}$`)
	reSKU = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// Name validates a category or product name: 1..50 chars after trimming.
func Name(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" || len(s) > 50 {
		return "", false
	}
	return s, true
}

// Description allows an empty value but caps length at 500.
func Description(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) > 500 {
		return "", false
	}
	return s, true
}

// Q validates a search keyword. Empty is fine (unfiltered listing);
// over-length or odd-character input is rejected outright.
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reQ.MatchString(s)
}

// CategoryID parses a positive integer category id. "0" and "" mean
// "no category" and are valid where the field is optional.
func CategoryID(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// SortOrder parses a sibling sort position; blank defaults to 0.
func SortOrder(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 9999 {
		return 0, false
	}
	return n, true
}

// SKU validates an optional stock-keeping identifier.
func SKU(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", true
	}
	return s, reSKU.MatchString(s)
}

// Price parses a non-negative price.
func Price(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// ProductID validates a uuid-shaped product id without being strict about
// the uuid variant bits.
func ProductID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && len(s) <= 64 && reSKU.MatchString(s)
}

// Status validates the product status enum.
func Status(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s == "" || s == "ACTIVE" || s == "DISCONTINUED"
}
