package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

// StrToInt64 converts a string to an int64.
func StrToInt64(s string) (int64, error) {
	num, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse '%s' as int64: %w", s, err)
	}
	return num, nil
}

// StrToPositiveInt64 is StrToInt64 that also rejects zero and negatives, as used for path ids.
func StrToPositiveInt64(s string) (int64, error) {
	num, err := StrToInt64(s)
	if err != nil {
		return 0, err
	}
	if num <= 0 {
		return 0, fmt.Errorf("'%s' must be a positive integer", s)
	}
	return num, nil
}

// ParseOptionalDate parses a YYYY-MM-DD value in loc. An empty string yields nil.
func ParseOptionalDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("'%s' is not a YYYY-MM-DD date", s)
	}
	return &t, nil
}
