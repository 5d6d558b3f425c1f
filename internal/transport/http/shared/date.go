package shared

import (
	"errors"
	"strings"
	"time"
)

// Calendar years accepted from request payloads and query strings.
const (
	MinYear = 1900
	MaxYear = 9999
)

var ErrDateOutOfRange = errors.New("date out of range")

// ParseDate accepts YYYY-MM-DD or RFC3339. Blank input yields the zero time.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.DateOnly, value)
	if err != nil {
		var rfcErr error
		if parsed, rfcErr = time.Parse(time.RFC3339, value); rfcErr != nil {
			return time.Time{}, err
		}
	}
	if y := parsed.Year(); y < MinYear || y > MaxYear {
		return time.Time{}, ErrDateOutOfRange
	}
	return parsed, nil
}
