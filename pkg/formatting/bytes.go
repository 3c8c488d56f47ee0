// Package formatting provides parsing helpers shared across the service:
// human-readable byte sizes for configuration and defensive decoding of
// structured model output.
package formatting

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders n with the largest base-1024 unit that keeps the value at or above one.
func FormatBytes(n int64, precision int) string {
	precision = max(precision, 0)

	value := float64(n)
	idx := 0
	for value >= 1024 && idx < len(byteUnits)-1 {
		value /= 1024
		idx++
	}

	if idx == 0 {
		return strconv.FormatInt(n, 10) + " B"
	}
	return strconv.FormatFloat(value, 'f', precision, 64) + " " + byteUnits[idx]
}

// ParseBytes parses a size such as "50MB", "1.5 gb" or "2048" into bytes.
// A bare number is bytes; units are base-1024 and case-insensitive.
func ParseBytes(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty byte size string")
	}

	split := strings.IndexFunc(s, func(r rune) bool {
		return !unicode.IsDigit(r) && r != '.'
	})

	number, unit := s, ""
	if split >= 0 {
		number = s[:split]
		unit = strings.ToUpper(strings.TrimSpace(s[split:]))
	}

	value, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte size: %q", s)
	}

	if unit == "" {
		return int64(value), nil
	}

	for i, u := range byteUnits {
		if u == unit {
			for range i {
				value *= 1024
			}
			return int64(value), nil
		}
	}

	return 0, fmt.Errorf("unknown byte size unit: %q", unit)
}
