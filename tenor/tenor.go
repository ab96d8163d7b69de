// Package tenor parses calendar-offset tenor strings like "3M" or "10Y".
package tenor

import (
	"fmt"
	"strconv"
	"strings"
)

// ToYears converts a tenor string to a year fraction.
//
// Supported units: D (days, /365), W (weeks), M (months), Y (years). A bare
// number is taken as years.
func ToYears(tenor string) (float64, error) {
	s := strings.TrimSpace(strings.ToUpper(tenor))
	if s == "" {
		return 0, fmt.Errorf("tenor: empty tenor")
	}

	unit := s[len(s)-1]
	num := s[:len(s)-1]

	switch unit {
	case 'D', 'W', 'M', 'Y':
		v, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("tenor: invalid tenor %q", tenor)
		}
		switch unit {
		case 'D':
			return v / 365.0, nil
		case 'W':
			return v * 7.0 / 365.0, nil
		case 'M':
			return v / 12.0, nil
		default:
			return v, nil
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("tenor: invalid tenor %q", tenor)
	}
	return v, nil
}

// MustYears is ToYears for literals; it panics on malformed input.
func MustYears(tenor string) float64 {
	v, err := ToYears(tenor)
	if err != nil {
		panic(err)
	}
	return v
}
