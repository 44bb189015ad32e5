package metrics

import (
	"strconv"
	"strings"
)

// ParseFloat reads a numeric attribute value leniently. Assessor exports
// mix integer strings, decimals, thousands separators, and leading dollar
// signs; anything unparseable comes back as 0.
func ParseFloat(raw string) float64 {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseInt is ParseFloat truncated for year and count columns.
func ParseInt(raw string) int {
	return int(ParseFloat(raw))
}

func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
