package address

import (
	"regexp"
	"strings"
)

var poBoxRes = []*regexp.Regexp{
	regexp.MustCompile(`\bP\.?O\.?\s+BOX\b`),
	regexp.MustCompile(`\bPO\s+BOX\b`),
	regexp.MustCompile(`\bBOX\s+\d+`),
	regexp.MustCompile(`\bPMB\s+\d+`),
}

var (
	hyphenRangeRe = regexp.MustCompile(`^\d+-\d+$`)
	fractionalRe  = regexp.MustCompile(`^\d+/\d+$`)
	leadingNumRe  = regexp.MustCompile(`^\d`)
)

// IsPOBox reports whether the address is a post-office box or private
// mailbox rather than a street address.
func IsPOBox(addr string) bool {
	upper := strings.ToUpper(addr)
	for _, re := range poBoxRes {
		if re.MatchString(upper) {
			return true
		}
	}
	return false
}

// IsHyphenatedRange reports whether the street segment carries a hyphenated
// house-number range token such as "123-125".
func IsHyphenatedRange(street string) bool {
	for _, tok := range strings.Fields(street) {
		if hyphenRangeRe.MatchString(tok) {
			return true
		}
	}
	return false
}

// IsFractional reports whether the street segment carries a fractional
// house-number token such as "1/2".
func IsFractional(street string) bool {
	for _, tok := range strings.Fields(street) {
		if fractionalRe.MatchString(tok) {
			return true
		}
	}
	return false
}

// HasHouseNumber reports whether the street segment starts with a numeric
// house number.
func HasHouseNumber(street string) bool {
	fields := strings.Fields(street)
	return len(fields) > 0 && leadingNumRe.MatchString(fields[0])
}
