package address

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/parcel-pipeline/internal/parcel"
)

// Defaults supplies the regional fallbacks substituted for missing or
// unparseable address segments.
type Defaults struct {
	City  string
	State string
	Zip   string
}

var (
	multiSpaceRe  = regexp.MustCompile(`\s+`)
	repeatPunctRe = regexp.MustCompile(`[.,]+([.,])`)
	commaSpaceRe  = regexp.MustCompile(`\s*,\s*`)
	ordinalRe     = regexp.MustCompile(`^(\d+)(ST|ND|RD|TH)$`)
	trailingDecRe = regexp.MustCompile(`^(\d+)\.0$`)
	unitNumberRe  = regexp.MustCompile(`^(\d+[A-Z]?|[A-Z]?\d+|\d+-\d+|\d+/\d+)$`)
	stateZipRe    = regexp.MustCompile(`\b([A-Za-z]{2})\s+(\d{5}(?:-\d{4})?)\b\s*$`)
	zipRe         = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
)

// titleCase title-cases one token. A cases.Caser carries internal state
// and is not safe for concurrent use, so each call builds its own; the
// pipeline standardizes from several workers at once.
func titleCase(s string) string {
	return cases.Title(language.AmericanEnglish).String(s)
}

// IsValidZip reports whether z is exactly a 5-digit or 5+4 ZIP code.
func IsValidZip(z string) bool {
	z = strings.TrimSpace(z)
	if z == "" {
		return false
	}
	return zipRe.MatchString(z)
}

// Standardize parses a freeform "street, city, state zip" string into a
// canonical Address. ok is false when the input is empty after cleanup; the
// row should then be treated as a standardization failure. The transform is
// idempotent: standardizing a rendered Address yields the same Address.
func Standardize(raw string, d Defaults) (addr parcel.Address, ok bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return parcel.Address{}, false
	}

	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = repeatPunctRe.ReplaceAllString(s, ",$1")
	s = strings.ReplaceAll(s, " ;", ",")
	s = strings.ReplaceAll(s, ";", ",")
	s = commaSpaceRe.ReplaceAllString(s, ", ")

	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return parcel.Address{}, false
	}

	street := standardizeStreet(parts[0])
	city := d.City
	if len(parts) > 1 {
		city = parts[1]
	}
	stateZip := fmt.Sprintf("%s %s", d.State, d.Zip)
	if len(parts) > 2 {
		stateZip = parts[2]
	}

	state, zip := parseStateZip(stateZip, d)
	if !IsValidZip(zip) {
		zip = d.Zip
	}

	return parcel.Address{
		Street: street,
		City:   StandardizeCityName(city),
		State:  state,
		Zip:    zip,
	}, true
}

// StandardizeString is the string-to-string form of Standardize, returning ""
// on failure.
func StandardizeString(raw string, d Defaults) string {
	addr, ok := Standardize(raw, d)
	if !ok {
		return ""
	}
	return addr.Render()
}

// standardizeStreet tokenizes the street segment and applies the grammar
// rules left to right: ordinals, directionals, street types, unit numbers,
// then title-case fallback.
func standardizeStreet(street string) string {
	words := strings.Fields(street)
	out := make([]string, 0, len(words))

	for i, rawWord := range words {
		clean := trailingDecRe.ReplaceAllString(rawWord, "$1")
		word := strings.TrimRight(strings.ToUpper(clean), ".,")

		if m := ordinalRe.FindStringSubmatch(word); m != nil {
			n, _ := strconv.Atoi(m[1])
			ordinal := fmt.Sprintf("%d%s", n, ordinalSuffix(n))

			// A trailing ST is ambiguous between ordinal-"first" and
			// street-type-"Street". When the next token is not itself a
			// street type, the ST doubles as the type: "1ST" -> "1st St.".
			if m[2] == "ST" && !nextIsStreetType(words, i) {
				out = append(out, ordinal+" St.")
			} else {
				out = append(out, ordinal)
			}
			continue
		}

		if short, isDir := directionals[word]; isDir {
			out = append(out, short)
			continue
		}
		if canonical, isType := streetTypes[word]; isType {
			out = append(out, canonical)
			continue
		}
		if unitNumberRe.MatchString(word) {
			out = append(out, clean)
			continue
		}
		out = append(out, titleCase(clean))
	}

	return strings.Join(out, " ")
}

func nextIsStreetType(words []string, i int) bool {
	if i+1 >= len(words) {
		return false
	}
	next := strings.TrimRight(strings.ToUpper(words[i+1]), ".,")
	_, ok := streetTypes[next]
	return ok
}

// StandardizeCityName applies the St. Louis special forms, then
// title-cases. County rows run their municipality column through this
// before it becomes the address city.
func StandardizeCityName(city string) string {
	switch strings.ToUpper(strings.TrimSpace(city)) {
	case "ST LOUIS", "ST. LOUIS", "SAINT LOUIS":
		return "St. Louis"
	case "ST LOUIS COUNTY", "ST. LOUIS COUNTY", "SAINT LOUIS COUNTY":
		return "St. Louis County"
	case "UNINCORPORATED":
		return "St. Louis County (Unincorporated)"
	}
	return titleCase(strings.TrimSpace(city))
}

// parseStateZip matches "<2-letter state> <zip>" anchored at the end of the
// segment, falling back to the defaults on no match.
func parseStateZip(segment string, d Defaults) (state, zip string) {
	if m := stateZipRe.FindStringSubmatch(segment); m != nil {
		return strings.ToUpper(m[1]), m[2]
	}
	return d.State, d.Zip
}
