// Package address implements the deterministic grammar that turns freeform
// street/city/zip strings into one canonical mailing-address format. The
// grammar is data-driven: a street-type table, a directional table, and an
// ordinal-suffix rule, consumed by a single tokenizer.
package address

// streetTypes maps uppercase street-type tokens to their canonical rendering.
// Most abbreviations take a trailing period; WAY, PARK, and LOOP do not.
var streetTypes = map[string]string{
	"STREET": "St.", "ST": "St.", "STR": "St.", "STRT": "St.",
	"AVENUE": "Ave.", "AVE": "Ave.", "AV": "Ave.",
	"ROAD": "Rd.", "RD": "Rd.",
	"DRIVE": "Dr.", "DR": "Dr.",
	"LANE": "Ln.", "LN": "Ln.",
	"COURT": "Ct.", "CT": "Ct.",
	"BOULEVARD": "Blvd.", "BLVD": "Blvd.", "BL": "Blvd.",
	"PARKWAY": "Pkwy.", "PKWY": "Pkwy.", "PKY": "Pkwy.", "PARKWY": "Pkwy.",
	"CIRCLE": "Cir.", "CIR": "Cir.", "CRCL": "Cir.",
	"TERRACE": "Ter.", "TER": "Ter.", "TERR": "Ter.",
	"PLACE": "Pl.", "PL": "Pl.",
	"SQUARE": "Sq.", "SQ": "Sq.",
	"TRAIL": "Trl.", "TRL": "Trl.", "TR": "Trl.",
	"WAY":   "Way",
	"ALLEY": "Aly.", "ALY": "Aly.", "ALLY": "Aly.",
	"HIGHWAY": "Hwy.", "HWY": "Hwy.",
	"EXPRESSWAY": "Expy.", "EXPW": "Expy.", "EXPY": "Expy.",
	"FREEWAY": "Fwy.", "FWY": "Fwy.",
	"CAUSEWAY": "Cswy.", "CSWY": "Cswy.",
	"POINT": "Pt.", "PT": "Pt.",
	"HEIGHTS": "Hts.", "HTS": "Hts.",
	"ESTATES": "Est.", "EST": "Est.",
	"PARK":  "Park",
	"PLAZA": "Plz.", "PLZ": "Plz.",
	"JUNCTION": "Jct.", "JCT": "Jct.",
	"CROSSING": "Xing.", "XING": "Xing.",
	"LOOP": "Loop",
}

// directionals maps uppercase directional tokens to their short form.
// Short forms map to themselves so canonical output is a fixed point.
var directionals = map[string]string{
	"N": "N", "S": "S", "E": "E", "W": "W",
	"NE": "NE", "NW": "NW", "SE": "SE", "SW": "SW",
	"NORTH": "N", "SOUTH": "S", "EAST": "E", "WEST": "W",
	"NORTHEAST": "NE", "NORTHWEST": "NW", "SOUTHEAST": "SE", "SOUTHWEST": "SW",
}

// ordinalSuffix returns the English ordinal suffix for n (1st, 2nd, 3rd, 4th,
// with the 11th/12th/13th exceptions).
func ordinalSuffix(n int) string {
	switch {
	case n%10 == 1 && n%100 != 11:
		return "st"
	case n%10 == 2 && n%100 != 12:
		return "nd"
	case n%10 == 3 && n%100 != 13:
		return "rd"
	default:
		return "th"
	}
}
