package index

import (
	"fmt"
	"math"
	"regexp"
)

// fullAddressRe is the shape every indexed address must have:
// "street, city, ST 12345" with an optional zip+4.
var fullAddressRe = regexp.MustCompile(`^.+, .+, [A-Z]{2} \d{5}(-\d{4})?$`)

// Problem is one validation finding, keyed by the entry's position.
type Problem struct {
	Position int
	ID       string
	Message  string
}

func (p Problem) String() string {
	return fmt.Sprintf("entry %d (%s): %s", p.Position, p.ID, p.Message)
}

// Validate checks an index document for the defects that have actually
// shipped before: still-projected coordinates, malformed full addresses,
// duplicate IDs, and a metadata count that disagrees with the payload.
func Validate(idx *Index) []Problem {
	var problems []Problem

	if idx.Metadata.TotalAddresses != len(idx.Addresses) {
		problems = append(problems, Problem{
			Position: -1,
			Message: fmt.Sprintf("metadata total_addresses %d does not match %d entries",
				idx.Metadata.TotalAddresses, len(idx.Addresses)),
		})
	}

	seen := make(map[string]int, len(idx.Addresses))
	for i, e := range idx.Addresses {
		if e.ID == "" {
			problems = append(problems, Problem{Position: i, Message: "empty id"})
		} else if prev, dup := seen[e.ID]; dup {
			problems = append(problems, Problem{
				Position: i, ID: e.ID,
				Message: fmt.Sprintf("duplicate id, first seen at entry %d", prev),
			})
		} else {
			seen[e.ID] = i
		}

		// Projected easting/northing values leak through as huge
		// "latitudes"; real geographic coordinates never exceed 180.
		if math.Abs(e.Latitude) > 1000 || math.Abs(e.Longitude) > 1000 {
			problems = append(problems, Problem{
				Position: i, ID: e.ID,
				Message: fmt.Sprintf("still-projected coordinates (%.2f, %.2f)", e.Latitude, e.Longitude),
			})
		} else if math.Abs(e.Latitude) > 90 || math.Abs(e.Longitude) > 180 {
			problems = append(problems, Problem{
				Position: i, ID: e.ID,
				Message: fmt.Sprintf("coordinates out of range (%.6f, %.6f)", e.Latitude, e.Longitude),
			})
		}

		if !fullAddressRe.MatchString(e.FullAddress) {
			problems = append(problems, Problem{
				Position: i, ID: e.ID,
				Message: fmt.Sprintf("malformed full_address %q", e.FullAddress),
			})
		}
	}

	return problems
}
