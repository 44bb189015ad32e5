package address

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cityDefaults = Defaults{City: "St. Louis", State: "MO", Zip: "63102"}

func TestStandardize_StreetOnly(t *testing.T) {
	addr, ok := Standardize("1234 MAIN ST", cityDefaults)
	require.True(t, ok)
	assert.Equal(t, "1234 Main St.", addr.Street)
	assert.Equal(t, "St. Louis", addr.City)
	assert.Equal(t, "MO", addr.State)
	assert.Equal(t, "63102", addr.Zip)
	assert.Equal(t, "1234 Main St., St. Louis, MO 63102", addr.Render())
}

func TestStandardize_FullForm(t *testing.T) {
	addr, ok := Standardize("742 N GRAND BLVD, ST LOUIS, MO 63103", cityDefaults)
	require.True(t, ok)
	assert.Equal(t, "742 N Grand Blvd.", addr.Street)
	assert.Equal(t, "St. Louis", addr.City)
	assert.Equal(t, "63103", addr.Zip)
}

func TestStandardize_StreetTypes(t *testing.T) {
	cases := map[string]string{
		"10 OAK AVENUE":    "10 Oak Ave.",
		"10 OAK AVE":       "10 Oak Ave.",
		"10 OAK DRIVE":     "10 Oak Dr.",
		"10 OAK LANE":      "10 Oak Ln.",
		"10 OAK COURT":     "10 Oak Ct.",
		"10 OAK CIRCLE":    "10 Oak Cir.",
		"10 OAK TERRACE":   "10 Oak Ter.",
		"10 OAK PLACE":     "10 Oak Pl.",
		"10 OAK PARKWAY":   "10 Oak Pkwy.",
		"10 OAK HIGHWAY":   "10 Oak Hwy.",
		"10 OAK BOULEVARD": "10 Oak Blvd.",
		// Way, Park, and Loop stay unabbreviated, no period.
		"10 OAK WAY":  "10 Oak Way",
		"10 OAK PARK": "10 Oak Park",
		"10 OAK LOOP": "10 Oak Loop",
	}
	for in, want := range cases {
		addr, ok := Standardize(in, cityDefaults)
		require.True(t, ok, in)
		assert.Equal(t, want, addr.Street, in)
	}
}

func TestStandardize_Directionals(t *testing.T) {
	addr, _ := Standardize("100 NORTH KINGSHIGHWAY BLVD", cityDefaults)
	assert.Equal(t, "100 N Kingshighway Blvd.", addr.Street)

	addr, _ = Standardize("100 NE MAIN ST", cityDefaults)
	assert.Equal(t, "100 NE Main St.", addr.Street)
}

func TestStandardize_Ordinals(t *testing.T) {
	// Trailing ST fuses into "<n>st St." when no street type follows.
	addr, _ := Standardize("100 1ST", cityDefaults)
	assert.Equal(t, "100 1st St.", addr.Street)

	// With an explicit street type the ordinal stays bare.
	addr, _ = Standardize("100 1ST ST", cityDefaults)
	assert.Equal(t, "100 1st St.", addr.Street)

	addr, _ = Standardize("100 2ND AVE", cityDefaults)
	assert.Equal(t, "100 2nd Ave.", addr.Street)

	addr, _ = Standardize("100 3RD BLVD", cityDefaults)
	assert.Equal(t, "100 3rd Blvd.", addr.Street)

	// Teens keep the -th suffix.
	addr, _ = Standardize("100 11TH ST", cityDefaults)
	assert.Equal(t, "100 11th St.", addr.Street)

	addr, _ = Standardize("100 21ST", cityDefaults)
	assert.Equal(t, "100 21st St.", addr.Street)
}

func TestStandardize_Idempotent(t *testing.T) {
	inputs := []string{
		"1234 MAIN ST",
		"100 1ST",
		"742 N GRAND BLVD, ST LOUIS, MO 63103",
		"10 OAK WAY",
		"5600 DELMAR   BLVD.,, ST LOUIS",
		"100 NE 21ST ST",
	}
	for _, in := range inputs {
		first := StandardizeString(in, cityDefaults)
		second := StandardizeString(first, cityDefaults)
		assert.Equal(t, first, second, "not idempotent for %q", in)
	}
}

func TestStandardize_WhitespaceAndPunct(t *testing.T) {
	addr, ok := Standardize("  5600   DELMAR  BLVD.,,  ST LOUIS ", cityDefaults)
	require.True(t, ok)
	assert.Equal(t, "5600 Delmar Blvd.", addr.Street)
	assert.Equal(t, "St. Louis", addr.City)
}

func TestStandardize_Empty(t *testing.T) {
	_, ok := Standardize("", cityDefaults)
	assert.False(t, ok)
	_, ok = Standardize("   ", cityDefaults)
	assert.False(t, ok)
	assert.Equal(t, "", StandardizeString(" ", cityDefaults))
}

func TestStandardize_InvalidZipFallsBack(t *testing.T) {
	addr, ok := Standardize("10 OAK ST, ST LOUIS, MO 999", cityDefaults)
	require.True(t, ok)
	assert.Equal(t, "63102", addr.Zip)
}

func TestStandardizeCityName(t *testing.T) {
	assert.Equal(t, "St. Louis", StandardizeCityName("ST LOUIS"))
	assert.Equal(t, "St. Louis", StandardizeCityName("Saint Louis"))
	assert.Equal(t, "St. Louis County", StandardizeCityName("ST LOUIS COUNTY"))
	assert.Equal(t, "St. Louis County (Unincorporated)", StandardizeCityName("UNINCORPORATED"))
	assert.Equal(t, "Clayton", StandardizeCityName("CLAYTON"))
	assert.Equal(t, "Webster Groves", StandardizeCityName("WEBSTER GROVES"))
}

func TestIsValidZip(t *testing.T) {
	valid := []string{"63102", "63105-1234"}
	invalid := []string{"", "6310", "631021", "63102-12", "ABCDE", "63102-", " 63102 1234"}
	for _, z := range valid {
		assert.True(t, IsValidZip(z), z)
	}
	for _, z := range invalid {
		assert.False(t, IsValidZip(z), z)
	}
	// Surrounding whitespace is tolerated.
	assert.True(t, IsValidZip(" 63102 "))
}

func TestParseStateZip(t *testing.T) {
	state, zip := parseStateZip("MO 63103", cityDefaults)
	assert.Equal(t, "MO", state)
	assert.Equal(t, "63103", zip)

	state, zip = parseStateZip("IL 62201-4400", cityDefaults)
	assert.Equal(t, "IL", state)
	assert.Equal(t, "62201-4400", zip)

	state, zip = parseStateZip("no zip here", cityDefaults)
	assert.Equal(t, "MO", state)
	assert.Equal(t, "63102", zip)
}

func TestStandardize_Concurrent(t *testing.T) {
	// The pipeline standardizes from several workers at once; the
	// title-casing path must hold no shared mutable state.
	const workers = 8
	want := "123 Main St., St. Louis, MO 63101"

	var wg sync.WaitGroup
	results := make([][]string, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				results[w] = append(results[w],
					StandardizeString("123 MAIN STREET, ST LOUIS, MO 63101", cityDefaults))
			}
		}(w)
	}
	wg.Wait()

	for _, rs := range results {
		for _, got := range rs {
			assert.Equal(t, want, got)
		}
	}
}
