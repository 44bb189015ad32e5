package parcel

// Stats accumulates per-run counters. All counters are commutative sums, so
// per-shard Stats can be merged with Add at the end of a sharded run.
type Stats struct {
	TotalProcessed         int `json:"total_processed"`
	ValidAddresses         int `json:"valid_addresses"`
	MissingStreet          int `json:"missing_street"`
	MissingNumber          int `json:"missing_number"`
	POBox                  int `json:"po_box"`
	HyphenatedRange        int `json:"hyphenated_range"`
	FractionalAddress      int `json:"fractional_address"`
	InvalidZip             int `json:"invalid_zip"`
	StandardizationFailure int `json:"standardization_failure"`
	ForeignOwner           int `json:"foreign_owner"`
	GeometryFailures       int `json:"geometry_failures"`

	CityProcessed   int `json:"city_records_processed"`
	CityValid       int `json:"city_records_valid"`
	CountyProcessed int `json:"county_records_processed"`
	CountyValid     int `json:"county_records_valid"`
}

// Add merges other into s field by field.
func (s *Stats) Add(other Stats) {
	s.TotalProcessed += other.TotalProcessed
	s.ValidAddresses += other.ValidAddresses
	s.MissingStreet += other.MissingStreet
	s.MissingNumber += other.MissingNumber
	s.POBox += other.POBox
	s.HyphenatedRange += other.HyphenatedRange
	s.FractionalAddress += other.FractionalAddress
	s.InvalidZip += other.InvalidZip
	s.StandardizationFailure += other.StandardizationFailure
	s.ForeignOwner += other.ForeignOwner
	s.GeometryFailures += other.GeometryFailures
	s.CityProcessed += other.CityProcessed
	s.CityValid += other.CityValid
	s.CountyProcessed += other.CountyProcessed
	s.CountyValid += other.CountyValid
}

// MarkProcessed increments the processed counters for the region.
func (s *Stats) MarkProcessed(region Region) {
	s.TotalProcessed++
	switch region {
	case RegionCity:
		s.CityProcessed++
	case RegionCounty:
		s.CountyProcessed++
	}
}

// MarkValid increments the valid-address counters for the region.
func (s *Stats) MarkValid(region Region) {
	s.ValidAddresses++
	switch region {
	case RegionCity:
		s.CityValid++
	case RegionCounty:
		s.CountyValid++
	}
}
