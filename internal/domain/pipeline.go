package domain

// ParsedFields is the output of the line-parsing capability: the three
// required fields extracted from one raw list row.
type ParsedFields struct {
	CountryCode string
	Name        string
	Address     string
}

// Validate checks the parsed fields the way ingestion requires them.
func (f ParsedFields) Validate() error {
	var errs []FieldError
	if !IsValidCountryCode(f.CountryCode) {
		errs = append(errs, FieldError{Field: "country", Message: "unknown country code"})
	}
	if f.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if f.Address == "" {
		errs = append(errs, FieldError{Field: "address", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// GeocodeResult is the output of the geocoding capability. A nil Point means
// the provider returned no results for the address; Payload carries the
// provider's raw diagnostic response.
type GeocodeResult struct {
	Point   *Point
	Address string
	Payload map[string]any
}

// MatchCandidate is one scored candidate from the matching capability.
type MatchCandidate struct {
	FacilityID string
	Confidence float64
	Results    map[string]any
}
