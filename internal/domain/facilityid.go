package domain

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"
)

// ErrIDCollision reports that a facility insert lost the race on the
// identifier itself. The allocator mints a fresh identifier and retries.
var ErrIDCollision = errors.New("facility id collision")

// Facility identifiers are 15 characters: a two-letter country code, a
// seven-digit UTC date stamp (year + day of year), and six random characters
// from [A-Z0-9]. The random tail gives ~2.1 billion identifiers per country
// per day, so allocator retries on collision are rare.
const (
	facilityIDLength  = 15
	facilityIDCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NewFacilityID generates a candidate facility identifier for the given
// country code. Uniqueness is not guaranteed here; the caller must insert
// under the identifier's uniqueness constraint and retry on conflict.
func NewFacilityID(countryCode string, now time.Time) (string, error) {
	if !IsValidCountryCode(countryCode) {
		return "", NewValidationError("country_code", "unknown country code")
	}

	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("facility id entropy: %w", err)
	}
	for i, b := range buf {
		buf[i] = facilityIDCharset[int(b)%len(facilityIDCharset)]
	}

	utc := now.UTC()
	return fmt.Sprintf("%s%04d%03d%s", countryCode, utc.Year(), utc.YearDay(), buf), nil
}

// IsValidFacilityID checks the shape of an identifier without consulting
// the registry.
func IsValidFacilityID(id string) bool {
	if len(id) != facilityIDLength {
		return false
	}
	if !IsValidCountryCode(id[:2]) {
		return false
	}
	for _, r := range id[2:] {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
