package types

import (
	"strings"
	"time"
)

// timezoneAbbreviationMap maps the timezone abbreviations sellers historically
// stored to IANA identifiers. New tenants always store IANA names directly.
var timezoneAbbreviationMap = map[string]string{
	"EST":  "America/New_York",
	"CST":  "America/Chicago",
	"MST":  "America/Denver",
	"PST":  "America/Los_Angeles",
	"HST":  "Pacific/Honolulu",
	"AKST": "America/Anchorage",
	"GMT":  "Europe/London",
	"BST":  "Europe/London",
	"CET":  "Europe/Berlin",
	"EET":  "Europe/Athens",
	"WET":  "Europe/Lisbon",
	"IST":  "Asia/Kolkata",
	"JST":  "Asia/Tokyo",
	"KST":  "Asia/Seoul",
	"AEST": "Australia/Sydney",
	"AWST": "Australia/Perth",
	"MSK":  "Europe/Moscow",
}

// ResolveTimezone converts a timezone abbreviation to its IANA identifier, or
// returns the input unchanged if it is not a known abbreviation.
func ResolveTimezone(timezone string) string {
	if ianaName, exists := timezoneAbbreviationMap[strings.ToUpper(timezone)]; exists {
		return ianaName
	}
	return timezone
}

// LoadTimezone resolves abbreviations and loads the location.
func LoadTimezone(timezone string) (*time.Location, error) {
	return time.LoadLocation(ResolveTimezone(timezone))
}

// ValidateTimezone checks that the timezone resolves to a loadable location.
func ValidateTimezone(timezone string) error {
	_, err := LoadTimezone(timezone)
	return err
}
