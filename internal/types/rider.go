// README: Rider gender markers and group preference values.
package types

import "strings"

type Gender string

const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = ""
)

// ParseGender maps free-form markers onto M, F or unknown.
func ParseGender(s string) Gender {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "M", "MALE":
		return GenderMale
	case "F", "FEMALE":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

func (g Gender) Known() bool {
	return g == GenderMale || g == GenderFemale
}

type Preference string

const (
	PreferenceAll        Preference = "ALL"
	PreferenceFemaleOnly Preference = "FEMALE_ONLY"
)

// ParsePreference upper-cases the input; anything other than FEMALE_ONLY is ALL.
func ParsePreference(s string) Preference {
	if strings.ToUpper(strings.TrimSpace(s)) == string(PreferenceFemaleOnly) {
		return PreferenceFemaleOnly
	}
	return PreferenceAll
}

// ValidPreference reports whether s names a preference explicitly (empty counts as valid).
func ValidPreference(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(PreferenceAll), string(PreferenceFemaleOnly):
		return true
	}
	return false
}
