// README: Normalization of loosely-typed tabular rows into typed records.
package records

import (
	"math"
	"strconv"
	"strings"
	"time"

	"campusride/internal/types"
)

// Row is one tabular record keyed by lower-cased column name.
type Row map[string]string

// first returns the first non-empty value among the given column aliases.
func (r Row) first(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r[k]); v != "" {
			return v
		}
	}
	return ""
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts ISO date or datetime strings. Values without a zone are read as UTC.
func ParseTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return time.Time{}, false
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParseTimePtr is ParseTime returning nil for absent or malformed values.
func ParseTimePtr(s string) *time.Time {
	t, ok := ParseTime(s)
	if !ok {
		return nil
	}
	return &t
}

// ParseInt reads non-negative integers written either as "4" or "4.0"; anything else is 0.
func ParseInt(s string) int {
	n, ok := ParseIntOK(s)
	if !ok {
		return 0
	}
	return n
}

// ParseIntOK is ParseInt that also reports whether the value was usable.
// Negative values and values outside the int range are not usable.
func ParseIntOK(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// SplitStops splits a delimited stops field on "|" (preferred) or ",".
func SplitStops(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "nan") {
		return []string{}
	}
	sep := ""
	switch {
	case strings.Contains(s, "|"):
		sep = "|"
	case strings.Contains(s, ","):
		sep = ","
	default:
		return []string{s}
	}
	out := make([]string, 0, strings.Count(s, sep)+1)
	for _, p := range strings.Split(s, sep) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinStops is the inverse of SplitStops for storage.
func JoinStops(stops []string) string {
	return strings.Join(stops, "|")
}

func NormalizeUser(r Row) User {
	return User{
		ID:     types.ParseID(r.first("uid", "id", "user_id")),
		Name:   r.first("name"),
		Gender: types.ParseGender(r.first("gender")),
		Email:  r.first("email"),
	}
}

// NormalizeConnection returns false for rows missing an endpoint and for self-loops.
func NormalizeConnection(r Row) (Connection, bool) {
	c := Connection{
		A: types.ParseID(r.first("u1", "user_a", "a")),
		B: types.ParseID(r.first("u2", "user_b", "b")),
	}
	if c.A.Empty() || c.B.Empty() || c.A == c.B {
		return Connection{}, false
	}
	return c, true
}

// NormalizeGroup never fails: malformed numeric or date fields degrade to zero values.
func NormalizeGroup(r Row) Group {
	var fare int64
	if f, ok := ParseIntOK(r.first("fare")); ok {
		fare = int64(f)
	}
	return Group{
		ID:         types.ParseID(r.first("gid", "id")),
		Start:      r.first("start", "source"),
		Dest:       r.first("dest", "destination"),
		Stops:      SplitStops(r.first("stops", "route")),
		Capacity:   ParseInt(r.first("capacity", "group_size", "size")),
		Preference: types.ParsePreference(r.first("preference", "pref")),
		Departure:  ParseTimePtr(r.first("departure_date", "departure", "date_time")),
		Fare:       types.Fare(fare),
	}
}

// NormalizeMembership returns false for rows missing the group or user.
func NormalizeMembership(r Row) (Membership, bool) {
	m := Membership{
		GroupID: types.ParseID(r.first("gid", "group_id")),
		UserID:  types.ParseID(r.first("uid", "user_id")),
	}
	if m.GroupID.Empty() || m.UserID.Empty() {
		return Membership{}, false
	}
	return m, true
}
