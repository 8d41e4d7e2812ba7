// README: Match request/result types, filter modes and reason tags.
package matching

import (
	"fmt"
	"strings"
	"time"

	"campusride/internal/types"
)

// Mode selects the filter pipeline applied before scoring.
type Mode string

const (
	// ModeDiscovery keeps FEMALE_ONLY groups visible (tagged, maybe penalized)
	// unless the request itself filters on FEMALE_ONLY.
	ModeDiscovery Mode = "discovery"
	// ModeStrict applies every eligibility rule, including fullness and
	// directional route containment.
	ModeStrict Mode = "strict"
)

// ParseMode accepts "", discovery and strict, case-insensitively.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDiscovery:
		return ModeDiscovery, true
	case ModeStrict:
		return ModeStrict, true
	}
	return "", false
}

const (
	DefaultTopK          = 20
	DefaultWindowMinutes = 180
)

// Score weights.
const (
	exactMatchBonus   = 40.0
	inRouteBonus      = 15.0
	timeBonusMax      = 20.0
	femaleOnlyPenalty = 10.0
	seatBonusPerSeat  = 2.0
	seatBonusMax      = 10.0
	mutualFriendBonus = 8.0
)

const (
	ReasonExactStart      = "exact_start"
	ReasonExactDest       = "exact_dest"
	ReasonStartInRoute    = "start_in_route"
	ReasonDestInRoute     = "dest_in_route"
	ReasonTimeProximity   = "time_proximity"
	ReasonFemaleOnlyGroup = "female_only_group"
	ReasonSeatsAvailable  = "seats_available"
)

// ReasonMutual is the tag for n direct friends already in the group.
func ReasonMutual(n int) string {
	return fmt.Sprintf("mutual_%d", n)
}

type Request struct {
	RequesterID types.ID
	Origin      string
	Destination string
	Departure   *time.Time
	// WindowMinutes is the departure tolerance; nil means DefaultWindowMinutes.
	WindowMinutes *int
	// MaxGroupSize rejects groups with a larger capacity when set.
	MaxGroupSize *int
	Preference   types.Preference
	Mode         Mode
	// TopK caps the result count; zero or negative means DefaultTopK.
	TopK int
}

func (r Request) window() int {
	if r.WindowMinutes == nil || *r.WindowMinutes < 0 {
		return DefaultWindowMinutes
	}
	return *r.WindowMinutes
}

func (r Request) topK() int {
	if r.TopK <= 0 {
		return DefaultTopK
	}
	return r.TopK
}

func (r Request) mode() Mode {
	if r.Mode == "" {
		return ModeDiscovery
	}
	return r.Mode
}

type Result struct {
	GroupID       types.ID         `json:"gid"`
	Start         string           `json:"start"`
	Dest          string           `json:"dest"`
	Stops         []string         `json:"stops"`
	Departure     *string          `json:"departure_date"`
	Fare          types.Money      `json:"fare"`
	Capacity      int              `json:"capacity"`
	SeatsLeft     int              `json:"seats_left"`
	Preference    types.Preference `json:"preference"`
	Members       []types.ID       `json:"members"`
	MutualCount   int              `json:"mutual_count"`
	Score         float64          `json:"score"`
	Reasons       []string         `json:"match_reasons"`
	SegmentLength int              `json:"segment_length,omitempty"`
}
