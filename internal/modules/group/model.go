// README: Ride group aggregate: stops, capacity, membership and derived route facts.
package group

import (
	"strings"
	"time"

	"campusride/internal/modules/records"
	"campusride/internal/types"
)

type Group struct {
	ID         types.ID
	Start      string
	Dest       string
	Stops      []string
	Capacity   int
	Preference types.Preference
	Departure  *time.Time
	Fare       types.Money
	Members    []types.ID

	memberSet map[types.ID]struct{}
}

// FromRecord builds an empty-membership group from a snapshot record.
func FromRecord(r records.Group) *Group {
	stops := make([]string, len(r.Stops))
	copy(stops, r.Stops)
	pref := r.Preference
	if pref == "" {
		pref = types.PreferenceAll
	}
	return &Group{
		ID:         r.ID,
		Start:      r.Start,
		Dest:       r.Dest,
		Stops:      stops,
		Capacity:   r.Capacity,
		Preference: pref,
		Departure:  r.Departure,
		Fare:       r.Fare,
		Members:    []types.ID{},
		memberSet:  make(map[types.ID]struct{}),
	}
}

// AddMember appends uid unless already present. It reports whether the list changed.
func (g *Group) AddMember(uid types.ID) bool {
	if uid.Empty() {
		return false
	}
	if g.memberSet == nil {
		g.memberSet = make(map[types.ID]struct{}, len(g.Members))
		for _, m := range g.Members {
			g.memberSet[m] = struct{}{}
		}
	}
	if _, ok := g.memberSet[uid]; ok {
		return false
	}
	g.memberSet[uid] = struct{}{}
	g.Members = append(g.Members, uid)
	return true
}

// SeatsLeft is capacity minus members, floored at zero.
func (g *Group) SeatsLeft() int {
	if g.Capacity <= 0 {
		return 0
	}
	if left := g.Capacity - len(g.Members); left > 0 {
		return left
	}
	return 0
}

// IsFull reports whether membership reached capacity. A zero-capacity group is
// never full even though it has no seats left.
func (g *Group) IsFull() bool {
	if g.Capacity <= 0 {
		return false
	}
	return len(g.Members) >= g.Capacity
}

// FullRoute is [start, stops..., dest].
func (g *Group) FullRoute() []string {
	route := make([]string, 0, len(g.Stops)+2)
	route = append(route, g.Start)
	route = append(route, g.Stops...)
	return append(route, g.Dest)
}

// HasLabel reports whether label names any non-empty point on the route, ignoring case.
func (g *Group) HasLabel(label string) bool {
	return indexOf(g.FullRoute(), label) >= 0
}

// RouteSegmentBetween returns the route from the first occurrence of from up to and
// including the first occurrence of to. It returns false when either label is
// missing or from does not come strictly before to.
func (g *Group) RouteSegmentBetween(from, to string) ([]string, bool) {
	route := g.FullRoute()
	i := indexOf(route, from)
	j := indexOf(route, to)
	if i < 0 || j < 0 || i >= j {
		return nil, false
	}
	seg := make([]string, j-i+1)
	copy(seg, route[i:j+1])
	return seg, true
}

func indexOf(route []string, label string) int {
	label = normalizeLabel(label)
	if label == "" {
		return -1
	}
	for i, stop := range route {
		if normalizeLabel(stop) == label {
			return i
		}
	}
	return -1
}

func normalizeLabel(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
