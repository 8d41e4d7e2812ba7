// README: Candidate filter: capacity, fullness, preference, time window and route direction.
package matching

import (
	"time"

	"campusride/internal/modules/group"
	"campusride/internal/types"
)

// Candidate is a group that passed the filter. Segment is set only by the
// strict pipeline.
type Candidate struct {
	Group   *group.Group
	Segment []string
}

type filter struct {
	req    Request
	gender types.Gender
}

func newFilter(req Request, requesterGender types.Gender) filter {
	return filter{req: req, gender: requesterGender}
}

func (f filter) apply(c *Catalog) []Candidate {
	out := make([]Candidate, 0, c.Len())
	for _, g := range c.Groups() {
		if cand, ok := f.admit(g); ok {
			out = append(out, cand)
		}
	}
	return out
}

func (f filter) admit(g *group.Group) (Candidate, bool) {
	strict := f.req.mode() == ModeStrict
	if !withinCapacity(g.Capacity, f.req.MaxGroupSize) {
		return Candidate{}, false
	}
	if strict && g.IsFull() {
		return Candidate{}, false
	}
	if !f.allowsPreference(g.Preference, strict) {
		return Candidate{}, false
	}
	if !withinWindow(f.req.Departure, g.Departure, f.req.window()) {
		return Candidate{}, false
	}
	cand := Candidate{Group: g}
	if strict {
		seg, ok := g.RouteSegmentBetween(f.req.Origin, f.req.Destination)
		if !ok {
			return Candidate{}, false
		}
		cand.Segment = seg
	}
	return cand, true
}

func (f filter) allowsPreference(groupPref types.Preference, strict bool) bool {
	knownNonFemale := f.gender.Known() && f.gender != types.GenderFemale
	if f.req.Preference == types.PreferenceFemaleOnly {
		return groupPref == types.PreferenceFemaleOnly && !knownNonFemale
	}
	if strict && groupPref == types.PreferenceFemaleOnly {
		return !knownNonFemale
	}
	return true
}

func withinCapacity(capacity int, max *int) bool {
	return max == nil || capacity <= *max
}

// withinWindow passes when either instant is missing, both fall on the same
// calendar date in the requester's zone, or they are at most window minutes apart.
func withinWindow(desired, departure *time.Time, window int) bool {
	if desired == nil || departure == nil {
		return true
	}
	if sameDate(*desired, *departure) {
		return true
	}
	return absMinutes(*desired, *departure) <= float64(window)
}

// sameDate compares calendar dates in a's location.
func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func absMinutes(a, b time.Time) float64 {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d.Minutes()
}
