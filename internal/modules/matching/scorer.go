// README: Relevance scorer: weighted signals with reason tags.
package matching

import (
	"math"
	"strings"

	"campusride/internal/modules/group"
	"campusride/internal/modules/records"
	"campusride/internal/modules/social"
	"campusride/internal/types"
)

type scorer struct {
	req     Request
	origin  string
	dest    string
	gender  types.Gender
	friends social.IDSet
}

func newScorer(req Request, graph *social.Graph) scorer {
	s := scorer{
		req:    req,
		origin: normalizeQuery(req.Origin),
		dest:   normalizeQuery(req.Destination),
	}
	if !req.RequesterID.Empty() {
		s.gender = graph.Gender(req.RequesterID)
		s.friends = graph.DirectFriends(req.RequesterID)
	}
	return s
}

func (s scorer) score(c Candidate) Result {
	g := c.Group
	var score float64
	reasons := make([]string, 0, 6)

	exactStart := s.origin != "" && normalizeQuery(g.Start) != "" && normalizeQuery(g.Start) == s.origin
	exactDest := s.dest != "" && normalizeQuery(g.Dest) != "" && normalizeQuery(g.Dest) == s.dest
	if exactStart {
		score += exactMatchBonus
		reasons = append(reasons, ReasonExactStart)
	}
	if exactDest {
		score += exactMatchBonus
		reasons = append(reasons, ReasonExactDest)
	}
	if !exactStart && s.origin != "" && g.HasLabel(s.origin) {
		score += inRouteBonus
		reasons = append(reasons, ReasonStartInRoute)
	}
	if !exactDest && s.dest != "" && g.HasLabel(s.dest) {
		score += inRouteBonus
		reasons = append(reasons, ReasonDestInRoute)
	}

	if s.req.Departure != nil && g.Departure != nil {
		score += timeBonus(absMinutes(*s.req.Departure, *g.Departure), s.req.window())
		reasons = append(reasons, ReasonTimeProximity)
	}

	if g.Preference == types.PreferenceFemaleOnly {
		if !s.req.RequesterID.Empty() && s.gender != types.GenderFemale {
			score -= femaleOnlyPenalty
		}
		reasons = append(reasons, ReasonFemaleOnlyGroup)
	}

	seats := g.SeatsLeft()
	score += math.Min(seatBonusMax, float64(seats)*seatBonusPerSeat)
	if seats > 0 {
		reasons = append(reasons, ReasonSeatsAvailable)
	}

	mutual := s.mutualCount(g)
	score += mutualFriendBonus * float64(mutual)
	if mutual > 0 {
		reasons = append(reasons, ReasonMutual(mutual))
	}

	members := make([]types.ID, len(g.Members))
	copy(members, g.Members)
	return Result{
		GroupID:       g.ID,
		Start:         g.Start,
		Dest:          g.Dest,
		Stops:         g.Stops,
		Departure:     records.FormatDeparture(g.Departure),
		Fare:          g.Fare,
		Capacity:      g.Capacity,
		SeatsLeft:     seats,
		Preference:    g.Preference,
		Members:       members,
		MutualCount:   mutual,
		Score:         round2(score),
		Reasons:       reasons,
		SegmentLength: len(c.Segment),
	}
}

func (s scorer) mutualCount(g *group.Group) int {
	if len(s.friends) == 0 {
		return 0
	}
	n := 0
	for _, m := range g.Members {
		if s.friends.Has(m) {
			n++
		}
	}
	return n
}

// timeBonus scales linearly from timeBonusMax at zero distance to 0 at the
// window edge. The divisor is at least 1 so a zero window never divides by zero.
func timeBonus(deltaMinutes float64, window int) float64 {
	ratio := (float64(window) - deltaMinutes) / math.Max(1, float64(window))
	return math.Max(0, ratio) * timeBonusMax
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func normalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
