// README: Match engine tests: filter pipelines, scoring signals, ranking and service defaults.
package matching

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"campusride/internal/config"
	"campusride/internal/modules/records"
	"campusride/internal/modules/social"
	"campusride/internal/types"
)

func intPtr(n int) *int { return &n }

func at(s string) *time.Time {
	t, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func grp(id, start, dest string, capacity int, stops ...string) records.Group {
	return records.Group{
		ID:         types.ID(id),
		Start:      start,
		Dest:       dest,
		Stops:      stops,
		Capacity:   capacity,
		Preference: types.PreferenceAll,
	}
}

func femaleOnly(g records.Group) records.Group {
	g.Preference = types.PreferenceFemaleOnly
	return g
}

func departing(g records.Group, when string) records.Group {
	g.Departure = at(when)
	return g
}

func members(gid string, uids ...string) []records.Membership {
	out := make([]records.Membership, 0, len(uids))
	for _, u := range uids {
		out = append(out, records.Membership{GroupID: types.ID(gid), UserID: types.ID(u)})
	}
	return out
}

func find(results []Result, gid string) (Result, bool) {
	for _, r := range results {
		if r.GroupID == types.ID(gid) {
			return r, true
		}
	}
	return Result{}, false
}

func hasReason(r Result, reason string) bool {
	for _, x := range r.Reasons {
		if x == reason {
			return true
		}
	}
	return false
}

func ids(results []Result) []types.ID {
	out := make([]types.ID, len(results))
	for i, r := range results {
		out[i] = r.GroupID
	}
	return out
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestMatch_ExactRouteScenario(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{grp("G001", "X", "Y", 4)}}
	results := Match(Request{Origin: "X", Destination: "Y", MaxGroupSize: intPtr(4)}, snap)

	r, ok := find(results, "G001")
	if !ok {
		t.Fatalf("G001 missing from %v", ids(results))
	}
	if r.SeatsLeft != 4 {
		t.Fatalf("seats_left = %d, want 4", r.SeatsLeft)
	}
	for _, reason := range []string{ReasonExactStart, ReasonExactDest, ReasonSeatsAvailable} {
		if !hasReason(r, reason) {
			t.Errorf("missing reason %s in %v", reason, r.Reasons)
		}
	}
	if r.Score != 88 {
		t.Fatalf("score = %v, want 88 (40+40+8)", r.Score)
	}
}

func TestMatch_CaseInsensitiveTrimmedQuery(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{grp("G001", "Campus Gate", "Airport", 4)}}
	results := Match(Request{Origin: "  campus gate ", Destination: "AIRPORT"}, snap)
	if len(results) != 1 || !hasReason(results[0], ReasonExactStart) || !hasReason(results[0], ReasonExactDest) {
		t.Fatalf("expected exact matches, got %+v", results)
	}
}

func TestMatch_InRouteBonus(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{grp("G001", "A", "D", 0, "B", "C")}}
	results := Match(Request{Origin: "B", Destination: "D"}, snap)
	r := results[0]
	if !hasReason(r, ReasonStartInRoute) || !hasReason(r, ReasonExactDest) || hasReason(r, ReasonExactStart) {
		t.Fatalf("reasons = %v", r.Reasons)
	}
	if r.Score != 55 {
		t.Fatalf("score = %v, want 55 (15+40, zero seats)", r.Score)
	}
}

func TestMatch_TimeProximityScenario(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{departing(grp("G001", "X", "Y", 0), "2025-10-12T10:30")}}
	results := Match(Request{
		Origin:        "X",
		Destination:   "Y",
		Departure:     at("2025-10-12T09:00"),
		WindowMinutes: intPtr(180),
	}, snap)
	if len(results) != 1 {
		t.Fatalf("expected the group within the window, got %v", ids(results))
	}
	r := results[0]
	if !hasReason(r, ReasonTimeProximity) {
		t.Fatalf("missing time_proximity in %v", r.Reasons)
	}
	bonus := r.Score - 80
	if bonus <= 0 || bonus >= timeBonusMax {
		t.Fatalf("time bonus = %v, want positive and below max", bonus)
	}
	if bonus != 10 {
		t.Fatalf("time bonus = %v, want 10 ((180-90)/180*20)", bonus)
	}
}

func TestMatch_TimeTagEvenWithoutBonus(t *testing.T) {
	// Same date, far outside the window: passes the filter, bonus floors at 0.
	snap := records.Snapshot{Groups: []records.Group{departing(grp("G001", "X", "Y", 0), "2025-10-12T23:00")}}
	results := Match(Request{Origin: "X", Destination: "Y", Departure: at("2025-10-12T06:00"), WindowMinutes: intPtr(60)}, snap)
	if len(results) != 1 {
		t.Fatalf("same-date group should pass, got %v", ids(results))
	}
	if !hasReason(results[0], ReasonTimeProximity) || results[0].Score != 80 {
		t.Fatalf("got %+v, want tag with zero bonus", results[0])
	}
}

func TestMatch_ZeroWindow(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{
		departing(grp("G001", "X", "Y", 0), "2025-10-12T09:00"),
		departing(grp("G002", "X", "Y", 0), "2025-10-13T09:00"),
	}}
	results := Match(Request{Origin: "X", Destination: "Y", Departure: at("2025-10-12T09:00"), WindowMinutes: intPtr(0)}, snap)
	if !reflect.DeepEqual(ids(results), []types.ID{"G001"}) {
		t.Fatalf("ids = %v, want [G001]", ids(results))
	}
	if results[0].Score != 80 {
		t.Fatalf("score = %v, zero window must not add a bonus", results[0].Score)
	}
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func TestFilter_CapacityCeiling(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{
		grp("G001", "A", "B", 3),
		grp("G002", "A", "B", 6),
		grp("G003", "A", "B", 0), // unparsable capacity degrades to 0
	}}
	results := Match(Request{Origin: "A", Destination: "B", MaxGroupSize: intPtr(4)}, snap)
	for _, r := range results {
		if r.Capacity > 4 {
			t.Fatalf("group %s capacity %d exceeds ceiling", r.GroupID, r.Capacity)
		}
	}
	if _, ok := find(results, "G003"); !ok {
		t.Fatal("zero-capacity group must not be rejected by the ceiling")
	}
	if _, ok := find(results, "G002"); ok {
		t.Fatal("G002 should be rejected")
	}
}

func TestFilter_TemporalWindow(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{
		departing(grp("G001", "A", "B", 4), "2025-10-14T09:00"), // other day, far away
		departing(grp("G002", "A", "B", 4), "2025-10-12T23:30"), // same date
		grp("G003", "A", "B", 4),                                // no departure recorded
	}}
	results := Match(Request{Origin: "A", Destination: "B", Departure: at("2025-10-12T23:00"), WindowMinutes: intPtr(60)}, snap)
	got := ids(results)
	if _, ok := find(results, "G001"); ok {
		t.Fatalf("G001 should be outside the window: %v", got)
	}
	for _, id := range []string{"G002", "G003"} {
		if _, ok := find(results, id); !ok {
			t.Fatalf("%s missing: %v", id, got)
		}
	}
}

func TestFilter_CrossMidnightWithinWindow(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{departing(grp("G001", "A", "B", 4), "2025-10-13T00:30")}}
	results := Match(Request{Departure: at("2025-10-12T23:45"), WindowMinutes: intPtr(60)}, snap)
	if len(results) != 1 {
		t.Fatalf("45 minutes apart should pass a 60 minute window, got %v", ids(results))
	}
}

func TestFilter_SameDateUsesRequesterZone(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{
		departing(grp("G001", "A", "B", 4), "2025-10-12T10:00"), // 15:30 IST on the 12th
		departing(grp("G002", "A", "B", 4), "2025-10-12T20:00"), // 01:30 IST on the 13th
	}}

	results := Match(Request{Departure: records.ParseTimePtr("2025-10-12T01:00+05:30"), WindowMinutes: intPtr(60)}, snap)
	if got := ids(results); !reflect.DeepEqual(got, []types.ID{"G001"}) {
		t.Fatalf("early local morning request: got %v, want [G001]", got)
	}

	results = Match(Request{Departure: records.ParseTimePtr("2025-10-12T23:30+05:30"), WindowMinutes: intPtr(60)}, snap)
	if got := ids(results); !reflect.DeepEqual(got, []types.ID{"G001"}) {
		t.Fatalf("late local evening request: got %v, want [G001]", got)
	}
}

func TestFilter_PreferenceFemaleOnlyRequest(t *testing.T) {
	snap := records.Snapshot{
		Users: []records.User{{ID: "uf", Gender: types.GenderFemale}, {ID: "um", Gender: types.GenderMale}},
		Groups: []records.Group{
			grp("G001", "A", "B", 4),
			femaleOnly(grp("G002", "A", "B", 4)),
		},
	}
	for _, mode := range []Mode{ModeDiscovery, ModeStrict} {
		req := Request{Origin: "A", Destination: "B", Preference: types.PreferenceFemaleOnly, Mode: mode}

		req.RequesterID = "uf"
		if got := ids(Match(req, snap)); !reflect.DeepEqual(got, []types.ID{"G002"}) {
			t.Errorf("%s female requester: got %v, want [G002]", mode, got)
		}
		req.RequesterID = "um"
		if got := Match(req, snap); len(got) != 0 {
			t.Errorf("%s male requester: got %v, want none", mode, ids(got))
		}
		req.RequesterID = ""
		if got := ids(Match(req, snap)); !reflect.DeepEqual(got, []types.ID{"G002"}) {
			t.Errorf("%s anonymous requester: got %v, want [G002]", mode, got)
		}
	}
}

// A FEMALE_ONLY group and a male requester under an ALL filter: discovery
// keeps it visible and penalized, strict drops it.
func TestFilter_FemaleOnlyGroupPolicies(t *testing.T) {
	snap := records.Snapshot{
		Users:  []records.User{{ID: "um", Gender: types.GenderMale}},
		Groups: []records.Group{femaleOnly(grp("G001", "A", "B", 4))},
	}
	req := Request{RequesterID: "um", Origin: "A", Destination: "B", Preference: types.PreferenceAll}

	req.Mode = ModeDiscovery
	results := Match(req, snap)
	if len(results) != 1 {
		t.Fatalf("discovery should keep the group, got %v", ids(results))
	}
	if !hasReason(results[0], ReasonFemaleOnlyGroup) {
		t.Fatalf("missing female_only_group in %v", results[0].Reasons)
	}
	if results[0].Score != 78 {
		t.Fatalf("score = %v, want 78 (40+40+8-10)", results[0].Score)
	}

	req.Mode = ModeStrict
	if got := Match(req, snap); len(got) != 0 {
		t.Fatalf("strict should exclude the group, got %v", ids(got))
	}
}

func TestScore_FemaleOnlyPenaltyDependsOnRequester(t *testing.T) {
	snap := records.Snapshot{
		Users:  []records.User{{ID: "uf", Gender: types.GenderFemale}, {ID: "ux"}},
		Groups: []records.Group{femaleOnly(grp("G001", "A", "B", 0))},
	}
	cases := []struct {
		requester types.ID
		want      float64
	}{
		{"", 80},
		{"uf", 80},
		{"ux", 70},
		{"ghost", 70},
	}
	for _, tc := range cases {
		results := Match(Request{RequesterID: tc.requester, Origin: "A", Destination: "B"}, snap)
		if len(results) != 1 || results[0].Score != tc.want {
			t.Errorf("requester %q: got %+v, want score %v", tc.requester, results, tc.want)
		}
		if !hasReason(results[0], ReasonFemaleOnlyGroup) {
			t.Errorf("requester %q: female_only_group tag missing", tc.requester)
		}
	}
}

func TestFilter_StrictDirectionality(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{grp("G001", "A", "C", 4, "B")}}

	forward := Match(Request{Origin: "A", Destination: "C", Mode: ModeStrict}, snap)
	if len(forward) != 1 {
		t.Fatalf("A->C should match, got %v", ids(forward))
	}
	if forward[0].SegmentLength != 3 {
		t.Fatalf("segment_length = %d, want 3", forward[0].SegmentLength)
	}
	if backward := Match(Request{Origin: "C", Destination: "A", Mode: ModeStrict}, snap); len(backward) != 0 {
		t.Fatalf("C->A must not match, got %v", ids(backward))
	}
	partial := Match(Request{Origin: "b", Destination: "c", Mode: ModeStrict}, snap)
	if len(partial) != 1 || partial[0].SegmentLength != 2 {
		t.Fatalf("B->C segment: got %+v", partial)
	}
}

func TestFilter_StrictRejectsFullGroups(t *testing.T) {
	snap := records.Snapshot{
		Groups: []records.Group{
			grp("G001", "A", "B", 2),
			grp("G002", "A", "B", 0),
		},
		Memberships: members("G001", "u1", "u2"),
	}
	if got := Match(Request{Origin: "A", Destination: "B"}, snap); len(got) != 2 {
		t.Fatalf("discovery keeps full groups, got %v", ids(got))
	}
	got := ids(Match(Request{Origin: "A", Destination: "B", Mode: ModeStrict}, snap))
	if !reflect.DeepEqual(got, []types.ID{"G002"}) {
		t.Fatalf("strict: got %v, want [G002] (zero capacity is never full)", got)
	}
}

// ---------------------------------------------------------------------------
// Scoring and ranking properties
// ---------------------------------------------------------------------------

func TestMatch_Deterministic(t *testing.T) {
	snap := sampleSnapshot()
	req := Request{RequesterID: "u1", Origin: "A", Destination: "B", Departure: at("2025-10-12T09:00"), TopK: 5}
	first := Match(req, snap)
	for i := 0; i < 10; i++ {
		if again := Match(req, snap); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs:\n%v\n%v", i, first, again)
		}
	}
}

func TestMatch_SeatsInvariant(t *testing.T) {
	for _, r := range Match(Request{Origin: "A", Destination: "B"}, sampleSnapshot()) {
		want := r.Capacity - len(r.Members)
		if want < 0 {
			want = 0
		}
		if r.SeatsLeft != want || r.SeatsLeft < 0 {
			t.Fatalf("%s: seats_left = %d, want %d", r.GroupID, r.SeatsLeft, want)
		}
	}
}

func TestMatch_TopKBound(t *testing.T) {
	snap := sampleSnapshot()
	all := Match(Request{Origin: "A", Destination: "B", TopK: 100}, snap)
	for _, k := range []int{1, 2, 3, 100} {
		got := Match(Request{Origin: "A", Destination: "B", TopK: k}, snap)
		if len(got) > k || len(got) > len(all) {
			t.Fatalf("topK=%d returned %d results", k, len(got))
		}
		if !reflect.DeepEqual(got, all[:len(got)]) {
			t.Fatalf("topK=%d is not a prefix of the full ranking", k)
		}
	}
}

func TestMatch_DefaultTopK(t *testing.T) {
	var snap records.Snapshot
	for i := 0; i < DefaultTopK+5; i++ {
		snap.Groups = append(snap.Groups, grp(string(rune('a'+i)), "A", "B", 4))
	}
	if got := Match(Request{}, snap); len(got) != DefaultTopK {
		t.Fatalf("len = %d, want %d", len(got), DefaultTopK)
	}
}

func TestMatch_StableTies(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{
		grp("G003", "A", "B", 4),
		grp("G001", "A", "B", 4),
		grp("G002", "A", "B", 4),
		grp("G004", "A", "B", 4, "X"),
	}}
	got := ids(Match(Request{Origin: "A", Destination: "B"}, snap))
	want := []types.ID{"G003", "G001", "G002", "G004"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ids = %v, want catalog order %v", got, want)
	}
}

func TestMatch_OrderedByScore(t *testing.T) {
	results := Match(Request{RequesterID: "u1", Origin: "A", Destination: "B"}, sampleSnapshot())
	for i := 1; i < len(results); i++ {
		if results[i-1].Score < results[i].Score {
			t.Fatalf("results not sorted at %d: %v < %v", i, results[i-1].Score, results[i].Score)
		}
	}
}

func TestMatch_MutualFriendMonotonic(t *testing.T) {
	base := records.Snapshot{
		Users: []records.User{{ID: "me"}, {ID: "f1"}, {ID: "f2"}, {ID: "f3"}, {ID: "x"}},
		Connections: []records.Connection{
			{A: "me", B: "f1"}, {A: "me", B: "f2"}, {A: "f3", B: "me"}, {A: "f1", B: "x"},
		},
		Groups: []records.Group{grp("G001", "A", "B", 10)},
	}
	req := Request{RequesterID: "me", Origin: "A", Destination: "B"}

	prev := -1.0
	for n, roster := range [][]string{{"x"}, {"x", "f1"}, {"x", "f1", "f2"}, {"x", "f1", "f2", "f3"}} {
		snap := base
		snap.Memberships = members("G001", roster...)
		r := Match(req, snap)[0]
		if r.MutualCount != n {
			t.Fatalf("roster %v: mutual_count = %d, want %d (friend-of-friend x never counts)", roster, r.MutualCount, n)
		}
		if n > 0 && !hasReason(r, ReasonMutual(n)) {
			t.Fatalf("roster %v: missing %s in %v", roster, ReasonMutual(n), r.Reasons)
		}
		if r.Score < prev {
			t.Fatalf("score decreased from %v to %v after adding a friend", prev, r.Score)
		}
		prev = r.Score
	}
}

func TestMatch_UnknownRequesterDegrades(t *testing.T) {
	results := Match(Request{RequesterID: "nobody", Origin: "A", Destination: "B"}, sampleSnapshot())
	if len(results) == 0 {
		t.Fatal("unknown requester should still get results")
	}
	for _, r := range results {
		if r.MutualCount != 0 {
			t.Fatalf("%s: mutual_count = %d for unknown requester", r.GroupID, r.MutualCount)
		}
	}
}

func TestMatch_EmptyCatalog(t *testing.T) {
	results := Match(Request{Origin: "A", Destination: "B"}, records.Snapshot{})
	if results == nil || len(results) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", results)
	}
}

func TestMatch_RoundsScore(t *testing.T) {
	snap := records.Snapshot{Groups: []records.Group{departing(grp("G001", "X", "Y", 0), "2025-10-12T09:07")}}
	r := Match(Request{Departure: at("2025-10-12T09:00"), WindowMinutes: intPtr(180)}, snap)[0]
	// (180-7)/180*20 = 19.2222...
	if r.Score != 19.22 {
		t.Fatalf("score = %v, want 19.22", r.Score)
	}
}

func TestCatalog_DuplicatesAndUnknownMemberships(t *testing.T) {
	c := NewCatalog(
		[]records.Group{grp("G001", "A", "B", 4), grp("G001", "Z", "Z", 9)},
		append(members("G001", "u1", "u1", "u2"), members("G404", "u3")...),
	)
	if c.Len() != 1 {
		t.Fatalf("len = %d, want 1", c.Len())
	}
	g, _ := c.Get("G001")
	if g.Start != "A" {
		t.Fatalf("first record should win, got start %q", g.Start)
	}
	if !reflect.DeepEqual(g.Members, []types.ID{"u1", "u2"}) {
		t.Fatalf("members = %v, want [u1 u2]", g.Members)
	}
}

func TestEngine_ScoringFailureIsIsolated(t *testing.T) {
	e := NewEngine(nil)
	sc := newScorer(Request{}, social.NewGraph())
	if _, err := e.safeScore(sc, Candidate{}); err == nil {
		t.Fatal("expected error from a candidate without a group")
	}
	snap := records.Snapshot{Groups: []records.Group{grp("G001", "A", "B", 4)}}
	if got := e.Match(Request{Origin: "A"}, snap); len(got) != 1 {
		t.Fatalf("engine should still score healthy candidates, got %v", ids(got))
	}
}

func TestParseMode(t *testing.T) {
	cases := map[string]Mode{"": ModeDiscovery, "Discovery": ModeDiscovery, " STRICT ": ModeStrict}
	for in, want := range cases {
		got, ok := ParseMode(in)
		if !ok || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := ParseMode("loose"); ok {
		t.Error("ParseMode should reject unknown modes")
	}
}

// ---------------------------------------------------------------------------
// Service
// ---------------------------------------------------------------------------

func TestServiceFind_AppliesConfigDefaults(t *testing.T) {
	var snap records.Snapshot
	for i := 0; i < 8; i++ {
		snap.Groups = append(snap.Groups, departing(grp(string(rune('a'+i)), "A", "B", 4), "2025-10-12T12:00"))
	}
	svc := NewService(records.Static(snap), config.MatchingConfig{TopK: 3, WindowMinutes: 30}, nil)

	results, err := svc.Find(context.Background(), Request{Origin: "A", Destination: "B", Departure: at("2025-10-12T11:45")})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len = %d, want config top_k 3", len(results))
	}
	// 15 minutes into a 30 minute window: bonus 10.
	if results[0].Score != 98 {
		t.Fatalf("score = %v, want 98 (40+40+10+8)", results[0].Score)
	}
}

func TestServiceFind_SourceError(t *testing.T) {
	boom := errors.New("db down")
	src := records.SourceFunc(func(context.Context) (records.Snapshot, error) { return records.Snapshot{}, boom })
	svc := NewService(src, config.MatchingConfig{TopK: 5, WindowMinutes: 180}, nil)
	if _, err := svc.Find(context.Background(), Request{}); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped source error", err)
	}
}

// sampleSnapshot: u1 is friends with u2 and u3; u4 is a friend of u2 only.
func sampleSnapshot() records.Snapshot {
	return records.Snapshot{
		Users: []records.User{
			{ID: "u1", Gender: types.GenderFemale},
			{ID: "u2", Gender: types.GenderMale},
			{ID: "u3", Gender: types.GenderFemale},
			{ID: "u4"},
		},
		Connections: []records.Connection{{A: "u1", B: "u2"}, {A: "u3", B: "u1"}, {A: "u2", B: "u4"}},
		Groups: []records.Group{
			departing(grp("G001", "A", "B", 4), "2025-10-12T10:00"),
			departing(grp("G002", "A", "C", 3, "B"), "2025-10-12T09:30"),
			femaleOnly(grp("G003", "A", "B", 5)),
			grp("G004", "Q", "B", 2),
			departing(grp("G005", "A", "B", 6, "M"), "2025-10-12T08:00"),
		},
		Memberships: append(append(members("G001", "u2", "u3"), members("G002", "u4")...), members("G004", "u2", "u3", "u4")...),
	}
}
