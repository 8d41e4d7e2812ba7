// Package generator produces seeded synthetic users, friendships and ride groups.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"campusride/internal/modules/records"
	"campusride/internal/types"
)

type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New fills zero fields from DefaultConfig.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.AvgConnections <= 0 {
		cfg.AvgConnections = def.AvgConnections
	}
	if cfg.NumGroups < 0 {
		cfg.NumGroups = 0
	}
	if cfg.CapacityMin <= 0 {
		cfg.CapacityMin = def.CapacityMin
	}
	if cfg.CapacityMax < cfg.CapacityMin {
		cfg.CapacityMax = cfg.CapacityMin
	}
	if cfg.HorizonDays < 0 {
		cfg.HorizonDays = 0
	}
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	return &Generator{cfg: cfg, rand: rand.New(rand.NewSource(cfg.Seed))}
}

// Generate builds a full snapshot. Output depends only on Config.
func (g *Generator) Generate(ctx context.Context) (records.Snapshot, error) {
	users := g.users()
	if err := ctx.Err(); err != nil {
		return records.Snapshot{}, err
	}
	conns := g.connections(users)
	if err := ctx.Err(); err != nil {
		return records.Snapshot{}, err
	}
	groups, members := g.groups(users)
	return records.Snapshot{Users: users, Connections: conns, Groups: groups, Memberships: members}, nil
}

func (g *Generator) users() []records.User {
	out := make([]records.User, 0, g.cfg.NumUsers)
	for i := 1; i <= g.cfg.NumUsers; i++ {
		id := fmt.Sprintf("U%03d", i)
		gender := types.GenderMale
		first := firstNamesM
		if g.rand.Intn(2) == 1 {
			gender = types.GenderFemale
			first = firstNamesF
		}
		out = append(out, records.User{
			ID:     types.ID(id),
			Name:   first[g.rand.Intn(len(first))] + " " + lastNames[g.rand.Intn(len(lastNames))],
			Gender: gender,
			Email:  strings.ToLower(id) + "@thapar.edu",
		})
	}
	return out
}

// connections links users in a chain so the graph is connected, then adds
// random edges until the target average degree is reached.
func (g *Generator) connections(users []records.User) []records.Connection {
	n := len(users)
	if n < 2 {
		return []records.Connection{}
	}
	seen := make(map[records.Connection]bool)
	out := make([]records.Connection, 0, n*g.cfg.AvgConnections/2)
	add := func(a, b types.ID) {
		if b < a {
			a, b = b, a
		}
		e := records.Connection{A: a, B: b}
		if a == b || seen[e] {
			return
		}
		seen[e] = true
		out = append(out, e)
	}
	for i := 0; i+1 < n; i++ {
		add(users[i].ID, users[i+1].ID)
	}
	target := n * g.cfg.AvgConnections / 2
	if limit := n * (n - 1) / 2; target > limit {
		target = limit
	}
	for len(out) < target {
		add(users[g.rand.Intn(n)].ID, users[g.rand.Intn(n)].ID)
	}
	return out
}

func (g *Generator) groups(users []records.User) ([]records.Group, []records.Membership) {
	groups := make([]records.Group, 0, g.cfg.NumGroups)
	var members []records.Membership
	for i := 1; i <= g.cfg.NumGroups; i++ {
		id := types.ID(fmt.Sprintf("G%03d", i))
		route := append([]string(nil), Routes[g.rand.Intn(len(Routes))]...)
		if len(route) > 3 && g.rand.Float64() < g.cfg.ShuffleStopProb {
			inner := route[1 : len(route)-1]
			g.rand.Shuffle(len(inner), func(a, b int) { inner[a], inner[b] = inner[b], inner[a] })
		}
		capacity := g.cfg.CapacityMin + g.rand.Intn(g.cfg.CapacityMax-g.cfg.CapacityMin+1)
		pref := types.PreferenceAll
		if g.rand.Float64() < g.cfg.FemaleOnlyProb {
			pref = types.PreferenceFemaleOnly
		}
		departure := g.departure()
		dest := route[len(route)-1]

		groups = append(groups, records.Group{
			ID:         id,
			Start:      route[0],
			Dest:       dest,
			Stops:      route[1 : len(route)-1],
			Capacity:   capacity,
			Preference: pref,
			Departure:  &departure,
			Fare:       types.Fare(g.fare(dest)),
		})

		count := g.rand.Intn(capacity)
		for _, idx := range g.rand.Perm(len(users))[:min(count, len(users))] {
			members = append(members, records.Membership{GroupID: id, UserID: users[idx].ID})
		}
	}
	return groups, members
}

// departure picks a day within the horizon, between 06:00 and 22:45.
func (g *Generator) departure() time.Time {
	day := g.cfg.Now.AddDate(0, 0, g.rand.Intn(g.cfg.HorizonDays+1))
	hour := 6 + g.rand.Intn(17)
	minute := minuteMarks[g.rand.Intn(len(minuteMarks))]
	y, m, d := day.Date()
	return time.Date(y, m, d, hour, minute, 0, 0, time.UTC)
}

func (g *Generator) fare(dest string) int64 {
	switch {
	case farBound[dest]:
		return int64(baseFare + 200 + g.rand.Intn(301))
	case midBound[dest]:
		return int64(baseFare + 100 + g.rand.Intn(201))
	default:
		return int64(baseFare + 50 + g.rand.Intn(151))
	}
}
