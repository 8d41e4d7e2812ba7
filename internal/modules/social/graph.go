// README: Friendship graph answering hop-distance and direct-connection queries.
package social

import (
	"campusride/internal/modules/records"
	"campusride/internal/types"
)

// DefaultDepth is the deepest friend-of-friend level tracked by NeighborsWithinDepth.
const DefaultDepth = 3

type User struct {
	ID     types.ID
	Name   string
	Gender types.Gender
}

// IDSet is an unordered set of user ids.
type IDSet map[types.ID]struct{}

func (s IDSet) Has(id types.ID) bool {
	_, ok := s[id]
	return ok
}

// Graph is an undirected friendship graph. It is built once per request and
// only read afterwards, so concurrent readers need no locking.
type Graph struct {
	users map[types.ID]User
	adj   map[types.ID]IDSet
}

func NewGraph() *Graph {
	return &Graph{
		users: make(map[types.ID]User),
		adj:   make(map[types.ID]IDSet),
	}
}

// AddUser registers a user. Re-adding an existing id keeps the first record.
func (g *Graph) AddUser(id types.ID, name string, gender types.Gender) {
	if id.Empty() {
		return
	}
	if _, ok := g.users[id]; ok {
		return
	}
	g.users[id] = User{ID: id, Name: name, Gender: gender}
}

// AddConnection adds the undirected edge a-b. Self-loops and empty ids are ignored.
func (g *Graph) AddConnection(a, b types.ID) {
	if a.Empty() || b.Empty() || a == b {
		return
	}
	g.link(a, b)
	g.link(b, a)
}

func (g *Graph) link(from, to types.ID) {
	set, ok := g.adj[from]
	if !ok {
		set = make(IDSet)
		g.adj[from] = set
	}
	set[to] = struct{}{}
}

// User returns the registered user record.
func (g *Graph) User(id types.ID) (User, bool) {
	u, ok := g.users[id]
	return u, ok
}

// Gender returns the user's gender marker, GenderUnknown for unregistered ids.
func (g *Graph) Gender(id types.ID) types.Gender {
	return g.users[id].Gender
}

// Connected reports whether a and b share a direct edge.
func (g *Graph) Connected(a, b types.ID) bool {
	return g.adj[a].Has(b)
}

// DirectFriends returns the depth-1 neighbourhood of id.
func (g *Graph) DirectFriends(id types.ID) IDSet {
	return g.NeighborsWithinDepth(id, 1)[1]
}

// NeighborsWithinDepth runs a level-order search from id and buckets every reachable
// user by the depth at which it was first discovered. Every level 1..maxDepth is
// present in the result, empty when nothing was found there; an unknown id yields
// only empty levels. maxDepth < 1 falls back to DefaultDepth.
func (g *Graph) NeighborsWithinDepth(id types.ID, maxDepth int) map[int]IDSet {
	if maxDepth < 1 {
		maxDepth = DefaultDepth
	}
	levels := make(map[int]IDSet, maxDepth)
	for d := 1; d <= maxDepth; d++ {
		levels[d] = make(IDSet)
	}
	if _, ok := g.adj[id]; !ok {
		return levels
	}

	visited := IDSet{id: {}}
	frontier := []types.ID{id}
	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []types.ID
		for _, cur := range frontier {
			for nb := range g.adj[cur] {
				if visited.Has(nb) {
					continue
				}
				visited[nb] = struct{}{}
				levels[depth][nb] = struct{}{}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return levels
}

// Size returns the number of registered users and undirected edges.
func (g *Graph) Size() (users, edges int) {
	for _, set := range g.adj {
		edges += len(set)
	}
	return len(g.users), edges / 2
}

// Build assembles a graph from snapshot users and connections.
func Build(users []records.User, conns []records.Connection) *Graph {
	g := NewGraph()
	for _, u := range users {
		g.AddUser(u.ID, u.Name, u.Gender)
	}
	for _, c := range conns {
		g.AddConnection(c.A, c.B)
	}
	return g
}
