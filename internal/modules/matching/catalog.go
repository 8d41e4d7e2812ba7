// README: Per-request catalog of groups with memberships applied.
package matching

import (
	"campusride/internal/modules/group"
	"campusride/internal/modules/records"
	"campusride/internal/types"
)

// Catalog keeps groups in snapshot order; that order breaks score ties.
type Catalog struct {
	groups []*group.Group
	byID   map[types.ID]*group.Group
}

// NewCatalog keeps the first record for a duplicated group id and ignores
// memberships that point at unknown groups.
func NewCatalog(groups []records.Group, memberships []records.Membership) *Catalog {
	c := &Catalog{
		groups: make([]*group.Group, 0, len(groups)),
		byID:   make(map[types.ID]*group.Group, len(groups)),
	}
	for _, r := range groups {
		if _, dup := c.byID[r.ID]; dup {
			continue
		}
		g := group.FromRecord(r)
		c.groups = append(c.groups, g)
		c.byID[r.ID] = g
	}
	for _, m := range memberships {
		if g, ok := c.byID[m.GroupID]; ok {
			g.AddMember(m.UserID)
		}
	}
	return c
}

func (c *Catalog) Groups() []*group.Group {
	return c.groups
}

func (c *Catalog) Get(id types.ID) (*group.Group, bool) {
	g, ok := c.byID[id]
	return g, ok
}

func (c *Catalog) Len() int {
	return len(c.groups)
}
