// README: Typed snapshot records consumed by the matching engine.
package records

import (
	"context"
	"time"

	"campusride/internal/types"
)

type User struct {
	ID     types.ID     `json:"uid"`
	Name   string       `json:"name"`
	Gender types.Gender `json:"gender"`
	Email  string       `json:"email,omitempty"`
}

// Connection is an undirected friendship edge.
type Connection struct {
	A types.ID `json:"u1"`
	B types.ID `json:"u2"`
}

type Group struct {
	ID         types.ID         `json:"gid"`
	Start      string           `json:"start"`
	Dest       string           `json:"dest"`
	Stops      []string         `json:"stops"`
	Capacity   int              `json:"capacity"`
	Preference types.Preference `json:"preference"`
	Departure  *time.Time       `json:"departure_date"`
	Fare       types.Money      `json:"fare"`
}

type Membership struct {
	GroupID types.ID `json:"gid"`
	UserID  types.ID `json:"uid"`
}

// Snapshot is a fully materialized, read-only view of the catalog for one request.
type Snapshot struct {
	Users       []User       `json:"users"`
	Connections []Connection `json:"connections"`
	Groups      []Group      `json:"groups"`
	Memberships []Membership `json:"memberships"`
}

// Source produces a consistent snapshot; implementations may hit Postgres, Redis or files.
type Source interface {
	Load(ctx context.Context) (Snapshot, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (Snapshot, error)

func (f SourceFunc) Load(ctx context.Context) (Snapshot, error) {
	return f(ctx)
}

// Static serves a fixed snapshot.
func Static(snap Snapshot) Source {
	return SourceFunc(func(context.Context) (Snapshot, error) { return snap, nil })
}
