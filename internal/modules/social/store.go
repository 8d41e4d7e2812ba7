// README: Friendship store backed by a graph database (FRIEND edges between User nodes).
package social

import (
	"context"
	"fmt"

	"campusride/internal/infra"
	"campusride/internal/modules/records"
	"campusride/internal/types"
)

const (
	listFriendshipsCypher = `
MATCH (a:User)-[:FRIEND]-(b:User)
WHERE a.uid < b.uid
RETURN a.uid AS u1, b.uid AS u2
ORDER BY u1, u2`

	upsertFriendshipsCypher = `
UNWIND $edges AS e
MERGE (a:User {uid: e.u1})
MERGE (b:User {uid: e.u2})
MERGE (a)-[:FRIEND]-(b)`

	upsertUsersCypher = `
UNWIND $users AS u
MERGE (n:User {uid: u.uid})
SET n.name = u.name, n.gender = u.gender`
)

type Store struct {
	client infra.GraphClient
}

func NewStore(client infra.GraphClient) *Store {
	return &Store{client: client}
}

// Connections lists every friendship edge once.
func (s *Store) Connections(ctx context.Context) ([]records.Connection, error) {
	rows, err := s.client.ExecuteRead(ctx, listFriendshipsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("list friendships: %w", err)
	}
	out := make([]records.Connection, 0, len(rows))
	for _, r := range rows {
		a, _ := r["u1"].(string)
		b, _ := r["u2"].(string)
		if a == "" || b == "" {
			continue
		}
		out = append(out, records.Connection{A: types.ID(a), B: types.ID(b)})
	}
	return out, nil
}

// Import mirrors users and friendships into the graph; existing nodes and edges are merged.
func (s *Store) Import(ctx context.Context, users []records.User, conns []records.Connection) error {
	if len(users) > 0 {
		params := make([]map[string]any, 0, len(users))
		for _, u := range users {
			params = append(params, map[string]any{"uid": string(u.ID), "name": u.Name, "gender": string(u.Gender)})
		}
		if _, err := s.client.ExecuteWrite(ctx, upsertUsersCypher, map[string]any{"users": params}); err != nil {
			return fmt.Errorf("upsert users: %w", err)
		}
	}
	if len(conns) > 0 {
		params := make([]map[string]any, 0, len(conns))
		for _, c := range conns {
			params = append(params, map[string]any{"u1": string(c.A), "u2": string(c.B)})
		}
		if _, err := s.client.ExecuteWrite(ctx, upsertFriendshipsCypher, map[string]any{"edges": params}); err != nil {
			return fmt.Errorf("upsert friendships: %w", err)
		}
	}
	return nil
}

// WithGraphConnections wraps base so the snapshot's connections come from the graph store.
func WithGraphConnections(base records.Source, store *Store) records.Source {
	return records.SourceFunc(func(ctx context.Context) (records.Snapshot, error) {
		snap, err := base.Load(ctx)
		if err != nil {
			return snap, err
		}
		conns, err := store.Connections(ctx)
		if err != nil {
			return records.Snapshot{}, err
		}
		snap.Connections = conns
		return snap, nil
	})
}
