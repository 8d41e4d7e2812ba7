// README: Group store backed by PostgreSQL (grps and grp_members tables).
package group

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"campusride/internal/modules/records"
	"campusride/internal/types"
)

// createLockKey serializes id allocation across API replicas.
const createLockKey = 0x67727073

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) List(ctx context.Context) ([]records.Group, error) {
	rows, err := s.db.Query(ctx, `
        SELECT gid, COALESCE(start, ''), COALESCE(dest, ''), COALESCE(stops, ''),
               COALESCE(capacity, 0), COALESCE(preference, 'ALL'), departure_date, COALESCE(fare, 0)
        FROM grps
        ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []records.Group{}
	for rows.Next() {
		var g records.Group
		var stops, pref string
		var departure *time.Time
		var fare int64
		if err := rows.Scan(&g.ID, &g.Start, &g.Dest, &stops, &g.Capacity, &pref, &departure, &fare); err != nil {
			return nil, err
		}
		g.Stops = records.SplitStops(stops)
		g.Preference = types.ParsePreference(pref)
		g.Departure = departure
		g.Fare = types.Fare(fare)
		out = append(out, g)
	}
	return out, rows.Err()
}

func (s *Store) Exists(ctx context.Context, id types.ID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM grps WHERE gid = $1)`, string(id)).Scan(&exists)
	return exists, err
}

// Create allocates the next free sequential id, inserts the group and, when creator
// is set, its first membership, all in one transaction.
func (s *Store) Create(ctx context.Context, g records.Group, creator types.ID) (types.ID, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(createLockKey)); err != nil {
		return "", fmt.Errorf("lock group ids: %w", err)
	}

	rows, err := tx.Query(ctx, `SELECT gid FROM grps`)
	if err != nil {
		return "", err
	}
	existing := make(map[types.ID]struct{})
	for rows.Next() {
		var id types.ID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return "", err
		}
		existing[id] = struct{}{}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return "", err
	}

	id := NextID(existing)
	_, err = tx.Exec(ctx, `
        INSERT INTO grps (gid, start, dest, stops, capacity, preference, departure_date, fare)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(id), g.Start, g.Dest, records.JoinStops(g.Stops), g.Capacity, string(g.Preference), g.Departure, g.Fare.Amount,
	)
	if err != nil {
		return "", fmt.Errorf("insert group: %w", err)
	}
	if !creator.Empty() {
		if _, err := tx.Exec(ctx, `INSERT INTO grp_members (gid, uid) VALUES ($1, $2) ON CONFLICT DO NOTHING`, string(id), string(creator)); err != nil {
			return "", fmt.Errorf("insert creator membership: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

// AddMember inserts (gid, uid) once. It reports false when the row already existed.
func (s *Store) AddMember(ctx context.Context, gid, uid types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
        INSERT INTO grp_members (gid, uid) VALUES ($1, $2)
        ON CONFLICT (gid, uid) DO NOTHING`, string(gid), string(uid))
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
