// README: Snapshot store backed by PostgreSQL; reads all catalog tables in parallel.
package records

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"campusride/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Load reads users, connections, groups and memberships inside one repeatable-read
// transaction so that a group and its membership rows come from the same point in time.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return Snapshot{}, fmt.Errorf("begin snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var exported string
	if err := tx.QueryRow(ctx, `SELECT pg_export_snapshot()`).Scan(&exported); err != nil {
		return Snapshot{}, fmt.Errorf("export snapshot: %w", err)
	}

	var snap Snapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Users, err = readTable(gctx, s.db, exported, selectUsers, scanUser)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Connections, err = readTable(gctx, s.db, exported, selectConnections, scanConnection)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Groups, err = readTable(gctx, s.db, exported, selectGroups, scanGroup)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Memberships, err = readTable(gctx, s.db, exported, selectMembers, scanMembership)
		return err
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

const (
	selectUsers       = `SELECT uid, name, gender, email FROM users ORDER BY uid`
	selectConnections = `SELECT u1, u2 FROM connections ORDER BY u1, u2`
	selectGroups      = `SELECT gid, start, dest, stops, COALESCE(capacity, 0), preference, departure_date, COALESCE(fare, 0) FROM grps ORDER BY seq`
	selectMembers     = `SELECT gid, uid FROM grp_members ORDER BY seq`
)

// readTable runs one query in its own read-only transaction pinned to the exported snapshot.
func readTable[T any](ctx context.Context, db *pgxpool.Pool, snapshotID, query string, scan func(pgx.Rows) (T, error)) ([]T, error) {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if _, err := tx.Exec(ctx, fmt.Sprintf("SET TRANSACTION SNAPSHOT '%s'", snapshotID)); err != nil {
		return nil, fmt.Errorf("set snapshot: %w", err)
	}

	rows, err := tx.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func scanUser(rows pgx.Rows) (User, error) {
	var u User
	var name, gender, email *string
	if err := rows.Scan(&u.ID, &name, &gender, &email); err != nil {
		return u, err
	}
	u.Name = deref(name)
	u.Gender = types.ParseGender(deref(gender))
	u.Email = deref(email)
	return u, nil
}

func scanConnection(rows pgx.Rows) (Connection, error) {
	var c Connection
	err := rows.Scan(&c.A, &c.B)
	return c, err
}

func scanGroup(rows pgx.Rows) (Group, error) {
	var g Group
	var start, dest, stops, pref *string
	var departure *time.Time
	var capacity int
	var fare int64
	if err := rows.Scan(&g.ID, &start, &dest, &stops, &capacity, &pref, &departure, &fare); err != nil {
		return g, err
	}
	g.Start = deref(start)
	g.Dest = deref(dest)
	g.Stops = SplitStops(deref(stops))
	g.Capacity = capacity
	g.Preference = types.ParsePreference(deref(pref))
	if departure != nil {
		d := departure.UTC()
		g.Departure = &d
	}
	g.Fare = types.Fare(fare)
	return g, nil
}

func scanMembership(rows pgx.Rows) (Membership, error) {
	var m Membership
	err := rows.Scan(&m.GroupID, &m.UserID)
	return m, err
}

// Import upserts a whole snapshot; existing rows are left untouched.
func (s *Store) Import(ctx context.Context, snap Snapshot) error {
	batch := &pgx.Batch{}
	for _, u := range snap.Users {
		batch.Queue(`INSERT INTO users (uid, name, gender, email) VALUES ($1, $2, $3, $4) ON CONFLICT (uid) DO NOTHING`,
			string(u.ID), u.Name, string(u.Gender), u.Email)
	}
	for _, c := range snap.Connections {
		a, b := c.A, c.B
		if b < a {
			a, b = b, a
		}
		batch.Queue(`INSERT INTO connections (u1, u2) VALUES ($1, $2) ON CONFLICT DO NOTHING`, string(a), string(b))
	}
	for _, g := range snap.Groups {
		batch.Queue(`
			INSERT INTO grps (gid, start, dest, stops, capacity, preference, departure_date, fare)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (gid) DO NOTHING`,
			string(g.ID), g.Start, g.Dest, JoinStops(g.Stops), g.Capacity, string(g.Preference), g.Departure, g.Fare.Amount)
	}
	for _, m := range snap.Memberships {
		batch.Queue(`INSERT INTO grp_members (gid, uid) VALUES ($1, $2) ON CONFLICT DO NOTHING`, string(m.GroupID), string(m.UserID))
	}
	if batch.Len() == 0 {
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("import snapshot: %w", err)
	}
	return tx.Commit(ctx)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
