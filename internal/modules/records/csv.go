// README: CSV directory loader/writer for the tabular catalog layout.
package records

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	UsersFile       = "users.csv"
	ConnectionsFile = "connections.csv"
	GroupsFile      = "grps.csv"
	MembersFile     = "grp_members.csv"
)

// ReadRows parses CSV with a header row into column-keyed rows.
func ReadRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	var rows []Row
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, err
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		row := make(Row, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadDir reads the four catalog files from dir. A missing file is an empty table.
func LoadDir(dir string) (Snapshot, error) {
	var snap Snapshot

	users, err := readFile(filepath.Join(dir, UsersFile))
	if err != nil {
		return snap, err
	}
	for _, r := range users {
		if u := NormalizeUser(r); !u.ID.Empty() {
			snap.Users = append(snap.Users, u)
		}
	}

	conns, err := readFile(filepath.Join(dir, ConnectionsFile))
	if err != nil {
		return snap, err
	}
	for _, r := range conns {
		if c, ok := NormalizeConnection(r); ok {
			snap.Connections = append(snap.Connections, c)
		}
	}

	groups, err := readFile(filepath.Join(dir, GroupsFile))
	if err != nil {
		return snap, err
	}
	for _, r := range groups {
		if g := NormalizeGroup(r); !g.ID.Empty() {
			snap.Groups = append(snap.Groups, g)
		}
	}

	members, err := readFile(filepath.Join(dir, MembersFile))
	if err != nil {
		return snap, err
	}
	for _, r := range members {
		if m, ok := NormalizeMembership(r); ok {
			snap.Memberships = append(snap.Memberships, m)
		}
	}
	return snap, nil
}

func readFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

// WriteDir writes snap into dir using the same layout LoadDir reads.
func WriteDir(dir string, snap Snapshot) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	users := make([][]string, 0, len(snap.Users))
	for _, u := range snap.Users {
		users = append(users, []string{string(u.ID), u.Name, string(u.Gender), u.Email})
	}
	if err := writeFile(filepath.Join(dir, UsersFile), []string{"uid", "name", "gender", "email"}, users); err != nil {
		return err
	}

	conns := make([][]string, 0, len(snap.Connections))
	for _, c := range snap.Connections {
		conns = append(conns, []string{string(c.A), string(c.B)})
	}
	if err := writeFile(filepath.Join(dir, ConnectionsFile), []string{"u1", "u2"}, conns); err != nil {
		return err
	}

	groups := make([][]string, 0, len(snap.Groups))
	for _, g := range snap.Groups {
		departure := ""
		if g.Departure != nil {
			departure = g.Departure.Format("2006-01-02T15:04:05")
		}
		groups = append(groups, []string{
			string(g.ID), g.Start, g.Dest,
			strconv.Itoa(g.Capacity),
			string(g.Preference),
			JoinStops(g.Stops),
			departure,
			strconv.FormatInt(g.Fare.Amount, 10),
		})
	}
	header := []string{"gid", "start", "dest", "capacity", "preference", "stops", "departure_date", "fare"}
	if err := writeFile(filepath.Join(dir, GroupsFile), header, groups); err != nil {
		return err
	}

	members := make([][]string, 0, len(snap.Memberships))
	for _, m := range snap.Memberships {
		members = append(members, []string{string(m.GroupID), string(m.UserID)})
	}
	return writeFile(filepath.Join(dir, MembersFile), []string{"gid", "uid"}, members)
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// DirSource loads a fresh snapshot from a CSV directory on every call.
type DirSource struct {
	Dir string
}

func (d DirSource) Load(_ context.Context) (Snapshot, error) {
	return LoadDir(d.Dir)
}

// FormatDeparture renders a departure the way results echo it.
func FormatDeparture(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02T15:04:05")
	return &s
}
