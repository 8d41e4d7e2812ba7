// README: Group service: create, join and list operations over the catalog store.
package group

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campusride/internal/modules/records"
	"campusride/internal/types"
)

// DefaultCapacity applies when a create request omits capacity.
const DefaultCapacity = 4

var (
	ErrNotFound   = errors.New("group not found")
	ErrBadRequest = errors.New("bad request")
)

// Repository is the persistence contract; *Store is the Postgres implementation.
type Repository interface {
	List(ctx context.Context) ([]records.Group, error)
	Exists(ctx context.Context, id types.ID) (bool, error)
	Create(ctx context.Context, g records.Group, creator types.ID) (types.ID, error)
	AddMember(ctx context.Context, gid, uid types.ID) (bool, error)
}

// Invalidator drops cached catalog snapshots after a write.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	store Repository
	cache Invalidator
	log   *zap.Logger
}

func NewService(store Repository, cache Invalidator, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, cache: cache, log: log}
}

type CreateCommand struct {
	CreatorID  types.ID
	Start      string
	Dest       string
	Stops      []string
	Capacity   *int
	Preference types.Preference
	Departure  *time.Time
	Fare       int64
}

type JoinCommand struct {
	GroupID types.ID
	UserID  types.ID
}

type JoinResult struct {
	Joined bool
}

func (s *Service) List(ctx context.Context) ([]records.Group, error) {
	return s.store.List(ctx)
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (types.ID, error) {
	if cmd.Start == "" || cmd.Dest == "" {
		return "", fmt.Errorf("%w: start and dest are required", ErrBadRequest)
	}
	capacity := DefaultCapacity
	if cmd.Capacity != nil {
		capacity = *cmd.Capacity
	}
	if capacity < 0 {
		return "", fmt.Errorf("%w: capacity must not be negative", ErrBadRequest)
	}
	pref := cmd.Preference
	if pref == "" {
		pref = types.PreferenceAll
	}
	stops := cmd.Stops
	if stops == nil {
		stops = []string{}
	}

	id, err := s.store.Create(ctx, records.Group{
		Start:      cmd.Start,
		Dest:       cmd.Dest,
		Stops:      stops,
		Capacity:   capacity,
		Preference: pref,
		Departure:  cmd.Departure,
		Fare:       types.Fare(cmd.Fare),
	}, cmd.CreatorID)
	if err != nil {
		return "", err
	}
	s.invalidate(ctx)
	s.log.Info("group created", zap.String("gid", string(id)), zap.String("creator", string(cmd.CreatorID)))
	return id, nil
}

// Join adds the user to the group. Joining twice is not an error; the result
// reports whether this call changed membership.
func (s *Service) Join(ctx context.Context, cmd JoinCommand) (JoinResult, error) {
	if cmd.GroupID.Empty() || cmd.UserID.Empty() {
		return JoinResult{}, fmt.Errorf("%w: missing uid or gid", ErrBadRequest)
	}
	ok, err := s.store.Exists(ctx, cmd.GroupID)
	if err != nil {
		return JoinResult{}, err
	}
	if !ok {
		return JoinResult{}, ErrNotFound
	}
	added, err := s.store.AddMember(ctx, cmd.GroupID, cmd.UserID)
	if err != nil {
		return JoinResult{}, err
	}
	if added {
		s.invalidate(ctx)
	}
	return JoinResult{Joined: added}, nil
}

func (s *Service) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("snapshot cache invalidation failed", zap.Error(err))
	}
}

// NextID returns the lowest free id of the form G001, G002, ...
func NextID(existing map[types.ID]struct{}) types.ID {
	for n := 1; ; n++ {
		id := types.ID(fmt.Sprintf("G%03d", n))
		if _, taken := existing[id]; !taken {
			return id
		}
	}
}
