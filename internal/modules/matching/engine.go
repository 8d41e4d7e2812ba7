// README: Match engine: snapshot -> graph + catalog -> filter -> score -> rank.
package matching

import (
	"fmt"

	"go.uber.org/zap"

	"campusride/internal/modules/records"
	"campusride/internal/modules/social"
)

// Engine is stateless; every call builds its own graph and catalog from the
// snapshot, so one Engine may serve concurrent requests.
type Engine struct {
	log *zap.Logger
}

func NewEngine(log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{log: log}
}

// Match returns at most req.TopK results ordered by score. An empty catalog
// or a request nothing survives yields an empty, non-nil slice.
func Match(req Request, snap records.Snapshot) []Result {
	return NewEngine(nil).Match(req, snap)
}

func (e *Engine) Match(req Request, snap records.Snapshot) []Result {
	graph := social.Build(snap.Users, snap.Connections)
	catalog := NewCatalog(snap.Groups, snap.Memberships)

	candidates := newFilter(req, graph.Gender(req.RequesterID)).apply(catalog)

	sc := newScorer(req, graph)
	results := make([]Result, 0, len(candidates))
	for _, c := range candidates {
		r, err := e.safeScore(sc, c)
		if err != nil {
			candidatesSkipped.Inc()
			e.log.Warn("skipping candidate after scoring failure",
				zap.String("gid", string(c.Group.ID)),
				zap.Error(err),
			)
			continue
		}
		candidatesScored.Inc()
		results = append(results, r)
	}
	return rank(results, req.topK())
}

func (e *Engine) safeScore(sc scorer, c Candidate) (r Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("score panic: %v", p)
		}
	}()
	return sc.score(c), nil
}
