// README: Matching service loads a catalog snapshot and runs the engine with configured defaults.
package matching

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campusride/internal/config"
	"campusride/internal/modules/records"
)

type Service struct {
	source records.Source
	engine *Engine
	cfg    config.MatchingConfig
	log    *zap.Logger
}

func NewService(source records.Source, cfg config.MatchingConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{source: source, engine: NewEngine(log), cfg: cfg, log: log}
}

// Find fills request defaults from config, loads one consistent snapshot and
// ranks it. Snapshot load failures are the only error path.
func (s *Service) Find(ctx context.Context, req Request) ([]Result, error) {
	start := time.Now()
	if req.TopK <= 0 {
		req.TopK = s.cfg.TopK
	}
	if req.WindowMinutes == nil {
		w := s.cfg.WindowMinutes
		req.WindowMinutes = &w
	}
	mode := string(req.mode())

	snap, err := s.source.Load(ctx)
	if err != nil {
		matchRequests.WithLabelValues(mode, "error").Inc()
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}
	results := s.engine.Match(req, snap)

	matchRequests.WithLabelValues(mode, "ok").Inc()
	matchDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	resultsReturned.Observe(float64(len(results)))
	s.log.Debug("match completed",
		zap.String("requester", string(req.RequesterID)),
		zap.String("mode", mode),
		zap.Int("groups", len(snap.Groups)),
		zap.Int("results", len(results)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return results, nil
}
