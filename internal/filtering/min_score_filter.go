package filtering

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spigell/matchmate/internal/backend"
	"go.uber.org/zap"
)

type minScoreFilter struct {
	minScore float64
}

// NewMinScore creates a filter that drops matches scored below the configured percentage.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(string) {}

func (f *minScoreFilter) IsEnabled() bool { return true }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.minScore = 0
	if cfg == nil {
		return nil
	}
	if cfg.MinScore < 0 || cfg.MinScore > 100 {
		return fmt.Errorf("minimum score must be within 0-100, got %v", cfg.MinScore)
	}
	f.minScore = cfg.MinScore
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, m *backend.Matches) (*backend.Matches, Step, error) {
	initial := m.Len()
	if f.minScore == 0 {
		return m, Step{Initial: initial, Dropped: 0, Left: initial}, nil
	}

	excluded := m.Filter(func(e *backend.MatchEntry) bool {
		return e.Score >= f.minScore
	})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Info("excluding matches below minimum score",
			zap.Float64("min_score", f.minScore),
			zap.Strings("excluded_matches", excluded),
			zap.Int("matches_left", m.Len()),
		)
	}

	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"min_score": strconv.FormatFloat(f.minScore, 'f', -1, 64)},
	}
}
