// Package compare normalizes two raw profiles, asks the backend for their
// compatibility and turns the answer into something to display.
package compare

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/profile"
)

// Comparer is the part of the backend client the engine needs.
type Comparer interface {
	CompareAndStore(payload backend.ComparisonPayload) (float64, error)
}

// Result is what the compare screen shows.
type Result struct {
	First  string
	Second string
	Score  Score
	Tier   Tier
	Color  string
}

func NewResult(first, second string, score Score) Result {
	return Result{
		First:  first,
		Second: second,
		Score:  score,
		Tier:   TierFor(score),
		Color:  ColorFor(score),
	}
}

type Engine struct {
	comparer Comparer
	logger   *zap.Logger

	mu   sync.Mutex
	last *Result
}

func NewEngine(comparer Comparer, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{comparer: comparer, logger: logger}
}

// Normalize validates both records and builds the payload sent to the backend.
func Normalize(first, second profile.Record) (*backend.ComparisonPayload, error) {
	p1, err := first.Normalize()
	if err != nil {
		return nil, fmt.Errorf("profile 1: %w", err)
	}
	p2, err := second.Normalize()
	if err != nil {
		return nil, fmt.Errorf("profile 2: %w", err)
	}

	payload := backend.NewComparisonPayload(*p1, *p2)
	return &payload, nil
}

// Compare scores two raw records. Invalid records never reach the backend.
// On failure the previously displayed result is left untouched.
func (e *Engine) Compare(ctx context.Context, first, second profile.Record) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	payload, err := Normalize(first, second)
	if err != nil {
		return Result{}, err
	}

	e.logger.Debug("comparing profiles",
		zap.String("profile1", payload.Profile1.Name),
		zap.String("profile2", payload.Profile2.Name),
	)

	raw, err := e.comparer.CompareAndStore(*payload)
	if err != nil {
		e.logger.Warn("comparison failed", zap.Error(err))
		return Result{}, fmt.Errorf("compare and store: %w", err)
	}

	result := NewResult(payload.Profile1.Name, payload.Profile2.Name, FromFraction(raw))

	e.mu.Lock()
	e.last = &result
	e.mu.Unlock()

	e.logger.Info("profiles compared",
		zap.String("profile1", result.First),
		zap.String("profile2", result.Second),
		zap.String("score", result.Score.String()),
		zap.String("tier", result.Tier.Label),
	)

	return result, nil
}

// Last returns the result currently on display, if any.
func (e *Engine) Last() (Result, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.last == nil {
		return Result{}, false
	}
	return *e.last, true
}
