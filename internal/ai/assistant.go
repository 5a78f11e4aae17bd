// Package ai holds the provider independent contract for generated chat suggestions.
package ai

import (
	"context"

	"github.com/spigell/matchmate/internal/backend"
)

// Pair is the context a suggestion is generated for.
type Pair struct {
	Me    *backend.Profile
	Match *backend.Profile
	// Score is the compatibility percentage reported by /matches, 0 when unknown.
	Score float64
}

type Suggestion struct {
	Line   string
	Topics []string
	Raw    string
}

// Suggester proposes an opening line for a conversation with a match.
type Suggester interface {
	Suggest(ctx context.Context, pair Pair) (*Suggestion, error)
}
