package compare

import (
	"fmt"
	"math"
)

// Score is a compatibility score kept as a fraction in [0,1].
type Score float64

// FromFraction builds a score from a 0-1 value as returned by /compare-and-store.
func FromFraction(v float64) Score {
	return Score(clamp(v))
}

// FromPercent builds a score from a 0-100 value as returned by /matches.
func FromPercent(v float64) Score {
	return Score(clamp(v / 100))
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func (s Score) Fraction() float64 { return float64(s) }

func (s Score) Percent() float64 { return float64(s) * 100 }

// String renders the score the way it is displayed, e.g. "85.0%".
func (s Score) String() string {
	return fmt.Sprintf("%.1f%%", s.Percent())
}

// Accent colors shared by the compare screen and the match list.
const (
	AccentA = "#ff6b9d"
	AccentB = "#ffa726"
	AccentC = "#42a5f5"
)

// Tier is a presentation bucket of a score.
type Tier struct {
	Label string
	// Rank orders tiers; a higher rank is a better match.
	Rank int
}

var (
	TierPerfect   = Tier{Label: "Perfect Match", Rank: 3}
	TierGreat     = Tier{Label: "Great Match", Rank: 2}
	TierGood      = Tier{Label: "Good Match", Rank: 1}
	TierPotential = Tier{Label: "Potential Match", Rank: 0}
)

type threshold[T any] struct {
	min   float64
	value T
}

// Thresholds are checked top down; the first one the score reaches wins.
var (
	labelThresholds = []threshold[Tier]{
		{0.9, TierPerfect},
		{0.8, TierGreat},
		{0.6, TierGood},
		{0, TierPotential},
	}
	colorThresholds = []threshold[string]{
		{0.8, AccentA},
		{0.6, AccentB},
		{0, AccentC},
	}
)

func pick[T any](s Score, table []threshold[T]) T {
	for _, t := range table {
		if float64(s) >= t.min {
			return t.value
		}
	}
	return table[len(table)-1].value
}

// TierFor maps a score to its label tier.
func TierFor(s Score) Tier {
	return pick(s, labelThresholds)
}

// ColorFor maps a score to its accent color.
func ColorFor(s Score) string {
	return pick(s, colorThresholds)
}

// Tiers returns every tier, best first.
func Tiers() []Tier {
	tiers := make([]Tier, 0, len(labelThresholds))
	for _, t := range labelThresholds {
		tiers = append(tiers, t.value)
	}
	return tiers
}
