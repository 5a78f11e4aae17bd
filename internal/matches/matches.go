// Package matches turns the candidates returned by the backend into printable cards.
package matches

import (
	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/chat"
	"github.com/spigell/matchmate/internal/compare"
)

// EmptyText is shown instead of a blank list.
const EmptyText = "No matches yet. Complete your profile and check back to discover your compatibility scores!"

// Icons by score, best first.
const (
	IconPerfect   = "💖"
	IconGreat     = "💕"
	IconGood      = "💛"
	IconPotential = "💙"
)

type Card struct {
	Name  string
	Score compare.Score
	// Percent is the display text, e.g. "85.0%".
	Percent  string
	Color    string
	Icon     string
	Tier     compare.Tier
	Blurb    string
	Stars    int
	ChatRoom string
}

type View struct {
	CurrentUser string
	Cards       []Card
	Empty       bool
}

// Render builds one card per entry keeping the backend order.
func Render(entries []*backend.MatchEntry, currentUser string) View {
	view := View{CurrentUser: currentUser}

	for _, entry := range entries {
		if entry == nil {
			continue
		}
		view.Cards = append(view.Cards, NewCard(entry.Name, entry.Score, currentUser))
	}

	view.Empty = len(view.Cards) == 0
	return view
}

// NewCard renders a single candidate. percent is on the 0-100 scale of /matches.
func NewCard(name string, percent float64, currentUser string) Card {
	score := compare.FromPercent(percent)

	return Card{
		Name:     name,
		Score:    score,
		Percent:  score.String(),
		Color:    compare.ColorFor(score),
		Icon:     iconFor(score),
		Tier:     compare.TierFor(score),
		Blurb:    blurbFor(score),
		Stars:    starsFor(score),
		ChatRoom: chat.RoomID(currentUser, name),
	}
}

func iconFor(s compare.Score) string {
	switch p := s.Percent(); {
	case p >= 90:
		return IconPerfect
	case p >= 80:
		return IconGreat
	case p >= 60:
		return IconGood
	default:
		return IconPotential
	}
}

func blurbFor(s compare.Score) string {
	switch p := s.Percent(); {
	case p >= 75:
		return "High compatibility!"
	case p >= 50:
		return "Moderate compatibility"
	default:
		return "Low compatibility"
	}
}

// starsFor converts 0-100 to a 0-5 rating.
func starsFor(s compare.Score) int {
	return int(s.Percent()/20 + 0.5)
}

// Group holds the cards of one tier.
type Group struct {
	Tier  compare.Tier
	Cards []Card
}

// GroupByTier buckets cards by tier, best tier first. Empty tiers are skipped and
// cards keep their relative order.
func (v View) GroupByTier() []Group {
	byRank := make(map[int][]Card)
	for _, card := range v.Cards {
		byRank[card.Tier.Rank] = append(byRank[card.Tier.Rank], card)
	}

	var groups []Group
	for _, tier := range compare.Tiers() {
		if cards := byRank[tier.Rank]; len(cards) > 0 {
			groups = append(groups, Group{Tier: tier, Cards: cards})
		}
	}
	return groups
}

// Find returns the card for name.
func (v View) Find(name string) (Card, bool) {
	for _, card := range v.Cards {
		if card.Name == name {
			return card, true
		}
	}
	return Card{}, false
}
