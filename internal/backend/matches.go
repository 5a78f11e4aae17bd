package backend

import (
	"fmt"
	"net/url"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

const matchesPath = "/matches/%s"

type Matches struct {
	Items []*MatchEntry
}

// MatchEntry is a single candidate returned by the backend. Score is a percentage.
type MatchEntry struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// GetMatches returns the candidates for name in the order the backend ranked them.
func (c *Client) GetMatches(name string) (*Matches, error) {
	if name == "" {
		return nil, fmt.Errorf("user name is required")
	}

	var items []any
	if err := c.getJSON(c.url(fmt.Sprintf(matchesPath, url.PathEscape(name))), &items); err != nil {
		return nil, err
	}

	var entries []*MatchEntry
	cfg := &mapstructure.DecoderConfig{
		Result:           &entries,
		TagName:          "json",
		WeaklyTypedInput: true,
	}
	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(items); err != nil {
		return nil, fmt.Errorf("decode matches: %w", err)
	}

	// null items decode to nil entries.
	kept := entries[:0]
	for _, entry := range entries {
		if entry != nil {
			kept = append(kept, entry)
		}
	}
	if dropped := len(entries) - len(kept); dropped > 0 {
		c.logger.Warn("dropped empty match entries", zap.String("user", name), zap.Int("dropped", dropped))
	}

	return &Matches{Items: kept}, nil
}

func (m *Matches) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Items)
}

func (m *Matches) Names() []string {
	names := make([]string, 0, m.Len())
	for _, entry := range m.Items {
		if entry == nil {
			continue
		}
		names = append(names, entry.Name)
	}
	return names
}

func (m *Matches) FindByName(name string) *MatchEntry {
	for _, entry := range m.Items {
		if entry != nil && entry.Name == name {
			return entry
		}
	}
	return nil
}

// Exclude removes entries whose name is in targets, keeping the order of the rest.
// It returns the removed names.
func (m *Matches) Exclude(targets []string) []string {
	if len(targets) == 0 {
		return nil
	}

	drop := make(map[string]struct{}, len(targets))
	for _, t := range targets {
		drop[t] = struct{}{}
	}

	return m.Filter(func(e *MatchEntry) bool {
		_, found := drop[e.Name]
		return !found
	})
}

// Filter keeps entries for which keep returns true, preserving order.
func (m *Matches) Filter(keep func(*MatchEntry) bool) []string {
	var removed []string
	kept := m.Items[:0]
	for _, entry := range m.Items {
		if entry == nil {
			continue
		}
		if keep(entry) {
			kept = append(kept, entry)
			continue
		}
		removed = append(removed, entry.Name)
	}
	m.Items = kept
	return removed
}
