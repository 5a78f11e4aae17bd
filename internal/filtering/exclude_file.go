package filtering

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// HiddenMatches is the content of the exclude file: people the user does not want to see again.
type HiddenMatches struct {
	Items []*HiddenMatch `yaml:"items"`
}

type HiddenMatch struct {
	Name     string    `yaml:"name"`
	HiddenAt time.Time `yaml:"hidden_at"`
}

// LoadHiddenMatches reads the exclude file. A missing or empty file is an empty list.
func LoadHiddenMatches(path string) (*HiddenMatches, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &HiddenMatches{}, nil
	}
	if err != nil {
		return nil, err
	}

	var hidden HiddenMatches
	if err := yaml.Unmarshal(data, &hidden); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &hidden, nil
}

// Hide adds names to the list, skipping ones already present.
func (h *HiddenMatches) Hide(names ...string) {
	known := make(map[string]struct{}, len(h.Items))
	items := h.Items[:0]
	for _, item := range h.Items {
		if item == nil {
			continue
		}
		known[item.Name] = struct{}{}
		items = append(items, item)
	}
	h.Items = items

	for _, name := range names {
		if _, ok := known[name]; ok || name == "" {
			continue
		}
		known[name] = struct{}{}
		h.Items = append(h.Items, &HiddenMatch{Name: name, HiddenAt: time.Now().UTC()})
	}
}

func (h *HiddenMatches) Names() []string {
	names := make([]string, 0, len(h.Items))
	for _, item := range h.Items {
		if item == nil {
			continue
		}
		names = append(names, item.Name)
	}
	return names
}

func (h *HiddenMatches) ToFile(path string) error {
	data, err := yaml.Marshal(h)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
