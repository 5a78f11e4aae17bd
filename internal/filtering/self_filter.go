package filtering

import (
	"context"

	"github.com/spigell/matchmate/internal/backend"
	"go.uber.org/zap"
)

type selfFilter struct {
	disabled bool
	reason   string
}

// NewSelf creates a filter that removes the signed-in user from their own match list.
func NewSelf() Filter {
	return &selfFilter{}
}

func (f *selfFilter) Name() string { return "self" }

func (f *selfFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *selfFilter) IsEnabled() bool { return !f.disabled }

func (f *selfFilter) Validate(*Config) error { return nil }

func (f *selfFilter) Apply(_ context.Context, deps Deps, m *backend.Matches) (*backend.Matches, Step, error) {
	initial := m.Len()
	if deps.Username == "" {
		return m, Step{Initial: initial, Left: initial}, nil
	}

	excluded := m.Exclude([]string{deps.Username})
	if deps.Logger != nil && len(excluded) > 0 {
		deps.Logger.Debug("excluding the current user from matches", zap.String("username", deps.Username))
	}

	return m, Step{Initial: initial, Dropped: len(excluded), Left: m.Len()}, nil
}

func (f *selfFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}
