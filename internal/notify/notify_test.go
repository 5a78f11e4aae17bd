package notify

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/profile"
)

func TestError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "backend detail",
			err:  fmt.Errorf("login: %w", &backend.APIError{Status: 401, StatusText: "401 Unauthorized", Detail: "Invalid credentials"}),
			want: "Invalid credentials",
		},
		{
			name: "backend without detail",
			err:  &backend.APIError{Status: 500, StatusText: "500 Internal Server Error"},
			want: "Login failed",
		},
		{
			name: "transport",
			err:  errors.New("dial tcp: connection refused"),
			want: "Login failed",
		},
		{
			name: "validation",
			err:  &profile.ValidationError{Messages: []string{"Name is required", "Age must be between 1 and 120"}},
			want: "Please fix the following errors: Name is required, Age must be between 1 and 120",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			got := New(&buf, nil).Error(tt.err, "Login failed")
			if got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Fatalf("output %q misses %q", buf.String(), tt.want)
			}
		})
	}
}

func TestNothingToReport(t *testing.T) {
	var buf bytes.Buffer
	n := New(&buf, nil)

	n.Error(nil, "fallback")
	n.Validation(nil)

	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestSuccess(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, nil).Success("Welcome, %s!", "alice")

	if buf.String() != prefixSuccess+" Welcome, alice!\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
