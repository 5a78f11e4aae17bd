package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/ai"
	"github.com/spigell/matchmate/internal/backend"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func pair() ai.Pair {
	return ai.Pair{
		Me: &backend.Profile{
			Name:     "alice",
			Age:      28,
			Hobbies:  []string{"climbing", "jazz"},
			Smoking:  backend.HabitNo,
			Drinking: backend.HabitOccasionally,
			Password: "hunter2",
		},
		Match: &backend.Profile{
			Name:    "bob",
			Hobbies: []string{"jazz", "cooking"},
		},
		Score: 87.5,
	}
}

func TestIcebreakerSuggest(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"line\": \"Hi bob! Any jazz bars you'd recommend?\", \"topics\": [\"jazz\", \" \"]}\n```"}
	breaker := NewIcebreaker(stub, zap.NewNop(), 0)

	got, err := breaker.Suggest(context.Background(), pair())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.Line != "Hi bob! Any jazz bars you'd recommend?" {
		t.Fatalf("unexpected line %q", got.Line)
	}
	if len(got.Topics) != 1 || got.Topics[0] != "jazz" {
		t.Fatalf("unexpected topics %v", got.Topics)
	}
	if got.Raw == "" {
		t.Fatalf("raw response must be kept")
	}

	for _, want := range []string{"as alice", "to bob", "88%", `"cooking"`} {
		if !strings.Contains(stub.lastPrompt, want) {
			t.Errorf("prompt misses %q", want)
		}
	}
	if strings.Contains(stub.lastPrompt, "hunter2") {
		t.Fatalf("password leaked into the prompt")
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatalf("unreplaced placeholder in prompt")
	}
}

func TestIcebreakerUnknownScore(t *testing.T) {
	stub := &stubGenerator{response: `{"line": "hey"}`}
	p := pair()
	p.Score = 0

	if _, err := NewIcebreaker(stub, nil, 0).Suggest(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stub.lastPrompt, "Compatibility: unknown") {
		t.Fatalf("expected unknown compatibility in prompt")
	}
}

func TestIcebreakerErrors(t *testing.T) {
	if _, err := NewIcebreaker(&stubGenerator{}, nil, 0).Suggest(context.Background(), ai.Pair{}); err == nil {
		t.Fatal("expected error without profiles")
	}

	boom := errors.New("quota")
	_, err := NewIcebreaker(&stubGenerator{err: boom}, nil, 0).Suggest(context.Background(), pair())
	if !errors.Is(err, boom) {
		t.Fatalf("expected generator error, got %v", err)
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		line    string
		wantErr bool
	}{
		{name: "json", raw: `{"line": "Hello there"}`, line: "Hello there"},
		{name: "plain text", raw: `"Loved your hiking photos!"`, line: "Loved your hiking photos!"},
		{name: "fenced", raw: "```\n{\"line\":\"yo\"}\n```", line: "yo"},
		{name: "long", raw: strings.Repeat("a", maxLineRunes+10), line: strings.Repeat("a", maxLineRunes)},
		{name: "broken json", raw: `{"line": `, wantErr: true},
		{name: "empty line", raw: `{"line": "  "}`, wantErr: true},
		{name: "empty", raw: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseResponse(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Line != tt.line {
				t.Fatalf("expected %q, got %q", tt.line, got.Line)
			}
		})
	}
}
