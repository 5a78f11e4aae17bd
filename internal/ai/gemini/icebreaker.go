package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/matchmate/internal/ai"
	"github.com/spigell/matchmate/internal/backend"
	"github.com/spigell/matchmate/internal/logger"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	defaultMaxLogLength = 200
	maxLineRunes        = 280
)

// Icebreaker suggests opening lines with a Gemini model.
type Icebreaker struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

var _ ai.Suggester = (*Icebreaker)(nil)

func NewIcebreaker(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Icebreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	return &Icebreaker{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

func (i *Icebreaker) Suggest(ctx context.Context, pair ai.Pair) (*ai.Suggestion, error) {
	if pair.Me == nil || pair.Match == nil {
		return nil, errors.New("both profiles are required")
	}

	prompt, err := buildPrompt(pair)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("gemini generate content request",
		zap.String("match", pair.Match.Name),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		logger.PreviewField("prompt_preview", prompt, i.maxLogLen),
	)

	raw, err := i.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	i.logger.Debug("gemini generate content response",
		zap.String("match", pair.Match.Name),
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		logger.PreviewField("response_preview", raw, i.maxLogLen),
	)

	suggestion, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	suggestion.Raw = raw
	return suggestion, nil
}

// promptProfile is what the model gets to see: no password, no age.
type promptProfile struct {
	Name     string   `json:"name"`
	Hobbies  []string `json:"hobbies"`
	Smoking  string   `json:"smoking,omitempty"`
	Drinking string   `json:"drinking,omitempty"`
}

func toPromptProfile(p *backend.Profile) promptProfile {
	return promptProfile{
		Name:     p.Name,
		Hobbies:  p.Hobbies,
		Smoking:  string(p.Smoking),
		Drinking: string(p.Drinking),
	}
}

func buildPrompt(pair ai.Pair) (string, error) {
	sender, err := json.MarshalIndent(toPromptProfile(pair.Me), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sender profile: %w", err)
	}
	recipient, err := json.MarshalIndent(toPromptProfile(pair.Match), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal recipient profile: %w", err)
	}

	score := "unknown"
	if pair.Score > 0 {
		score = fmt.Sprintf("%.0f%%", pair.Score)
	}

	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Sender:\n{{SENDER_JSON}}\n\nRecipient:\n{{RECIPIENT_JSON}}\n\nJSON Response:"
	}

	return strings.NewReplacer(
		"{{SENDER}}", pair.Me.Name,
		"{{RECIPIENT}}", pair.Match.Name,
		"{{SCORE}}", score,
		"{{SENDER_JSON}}", string(sender),
		"{{RECIPIENT_JSON}}", string(recipient),
	).Replace(template), nil
}

func parseResponse(raw string) (*ai.Suggestion, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, errors.New("gemini response is empty")
	}

	var data struct {
		Line   string   `json:"line"`
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		if strings.HasPrefix(cleaned, "{") {
			return nil, fmt.Errorf("parse gemini response: %w", err)
		}
		// the model answered with the bare line
		data.Line = cleaned
	}

	line := strings.TrimSpace(strings.Trim(strings.TrimSpace(data.Line), `"`))
	if line == "" {
		return nil, errors.New("gemini response has no line")
	}
	if utf8.RuneCountInString(line) > maxLineRunes {
		line = string([]rune(line)[:maxLineRunes])
	}

	var topics []string
	for _, topic := range data.Topics {
		if topic = strings.TrimSpace(topic); topic != "" {
			topics = append(topics, topic)
		}
	}

	return &ai.Suggestion{Line: line, Topics: topics}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}
