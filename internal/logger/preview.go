package logger

import (
	"strings"

	"go.uber.org/zap"
)

// Preview flattens text to a single line and cuts it to limit runes.
// Chat lines and model prompts are multi-line, log lines are not.
func Preview(text string, limit int) string {
	if limit <= 0 {
		return ""
	}

	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= limit {
		return flat
	}
	return string(runes[:limit]) + "..."
}

// PreviewField is Preview wrapped as a zap field.
func PreviewField(key, text string, limit int) zap.Field {
	return zap.String(key, Preview(text, limit))
}
