// Package modeltext normalizes raw LLM output before storage or parsing.
// Models routinely wrap JSON payloads in markdown code fences or pad them
// with prose; stripping that wrapper is tolerant pre-parse cleanup, not a
// protocol.
package modeltext

import (
	"encoding/json"
	"errors"
	"strings"
)

// TrimCodeFence removes a leading/trailing markdown code fence if present.
func TrimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}

// ExtractJSONFragment strips fences and surrounding prose, returning the
// outermost JSON object or array embedded in the text. When no JSON
// delimiters are found the cleaned text is returned as is.
func ExtractJSONFragment(raw string) string {
	text := TrimCodeFence(raw)
	if text == "" {
		return ""
	}
	start := strings.IndexAny(text, "{[")
	end := strings.LastIndexAny(text, "]}")
	if start >= 0 && end >= start {
		text = text[start : end+1]
	}
	return strings.TrimSpace(text)
}

// ParsePayload normalizes raw model output and decodes it into T.
func ParsePayload[T any](raw string) (T, error) {
	var zero T
	cleaned := ExtractJSONFragment(raw)
	if cleaned == "" {
		return zero, errors.New("empty payload")
	}
	var decoded T
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		return zero, err
	}
	return decoded, nil
}
