// Package formatters turns ai-service chat output into resume content.
package formatters

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Chatter sends one prompt to the ai-service and returns its raw output.
type Chatter interface {
	Chat(ctx context.Context, input string) (string, error)
}

// ErrNotJSON is returned when the output holds no decodable JSON object.
var ErrNotJSON = errors.New("ai-service returned non-json content")

// ExtractJSON returns the JSON object in s. When s is not JSON as a whole,
// the outermost {...} substring is tried, which strips code fences and
// chatter around the payload.
func ExtractJSON(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if json.Valid([]byte(s)) && strings.HasPrefix(s, "{") {
		return []byte(s), nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		sub := s[start : end+1]
		if json.Valid([]byte(sub)) {
			return []byte(sub), nil
		}
	}
	return nil, ErrNotJSON
}

// mustMarshal is a tiny helper for embedding payloads in prompts.
func mustMarshal(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

func languageLine(language string) string {
	if language == "" {
		return ""
	}
	return "LANGUAGE: Write every string value in " + language + ".\n\n"
}
