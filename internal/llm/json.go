package llm

import (
	"encoding/json"
	"strings"
)

// ExtractJSON pulls a JSON value out of free-form model output. It accepts
// raw JSON, fenced-code-block JSON, or JSON embedded in prose, and returns
// nil when nothing parseable is found. Callers must handle nil without
// crashing; a nil result means "fall back to defaults", never an error.
func ExtractJSON(text string) json.RawMessage {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// 1. The whole output is already valid JSON.
	if raw := tryParse(text); raw != nil {
		return raw
	}

	// 2. Fenced code block: ```json ... ``` or ``` ... ```
	if idx := strings.Index(text, "```"); idx >= 0 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if end := strings.Index(rest, "```"); end >= 0 {
			if raw := tryParse(strings.TrimSpace(rest[:end])); raw != nil {
				return raw
			}
		}
	}

	// 3. First balanced object or array embedded in prose.
	for _, open := range []byte{'{', '['} {
		if raw := extractBalanced(text, open); raw != nil {
			return raw
		}
	}

	return nil
}

func tryParse(s string) json.RawMessage {
	var v interface{}
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	// Bare numbers and strings are valid JSON but never what a caller
	// asked the model for.
	switch v.(type) {
	case map[string]interface{}, []interface{}:
		return json.RawMessage(s)
	}
	return nil
}

// extractBalanced finds the first balanced {...} or [...] span, respecting
// string literals and escapes.
func extractBalanced(text string, open byte) json.RawMessage {
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	start := strings.IndexByte(text, open)
	if start < 0 {
		return nil
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return tryParse(text[start : i+1])
			}
		}
	}

	return nil
}
