// Package model provides LanguageModel adapter helpers shared by the vendor
// subpackages and the engines that parse model output.
package model

import (
	"encoding/json"
	"strings"
)

// ExtractJSONObject performs best-effort recovery of a JSON object embedded
// in free model text. Models frequently wrap JSON in markdown fences or
// surround it with prose; this scans for the first balanced top-level object
// and validates it. Returns false when no parseable object is present.
func ExtractJSONObject(s string) (json.RawMessage, bool) {
	s = stripFences(s)
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := s[start : i+1]
				if json.Valid([]byte(candidate)) {
					return json.RawMessage(candidate), true
				}
				return nil, false
			}
		}
	}
	return nil, false
}

// stripFences removes a leading/trailing markdown code fence if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
