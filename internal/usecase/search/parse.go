package search

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Reasons a generation is replaced by an empty match list.
const (
	fallbackEmpty    = "empty"
	fallbackNotJSON  = "not_json"
	fallbackNotArray = "not_array"
	fallbackTimeout  = "timeout"
	fallbackCanceled = "canceled"
	fallbackBudget   = "budget"
	fallbackProvider = "provider"
)

// parseMatches turns model text into a raw JSON array.
// Returns the fallback reason when the text cannot be read as an array.
func parseMatches(text string) (json.RawMessage, string) {
	text = stripFences(text)
	if text == "" {
		return nil, fallbackEmpty
	}

	raw, ok := decodeValue(text)
	if !ok {
		raw, ok = decodeValue(repairJSON(text))
	}
	if !ok {
		return nil, fallbackNotJSON
	}

	if raw[0] != '[' {
		return nil, fallbackNotArray
	}
	return raw, ""
}

// IsMatchList reports whether text reads as a JSON array of candidate matches.
// The elements themselves are not validated.
func IsMatchList(text string) bool {
	_, reason := parseMatches(text)
	return reason == ""
}

func decodeValue(s string) (json.RawMessage, bool) {
	var raw json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	return raw, len(raw) > 0
}

// stripFences removes a surrounding markdown code fence (```json ... ```).
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
		s = s[nl+1:] // language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// repairJSON restores a missing opening quote on object keys,
// e.g. `{id": 4, reason": "x"}` becomes `{"id": 4, "reason": "x"}`.
// String contents are left untouched.
func repairJSON(s string) string {
	src := []rune(s)
	out := make([]rune, 0, len(src)+16)
	inString := false

	for i := 0; i < len(src); i++ {
		ch := src[i]
		out = append(out, ch)

		if inString {
			switch ch {
			case '\\':
				if i+1 < len(src) {
					i++
					out = append(out, src[i])
				}
			case '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', ',':
			j := i + 1
			for j < len(src) && isSpace(src[j]) {
				j++
			}
			k := j
			for k < len(src) && isKeyRune(src[k]) {
				k++
			}
			if k > j && k+1 < len(src) && src[k] == '"' && src[k+1] == ':' {
				out = append(out, src[i+1:j]...)
				out = append(out, '"')
				out = append(out, src[j:k+1]...)
				i = k // closing quote already copied; colon follows
			}
		}
	}
	return string(out)
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

func isKeyRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
