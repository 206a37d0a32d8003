package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"[]":                          "[]",
		"  [1]  ":                     "[1]",
		"```json\n[{\"id\":1}]\n```":  `[{"id":1}]`,
		"```\n[]\n```":                "[]",
		"```[2]```":                   "[2]",
		"```JSON\n  [3]  \n```\n":     "[3]",
		"no fence ```json":            "no fence ```json",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripFences(in), "input %q", in)
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"valid untouched", `[{"id": 1, "reason": "a", "score": 5}]`, `[{"id": 1, "reason": "a", "score": 5}]`},
		{"missing quotes", `[{id": 1, reason": "a", score": 5}]`, `[{"id": 1, "reason": "a", "score": 5}]`},
		{"newline before key", "[{\n  id\": 4}]", "[{\n  \"id\": 4}]"},
		{"string contents kept", `[{"reason": "beach, sun\": yes", "id": 2}]`, `[{"reason": "beach, sun\": yes", "id": 2}]`},
		{"numbers in array", `[1, 2, 3]`, `[1, 2, 3]`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, repairJSON(tc.in))
		})
	}
}

func TestParseMatches(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		reason string
	}{
		{"array", `[{"id":4}]`, `[{"id":4}]`, ""},
		{"empty array", `[]`, `[]`, ""},
		{"fenced", "```json\n[{\"id\":4}]\n```", `[{"id":4}]`, ""},
		{"repaired", `[{id": 4}]`, `[{"id": 4}]`, ""},
		{"prose around array", `Here you go: [{"id":4}] Enjoy!`, "", fallbackNotJSON},
		{"prose before array", `Sure: [{"id":4,"reason":"Great surf spot","score":8}]`, "", fallbackNotJSON},
		{"empty text", "", "", fallbackEmpty},
		{"whitespace", "  \n ", "", fallbackEmpty},
		{"not json", "I cannot help with that.", "", fallbackNotJSON},
		{"object", `{"id":4,"reason":"x","score":5}`, "", fallbackNotArray},
		{"wrapped object", `{"matches":[{"id":4}]}`, "", fallbackNotArray},
		{"string", `"[]"`, "", fallbackNotArray},
		{"number", `42`, "", fallbackNotArray},
		{"null", `null`, "", fallbackNotArray},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			raw, reason := parseMatches(tc.text)
			require.Equal(t, tc.reason, reason)
			if tc.reason == "" {
				assert.JSONEq(t, tc.want, string(raw))
			} else {
				assert.Nil(t, raw)
			}
		})
	}
}

func TestIsMatchList(t *testing.T) {
	assert.True(t, IsMatchList(`[]`))
	assert.True(t, IsMatchList("```json\n[{\"id\":4}]\n```"))
	assert.False(t, IsMatchList(`Sure: [{"id":4}]`))
	assert.False(t, IsMatchList(`{"id":4}`))
	assert.False(t, IsMatchList(""))
}
