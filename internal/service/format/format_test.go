package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlack(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"emphasis", "**bold** and *it*", "*bold* and _it_"},
		{"bullets", "- one\n- two", "• one\n• two"},
		{"nested", "- a\n  - b", "• a\n  • b"},
		{"ordered", "1. a\n2. b", "1. a\n2. b"},
		{"link", "[Go](https://go.dev)", "<https://go.dev|Go>"},
		{"escape", "a < b & c", "a &lt; b &amp; c"},
		{"paragraphs", "first\n\nsecond", "first\n\nsecond"},
		{"heading", "# Title\ntext", "*Title*\n\ntext"},
		{"code span", "run `go test`", "run `go test`"},
		{"code block", "```go\nx := 1\n```", "```\nx := 1\n```"},
		{"signature", "hi\n\n_(Geppetto v0.2.0 Source: OpenAI Model gpt-4o)_", "hi\n\n_(Geppetto v0.2.0 Source: OpenAI Model gpt-4o)_"},
		{"emoji", ":thought_balloon:", ":thought_balloon:"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slack(tc.in))
		})
	}
}

func TestPlain(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"emphasis", "**bold** [Go](https://go.dev)", "bold Go (https://go.dev)"},
		{"bullets", "* one\n* two", "- one\n- two"},
		{"heading", "## Title", "Title"},
		{"signature", "hi\n\n_(Bot v1 Source: Claude Model m)_", "hi\n\n(Bot v1 Source: Claude Model m)"},
		{"no escape", "a < b", "a < b"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Plain(tc.in))
		})
	}
}
