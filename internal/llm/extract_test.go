package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain object", in: `  {"modules":[]}  `, want: `{"modules":[]}`},
		{name: "fenced json", in: "Here you go:\n```json\n{\"a\":1}\n```\nEnjoy", want: `{"a":1}`},
		{name: "bare fence", in: "```\n{\"a\":2}\n```", want: `{"a":2}`},
		{name: "prose around braces", in: `Sure! {"a":{"b":3}} Let me know.`, want: `{"a":{"b":3}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(got))
		})
	}
}

func TestExtractJSON_Failures(t *testing.T) {
	for _, in := range []string{
		"",
		"I cannot help with that.",
		`[1, 2, 3]`,
		`{"a": 1`,
		`{"a": 1} and then {"b": }`,
	} {
		if _, err := ExtractJSON(in); err != ErrNoJSON {
			t.Fatalf("ExtractJSON(%q) err=%v, want ErrNoJSON", in, err)
		}
	}
}

func TestExtractJSON_SkipsInvalidFenceForLaterOne(t *testing.T) {
	in := "```json\nnot json\n```\n```json\n{\"ok\":true}\n```"
	got, err := ExtractJSON(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(got))
}
