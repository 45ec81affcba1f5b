package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

var ErrNoJSON = errors.New("no JSON object found in model output")

var fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

// ExtractJSON pulls a JSON object out of model output. It tries the whole
// text, then fenced code blocks, then the span from the first '{' to the
// last '}'.
func ExtractJSON(text string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(text)
	if isObject(trimmed) {
		return json.RawMessage(trimmed), nil
	}

	for _, m := range fencedBlock.FindAllStringSubmatch(trimmed, -1) {
		candidate := strings.TrimSpace(m[1])
		if isObject(candidate) {
			return json.RawMessage(candidate), nil
		}
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start >= 0 && end > start {
		candidate := trimmed[start : end+1]
		if isObject(candidate) {
			return json.RawMessage(candidate), nil
		}
	}
	return nil, ErrNoJSON
}

func isObject(s string) bool {
	if s == "" || s[0] != '{' {
		return false
	}
	return gjson.Valid(s) && gjson.Parse(s).IsObject()
}
