package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	fenceRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// StripCodeFences unwraps a markdown code block when the reply is fenced.
func StripCodeFences(text string) string {
	if m := fenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(text)
}

// ExtractObject returns the first brace-delimited object in the text.
func ExtractObject(text string) (string, bool) {
	cleaned := StripCodeFences(text)
	m := objectRe.FindString(cleaned)
	if m == "" {
		return "", false
	}
	return m, true
}

// ExtractInto decodes the first JSON object found in an LLM reply into
// dest. It reports false on any extraction or decode failure so callers
// can substitute their static fallback value.
func ExtractInto(text string, dest interface{}) bool {
	obj, ok := ExtractObject(text)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(obj), dest) == nil
}
