package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fencePattern      = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*\\n?(.*?)\\n?```$")
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
)

// StripCodeFences removes a surrounding markdown code fence such as
// ```json ... ``` or ```latex ... ``` and trims whitespace.
func StripCodeFences(raw string) string {
	text := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(text); len(m) == 2 {
		return strings.TrimSpace(m[1])
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```latex")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// ExtractJSONObject returns the widest {...} span in raw, or "" when there is none.
func ExtractJSONObject(raw string) string {
	return jsonObjectPattern.FindString(raw)
}

// DecodeJSON unmarshals a provider reply into v. Code fences are stripped
// first; if the reply still does not parse, the outermost JSON object found
// in it is tried once before giving up with ErrInvalidOutput.
func DecodeJSON(raw string, v any) error {
	text := StripCodeFences(raw)
	err := json.Unmarshal([]byte(text), v)
	if err == nil {
		return nil
	}
	candidate := ExtractJSONObject(text)
	if candidate == "" || candidate == text {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	if err := json.Unmarshal([]byte(candidate), v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOutput, err)
	}
	return nil
}
