package model

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Category is one of the fixed section buckets every résumé is folded into.
type Category string

const (
	Education  Category = "education"
	Experience Category = "experience"
	Projects   Category = "projects"
	Skills     Category = "skills"
	Other      Category = "other"
)

// Categories lists every category in rendering order.
var Categories = []Category{Education, Experience, Projects, Skills, Other}

// ParseCategory maps a loosely-cased key onto a Category.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// SectionSet maps every Category to its section text. All keys are always present.
type SectionSet map[Category]string

// NewSectionSet returns a SectionSet with every category set to "".
func NewSectionSet() SectionSet {
	s := make(SectionSet, len(Categories))
	for _, c := range Categories {
		s[c] = ""
	}
	return s
}

// Complete returns a copy holding exactly the known categories, missing ones as "".
func (s SectionSet) Complete() SectionSet {
	out := NewSectionSet()
	for _, c := range Categories {
		out[c] = s[c]
	}
	return out
}

// Append adds text to a category, separated from existing content by a newline.
func (s SectionSet) Append(c Category, text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}
	if s[c] == "" {
		s[c] = text
		return
	}
	s[c] = s[c] + "\n" + text
}

// IsEmpty reports whether every category is blank.
func (s SectionSet) IsEmpty() bool {
	for _, c := range Categories {
		if strings.TrimSpace(s[c]) != "" {
			return false
		}
	}
	return true
}

// Text renders the set back to plain text with upper-cased headings.
func (s SectionSet) Text() string {
	var b strings.Builder
	for _, c := range Categories {
		body := strings.TrimSpace(s[c])
		if body == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.ToUpper(string(c)))
		b.WriteString("\n")
		b.WriteString(body)
	}
	return b.String()
}

// MarshalJSON always emits all five keys.
func (s SectionSet) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(Categories))
	for _, c := range Categories {
		out[string(c)] = s[c]
	}
	return json.Marshal(out)
}

// UnmarshalJSON tolerates text generators that return a list of lines or a
// nested object instead of a string. Unknown keys are folded into other.
func (s *SectionSet) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := NewSectionSet()
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		text, err := flattenText(raw[k])
		if err != nil {
			return fmt.Errorf("section %q: %w", k, err)
		}
		if c, ok := ParseCategory(k); ok {
			out.Append(c, text)
			continue
		}
		out.Append(Other, text)
	}
	*s = out
	return nil
}

// SectionMapping records which category each original heading was folded into.
type SectionMapping map[string]Category

// UnmarshalJSON drops entries whose category is not one of the known keys.
func (m *SectionMapping) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(SectionMapping, len(raw))
	for heading, cat := range raw {
		if c, ok := ParseCategory(cat); ok {
			out[heading] = c
		}
	}
	*m = out
	return nil
}

func flattenText(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return flattenValue(v), nil
}

func flattenValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := flattenValue(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "\n")
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(t))
		for _, k := range keys {
			if s := flattenValue(t[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "\n")
	default:
		return fmt.Sprint(t)
	}
}
