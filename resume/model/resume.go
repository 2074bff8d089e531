package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ContactInfo is extracted once per résumé and never mutated afterwards.
type ContactInfo struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
}

// Merge fills blank fields of c from other.
func (c ContactInfo) Merge(other ContactInfo) ContactInfo {
	if c.Name == "" {
		c.Name = other.Name
	}
	if c.Email == "" {
		c.Email = other.Email
	}
	if c.Phone == "" {
		c.Phone = other.Phone
	}
	if c.LinkedIn == "" {
		c.LinkedIn = other.LinkedIn
	}
	if c.GitHub == "" {
		c.GitHub = other.GitHub
	}
	return c
}

// OptimizationSummary describes what the optimizer changed.
type OptimizationSummary struct {
	KeywordsAdded  []string `json:"keywords_added"`
	ChangesMade    []string `json:"changes_made"`
	ATSScoreBefore int      `json:"ats_score_before"`
	ATSScoreAfter  int      `json:"ats_score_after"`
}

// NeutralSummary is reported when optimization could not run.
func NeutralSummary() OptimizationSummary {
	return OptimizationSummary{
		KeywordsAdded:  []string{},
		ChangesMade:    []string{},
		ATSScoreBefore: 5,
		ATSScoreAfter:  5,
	}
}

// OptimizationResult is derived per request and replaced, never mutated.
type OptimizationResult struct {
	Sections SectionSet          `json:"sections"`
	Contact  ContactInfo         `json:"contact_info"`
	Summary  OptimizationSummary `json:"optimization_summary"`
	// Err is set when the optimizer fell back to the unmodified input.
	Err string `json:"error,omitempty"`
}

// Document is the structured résumé used by the deterministic markup path.
type Document struct {
	Contact    ContactInfo       `json:"contact"`
	Education  []EducationEntry  `json:"education"`
	Experience []ExperienceEntry `json:"experience"`
	Projects   []ProjectEntry    `json:"projects"`
	Skills     SkillGroups       `json:"skills"`
}

// EducationEntry is one school.
type EducationEntry struct {
	School   string   `json:"school"`
	Location string   `json:"location"`
	Degree   string   `json:"degree"`
	Dates    string   `json:"dates"`
	GPA      string   `json:"gpa,omitempty"`
	Honors   []string `json:"honors,omitempty"`
}

// ExperienceEntry is one role.
type ExperienceEntry struct {
	Title    string   `json:"title"`
	Company  string   `json:"company"`
	Location string   `json:"location"`
	Dates    string   `json:"dates"`
	Bullets  []string `json:"bullets"`
}

// ProjectEntry is one project.
type ProjectEntry struct {
	Name    string   `json:"name"`
	Tech    string   `json:"tech"`
	Dates   string   `json:"dates"`
	Link    string   `json:"link"`
	Bullets []string `json:"bullets"`
}

// SkillGroup is one labelled line of the skills block.
type SkillGroup struct {
	Category string
	Items    string
}

// SkillGroups keeps skill categories in the order they were written.
type SkillGroups []SkillGroup

// MarshalJSON emits an object whose key order matches the slice.
func (g SkillGroups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, group := range g {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(group.Category)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(group.Items)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object preserving key order. List values are joined with ", ".
func (g *SkillGroups) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*g = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("skills: expected object")
	}
	var out SkillGroups
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := keyTok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}
		var items string
		var list []string
		switch {
		case json.Unmarshal(raw, &items) == nil:
		case json.Unmarshal(raw, &list) == nil:
			items = strings.Join(list, ", ")
		default:
			return fmt.Errorf("skills %q: expected string or list", key)
		}
		out = append(out, SkillGroup{Category: key, Items: strings.TrimSpace(items)})
	}
	*g = out
	return nil
}

// IsEmpty reports whether the document has nothing to render besides contact data.
func (d Document) IsEmpty() bool {
	return len(d.Education) == 0 && len(d.Experience) == 0 && len(d.Projects) == 0 && len(d.Skills) == 0
}
