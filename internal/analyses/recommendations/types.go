package recommendations

// SectionSuggestion proposes edits to one résumé section. The generate
// request refers back to it by ID.
type SectionSuggestion struct {
	ID           string   `json:"id"`
	Type         string   `json:"type"`
	Original     string   `json:"original"`
	Suggested    string   `json:"suggested"`
	Improvements []string `json:"improvements"`
}

// Input is what the engine needs from a finished keyword analysis.
type Input struct {
	ResumeText string
	JobTitle   string
	Matched    []string
	Missing    []string
}

// Set is the deterministic advice returned with an analysis.
type Set struct {
	Summary         []string
	Sections        []SectionSuggestion
	SuggestedSkills []string
	Relevance       map[string]float64
}
