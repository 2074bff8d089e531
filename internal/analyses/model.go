package analyses

import (
	"time"

	"resume-optimizer/internal/analyses/recommendations"
	"resume-optimizer/internal/keywords"
	"resume-optimizer/internal/sections"
	"resume-optimizer/resume/model"
)

// Session is the cached result of one analyze call. Generation reads it back
// by ID, so everything the optimizer needs lives here.
type Session struct {
	ID             string                              `json:"id"`
	UserID         string                              `json:"user_id"`
	ResumeText     string                              `json:"resume_text"`
	Sections       model.SectionSet                    `json:"sections"`
	Mapping        model.SectionMapping                `json:"section_mappings"`
	Method         sections.Method                     `json:"method"`
	Contact        model.ContactInfo                   `json:"contact_info"`
	JobDescription string                              `json:"job_description"`
	JobTitle       string                              `json:"job_title"`
	CompanyName    string                              `json:"company_name"`
	Keywords       []string                            `json:"keywords"`
	Matched        []string                            `json:"matched_keywords"`
	Missing        []string                            `json:"missing_keywords"`
	Score          keywords.Score                      `json:"score"`
	Suggestions    []recommendations.SectionSuggestion `json:"suggested_sections"`
	CreatedAt      time.Time                           `json:"created_at"`
}

// Suggestion returns the section suggestion with the given ID.
func (s Session) Suggestion(id string) (recommendations.SectionSuggestion, bool) {
	for _, sg := range s.Suggestions {
		if sg.ID == id {
			return sg, true
		}
	}
	return recommendations.SectionSuggestion{}, false
}

// Response is the analyze payload returned to clients.
type Response struct {
	AnalysisID string                              `json:"analysisId"`
	Summary    Summary                             `json:"summary"`
	Sections   []recommendations.SectionSuggestion `json:"sections"`
	Skills     Skills                              `json:"skills"`
	Normalizer sections.Method                     `json:"normalization"`
	ExpiresAt  time.Time                           `json:"expiresAt"`
}

type Summary struct {
	OverallScore   float64  `json:"overallScore"`
	CurrentScore   int      `json:"currentScore"`
	PotentialScore int      `json:"potentialScore"`
	KeywordMatches []string `json:"keywordMatches"`
	MissingSkills  []string `json:"missingSkills"`
	Suggestions    []string `json:"suggestions"`
}

type Skills struct {
	Current         []string           `json:"current"`
	Suggested       []string           `json:"suggested"`
	RelevanceScores map[string]float64 `json:"relevanceScores"`
}
