package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/llm"
	"resume-optimizer/resume/model"
)

func baseRequest() Request {
	sections := model.NewSectionSet()
	sections[model.Experience] = "Engineer at Acme\n• Built APIs"
	sections[model.Skills] = "Go, SQL"
	return Request{
		Sections:       sections,
		Contact:        model.ContactInfo{Name: "Jane Doe", Email: "jane@example.com"},
		JobDescription: "We need Go and Kubernetes experience.",
		JobTitle:       "Backend Engineer",
		Company:        "Globex",
		EditType:       EditQuick,
		FocusSections:  []string{"experience"},
		Skills:         []string{"Kubernetes"},
		Instructions:   "Keep it to one page",
	}
}

func TestOptimizeAppliesModelReply(t *testing.T) {
	var prompt string
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		prompt = req.Prompt
		assert.Equal(t, "optimize", req.Purpose)
		return `{
			"contact_info": {"name": "Someone Else", "phone": "555-123-4567"},
			"sections": {"experience": "Engineer at Acme\n• Built Go APIs on Kubernetes", "skills": "Go, SQL, Kubernetes", "education": "Invented University"},
			"optimization_summary": {"keywords_added": ["Kubernetes"], "changes_made": ["Added Kubernetes"], "ats_score_before": 4, "ats_score_after": 12}
		}`, nil
	})

	res, err := New(client).Optimize(context.Background(), baseRequest())
	require.NoError(t, err)

	assert.Contains(t, prompt, "JOB TITLE: Backend Engineer")
	assert.Contains(t, prompt, "EDIT DEPTH: quick")
	assert.Contains(t, prompt, "FOCUS SECTIONS: experience")
	assert.Contains(t, prompt, "SKILLS THE CANDIDATE CONFIRMED THEY HAVE: Kubernetes")
	assert.Contains(t, prompt, "Keep it to one page")

	assert.Equal(t, "Engineer at Acme\n• Built Go APIs on Kubernetes", res.Sections[model.Experience])
	assert.Equal(t, "Go, SQL, Kubernetes", res.Sections[model.Skills])
	assert.Empty(t, res.Sections[model.Education], "empty input sections stay empty")
	assert.Equal(t, "Jane Doe", res.Contact.Name)
	assert.Equal(t, "555-123-4567", res.Contact.Phone)
	assert.Equal(t, []string{"Kubernetes"}, res.Summary.KeywordsAdded)
	assert.Equal(t, 4, res.Summary.ATSScoreBefore)
	assert.Equal(t, 10, res.Summary.ATSScoreAfter)
	assert.Empty(t, res.Err)
}

func TestOptimizeKeepsSectionsTheModelBlanked(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return `{"sections": {"experience": ""}}`, nil
	})
	req := baseRequest()

	res, err := New(client).Optimize(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, req.Sections[model.Experience], res.Sections[model.Experience])
	assert.Equal(t, req.Sections[model.Skills], res.Sections[model.Skills])
	assert.Equal(t, 5, res.Summary.ATSScoreBefore)
	assert.Equal(t, 7, res.Summary.ATSScoreAfter)
	assert.NotNil(t, res.Summary.KeywordsAdded)
}

func TestOptimizeFallsBackToUnmodifiedInput(t *testing.T) {
	failures := map[string]llm.ClientFunc{
		"upstream error": func(ctx context.Context, req llm.Request) (string, error) {
			return "", errors.New("quota exceeded")
		},
		"malformed json": func(ctx context.Context, req llm.Request) (string, error) {
			return "I could not do that", nil
		},
	}
	for name, client := range failures {
		t.Run(name, func(t *testing.T) {
			req := baseRequest()
			res, err := New(client).Optimize(context.Background(), req)
			require.NoError(t, err)

			assert.Equal(t, req.Sections.Complete(), res.Sections)
			assert.Equal(t, req.Contact, res.Contact)
			assert.Equal(t, 5, res.Summary.ATSScoreBefore)
			assert.Equal(t, 5, res.Summary.ATSScoreAfter)
			assert.Empty(t, res.Summary.KeywordsAdded)
			assert.Empty(t, res.Summary.ChangesMade)
			assert.Contains(t, res.Err, "Error during optimization")
		})
	}
}

func TestOptimizeWithoutClient(t *testing.T) {
	res, err := New(nil).Optimize(context.Background(), baseRequest())
	require.NoError(t, err)
	assert.Contains(t, res.Err, llm.ErrNotImplemented.Error())
}

func TestOptimizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(llm.PlaceholderClient{}).Optimize(ctx, baseRequest())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFullEditPrompt(t *testing.T) {
	req := baseRequest()
	req.EditType = EditFull
	req.FocusSections = nil
	req.Skills = nil
	req.Instructions = "  "

	prompt, err := renderPrompt(req)
	require.NoError(t, err)
	assert.Contains(t, prompt, "EDIT DEPTH: full")
	assert.NotContains(t, prompt, "FOCUS SECTIONS")
	assert.NotContains(t, prompt, "ADDITIONAL INSTRUCTIONS")
	assert.Contains(t, prompt, `"experience": "Engineer at Acme\n• Built APIs"`)
}
