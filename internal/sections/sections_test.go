package sections

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/llm"
	"resume-optimizer/resume/model"
)

func assertAllKeys(t *testing.T, set model.SectionSet) {
	t.Helper()
	for _, c := range model.Categories {
		_, ok := set[c]
		assert.True(t, ok, "missing category %s", c)
	}
}

func TestHeuristicExperienceBlock(t *testing.T) {
	text := "EXPERIENCE\nSoftware Engineer at Acme\n• Built X"

	res, err := Heuristic{}.Classify(context.Background(), text)
	require.NoError(t, err)

	assertAllKeys(t, res.Sections)
	assert.Equal(t, "Software Engineer at Acme\n• Built X", res.Sections[model.Experience])
	assert.Empty(t, res.Sections[model.Education])
	assert.Empty(t, res.Sections[model.Projects])
	assert.Equal(t, model.Experience, res.Mapping["EXPERIENCE"])
	assert.Equal(t, MethodHeuristic, res.Method)
}

func TestHeuristicMultipleSectionsAndPreamble(t *testing.T) {
	text := strings.Join([]string{
		"Jane Doe",
		"jane@example.com",
		"Work Experience:",
		"Engineer, Acme (2020 - 2023)",
		"- Shipped the billing service",
		"Education",
		"State University, B.S.",
		"Technical Skills",
		"Go, SQL, Docker",
		"Projects",
		"Resume Optimizer",
	}, "\n")

	res := Split(text)

	assertAllKeys(t, res.Sections)
	assert.Equal(t, "Jane Doe\njane@example.com", res.Sections[model.Other])
	assert.Equal(t, "Engineer, Acme (2020 - 2023)\n- Shipped the billing service", res.Sections[model.Experience])
	assert.Equal(t, "State University, B.S.", res.Sections[model.Education])
	assert.Equal(t, "Go, SQL, Docker", res.Sections[model.Skills])
	assert.Equal(t, "Resume Optimizer", res.Sections[model.Projects])
	assert.Equal(t, model.Skills, res.Mapping["Technical Skills"])
	assert.Equal(t, model.Experience, res.Mapping["Work Experience"])
	assert.Equal(t, "Go, SQL, Docker", res.Original["Technical Skills"])
}

func TestHeuristicNoHeadingsKeepsEverythingUnderExperience(t *testing.T) {
	text := "Did many things\nat many places"
	res := Split(text)

	assertAllKeys(t, res.Sections)
	assert.Equal(t, text, res.Sections[model.Experience])
	assert.Equal(t, MethodFallback, res.Method)
	assert.Equal(t, model.Experience, res.Mapping[FullResumeLabel])
}

func TestHeuristicNeverDropsContent(t *testing.T) {
	text := "Alex\nSUMMARY\nBuilder of things\nEXPERIENCE\n• Led a team of five\nSKILLS\nGo"
	res := Split(text)

	joined := strings.Join([]string{
		res.Sections[model.Education], res.Sections[model.Experience], res.Sections[model.Projects],
		res.Sections[model.Skills], res.Sections[model.Other],
	}, "\n")
	for _, line := range []string{"Alex", "Builder of things", "• Led a team of five", "Go"} {
		assert.Contains(t, joined, line)
	}
}

func TestHeuristicKeepsJobTitlesThatMentionHeadingWords(t *testing.T) {
	text := "EXPERIENCE\nProject Manager\nAcme Corp, 2019 - 2022\n• Led a team of 8 engineers"

	res, err := Heuristic{}.Classify(context.Background(), text)
	require.NoError(t, err)

	assert.Equal(t, "Project Manager\nAcme Corp, 2019 - 2022\n• Led a team of 8 engineers", res.Sections[model.Experience])
	assert.Empty(t, res.Sections[model.Projects])
	assert.NotContains(t, res.Mapping, "Project Manager")
}

func TestMatchHeading(t *testing.T) {
	cases := []struct {
		line string
		cat  model.Category
		ok   bool
	}{
		{"EDUCATION", model.Education, true},
		{"Professional Experience:", model.Experience, true},
		{"  Skills  ", model.Skills, true},
		{"• Experience with Go", "", false},
		{"Five years of experience building distributed systems", "", false},
		{"Experience 2020", "", false},
		{"Skillset", "", false},
		{"Languages: Go, Python", "", false},
		{"Languages:", model.Skills, true},
		{"Project Manager", "", false},
		{"Project Lead", "", false},
		{"Skills Development Coach", "", false},
		{"PROJECTS", model.Projects, true},
		{"Key Projects", model.Projects, true},
		{"", "", false},
	}
	for _, tc := range cases {
		cat, ok := MatchHeading(tc.line)
		assert.Equal(t, tc.ok, ok, "line %q", tc.line)
		assert.Equal(t, tc.cat, cat, "line %q", tc.line)
	}
}

func TestDelegatedParsesReplyAndFillsMissingKeys(t *testing.T) {
	var prompt string
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		prompt = req.Prompt
		assert.True(t, req.JSON)
		assert.Equal(t, "classify", req.Purpose)
		return "```json\n" + `{
			"contact_info": {"name": "Jane Doe", "email": "jane@example.com"},
			"sections": {"experience": ["Engineer at Acme", "• Built X"], "skills": "Go"},
			"original_sections": {"Where I've Been": "Engineer at Acme", "My Superpowers": ["Go"]},
			"section_mappings": {"Where I've Been": "experience", "My Superpowers": "skills", "Hobbies": "fun"}
		}` + "\n```", nil
	})

	res, err := NewDelegated(client).Classify(context.Background(), "Where I've Been\nEngineer at Acme\n• Built X")
	require.NoError(t, err)

	assert.Contains(t, prompt, "Where I've Been\nEngineer at Acme")
	assertAllKeys(t, res.Sections)
	assert.Equal(t, "Engineer at Acme\n• Built X", res.Sections[model.Experience])
	assert.Equal(t, "Go", res.Sections[model.Skills])
	assert.Empty(t, res.Sections[model.Education])
	assert.Equal(t, model.Experience, res.Mapping["Where I've Been"])
	assert.NotContains(t, res.Mapping, "Hobbies")
	assert.Equal(t, "Go", res.Original["My Superpowers"])
	assert.Equal(t, "Jane Doe", res.Contact.Name)
	assert.Equal(t, MethodDelegated, res.Method)
}

func TestDelegatedRepairsProseWrappedJSON(t *testing.T) {
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		return `Here is the analysis: {"sections": {"education": "State University"}} Let me know!`, nil
	})
	res, err := NewDelegated(client).Classify(context.Background(), "Brain Food\nState University")
	require.NoError(t, err)
	assert.Equal(t, "State University", res.Sections[model.Education])
	assert.Equal(t, MethodDelegated, res.Method)
}

func TestDelegatedFallsBackOnFailure(t *testing.T) {
	text := "My Journey\nEngineer at Acme"
	replies := []func() (string, error){
		func() (string, error) { return "", errors.New("upstream down") },
		func() (string, error) { return "not json at all", nil },
		func() (string, error) { return `{"sections": {}}`, nil },
	}
	for i, reply := range replies {
		reply := reply
		client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) { return reply() })

		res, err := NewDelegated(client).Classify(context.Background(), text)
		require.NoError(t, err, "case %d", i)
		assertAllKeys(t, res.Sections)
		assert.Equal(t, text, res.Sections[model.Experience], "case %d", i)
		assert.Equal(t, MethodFallback, res.Method, "case %d", i)
		assert.Equal(t, text, res.Original[FullResumeLabel], "case %d", i)
	}
}

func TestDelegatedNilClientFallsBack(t *testing.T) {
	res, err := (&Delegated{}).Classify(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, MethodFallback, res.Method)
}

func TestDelegatedPropagatesCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := llm.ClientFunc(func(ctx context.Context, req llm.Request) (string, error) {
		cancel()
		return "", ctx.Err()
	})
	_, err := NewDelegated(client).Classify(ctx, "text")
	require.ErrorIs(t, err, context.Canceled)
}
