package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractRequiresPhrase(t *testing.T) {
	got := Extract("The role requires Python, React, Docker. Nice to have: teamwork.")

	require.NotEmpty(t, got)
	assert.Subset(t, got, []string{"Python", "React", "Docker"})
}

func TestExtractCatalogueOrderAndDedupe(t *testing.T) {
	jd := "We use kubernetes and AWS daily. Experience with Kubernetes, Terraform and aws."
	got := Extract(jd)

	assert.Equal(t, []string{"Kubernetes", "AWS", "Terraform"}, got)
}

func TestExtractRespectsWordBoundaries(t *testing.T) {
	got := Extract("Strong JavaScript and PostgreSQL background, GitHub Actions.")

	assert.Contains(t, got, "JavaScript")
	assert.Contains(t, got, "PostgreSQL")
	assert.Contains(t, got, "GitHub")
	assert.NotContains(t, got, "Java")
	assert.NotContains(t, got, "SQL")
	assert.NotContains(t, got, "Git")
}

func TestExtractSymbolTerms(t *testing.T) {
	got := Extract("Stack: C++ and C# services, CI/CD pipelines")

	assert.Contains(t, got, "C++")
	assert.Contains(t, got, "C#")
	assert.Contains(t, got, "CI/CD")
}

func TestExtractPhraseLengthBounds(t *testing.T) {
	got := Extract("Must have UI, an extremely long requirement that will not fit anywhere, Figma.")

	assert.Contains(t, got, "Figma")
	assert.NotContains(t, got, "UI")
	for _, kw := range got {
		assert.Less(t, len(kw), 30)
	}
}

func TestMatchReportsExactlyMissing(t *testing.T) {
	resume := "Built services in python and deployed them on AWS."
	matched, missing := Match([]string{"Python", "AWS", "Kafka", "Rust", "Terraform"}, resume)

	assert.Equal(t, []string{"Python", "AWS"}, matched)
	assert.ElementsMatch(t, []string{"Kafka", "Rust", "Terraform"}, missing)
}

func TestMatchEmptyKeywords(t *testing.T) {
	matched, missing := Match(nil, "anything")
	assert.Empty(t, matched)
	assert.Empty(t, missing)
	assert.NotNil(t, matched)
	assert.NotNil(t, missing)
}

func TestDedupeKeepsFirstSpelling(t *testing.T) {
	assert.Equal(t, []string{"Go", "rust"}, Dedupe([]string{"Go", "go", " ", "rust", "GO", "Rust"}))
}
