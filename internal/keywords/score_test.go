package keywords

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreMatches(t *testing.T) {
	cases := []struct {
		matches   int
		current   int
		potential int
		overall   float64
	}{
		{0, 50, 70, 5.0},
		{5, 65, 85, 6.5},
		{9, 77, 95, 7.7},
		{20, 100, 95, 10.0},
	}
	for _, tc := range cases {
		got := ScoreMatches(tc.matches)
		assert.Equal(t, tc.current, got.Current, "matches=%d", tc.matches)
		assert.Equal(t, tc.potential, got.Potential, "matches=%d", tc.matches)
		assert.InDelta(t, tc.overall, got.Overall, 0.0001, "matches=%d", tc.matches)
	}
}

func TestCoverageDelta(t *testing.T) {
	kws := []string{"Go", "Docker", "Redis"}
	c := CoverageDelta(kws, "Wrote Go services with Redis", "Wrote Go services shipped in Docker")

	assert.Equal(t, []string{"Go", "Redis"}, c.Before)
	assert.Equal(t, []string{"Go", "Docker"}, c.After)
	assert.Equal(t, []string{"Docker"}, c.Gained)
	assert.Equal(t, []string{"Redis"}, c.Lost)
}
