package keywords

const (
	baseScore       = 50
	pointsPerMatch  = 3
	maxCurrentScore = 100
	potentialBoost  = 20
	maxPotential    = 95
)

// Score is the keyword-match rating of a résumé for one job description.
type Score struct {
	Current   int     `json:"current"`
	Potential int     `json:"potential"`
	Overall   float64 `json:"overall"`
}

// ScoreMatches rates a résumé from its number of matched keywords. Overall
// is Current on a 0-10 scale.
func ScoreMatches(matches int) Score {
	current := baseScore + matches*pointsPerMatch
	if current > maxCurrentScore {
		current = maxCurrentScore
	}
	potential := current + potentialBoost
	if potential > maxPotential {
		potential = maxPotential
	}
	return Score{Current: current, Potential: potential, Overall: float64(current) / 10}
}

// Coverage compares keyword coverage of the same keyword set across two
// versions of a résumé.
type Coverage struct {
	Before []string `json:"before"`
	After  []string `json:"after"`
	Gained []string `json:"gained"`
	Lost   []string `json:"lost"`
}

// CoverageDelta reports which keywords the optimized text gained or lost
// relative to the original.
func CoverageDelta(keywords []string, before, after string) Coverage {
	matchedBefore, _ := Match(keywords, before)
	matchedAfter, _ := Match(keywords, after)
	inBefore := toSet(matchedBefore)
	inAfter := toSet(matchedAfter)

	c := Coverage{Before: matchedBefore, After: matchedAfter, Gained: []string{}, Lost: []string{}}
	for _, kw := range matchedAfter {
		if _, ok := inBefore[kw]; !ok {
			c.Gained = append(c.Gained, kw)
		}
	}
	for _, kw := range matchedBefore {
		if _, ok := inAfter[kw]; !ok {
			c.Lost = append(c.Lost, kw)
		}
	}
	return c
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
