package sections

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"resume-optimizer/resume/model"
)

// Vocabulary maps known heading keywords to categories.
var Vocabulary = map[string]model.Category{
	"education":               model.Education,
	"academic background":     model.Education,
	"certifications":          model.Education,
	"experience":              model.Experience,
	"work experience":         model.Experience,
	"professional experience": model.Experience,
	"employment":              model.Experience,
	"work history":            model.Experience,
	"projects":                model.Projects,
	"skills":                  model.Skills,
	"technical skills":        model.Skills,
	"technologies":            model.Skills,
	"languages":               model.Skills,
	"summary":                 model.Other,
	"professional summary":    model.Other,
	"objective":               model.Other,
	"profile":                 model.Other,
	"achievements":            model.Other,
	"awards":                  model.Other,
	"honors":                  model.Other,
	"interests":               model.Other,
}

const maxHeadingWords = 4

// headingFiller words may accompany a keyword in a mixed-case heading.
var headingFiller = map[string]bool{
	"and": true, "&": true, "key": true, "selected": true, "relevant": true,
	"career": true, "personal": true, "other": true, "additional": true,
}

var (
	bulletPattern = regexp.MustCompile(`^[•·▪▫◦‣⁃●○■□►▶★☆\-\*]\s`)
	// longest keywords first so "work experience" wins over "experience".
	vocabularyOrder = sortedVocabulary()
	vocabularyWords = func() map[string]bool {
		words := map[string]bool{}
		for kw := range Vocabulary {
			for _, w := range strings.Fields(kw) {
				words[w] = true
			}
		}
		return words
	}()
)

func sortedVocabulary() []string {
	keys := make([]string, 0, len(Vocabulary))
	for k := range Vocabulary {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// Heuristic classifies by scanning lines for known heading keywords.
type Heuristic struct{}

// Classify never fails. Lines before the first heading are kept under
// other; text without any recognizable heading goes to experience whole.
func (Heuristic) Classify(ctx context.Context, text string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	return Split(text), nil
}

// Split is the heuristic classification as a plain function.
func Split(text string) Result {
	set := model.NewSectionSet()
	mapping := model.SectionMapping{}
	original := map[string]string{}

	var (
		current  model.Category
		heading  string
		preamble []string
		found    bool
	)
	for _, line := range strings.Split(text, "\n") {
		if cat, ok := MatchHeading(line); ok {
			found = true
			current = cat
			heading = strings.TrimRight(strings.TrimSpace(line), ":")
			mapping[heading] = cat
			if _, seen := original[heading]; !seen {
				original[heading] = ""
			}
			continue
		}
		if !found {
			preamble = append(preamble, line)
			continue
		}
		set.Append(current, line)
		original[heading] = joinLine(original[heading], line)
	}

	if !found {
		return WholeText(strings.TrimSpace(text))
	}
	if pre := strings.TrimSpace(strings.Join(preamble, "\n")); pre != "" {
		set[model.Other] = joinBlock(pre, set[model.Other])
	}
	for c, body := range set {
		set[c] = strings.TrimSpace(body)
	}
	for h, body := range original {
		original[h] = strings.TrimSpace(body)
	}
	return Result{Sections: set, Mapping: mapping, Original: original, Method: MethodHeuristic}
}

// MatchHeading reports whether line is a section heading and which category
// it names: a short non-bullet line holding a vocabulary keyword and nothing
// after its colon.
func MatchHeading(line string) (model.Category, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || bulletPattern.MatchString(trimmed) {
		return "", false
	}
	if len(strings.Fields(trimmed)) > maxHeadingWords {
		return "", false
	}
	if strings.HasSuffix(trimmed, ".") || strings.IndexFunc(trimmed, unicode.IsDigit) >= 0 {
		return "", false
	}
	// "Languages: Go, Python" is a labelled content line, not a heading.
	if strings.Contains(trimmed, ",") {
		return "", false
	}
	if i := strings.Index(trimmed, ":"); i >= 0 && strings.TrimSpace(trimmed[i+1:]) != "" {
		return "", false
	}
	label := strings.TrimSpace(strings.TrimRight(trimmed, ":"))
	lower := strings.ToLower(label)
	// A mixed-case line such as "Project Manager" or "Skills Coach" is a job
	// title unless it ends with a colon or holds nothing but heading words.
	shouting := label == strings.ToUpper(label)
	if !shouting && !strings.HasSuffix(trimmed, ":") && !onlyHeadingWords(lower) {
		return "", false
	}
	for _, kw := range vocabularyOrder {
		if containsWord(lower, kw) {
			return Vocabulary[kw], true
		}
	}
	return "", false
}

func onlyHeadingWords(lower string) bool {
	for _, w := range strings.Fields(lower) {
		if !headingFiller[w] && !vocabularyWords[w] {
			return false
		}
	}
	return true
}

// IsBullet reports whether line starts with a list glyph.
func IsBullet(line string) bool {
	return bulletPattern.MatchString(strings.TrimSpace(line))
}

func containsWord(s, kw string) bool {
	idx := strings.Index(s, kw)
	for idx >= 0 {
		end := idx + len(kw)
		before := idx == 0 || !isLetter(s[idx-1])
		after := end == len(s) || !isLetter(s[end])
		if before && after {
			return true
		}
		next := strings.Index(s[idx+1:], kw)
		if next < 0 {
			break
		}
		idx += next + 1
	}
	return false
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}

func joinLine(existing, line string) string {
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

func joinBlock(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n\n" + b
	}
}
