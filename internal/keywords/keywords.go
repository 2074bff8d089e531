// Package keywords pulls job-description keywords and scores a résumé
// against them.
package keywords

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Catalogue groups the technology names recognized in job descriptions.
var Catalogue = map[string][]string{
	"languages":  {"Python", "Java", "JavaScript", "C++", "C#", "Ruby", "Go", "Swift", "Kotlin", "PHP", "TypeScript"},
	"frameworks": {"React", "Angular", "Vue", "Node.js", "Django", "Flask", "Spring", ".NET", "Rails"},
	"cloud":      {"AWS", "Azure", "GCP", "Docker", "Kubernetes", "Jenkins", "CI/CD", "DevOps"},
	"data":       {"SQL", "NoSQL", "MongoDB", "PostgreSQL", "MySQL", "Redis", "Elasticsearch"},
	"ai":         {"Machine Learning", "AI", "Deep Learning", "NLP", "Computer Vision"},
	"process":    {"Agile", "Scrum", "Kanban", "JIRA", "Git", "GitHub", "GitLab"},
}

var (
	phrasePattern = regexp.MustCompile(`(?i)(?:require[sd]?|must have|experience with|knowledge of|skills?:)\s*([^.]+)`)
	splitPattern  = regexp.MustCompile(`(?i)\s*,\s*|\s+and\s+`)
	termPatterns  = compileCatalogue()
)

type catalogueTerm struct {
	name    string
	pattern *regexp.Regexp
}

func compileCatalogue() []catalogueTerm {
	groups := make([]string, 0, len(Catalogue))
	for g := range Catalogue {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	var terms []catalogueTerm
	for _, g := range groups {
		for _, name := range Catalogue[g] {
			terms = append(terms, catalogueTerm{name: name, pattern: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(name))})
		}
	}
	return terms
}

// Extract returns the catalogue terms found in the job description, ordered
// by first occurrence, followed by items from "requires ..."-style phrases.
// Duplicates are dropped case-insensitively; the first spelling wins.
func Extract(jobDescription string) []string {
	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, term := range termPatterns {
		for _, loc := range term.pattern.FindAllStringIndex(jobDescription, -1) {
			if bounded(jobDescription, loc[0], loc[1]) {
				hits = append(hits, hit{pos: loc[0], name: term.name})
				break
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]string, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.name)
	}
	for _, m := range phrasePattern.FindAllStringSubmatch(jobDescription, -1) {
		for _, item := range splitPattern.Split(m[1], -1) {
			item = strings.Trim(strings.TrimSpace(item), ";:()")
			item = strings.TrimSpace(item)
			if n := len(item); n > 2 && n < 30 {
				out = append(out, item)
			}
		}
	}
	return Dedupe(out)
}

// bounded reports whether text[start:end] is a whole token rather than part
// of a longer word.
func bounded(text string, start, end int) bool {
	if start > 0 && isWordRune(rune(text[start-1])) {
		return false
	}
	if end < len(text) && isWordRune(rune(text[end])) {
		return false
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || r == '+' || r == '#' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Dedupe removes case-insensitive duplicates, keeping first-seen order.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

// Match splits keywords into those contained in text and those missing,
// using case-insensitive substring containment.
func Match(keywords []string, text string) (matched, missing []string) {
	lower := strings.ToLower(text)
	matched = []string{}
	missing = []string{}
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			matched = append(matched, kw)
		} else {
			missing = append(missing, kw)
		}
	}
	return matched, missing
}
