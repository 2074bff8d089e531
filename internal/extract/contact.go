package extract

import (
	"regexp"
	"strings"
	"unicode"

	"resume-optimizer/resume/model"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:\+?\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`),
		regexp.MustCompile(`\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`),
	}

	linkedInPattern = regexp.MustCompile(`(?i)(?:linkedin\.com/in/|linkedin:\s*)([a-zA-Z0-9-]+)`)
	gitHubPattern   = regexp.MustCompile(`(?i)(?:github\.com/|github:\s*)([a-zA-Z0-9-]+)`)
)

const nameScanLines = 10

// ExtractContact picks name, email, phone and profile links out of raw
// résumé text. Missing fields stay empty.
func ExtractContact(text string) model.ContactInfo {
	var info model.ContactInfo
	if m := emailPattern.FindString(text); m != "" {
		info.Email = m
	}
	for _, p := range phonePatterns {
		if m := p.FindString(text); m != "" {
			info.Phone = strings.TrimSpace(m)
			break
		}
	}
	if m := linkedInPattern.FindStringSubmatch(text); len(m) == 2 {
		info.LinkedIn = "linkedin.com/in/" + m[1]
	}
	if m := gitHubPattern.FindStringSubmatch(text); len(m) == 2 {
		info.GitHub = "github.com/" + m[1]
	}
	info.Name = guessName(text)
	return info
}

// guessName returns the first short line near the top that looks like a
// person's name: at most four words, no digits, no separators.
func guessName(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) > nameScanLines {
		lines = lines[:nameScanLines]
	}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || emailPattern.MatchString(line) {
			continue
		}
		if len(strings.Fields(line)) > 4 {
			continue
		}
		if strings.ContainsAny(line, "|,@/:") {
			continue
		}
		if strings.IndexFunc(line, unicode.IsDigit) >= 0 {
			continue
		}
		if isSectionWord(line) {
			continue
		}
		return line
	}
	return ""
}

var headingWords = map[string]struct{}{
	"education": {}, "experience": {}, "skills": {}, "projects": {}, "summary": {},
	"objective": {}, "resume": {}, "curriculum vitae": {}, "contact": {},
}

func isSectionWord(line string) bool {
	_, ok := headingWords[strings.ToLower(strings.Trim(line, ": "))]
	return ok
}
