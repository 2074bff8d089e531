package latex

import (
	"regexp"
	"strings"

	"resume-optimizer/resume/model"
)

const monthPattern = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+`

var (
	dateRangePattern  = regexp.MustCompile(`(?i)(?:` + monthPattern + `)?(?:19|20)\d{2}\s*(?:-{1,2}|–|—|to)\s*(?:present|current|now|(?:` + monthPattern + `)?(?:19|20)\d{2})`)
	singleDatePattern = regexp.MustCompile(`(?i)(?:` + monthPattern + `)?(?:19|20)\d{2}`)
	gpaPattern        = regexp.MustCompile(`(?i)\bGPA\s*[:\-]?\s*([0-9.]+(?:\s*/\s*[0-9.]+)?)`)
	headerSplit       = regexp.MustCompile(`\s+(?:\||–|—|-|@|at)\s+|\s*\|\s*|,\s*`)
	dashSplit         = regexp.MustCompile(`\s+[-–—]\s+`)
	projectTech       = regexp.MustCompile(`^(.*?)\s*[(\[](.+)[)\]]\s*$`)
	urlPattern        = regexp.MustCompile(`(?i)\b(?:https?://)?(?:www\.)?[a-z0-9-]+(?:\.[a-z0-9-]+)*\.(?:com|io|dev|org|net|app|ai)(?:/[^\s)]*)?`)
	bulletPrefix      = regexp.MustCompile(`^[•·▪▫◦‣⁃●○■□►▶★☆\-\*]\s*`)
	emptyParens       = regexp.MustCompile(`\(\s*\)|\[\s*\]`)
)

// FromSections builds a Document from section text without any delegated
// call. Non-bullet lines open entries and bullet lines attach to the entry
// above them.
func FromSections(sections model.SectionSet, contact model.ContactInfo) model.Document {
	return model.Document{
		Contact:    contact,
		Education:  parseEducation(sections[model.Education]),
		Experience: parseExperience(sections[model.Experience]),
		Projects:   parseProjects(sections[model.Projects]),
		Skills:     parseSkills(sections[model.Skills]),
	}
}

type block struct {
	headers []string
	bullets []string
}

// blocks groups lines into entries. A header line following bullets starts
// a new entry.
func blocks(text string) []block {
	var out []block
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if bulletPrefix.MatchString(line) && len([]rune(line)) > 1 {
			item := strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
			if item == "" {
				continue
			}
			if len(out) == 0 {
				out = append(out, block{})
			}
			out[len(out)-1].bullets = append(out[len(out)-1].bullets, item)
			continue
		}
		if len(out) == 0 || len(out[len(out)-1].bullets) > 0 {
			out = append(out, block{})
		}
		out[len(out)-1].headers = append(out[len(out)-1].headers, line)
	}
	return out
}

// takeDates removes the first date range (or single date when allowSingle)
// from s and returns both parts.
func takeDates(s string, allowSingle bool) (rest, dates string) {
	loc := dateRangePattern.FindStringIndex(s)
	if loc == nil && allowSingle {
		loc = singleDatePattern.FindStringIndex(s)
	}
	if loc == nil {
		return s, ""
	}
	dates = strings.TrimSpace(s[loc[0]:loc[1]])
	rest = s[:loc[0]] + s[loc[1]:]
	rest = emptyParens.ReplaceAllString(rest, "")
	return cleanPart(rest), dates
}

func splitHeader(s string) []string {
	var parts []string
	for _, p := range headerSplit.Split(s, -1) {
		if p = cleanPart(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

func cleanPart(s string) string {
	return strings.Trim(strings.TrimSpace(s), " ,|-–—:;")
}

func parseExperience(text string) []model.ExperienceEntry {
	var out []model.ExperienceEntry
	for _, b := range blocks(text) {
		var e model.ExperienceEntry
		var fields []string
		for _, h := range b.headers {
			rest, dates := takeDates(h, false)
			if dates != "" && e.Dates == "" {
				e.Dates = dates
			}
			fields = append(fields, splitHeader(rest)...)
		}
		assign(fields, &e.Title, &e.Company, &e.Location)
		if len(fields) > 3 {
			e.Location = strings.Join(fields[2:], ", ")
		}
		e.Bullets = b.bullets
		if e.Title == "" && len(e.Bullets) == 0 {
			continue
		}
		if e.Title == "" {
			e.Title = "Experience"
		}
		out = append(out, e)
	}
	return out
}

func parseEducation(text string) []model.EducationEntry {
	var out []model.EducationEntry
	for _, b := range blocks(text) {
		var e model.EducationEntry
		var fields []string
		for _, h := range b.headers {
			if m := gpaPattern.FindStringSubmatch(h); m != nil {
				e.GPA = m[1]
				h = strings.Replace(h, m[0], "", 1)
			}
			rest, dates := takeDates(h, true)
			if dates != "" && e.Dates == "" {
				e.Dates = dates
			}
			fields = append(fields, splitHeader(rest)...)
		}
		assign(fields, &e.School, &e.Degree, &e.Location)
		if len(fields) > 3 {
			e.Location = strings.Join(fields[2:], ", ")
		}
		for _, bullet := range b.bullets {
			if m := gpaPattern.FindStringSubmatch(bullet); m != nil && e.GPA == "" {
				e.GPA = m[1]
				continue
			}
			e.Honors = append(e.Honors, bullet)
		}
		if e.School == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func parseProjects(text string) []model.ProjectEntry {
	var out []model.ProjectEntry
	for _, b := range blocks(text) {
		if len(b.headers) == 0 {
			continue
		}
		var p model.ProjectEntry
		head := b.headers[0]
		if link := urlPattern.FindString(head); link != "" {
			p.Link = link
			head = strings.Replace(head, link, "", 1)
		}
		head, p.Dates = takeDates(head, false)
		if m := projectTech.FindStringSubmatch(head); m != nil {
			p.Name = cleanPart(m[1])
			p.Tech = cleanPart(m[2])
		} else {
			parts := strings.SplitN(head, "|", 2)
			if len(parts) == 1 {
				parts = dashSplit.Split(head, 2)
			}
			p.Name = cleanPart(parts[0])
			if len(parts) == 2 {
				p.Tech = cleanPart(parts[1])
			}
		}
		for _, extra := range b.headers[1:] {
			if p.Link == "" {
				if link := urlPattern.FindString(extra); link != "" && strings.TrimSpace(extra) == link {
					p.Link = link
					continue
				}
			}
			p.Bullets = append(p.Bullets, extra)
		}
		p.Bullets = append(p.Bullets, b.bullets...)
		if p.Name == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

func parseSkills(text string) model.SkillGroups {
	var groups model.SkillGroups
	var loose []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(bulletPrefix.ReplaceAllString(strings.TrimSpace(raw), ""))
		if line == "" {
			continue
		}
		if idx := strings.Index(line, ":"); idx > 0 && idx < 40 {
			cat := strings.TrimSpace(line[:idx])
			items := strings.TrimSpace(line[idx+1:])
			if items != "" {
				groups = append(groups, model.SkillGroup{Category: cat, Items: items})
				continue
			}
		}
		loose = append(loose, line)
	}
	if len(loose) > 0 {
		groups = append(groups, model.SkillGroup{Category: "Skills", Items: strings.Join(loose, ", ")})
	}
	return groups
}

func assign(fields []string, targets ...*string) {
	for i, t := range targets {
		if i < len(fields) {
			*t = fields[i]
		}
	}
}
