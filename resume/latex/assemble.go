package latex

import (
	"strings"

	"resume-optimizer/resume/model"
)

var noDates = map[string]struct{}{"NONE": {}, "N/A": {}, "NA": {}, "NULL": {}}

// Assemble fills the template's command skeleton from doc. Every free-text
// field is escaped; empty sections are left out.
func Assemble(doc model.Document) string {
	var b strings.Builder
	b.WriteString(Preamble())
	b.WriteString("\n\n")

	writeHeading(&b, doc.Contact)
	writeEducation(&b, doc.Education)
	writeExperience(&b, doc.Experience)
	writeProjects(&b, doc.Projects)
	writeSkills(&b, doc.Skills)

	b.WriteString("\n%-------------------------------------------\n")
	b.WriteString(`\end{document}`)
	b.WriteString("\n")
	return b.String()
}

func writeHeading(b *strings.Builder, c model.ContactInfo) {
	b.WriteString("%----------HEADING----------\n")
	b.WriteString("\\begin{center}\n")
	b.WriteString("    \\textbf{\\Huge \\scshape " + Escape(c.Name) + "} \\\\ \\vspace{1pt}\n")

	var parts []string
	if c.Phone != "" {
		parts = append(parts, Escape(c.Phone))
	}
	if c.Email != "" {
		parts = append(parts, `\href{mailto:`+EscapeURL(c.Email)+`}{\underline{`+Escape(c.Email)+`}}`)
	}
	for _, link := range []string{c.LinkedIn, c.GitHub} {
		if link == "" {
			continue
		}
		parts = append(parts, `\href{`+EscapeURL(WithScheme(link))+`}{\underline{`+Escape(displayURL(link))+`}}`)
	}
	if len(parts) > 0 {
		b.WriteString("    \\small " + strings.Join(parts, " $|$ \n    ") + "\n")
	}
	b.WriteString("\\end{center}\n\n")
}

func displayURL(link string) string {
	link = strings.TrimSpace(link)
	link = strings.TrimPrefix(link, "https://")
	link = strings.TrimPrefix(link, "http://")
	return strings.TrimPrefix(link, "www.")
}

func writeEducation(b *strings.Builder, entries []model.EducationEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("%-----------EDUCATION-----------\n")
	b.WriteString("\\section{Education}\n")
	b.WriteString("  \\resumeSubHeadingListStart\n")
	for _, e := range entries {
		b.WriteString("    \\resumeSubheading\n")
		b.WriteString("      {" + Escape(e.School) + "}{" + Escape(e.Location) + "}\n")
		b.WriteString("      {" + Escape(e.Degree) + "}{" + Escape(e.Dates) + "}\n")
		honors := nonEmpty(e.Honors)
		if strings.TrimSpace(e.GPA) == "" && len(honors) == 0 {
			continue
		}
		b.WriteString("      \\resumeItemListStart\n")
		if gpa := strings.TrimSpace(e.GPA); gpa != "" {
			b.WriteString("        \\resumeItem{GPA: " + Escape(gpa) + "}\n")
		}
		for _, h := range honors {
			b.WriteString("        \\resumeItem{" + Escape(h) + "}\n")
		}
		b.WriteString("      \\resumeItemListEnd\n")
	}
	b.WriteString("  \\resumeSubHeadingListEnd\n\n")
}

func writeExperience(b *strings.Builder, entries []model.ExperienceEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("%-----------EXPERIENCE-----------\n")
	b.WriteString("\\section{Experience}\n")
	b.WriteString("  \\resumeSubHeadingListStart\n\n")
	for _, e := range entries {
		b.WriteString("    \\resumeSubheading\n")
		b.WriteString("      {" + Escape(e.Title) + "}{" + Escape(e.Dates) + "}\n")
		b.WriteString("      {" + Escape(e.Company) + "}{" + Escape(e.Location) + "}\n")
		writeItems(b, "      ", e.Bullets)
		b.WriteString("\n")
	}
	b.WriteString("  \\resumeSubHeadingListEnd\n\n")
}

func writeProjects(b *strings.Builder, entries []model.ProjectEntry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("%-----------PROJECTS-----------\n")
	b.WriteString("\\section{Projects}\n")
	b.WriteString("    \\resumeSubHeadingListStart\n")
	for _, p := range entries {
		name := Escape(p.Name)
		if link := strings.TrimSpace(p.Link); link != "" {
			name = `\href{` + EscapeURL(WithScheme(link)) + `}{\underline{` + name + `}}`
		}
		dates := strings.TrimSpace(p.Dates)
		if _, skip := noDates[strings.ToUpper(dates)]; skip {
			dates = ""
		}
		b.WriteString("      \\resumeProjectHeading\n")
		b.WriteString("          {\\textbf{" + name + "} $|$ \\emph{" + Escape(p.Tech) + "}}{" + Escape(dates) + "}\n")
		writeItems(b, "          ", p.Bullets)
	}
	b.WriteString("    \\resumeSubHeadingListEnd\n\n")
}

func writeSkills(b *strings.Builder, groups model.SkillGroups) {
	var lines []string
	for _, g := range groups {
		if strings.TrimSpace(g.Items) == "" {
			continue
		}
		lines = append(lines, "     \\textbf{"+Escape(g.Category)+"}: "+Escape(g.Items))
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("%-----------PROGRAMMING SKILLS-----------\n")
	b.WriteString("\\section{Technical Skills}\n")
	b.WriteString(" \\begin{itemize}[leftmargin=0.15in, label={}]\n")
	b.WriteString("    \\small{\\item{\n")
	b.WriteString(strings.Join(lines, " \\\\\n"))
	b.WriteString("\n    }}\n")
	b.WriteString(" \\end{itemize}\n\n")
}

// writeItems emits nothing for an empty list; an itemize without \item does
// not compile.
func writeItems(b *strings.Builder, indent string, bullets []string) {
	items := nonEmpty(bullets)
	if len(items) == 0 {
		return
	}
	b.WriteString(indent + "\\resumeItemListStart\n")
	for _, item := range items {
		b.WriteString(indent + "  \\resumeItem{" + Escape(stripBullet(item)) + "}\n")
	}
	b.WriteString(indent + "\\resumeItemListEnd\n")
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item) != "" {
			out = append(out, strings.TrimSpace(item))
		}
	}
	return out
}

func stripBullet(item string) string {
	trimmed := strings.TrimLeft(item, "•·▪◦‣●○■►-* ")
	if trimmed == "" {
		return item
	}
	return trimmed
}
