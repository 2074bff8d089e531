package render

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"unicode"

	"resume-optimizer/resume/latex"
	"resume-optimizer/resume/model"
)

//go:embed templates/resume.html
var htmlLayout string

var htmlTemplate = template.Must(template.New("resume").Parse(htmlLayout))

var ErrNoPrinter = errors.New("html renderer has no pdf printer")

// Link is one entry of the contact line.
type Link struct {
	Text string
	Href string
}

// Layout is everything the HTML template draws.
type Layout struct {
	Contact    model.ContactInfo
	Links      []Link
	Summary    string
	Doc        model.Document
	Additional []string
}

type headingRule struct {
	bucket   string
	keywords []string
}

// Checked in order: "Technical Skills" must land in skills, not summary.
var headingRules = []headingRule{
	{"summary", []string{"SUMMARY", "OBJECTIVE", "PROFILE"}},
	{string(model.Education), []string{"EDUCATION"}},
	{string(model.Experience), []string{"EXPERIENCE", "EMPLOYMENT"}},
	{string(model.Projects), []string{"PROJECT"}},
	{string(model.Skills), []string{"SKILL", "TECHNICAL", "TECHNOLOGIES"}},
	{string(model.Other), []string{"OTHER", "ADDITIONAL", "CERTIFICATION", "AWARD"}},
}

// headingFor reports which bucket a line opens, if it is a heading at all.
// A heading is a short line that is either written in capitals or, after
// trimming a trailing colon, consists only of heading words.
func headingFor(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" || len(strings.Fields(line)) > 4 || strings.HasSuffix(line, ".") {
		return "", false
	}
	if strings.IndexFunc(line, unicode.IsDigit) >= 0 || strings.ContainsAny(line, "•-*|@") {
		return "", false
	}
	upper := strings.ToUpper(strings.TrimSuffix(line, ":"))
	shouting := upper == strings.TrimSuffix(line, ":")
	for _, rule := range headingRules {
		for _, kw := range rule.keywords {
			if !strings.Contains(upper, kw) {
				continue
			}
			if shouting || strings.HasSuffix(line, ":") || onlyHeadingWords(upper) {
				return rule.bucket, true
			}
		}
	}
	return "", false
}

var headingFiller = map[string]struct{}{
	"WORK": {}, "PROFESSIONAL": {}, "HISTORY": {}, "PERSONAL": {}, "INFORMATION": {},
	"AND": {}, "&": {}, "KEY": {}, "CAREER": {}, "SELECTED": {}, "RELEVANT": {},
}

func onlyHeadingWords(upper string) bool {
	for _, w := range strings.Fields(upper) {
		if _, ok := headingFiller[w]; ok {
			continue
		}
		known := false
		for _, rule := range headingRules {
			for _, kw := range rule.keywords {
				if strings.HasPrefix(w, kw) {
					known = true
				}
			}
		}
		if !known {
			return false
		}
	}
	return true
}

// ParseText scans optimized résumé text line by line and sorts it under the
// headings it finds. Lines before the first heading belong to the contact
// block and are dropped.
func ParseText(text string) (summary string, sections model.SectionSet) {
	sections = model.NewSectionSet()
	var summaryLines []string
	current := ""
	for _, raw := range strings.Split(text, "\n") {
		if bucket, ok := headingFor(raw); ok {
			current = bucket
			continue
		}
		line := strings.TrimSpace(raw)
		if current == "" || line == "" {
			continue
		}
		if current == "summary" {
			summaryLines = append(summaryLines, line)
			continue
		}
		sections.Append(model.Category(current), line)
	}
	return strings.Join(summaryLines, " "), sections
}

// BuildLayout shapes contact details and optimized text for the template.
func BuildLayout(contact model.ContactInfo, text string) Layout {
	summary, sections := ParseText(text)
	doc := latex.FromSections(sections, contact)
	for i := range doc.Projects {
		doc.Projects[i].Link = latex.WithScheme(doc.Projects[i].Link)
	}
	var additional []string
	for _, line := range strings.Split(sections[model.Other], "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "•·▪◦‣●○■►-*"))
		if line != "" {
			additional = append(additional, line)
		}
	}
	return Layout{
		Contact:    contact,
		Links:      contactLinks(contact),
		Summary:    summary,
		Doc:        doc,
		Additional: additional,
	}
}

func contactLinks(c model.ContactInfo) []Link {
	var links []Link
	if c.Phone != "" {
		links = append(links, Link{Text: c.Phone})
	}
	if c.Email != "" {
		links = append(links, Link{Text: c.Email, Href: "mailto:" + c.Email})
	}
	for _, l := range []string{c.LinkedIn, c.GitHub} {
		if l == "" {
			continue
		}
		href := latex.WithScheme(l)
		links = append(links, Link{Text: strings.TrimPrefix(strings.TrimPrefix(href, "https://"), "http://"), Href: href})
	}
	return links
}

// HTML renders the fixed-style résumé page.
func HTML(contact model.ContactInfo, text string) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, BuildLayout(contact, text)); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// PDFPrinter turns an HTML page into PDF bytes.
type PDFPrinter interface {
	PrintPDF(ctx context.Context, html string) ([]byte, error)
}

// HTMLRenderer is the alternate output format. It never touches the LaTeX
// toolchain.
type HTMLRenderer struct {
	Printer PDFPrinter
}

func NewHTMLRenderer(p PDFPrinter) *HTMLRenderer {
	return &HTMLRenderer{Printer: p}
}

// Render lays out text as HTML and prints it to PDF. The HTML is returned
// alongside so callers can keep it when printing fails.
func (r *HTMLRenderer) Render(ctx context.Context, contact model.ContactInfo, text string) ([]byte, string, error) {
	page, err := HTML(contact, text)
	if err != nil {
		return nil, "", err
	}
	if r == nil || r.Printer == nil {
		return nil, page, ErrNoPrinter
	}
	pdf, err := r.Printer.PrintPDF(ctx, page)
	if err != nil {
		return nil, page, fmt.Errorf("print pdf: %w", err)
	}
	return pdf, page, nil
}
