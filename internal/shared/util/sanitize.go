package util

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	nonLabelChars = regexp.MustCompile(`[^\w\s-]`)
	hyphenRun     = regexp.MustCompile(`[-\s]+`)
)

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}

// SanitizeLabel strips everything but word characters, whitespace and hyphens.
func SanitizeLabel(s string) string {
	return strings.TrimSpace(nonLabelChars.ReplaceAllString(s, ""))
}

// ResumeFileName builds the download name resume_<Company>_<timestamp>.pdf.
func ResumeFileName(company string, at time.Time) string {
	label := hyphenRun.ReplaceAllString(SanitizeLabel(company), "-")
	if label == "" {
		label = "Optimized"
	}
	return "resume_" + label + "_" + at.Format("2006-01-02_15-04-05") + ".pdf"
}
