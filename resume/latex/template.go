package latex

import (
	_ "embed"
	"strings"
)

//go:embed templates/jakes.tex
var jakesTemplate string

const beginDocument = `\begin{document}`

// Template returns the full reference template, sample content included.
func Template() string {
	return jakesTemplate
}

// Preamble returns the template up to and including \begin{document}.
func Preamble() string {
	idx := strings.Index(jakesTemplate, beginDocument)
	if idx < 0 {
		return jakesTemplate
	}
	return jakesTemplate[:idx+len(beginDocument)]
}
