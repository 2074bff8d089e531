package latex

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMarkupInvalid is wrapped by every ValidationError.
var ErrMarkupInvalid = errors.New("invalid latex markup")

// ValidationError lists every structural problem found in a document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMarkupInvalid, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrMarkupInvalid
}

var requiredCommands = []string{`\begin{document}`, `\end{document}`}

// Validate checks that braces balance once escaped braces are ignored and
// that the document environment is present. It returns nil or a
// *ValidationError.
func Validate(markup string) error {
	var problems []string

	open, closed := countBraces(markup)
	if open != closed {
		problems = append(problems, fmt.Sprintf("Unmatched braces: %d open, %d close", open, closed))
	}
	for _, cmd := range requiredCommands {
		if !strings.Contains(markup, cmd) {
			problems = append(problems, fmt.Sprintf("Missing required command: %s", cmd))
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: problems}
}

// countBraces counts unescaped braces. A brace is escaped only when an odd
// number of backslashes precede it, so the line break in `\\{` does not hide it.
func countBraces(markup string) (open, closed int) {
	slashes := 0
	for i := 0; i < len(markup); i++ {
		switch markup[i] {
		case '\\':
			slashes++
			continue
		case '{':
			if slashes%2 == 0 {
				open++
			}
		case '}':
			if slashes%2 == 0 {
				closed++
			}
		}
		slashes = 0
	}
	return open, closed
}
