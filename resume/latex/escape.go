package latex

import "strings"

// backslashSentinel holds no character the replacer touches.
const backslashSentinel = "\x00BACKSLASH\x00"

var (
	specialReplacer = strings.NewReplacer(
		`{`, `\{`,
		`}`, `\}`,
		`$`, `\$`,
		`&`, `\&`,
		`%`, `\%`,
		`#`, `\#`,
		`_`, `\_`,
		`^`, `\textasciicircum{}`,
		`~`, `\textasciitilde{}`,
	)
	urlReplacer = strings.NewReplacer(
		`\`, "",
		`{`, "",
		`}`, "",
		`%`, `\%`,
		`#`, `\#`,
		` `, "",
	)
)

// Escape makes free text safe to embed in LaTeX. Backslashes are parked on
// a sentinel first so the braces of \textbackslash{} are not escaped again.
func Escape(text string) string {
	if text == "" {
		return ""
	}
	out := strings.ReplaceAll(text, `\`, backslashSentinel)
	out = specialReplacer.Replace(out)
	return strings.ReplaceAll(out, backslashSentinel, `\textbackslash{}`)
}

// EscapeURL prepares a link target for \href. Characters hyperref cannot
// take literally are escaped; braces and whitespace are dropped.
func EscapeURL(url string) string {
	return urlReplacer.Replace(strings.TrimSpace(url))
}

// WithScheme prefixes https:// unless url already carries a scheme.
func WithScheme(url string) string {
	url = strings.TrimSpace(url)
	if url == "" || strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "mailto:") {
		return url
	}
	return "https://" + url
}
