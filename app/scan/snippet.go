package scan

import (
	"regexp"
	"strings"
)

// SnippetMaxLength bounds the stored match preview.
const SnippetMaxLength = 300

var (
	headingRe  = regexp.MustCompile(`#{1,6}\s`)
	emphasisRe = regexp.MustCompile(`\*{1,2}(.*?)\*{1,2}`)
	linkRe     = regexp.MustCompile(`\[([^\]]+)\]\(` + `[^)]+\)`)
	blankRunRe = regexp.MustCompile(`\n{2,}`)
)

// Snippet derives a bounded, markdown-stripped preview from a raw post body.
// Heading markers are removed, emphasis and links collapse to their inner
// text, and runs of blank lines collapse to a single newline. Input within
// maxLength is returned unchanged; longer input is truncated and marked with
// an ellipsis.
func Snippet(body string, maxLength int) string {
	if body == "" {
		return ""
	}

	cleaned := headingRe.ReplaceAllString(body, "")
	cleaned = emphasisRe.ReplaceAllString(cleaned, "$1")
	cleaned = linkRe.ReplaceAllString(cleaned, "$1")
	cleaned = blankRunRe.ReplaceAllString(cleaned, "\n")
	cleaned = strings.TrimSpace(cleaned)

	runes := []rune(cleaned)
	if len(runes) <= maxLength {
		return cleaned
	}

	return strings.TrimSpace(string(runes[:maxLength])) + "..."
}
