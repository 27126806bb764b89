package htmlutil

import (
	"strings"

	"github.com/k3a/html2text"
)

// ToText converts HTML to plain text using a proper HTML parser.
// Handles entities, strips tags, and preserves readable text.
func ToText(s string) string {
	return html2text.HTML2Text(s)
}

// Snippet returns the plain text of an HTML document collapsed onto one line
// and cut to at most max runes.
func Snippet(s string, max int) string {
	text := strings.Join(strings.Fields(ToText(s)), " ")
	runes := []rune(text)
	if max > 0 && len(runes) > max {
		return string(runes[:max]) + "..."
	}
	return text
}
