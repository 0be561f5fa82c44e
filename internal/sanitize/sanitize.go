// Package sanitize cleans raw feed text before it is shown to the model.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<.*?>`)

// Normalize strips markup tags, decodes HTML entities and collapses all
// whitespace runs (including newlines) into single spaces.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}
	text := tagPattern.ReplaceAllString(raw, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
