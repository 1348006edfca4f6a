// Package sanitize cleans free-text input (notes, descriptions) before storage.
package sanitize

import (
	"html"
	"regexp"
	"strings"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	blankLinesRegex = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes markup, decodes entities and strips again so encoded
// tags cannot survive a round trip.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = html.UnescapeString(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text sanitizes a user-provided note: no markup, unix newlines, at most one
// empty line in a row.
func Text(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = StripHTML(s)
	return blankLinesRegex.ReplaceAllString(s, "\n\n")
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// Name trims and collapses inner whitespace of short single-line values such
// as company or contact names.
func Name(s string) string {
	return strings.Join(strings.Fields(StripHTML(s)), " ")
}
