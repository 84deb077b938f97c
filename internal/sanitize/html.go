package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes all HTML tags and attributes.
var StrictPolicy = bluemonday.StrictPolicy()

// maxPasses bounds how many layers of encoded or raw-text markup Text peels.
const maxPasses = 8

// Text strips all HTML tags and returns trimmed plain text.
// Use for: titles, descriptions, locations, categories, user names.
//
// bluemonday escapes its output; Text decodes it so "Rock & Roll" round-trips
// unchanged through the JSON API. Decoding can surface markup that was
// entity-encoded or nested in a raw-text element, so sanitizing repeats until
// the text is stable. Input still changing after maxPasses is returned in
// escaped form.
func Text(input string) string {
	current := input
	for range maxPasses {
		escaped := StrictPolicy.Sanitize(current)
		next := html.UnescapeString(escaped)
		if next == current {
			return strings.TrimSpace(next)
		}
		current = next
	}
	return strings.TrimSpace(StrictPolicy.Sanitize(current))
}

// TextPtr sanitizes an optional plain-text value, preserving nil.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	value := Text(*input)
	return &value
}
