package extract

import (
	"regexp"
	"strings"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9-]`)

// Slugify reproduces GitHub's heading anchors closely enough for README tables
// of contents: lowercase, spaces become dashes, everything else outside
// [a-z0-9-] is dropped without a replacement.
func Slugify(text string) string {
	dashed := strings.ReplaceAll(strings.ToLower(text), " ", "-")
	return nonSlugChars.ReplaceAllString(dashed, "")
}
