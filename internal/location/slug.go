package location

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	multipleHyphens = regexp.MustCompile(`-+`)
	titleCaser      = cases.Title(language.English)
)

// Slugify converts a name to a path segment.
// "Living Room" -> "living-room", "Étagère #2" -> "etagere-2".
func Slugify(s string) string {
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)
	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NormalizeType title-cases a location type ("shelf" -> "Shelf").
// An empty type defaults to Room for roots and Shelf for children.
func NormalizeType(t string, isRoot bool) string {
	t = strings.Join(strings.Fields(t), " ")
	if t == "" {
		if isRoot {
			return "Room"
		}
		return "Shelf"
	}
	return titleCaser.String(t)
}
