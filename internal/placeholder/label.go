package placeholder

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var splitWordsPattern = regexp.MustCompile(`[_\-\s]+`)

// Label derives the default display name of a tag from its last non-empty
// dot segment
func Label(tag string) string {
	if i := strings.LastIndex(tag, GroupSeparator); i >= 0 && i < len(tag)-1 {
		tag = tag[i+1:]
	}
	return Humanize(strings.Trim(tag, GroupSeparator))
}

// Humanize splits camelCase and letter/digit boundaries into words and
// title-cases each word without lowering the rest of it, so "SignDate"
// becomes "Sign Date" and "vatID2" becomes "Vat ID 2".
func Humanize(name string) string {
	if name == "" {
		return ""
	}

	caser := cases.Title(language.Und, cases.NoLower)
	words := splitWordsPattern.Split(name, -1)
	segments := make([]string, 0, len(words))
	for _, word := range words {
		if word == "" {
			continue
		}
		segments = append(segments, caser.String(splitCamel(word)))
	}
	return strings.TrimSpace(strings.Join(segments, " "))
}

func splitCamel(input string) string {
	runes := []rune(input)
	var out strings.Builder
	for i, r := range runes {
		if i > 0 && isBoundary(runes[i-1], r) {
			out.WriteRune(' ')
		}
		out.WriteRune(r)
	}
	return out.String()
}

func isBoundary(prev, r rune) bool {
	return (unicode.IsLower(prev) && unicode.IsUpper(r)) ||
		(unicode.IsLetter(prev) && unicode.IsDigit(r)) ||
		(unicode.IsDigit(prev) && unicode.IsLetter(r))
}
