package organizer

import (
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"unicode/utf16"

	"github.com/microcosm-cc/bluemonday"
)

var (
	optionPolicy     *bluemonday.Policy
	optionPolicyOnce sync.Once

	unicodeEscapePattern = regexp.MustCompile(`(?:\\u[0-9a-fA-F]{4})+`)
	tagPattern           = regexp.MustCompile(`</?([A-Za-z][A-Za-z0-9]*)(?:\s[^<>]*)?/?>`)
)

// markupElements are the HTML element names that mark an option as markup.
// Anything else in angle brackets, like "<Other>", is literal text.
var markupElements = map[string]bool{
	"a": true, "abbr": true, "audio": true, "b": true, "big": true, "blockquote": true,
	"body": true, "br": true, "button": true, "center": true, "code": true, "del": true,
	"div": true, "em": true, "embed": true, "font": true, "form": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "head": true, "hr": true,
	"html": true, "i": true, "iframe": true, "img": true, "input": true, "ins": true,
	"kbd": true, "label": true, "li": true, "link": true, "mark": true, "meta": true,
	"object": true, "ol": true, "option": true, "p": true, "pre": true, "q": true,
	"s": true, "script": true, "select": true, "small": true, "source": true,
	"span": true, "strike": true, "strong": true, "style": true, "sub": true,
	"sup": true, "svg": true, "table": true, "td": true, "textarea": true, "th": true,
	"title": true, "tr": true, "tt": true, "u": true, "ul": true, "video": true,
}

func getOptionPolicy() *bluemonday.Policy {
	optionPolicyOnce.Do(func() {
		optionPolicy = bluemonday.StrictPolicy()
	})
	return optionPolicy
}

// CleanOption turns raw operator input into an option value. \uXXXX escapes
// become literal characters. Input holding HTML element tags is stripped of
// its markup; any other text, including a bare "<", is kept unchanged. A
// blank result means the input is ignored.
func CleanOption(raw string) string {
	value := UnescapeUnicode(raw)
	if containsMarkup(value) {
		value = getOptionPolicy().Sanitize(value)
		value = strings.TrimSpace(html.UnescapeString(value))
	}
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return value
}

func containsMarkup(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	for _, m := range tagPattern.FindAllStringSubmatch(s, -1) {
		if markupElements[strings.ToLower(m[1])] {
			return true
		}
	}
	return false
}

// UnescapeUnicode replaces \uXXXX sequences, including surrogate pairs, with
// the characters they encode
func UnescapeUnicode(s string) string {
	if !strings.Contains(s, `\u`) {
		return s
	}
	return unicodeEscapePattern.ReplaceAllStringFunc(s, func(run string) string {
		units := make([]uint16, 0, len(run)/6)
		for i := 0; i+6 <= len(run); i += 6 {
			v, err := strconv.ParseUint(run[i+2:i+6], 16, 16)
			if err != nil {
				return run
			}
			units = append(units, uint16(v))
		}
		return string(utf16.Decode(units))
	})
}
