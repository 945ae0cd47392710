package placeholder

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// FromTokens converts stripped token strings into untyped placeholders. The
// list may contain duplicates; pass it through Dedupe or Merge.
func FromTokens(tokens []string) []Placeholder {
	out := make([]Placeholder, 0, len(tokens))
	for _, token := range tokens {
		tag := strings.TrimSpace(norm.NFC.String(token))
		if tag == "" {
			continue
		}
		out = append(out, Placeholder{
			FullTagName: tag,
			Name:        Label(tag),
			Options:     []string{},
		})
	}
	return out
}

// Merge concatenates several placeholder sources and deduplicates the result
func Merge(lists ...[]Placeholder) []Placeholder {
	total := 0
	for _, l := range lists {
		total += len(l)
	}
	all := make([]Placeholder, 0, total)
	for _, l := range lists {
		all = append(all, l...)
	}
	return Dedupe(all)
}

// Dedupe keeps one placeholder per full tag name. A fully typed record
// replaces an earlier untyped one in place; otherwise the first occurrence
// wins. Output follows the order of first occurrence.
func Dedupe(list []Placeholder) []Placeholder {
	index := make(map[string]int, len(list))
	out := make([]Placeholder, 0, len(list))
	for _, p := range list {
		i, seen := index[p.FullTagName]
		if !seen {
			index[p.FullTagName] = len(out)
			out = append(out, p.Clone())
			continue
		}
		if p.IsTyped() && !out[i].IsTyped() {
			out[i] = p.Clone()
		}
	}
	return out
}

// ByTag indexes a list by full tag name; the first occurrence wins
func ByTag(list []Placeholder) map[string]Placeholder {
	out := make(map[string]Placeholder, len(list))
	for _, p := range list {
		if _, ok := out[p.FullTagName]; !ok {
			out[p.FullTagName] = p
		}
	}
	return out
}
