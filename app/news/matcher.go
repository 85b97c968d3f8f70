package news

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Matcher decides whether a candidate item belongs to a category, based on
// the category's keyword filters. Matching is case- and diacritic-insensitive
// so that "Imigração" keywords also match unaccented outlet headlines.
type Matcher struct{}

func NewMatcher() *Matcher {
	return &Matcher{}
}

// Run returns false plus a reason when the item is rejected by the category's
// filters. A category without filters accepts everything.
func (m *Matcher) Run(item CandidateItem, filters []ConfigFilter) (bool, string) {
	for _, filter := range filters {
		value := Fold(m.getFieldValue(item, filter.Field))

		for _, exclude := range filter.Excludes {
			if strings.Contains(value, Fold(exclude)) {
				return false, fmt.Sprintf("excluded by %s filter: contains '%s'", filter.Field, exclude)
			}
		}

		if len(filter.Includes) > 0 {
			matched := false
			for _, include := range filter.Includes {
				if strings.Contains(value, Fold(include)) {
					matched = true
					break
				}
			}
			if !matched {
				return false, fmt.Sprintf("excluded by %s filter: does not contain any of %v", filter.Field, filter.Includes)
			}
		}
	}

	return true, ""
}

func (m *Matcher) getFieldValue(item CandidateItem, field string) string {
	switch field {
	case "title":
		return item.Title
	case "content":
		return item.Content
	case "source":
		return item.SourceName
	case "link":
		return item.SourceURL
	default:
		return ""
	}
}

// Fold lowercases s and strips combining marks, so "Imigração" and
// "IMIGRACAO" fold to the same string.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}
