package validate

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/matsen/prettybib/internal/reference"
)

// misspellFields are the fields whose values are compared across the
// collection. Author lists are compared name by name.
var misspellFields = []string{"author", "journal", "booktitle"}

// minSimilarity is the edit similarity above which two distinct values are
// reported as a likely misspelling of one another.
const minSimilarity = 0.8

// usage is one distinct value of a field and the first entry that used it.
type usage struct {
	value string
	key   string
}

// Misspellings reports values of author, journal and booktitle that are
// near-identical to an earlier, different value of the same field. Each
// variant is reported once, on the first entry that uses it.
func Misspellings(entries []reference.Entry) []reference.Diagnostic {
	var diags []reference.Diagnostic
	for _, field := range misspellFields {
		var seen []usage
		index := make(map[string]bool)
		for _, e := range entries {
			for _, v := range fieldValues(e, field) {
				if index[v] {
					continue
				}
				index[v] = true
				for _, earlier := range seen {
					if similar(earlier.value, v) {
						diags = append(diags, reference.Warnf(e.Key, reference.KindPossibleMisspelling,
							"%s '%s' might be the same as '%s' (used by %s)", field, v, earlier.value, earlier.key).WithField(field))
						break
					}
				}
				seen = append(seen, usage{value: v, key: e.Key})
			}
		}
	}
	return diags
}

func fieldValues(e reference.Entry, field string) []string {
	v, ok := e.Known(field)
	if !ok {
		return nil
	}
	if field == "author" {
		return reference.SplitNames(v)
	}
	return []string{v}
}

func similar(a, b string) bool {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	// The distance is at least the length difference.
	if float64(min(la, lb)) <= minSimilarity*float64(max(la, lb)) {
		return false
	}
	return Similarity(a, b) > minSimilarity
}

// Similarity is one minus the edit distance between a and b over the length
// of the longer, counted in runes. Identical strings score 1.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}
