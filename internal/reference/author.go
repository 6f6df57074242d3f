package reference

import "strings"

// Author is one name from a BibTeX author or editor list.
type Author struct {
	First string `json:"first"` // Given name(s)
	Last  string `json:"last"`  // Family name, including von-part and suffix
}

// Common name suffixes to keep with the last name.
var nameSuffixes = map[string]bool{
	"jr":  true,
	"jr.": true,
	"sr":  true,
	"sr.": true,
	"ii":  true,
	"iii": true,
	"iv":  true,
}

// ParseAuthors splits a BibTeX name list ("Last, First and First Last")
// into authors. Blank names and the sentinel are skipped.
func ParseAuthors(field string) []Author {
	field = strings.TrimSpace(field)
	if field == "" || IsSentinel(field) {
		return nil
	}

	var authors []Author
	for _, name := range SplitNames(field) {
		authors = append(authors, parseName(name))
	}
	return authors
}

// SplitNames returns the names of a BibTeX name list as written, trimmed.
// Blank names are skipped.
func SplitNames(field string) []string {
	var names []string
	for _, name := range splitOnAnd(field) {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// FirstAuthorSurname returns the family name of the first author, or "".
func FirstAuthorSurname(field string) string {
	authors := ParseAuthors(field)
	if len(authors) == 0 {
		return ""
	}
	return strings.Trim(authors[0].Last, "{}")
}

// splitOnAnd splits on the word "and" at brace depth zero.
func splitOnAnd(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
			}
		case ' ':
			if depth == 0 && i+5 <= len(s) && strings.EqualFold(s[i:i+5], " and ") {
				parts = append(parts, s[start:i])
				start = i + 5
				i += 3
			}
		}
	}
	return append(parts, s[start:])
}

// parseName handles the "Last, First" and "First Last" forms.
func parseName(name string) Author {
	// A fully braced name is a corporate author and is never split.
	if strings.HasPrefix(name, "{") && strings.HasSuffix(name, "}") {
		return Author{Last: name}
	}

	if last, first, ok := strings.Cut(name, ","); ok {
		// "Last, Jr, First" keeps the suffix with the last name.
		if suffix, rest, ok := strings.Cut(first, ","); ok {
			return Author{First: strings.TrimSpace(rest), Last: strings.TrimSpace(last) + " " + strings.TrimSpace(suffix)}
		}
		return Author{First: strings.TrimSpace(first), Last: strings.TrimSpace(last)}
	}

	parts := strings.Fields(name)
	if len(parts) == 1 {
		return Author{Last: parts[0]}
	}

	lastPart := strings.ToLower(parts[len(parts)-1])
	if nameSuffixes[lastPart] && len(parts) > 2 {
		return Author{
			First: strings.Join(parts[:len(parts)-2], " "),
			Last:  parts[len(parts)-2] + " " + parts[len(parts)-1],
		}
	}
	return Author{
		First: strings.Join(parts[:len(parts)-1], " "),
		Last:  parts[len(parts)-1],
	}
}
