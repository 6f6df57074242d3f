// Package schema is the registry of BibTeX entry types and the fields each
// type requires or accepts.
//
// The table is the single source of truth for "what must exist". Adding a
// type means adding a constant before numTypes and a row in registry; the
// exhaustiveness test fails until both are present.
package schema

import "strings"

// EntryType is a closed enumeration of the BibTeX entry types we know.
type EntryType uint8

const (
	Unknown EntryType = iota
	Article
	Book
	Booklet
	InBook
	InCollection
	InProceedings
	Manual
	MastersThesis
	Misc
	PhDThesis
	Proceedings
	TechReport
	Unpublished

	numTypes
)

// Schema lists the required and optional fields of one entry type in the
// order they are rendered.
type Schema struct {
	Name     string
	Required []string
	Optional []string
}

// FieldClass says how a field relates to an entry type's schema.
type FieldClass int

const (
	Extra FieldClass = iota
	Required
	Optional
)

func (c FieldClass) String() string {
	switch c {
	case Required:
		return "required"
	case Optional:
		return "optional"
	default:
		return "extra"
	}
}

var registry = [numTypes]Schema{
	Unknown: {},
	Article: {
		Name:     "article",
		Required: []string{"author", "title", "journal", "year", "issn"},
		Optional: []string{"volume", "number", "pages", "month", "publisher", "address", "doi", "url", "note"},
	},
	Book: {
		Name:     "book",
		Required: []string{"author", "title", "publisher", "year", "isbn"},
		Optional: []string{"editor", "volume", "number", "series", "address", "edition", "month", "doi", "url", "note"},
	},
	Booklet: {
		Name:     "booklet",
		Required: []string{"title"},
		Optional: []string{"author", "howpublished", "address", "month", "year", "url", "note"},
	},
	InBook: {
		Name:     "inbook",
		Required: []string{"author", "title", "chapter", "publisher", "year"},
		Optional: []string{"editor", "volume", "number", "series", "type", "pages", "address", "edition", "month", "isbn", "doi", "url", "note"},
	},
	InCollection: {
		Name:     "incollection",
		Required: []string{"author", "title", "booktitle", "publisher", "year"},
		Optional: []string{"editor", "volume", "number", "series", "type", "chapter", "pages", "address", "edition", "month", "isbn", "doi", "url", "note"},
	},
	InProceedings: {
		Name:     "inproceedings",
		Required: []string{"author", "title", "booktitle", "year"},
		Optional: []string{"editor", "volume", "number", "series", "pages", "address", "month", "organization", "publisher", "doi", "url", "note"},
	},
	Manual: {
		Name:     "manual",
		Required: []string{"title"},
		Optional: []string{"author", "organization", "address", "edition", "month", "year", "url", "note"},
	},
	MastersThesis: {
		Name:     "mastersthesis",
		Required: []string{"author", "title", "school", "year"},
		Optional: []string{"type", "address", "month", "doi", "url", "note"},
	},
	Misc: {
		Name:     "misc",
		Optional: []string{"author", "title", "howpublished", "month", "year", "doi", "url", "note"},
	},
	PhDThesis: {
		Name:     "phdthesis",
		Required: []string{"author", "title", "school", "year"},
		Optional: []string{"type", "address", "month", "doi", "url", "note"},
	},
	Proceedings: {
		Name:     "proceedings",
		Required: []string{"title", "year"},
		Optional: []string{"editor", "volume", "number", "series", "address", "month", "organization", "publisher", "isbn", "doi", "url", "note"},
	},
	TechReport: {
		Name:     "techreport",
		Required: []string{"author", "title", "institution", "year"},
		Optional: []string{"type", "number", "address", "month", "doi", "url", "note"},
	},
	Unpublished: {
		Name:     "unpublished",
		Required: []string{"author", "title", "note"},
		Optional: []string{"month", "year", "url"},
	},
}

var byName = func() map[string]EntryType {
	m := make(map[string]EntryType, numTypes)
	for t := Article; t < numTypes; t++ {
		m[registry[t].Name] = t
	}
	return m
}()

// Parse maps a type name to its EntryType. Matching is case-insensitive;
// unrecognized names return Unknown.
func Parse(name string) EntryType {
	return byName[strings.ToLower(strings.TrimSpace(name))]
}

// String returns the canonical lowercase name of the type.
func (t EntryType) String() string {
	if t >= numTypes || t == Unknown {
		return "unknown"
	}
	return registry[t].Name
}

// Lookup returns the schema for t. Unknown types get an empty schema.
func Lookup(t EntryType) Schema {
	if t >= numTypes {
		return Schema{}
	}
	return registry[t]
}

// Types lists every known entry type in declaration order.
func Types() []EntryType {
	types := make([]EntryType, 0, numTypes-1)
	for t := Article; t < numTypes; t++ {
		types = append(types, t)
	}
	return types
}

// IsKnownType reports whether name is a registered entry type.
func IsKnownType(name string) bool {
	return Parse(name) != Unknown
}

// RequiredFields returns the required fields of the named type.
// The returned slice must not be modified.
func RequiredFields(name string) []string {
	return Lookup(Parse(name)).Required
}

// OptionalFields returns the optional fields of the named type.
// The returned slice must not be modified.
func OptionalFields(name string) []string {
	return Lookup(Parse(name)).Optional
}

// Classify reports whether field is required, optional or extra for the
// named type.
func Classify(name, field string) FieldClass {
	s := Lookup(Parse(name))
	for _, f := range s.Required {
		if f == field {
			return Required
		}
	}
	for _, f := range s.Optional {
		if f == field {
			return Optional
		}
	}
	return Extra
}
