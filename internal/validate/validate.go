// Package validate checks entries against the schema registry.
//
// Validation is read-only: it annotates copies of the entries with the
// required fields they lack and reports diagnostics, but never changes a
// field value.
package validate

import (
	"sort"

	"github.com/matsen/prettybib/internal/reference"
	"github.com/matsen/prettybib/internal/schema"
)

// Validator checks a collection one entry at a time. It remembers keys and
// titles it has seen so collisions are reported on the later entry.
type Validator struct {
	firstKey   map[string]int    // citation key -> input index of first occurrence
	firstTitle map[string]string // normalized title -> key of first occurrence
}

// New returns a Validator for a fresh collection.
func New() *Validator {
	return &Validator{
		firstKey:   make(map[string]int),
		firstTitle: make(map[string]string),
	}
}

// Validate checks every entry of a collection in input order, then compares
// values across the collection for likely misspellings.
func Validate(entries []reference.Entry) ([]reference.Entry, []reference.Diagnostic) {
	v := New()
	out := make([]reference.Entry, 0, len(entries))
	var diags []reference.Diagnostic
	for _, e := range entries {
		checked, d := v.Check(e)
		out = append(out, checked)
		diags = append(diags, d...)
	}
	return out, append(diags, Misspellings(entries)...)
}

// Check validates one entry and returns a copy annotated with its missing
// required fields.
func (v *Validator) Check(e reference.Entry) (reference.Entry, []reference.Diagnostic) {
	out := e.Clone()
	var diags []reference.Diagnostic

	typ := schema.Parse(e.Type)
	if typ == schema.Unknown {
		diags = append(diags, reference.Errorf(e.Key, reference.KindUnknownType,
			"unknown entry type '%s'", e.Type))
	}

	if first, dup := v.firstKey[e.Key]; dup {
		diags = append(diags, reference.Errorf(e.Key, reference.KindDuplicateKey,
			"duplicate key '%s' (first used by entry #%d)", e.Key, first+1))
	} else {
		v.firstKey[e.Key] = e.Index
	}

	out.Missing = MissingRequired(e)
	for _, f := range out.Missing {
		diags = append(diags, reference.Warnf(e.Key, reference.KindMissingField,
			"missing required field '%s'", f).WithField(f))
	}

	for _, f := range sortedFieldNames(e.Fields) {
		class := schema.Classify(e.Type, f)
		if class != schema.Required && reference.IsBlank(e.Fields[f]) {
			diags = append(diags, reference.Warnf(e.Key, reference.KindEmptyField,
				"field '%s' is empty", f).WithField(f))
		}
		if class == schema.Extra {
			diags = append(diags, reference.Warnf(e.Key, reference.KindExtraField,
				"field '%s' is not part of the %s schema", f, typeLabel(e.Type, typ)).WithField(f))
		}
	}

	if title, ok := e.Known("title"); ok {
		norm := reference.NormalizeTitle(title)
		if firstKey, dup := v.firstTitle[norm]; dup && firstKey != e.Key {
			diags = append(diags, reference.Warnf(e.Key, reference.KindDuplicateTitle,
				"same title as '%s'", firstKey).WithField("title"))
		} else if !dup {
			v.firstTitle[norm] = e.Key
		}
	}

	return out, diags
}

// MissingRequired lists the required fields of e that are absent, blank or
// still hold the sentinel, in schema order.
func MissingRequired(e reference.Entry) []string {
	var missing []string
	for _, f := range schema.RequiredFields(e.Type) {
		if v, ok := e.Fields[f]; !ok || reference.IsBlank(v) || reference.IsSentinel(v) {
			missing = append(missing, f)
		}
	}
	return missing
}

func typeLabel(name string, typ schema.EntryType) string {
	if typ == schema.Unknown {
		return "'" + name + "'"
	}
	return typ.String()
}

func sortedFieldNames(fields map[string]string) []string {
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return names
}
