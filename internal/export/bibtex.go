// Package export renders entries as canonical BibTeX.
//
// The output is byte-stable: the same logical collection renders to the same
// text regardless of input order or map iteration order.
package export

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/matsen/prettybib/internal/reference"
	"github.com/matsen/prettybib/internal/schema"
)

// Indent is the prefix of every field line.
const Indent = "  "

// ToBibTeX renders a single entry.
//
// Layout:
//
//	@article{smith2020,
//	  author  = {Smith, John},
//	  journal = {Nature},
//	}
func ToBibTeX(e reference.Entry) string {
	fields := FieldOrder(e)

	width := 0
	for _, f := range fields {
		width = max(width, len(f))
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("@%s{%s,\n", strings.ToLower(e.Type), e.Key))
	for _, f := range fields {
		b.WriteString(fmt.Sprintf("%s%-*s = {%s},\n", Indent, width, f, e.Fields[f]))
	}
	b.WriteString("}\n")

	return b.String()
}

// ToBibTeXList renders a whole collection in canonical order, entries
// separated by one blank line.
func ToBibTeXList(entries []reference.Entry) string {
	sorted := SortEntries(entries)
	rendered := make([]string, 0, len(sorted))
	for _, e := range sorted {
		rendered = append(rendered, ToBibTeX(e))
	}
	return strings.Join(rendered, "\n")
}

// SortEntries returns a copy of entries ordered by key (byte order), ties
// broken by input position.
func SortEntries(entries []reference.Entry) []reference.Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b reference.Entry) int {
		if c := strings.Compare(a.Key, b.Key); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return sorted
}

// FieldOrder returns the names of e's fields in rendering order: required
// fields in schema order, then optional fields in schema order, then the
// remaining fields alphabetically.
func FieldOrder(e reference.Entry) []string {
	s := schema.Lookup(schema.Parse(e.Type))

	order := make([]string, 0, len(e.Fields))
	placed := make(map[string]bool, len(e.Fields))
	for _, group := range [][]string{s.Required, s.Optional} {
		for _, f := range group {
			if _, ok := e.Fields[f]; ok && !placed[f] {
				order = append(order, f)
				placed[f] = true
			}
		}
	}

	var extra []string
	for f := range e.Fields {
		if !placed[f] {
			extra = append(extra, f)
		}
	}
	sort.Strings(extra)

	return append(order, extra...)
}
