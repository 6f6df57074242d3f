// Package reference defines the core domain types for bibliographic entries.
package reference

import (
	"strings"
	"unicode"
)

// Sentinel marks a required field whose value is unknown.
// It is the only value the enricher is allowed to replace.
const Sentinel = "TODO"

// IsSentinel reports whether v is the sentinel placeholder.
func IsSentinel(v string) bool {
	return v == Sentinel
}

// IsBlank reports whether a field value carries no content.
func IsBlank(v string) bool {
	return strings.TrimSpace(v) == ""
}

// Status describes how far an entry got through normalization.
type Status string

const (
	StatusComplete          Status = "complete"
	StatusSentinelFilled    Status = "sentinel-filled"
	StatusEnrichmentPending Status = "enrichment-pending"
	StatusEnrichmentFailed  Status = "enrichment-failed"
)

// Entry represents a single BibTeX record.
type Entry struct {
	Type   string            `json:"type"`   // Lowercased entry type (article, book, ...)
	Key    string            `json:"key"`    // Citation key, opaque
	Fields map[string]string `json:"fields"` // Lowercased field name -> value

	// Derived during normalization, never read from input.
	Missing []string `json:"missing,omitempty"` // Required fields that were absent or blank
	Status  Status   `json:"status,omitempty"`

	// Index is the position of the entry in the input collection.
	Index int `json:"index"`
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	out := e
	out.Fields = make(map[string]string, len(e.Fields))
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	if e.Missing != nil {
		out.Missing = append([]string(nil), e.Missing...)
	}
	return out
}

// Get returns the value of a field and whether it is present.
func (e Entry) Get(field string) (string, bool) {
	v, ok := e.Fields[field]
	return v, ok
}

// Known returns the value of a field when it holds real data,
// i.e. it is present, non-blank and not the sentinel.
func (e Entry) Known(field string) (string, bool) {
	v, ok := e.Fields[field]
	if !ok || IsBlank(v) || IsSentinel(v) {
		return "", false
	}
	return v, true
}

// SentinelFields returns the names of fields currently holding the sentinel,
// in the order given by fields.
func (e Entry) SentinelFields(fields []string) []string {
	var out []string
	for _, f := range fields {
		if IsSentinel(e.Fields[f]) {
			out = append(out, f)
		}
	}
	return out
}

// HasSentinel reports whether any field holds the sentinel.
func (e Entry) HasSentinel() bool {
	for _, v := range e.Fields {
		if IsSentinel(v) {
			return true
		}
	}
	return false
}

// NormalizeTitle reduces a title to a comparison key: lowercase with all
// whitespace and braces removed.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if r == '{' || r == '}' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
