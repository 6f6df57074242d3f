package reference

import "fmt"

// Severity of a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind classifies a diagnostic.
type Kind string

const (
	KindParseError          Kind = "parse_error"
	KindUndefinedMacro      Kind = "undefined_macro"
	KindUnknownType         Kind = "unknown_type"
	KindDuplicateKey        Kind = "duplicate_key"
	KindMissingField        Kind = "missing_field"
	KindEmptyField          Kind = "empty_field"
	KindExtraField          Kind = "extra_field"
	KindDuplicateTitle      Kind = "duplicate_title"
	KindPossibleMisspelling Kind = "possible_misspelling"
	KindEnrichmentFailed    Kind = "enrichment_failed"
	KindConflictingISSN     Kind = "conflicting_issn"
)

// Diagnostic is a problem found while normalizing an entry.
// Diagnostics never change entry data.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Key      string   `json:"key"`
	Kind     Kind     `json:"kind"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Key, d.Message)
}

// Errorf builds an error diagnostic.
func Errorf(key string, kind Kind, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityError, Key: key, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning diagnostic.
func Warnf(key string, kind Kind, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Key: key, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WithField returns a copy of d tagged with the offending field.
func (d Diagnostic) WithField(field string) Diagnostic {
	d.Field = field
	return d
}

// CountBySeverity tallies diagnostics by severity.
func CountBySeverity(diags []Diagnostic) (errors, warnings int) {
	for _, d := range diags {
		switch d.Severity {
		case SeverityError:
			errors++
		case SeverityWarning:
			warnings++
		}
	}
	return errors, warnings
}
