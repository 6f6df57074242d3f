// Package importer turns BibTeX documents into reference entries.
//
// A document is cut into top-level records first and each record is parsed
// on its own, so one malformed record is reported and skipped without losing
// the rest of the file.
package importer

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/nickng/bibtex"

	"github.com/matsen/prettybib/internal/reference"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// months are the macros the parser predefines.
var months = map[string]bool{
	"jan": true, "feb": true, "mar": true, "apr": true, "may": true, "jun": true,
	"jul": true, "aug": true, "sep": true, "oct": true, "nov": true, "dec": true,
}

// Document is a parsed BibTeX file.
type Document struct {
	Entries     []reference.Entry      // In input order, Index set
	Diagnostics []reference.Diagnostic // Records skipped or macros left unresolved
}

// ParseBibTeX reads and parses a BibTeX document. Only a read failure is an
// error; problems with individual records become diagnostics.
func ParseBibTeX(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading BibTeX: %w", err)
	}
	return ParseBibTeXBytes(data), nil
}

// ParseBibTeXFile reads and parses the BibTeX file at path.
func ParseBibTeXFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return ParseBibTeXBytes(data), nil
}

// ParseBibTeXBytes parses an in-memory document.
//
// Types and field names are lowercased and runs of whitespace inside values
// collapse to a single space. @string macros apply to the records after
// them; an undefined macro is kept as its own name and reported.
// @comment and @preamble records are dropped.
func ParseBibTeXBytes(data []byte) *Document {
	p := &docParser{macros: make(map[string]string)}
	for _, rec := range splitRecords(string(data)) {
		p.record(rec)
	}
	return &p.doc
}

// docParser carries @string definitions from one record to the next.
type docParser struct {
	doc    Document
	macros map[string]string // lowercased name -> masked value
}

func (p *docParser) record(rec record) {
	if !rec.closed {
		p.fail(rec, fmt.Errorf("missing closing delimiter"))
		return
	}

	switch rec.kind {
	case "comment", "preamble":
		return
	case "string":
		p.defineMacro(rec)
	default:
		p.entry(rec)
	}
}

func (p *docParser) entry(rec record) {
	key := rec.key()
	body, used := rewrite(rec.body)
	if !strings.Contains(body, ",") {
		// The parser wants a comma after the key even with no fields.
		body += ","
	}

	bib, err := parseSource(p.declare(key, used) + "@" + rec.kind + "{" + body + "}")
	if err != nil {
		p.fail(rec, err)
		return
	}
	if len(bib.Entries) != 1 {
		p.fail(rec, fmt.Errorf("expected one entry, parsed %d", len(bib.Entries)))
		return
	}

	e := convertEntry(len(p.doc.Entries), bib.Entries[0])
	p.doc.Entries = append(p.doc.Entries, e)
}

func (p *docParser) defineMacro(rec record) {
	eq := strings.IndexByte(rec.body, '=')
	if eq < 0 {
		p.fail(rec, fmt.Errorf("@string without '='"))
		return
	}
	name := strings.TrimSpace(rec.body[:eq])
	body, used := rewrite(rec.body)

	bib, err := parseSource(p.declare(name, used) + "@string{" + body + "}")
	if err != nil {
		p.fail(rec, err)
		return
	}
	v, ok := bib.StringVar[name]
	if !ok || v.Value == nil {
		p.fail(rec, fmt.Errorf("@string %q not parsed", name))
		return
	}
	p.macros[strings.ToLower(name)] = v.Value.String()
}

// declare returns @string definitions for every macro in used, so that the
// parser never meets an undefined name. Undefined names stand for themselves
// and are reported against key.
func (p *docParser) declare(key string, used []string) string {
	var b strings.Builder
	for _, name := range used {
		value, ok := p.macros[name]
		if !ok {
			if months[name] {
				continue
			}
			value = name
			p.doc.Diagnostics = append(p.doc.Diagnostics, reference.Warnf(key, reference.KindUndefinedMacro,
				"undefined macro '%s' kept as text", name))
		}
		fmt.Fprintf(&b, "@string{%s = {%s}}\n", name, value)
	}
	return b.String()
}

func (p *docParser) fail(rec record, err error) {
	key := rec.key()
	if key == "" {
		key = fmt.Sprintf("line %d", rec.line)
	}
	p.doc.Diagnostics = append(p.doc.Diagnostics, reference.Errorf(key, reference.KindParseError,
		"skipped @%s record at line %d: %s", rec.kind, rec.line, unmask(err.Error())))
}

// parseMu serializes parser calls: the parser keeps its state in package
// variables.
var parseMu sync.Mutex

// parseSource parses one self-contained source. After a failure the parser's
// field state is cleared so that the next call starts clean.
func parseSource(src string) (*bibtex.BibTex, error) {
	parseMu.Lock()
	defer parseMu.Unlock()

	bib, err := bibtex.Parse(strings.NewReader(src))
	if err != nil {
		_, _ = bibtex.Parse(strings.NewReader("}"))
		return nil, err
	}
	return bib, nil
}

// convertEntry maps a parsed BibTeX entry to our Entry type.
func convertEntry(index int, be *bibtex.BibEntry) reference.Entry {
	fields := make(map[string]string, len(be.Fields))
	for name, value := range be.Fields {
		if value == nil {
			continue
		}
		fields[strings.ToLower(strings.TrimSpace(name))] = NormalizeValue(unmask(value.String()))
	}

	return reference.Entry{
		Type:   strings.ToLower(strings.TrimSpace(be.Type)),
		Key:    strings.TrimSpace(be.CiteName),
		Fields: fields,
		Index:  index,
	}
}

// NormalizeValue collapses whitespace runs and trims the ends.
func NormalizeValue(v string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(v, " "))
}
