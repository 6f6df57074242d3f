package export

import (
	"strings"
	"testing"

	"github.com/matsen/prettybib/internal/importer"
	"github.com/matsen/prettybib/internal/reference"
)

func TestToBibTeX_BasicArticle(t *testing.T) {
	e := reference.Entry{
		Type: "Article",
		Key:  "smith2020",
		Fields: map[string]string{
			"year":     "2020",
			"keywords": "ml",
			"title":    "A Study",
			"author":   "Smith, John",
			"journal":  "Nature",
			"issn":     reference.Sentinel,
			"volume":   "581",
			"abstract": "Text",
		},
	}

	got := ToBibTeX(e)
	want := `@article{smith2020,
  author   = {Smith, John},
  title    = {A Study},
  journal  = {Nature},
  year     = {2020},
  issn     = {TODO},
  volume   = {581},
  abstract = {Text},
  keywords = {ml},
}
`
	if got != want {
		t.Errorf("ToBibTeX() =\n%s\nwant:\n%s", got, want)
	}
}

func TestToBibTeX_NoFields(t *testing.T) {
	got := ToBibTeX(reference.Entry{Type: "misc", Key: "empty", Fields: map[string]string{}})
	if got != "@misc{empty,\n}\n" {
		t.Errorf("ToBibTeX() = %q", got)
	}
}

func TestToBibTeX_UnknownTypeSortsAllFields(t *testing.T) {
	e := reference.Entry{Type: "webpage", Key: "w", Fields: map[string]string{"url": "u", "title": "t"}}
	got := ToBibTeX(e)
	if strings.Index(got, "title") > strings.Index(got, "url") {
		t.Errorf("unknown type fields should be alphabetical, got:\n%s", got)
	}
}

func TestToBibTeXList_SortsByKey(t *testing.T) {
	entries := []reference.Entry{
		{Type: "misc", Key: "b1", Fields: map[string]string{}, Index: 0},
		{Type: "misc", Key: "a1", Fields: map[string]string{}, Index: 1},
		{Type: "misc", Key: "c1", Fields: map[string]string{}, Index: 2},
	}

	got := ToBibTeXList(entries)
	want := "@misc{a1,\n}\n\n@misc{b1,\n}\n\n@misc{c1,\n}\n"
	if got != want {
		t.Errorf("ToBibTeXList() = %q, want %q", got, want)
	}
}

func TestToBibTeXList_ByteOrder(t *testing.T) {
	entries := []reference.Entry{
		{Type: "misc", Key: "b", Fields: map[string]string{}, Index: 0},
		{Type: "misc", Key: "B", Fields: map[string]string{}, Index: 1},
		{Type: "misc", Key: "a", Fields: map[string]string{}, Index: 2},
	}
	sorted := SortEntries(entries)
	var keys []string
	for _, e := range sorted {
		keys = append(keys, e.Key)
	}
	if strings.Join(keys, ",") != "B,a,b" {
		t.Errorf("SortEntries() keys = %v, want [B a b]", keys)
	}
}

func TestToBibTeXList_DuplicateKeysKeepInputOrder(t *testing.T) {
	entries := []reference.Entry{
		{Type: "misc", Key: "smith2020", Fields: map[string]string{"note": "second"}, Index: 1},
		{Type: "misc", Key: "smith2020", Fields: map[string]string{"note": "first"}, Index: 0},
	}
	got := ToBibTeXList(entries)
	if strings.Index(got, "first") > strings.Index(got, "second") {
		t.Errorf("duplicates should be ordered by input position, got:\n%s", got)
	}
}

func TestToBibTeXList_Deterministic(t *testing.T) {
	entries := []reference.Entry{
		{Type: "article", Key: "x", Fields: map[string]string{"title": "T", "zeta": "1", "alpha": "2", "year": "2020"}, Index: 0},
		{Type: "book", Key: "a", Fields: map[string]string{"isbn": "1", "publisher": "P"}, Index: 1},
	}
	reversed := []reference.Entry{entries[1], entries[0]}

	first := ToBibTeXList(entries)
	for i := 0; i < 20; i++ {
		if got := ToBibTeXList(reversed); got != first {
			t.Fatalf("ToBibTeXList() not stable:\n%s\nvs\n%s", got, first)
		}
	}
}

func TestToBibTeXList_Empty(t *testing.T) {
	if got := ToBibTeXList(nil); got != "" {
		t.Errorf("ToBibTeXList(nil) = %q, want empty", got)
	}
}

func TestFieldOrder(t *testing.T) {
	e := reference.Entry{Type: "book", Fields: map[string]string{
		"isbn": "1", "note": "n", "author": "A", "edition": "2", "custom": "c",
	}}
	got := strings.Join(FieldOrder(e), ",")
	want := "author,isbn,edition,note,custom"
	if got != want {
		t.Errorf("FieldOrder() = %s, want %s", got, want)
	}
}

func TestToBibTeX_QuotedValueRoundTrip(t *testing.T) {
	src := `@misc{bert,
  title = "{BERT}: Pre-training of Deep Bidirectional Transformers",
  note  = "see {@}home"
}
`
	doc := importer.ParseBibTeXBytes([]byte(src))
	if len(doc.Entries) != 1 || len(doc.Diagnostics) != 0 {
		t.Fatalf("parse = %d entries, diagnostics %v", len(doc.Entries), doc.Diagnostics)
	}

	out := ToBibTeX(doc.Entries[0])
	if !strings.Contains(out, "title = {{BERT}: Pre-training of Deep Bidirectional Transformers},") {
		t.Errorf("ToBibTeX() lost the protected braces:\n%s", out)
	}

	again := importer.ParseBibTeXBytes([]byte(out))
	if len(again.Entries) != 1 {
		t.Fatalf("reparse = %d entries, diagnostics %v", len(again.Entries), again.Diagnostics)
	}
	if got := ToBibTeX(again.Entries[0]); got != out {
		t.Errorf("second pass =\n%s\nwant:\n%s", got, out)
	}
}
