package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/prettybib/internal/reference"
)

func TestReadInput(t *testing.T) {
	t.Run("stdin when path empty", func(t *testing.T) {
		data, err := readInput("", strings.NewReader("@misc{a, title={T}}"))
		if err != nil {
			t.Fatalf("readInput() error = %v", err)
		}
		if string(data) != "@misc{a, title={T}}" {
			t.Errorf("readInput() = %q", data)
		}
	})

	t.Run("stdin when path is dash", func(t *testing.T) {
		data, err := readInput("-", strings.NewReader("x"))
		if err != nil {
			t.Fatalf("readInput() error = %v", err)
		}
		if string(data) != "x" {
			t.Errorf("readInput() = %q", data)
		}
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "refs.bib")
		if err := os.WriteFile(path, []byte("contents"), 0644); err != nil {
			t.Fatal(err)
		}
		data, err := readInput(path, strings.NewReader("ignored"))
		if err != nil {
			t.Fatalf("readInput() error = %v", err)
		}
		if string(data) != "contents" {
			t.Errorf("readInput() = %q", data)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readInput(filepath.Join(t.TempDir(), "nope.bib"), nil)
		if err == nil {
			t.Error("readInput() expected error for missing file")
		}
	})
}

func TestWriteOutput(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		if err := writeOutput("", "hello\n", &buf); err != nil {
			t.Fatalf("writeOutput() error = %v", err)
		}
		if buf.String() != "hello\n" {
			t.Errorf("stdout = %q", buf.String())
		}
	})

	t.Run("replaces existing file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "refs.bib")
		if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
			t.Fatal(err)
		}

		if err := writeOutput(path, "new", nil); err != nil {
			t.Fatalf("writeOutput() error = %v", err)
		}

		got, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "new" {
			t.Errorf("file = %q, want %q", got, "new")
		}

		// No temp files left behind
		files, _ := os.ReadDir(dir)
		if len(files) != 1 {
			t.Errorf("dir has %d files, want 1", len(files))
		}
	})

	t.Run("missing directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing", "refs.bib")
		if err := writeOutput(path, "x", nil); err == nil {
			t.Error("writeOutput() expected error for missing directory")
		}
	})
}

func TestDiagnosticPrinter(t *testing.T) {
	diags := []reference.Diagnostic{
		reference.Errorf("dup", reference.KindDuplicateKey, "duplicate key"),
		reference.Warnf("knuth84", reference.KindMissingField, "missing required field 'journal'").WithField("journal"),
	}
	summary := SummaryResponse{Entries: 2, Errors: 1, Warnings: 1}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		p := newDiagnosticPrinter(&buf, false)
		if err := p.Print(diags); err != nil {
			t.Fatal(err)
		}
		if err := p.Summary(summary); err != nil {
			t.Fatal(err)
		}

		want := "error: dup: duplicate key\n" +
			"warning: knuth84: missing required field 'journal'\n" +
			"2 entries, 1 errors, 1 warnings\n"
		if buf.String() != want {
			t.Errorf("output =\n%s\nwant\n%s", buf.String(), want)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p := newDiagnosticPrinter(&buf, true)
		if err := p.Print(diags); err != nil {
			t.Fatal(err)
		}
		if err := p.Summary(summary); err != nil {
			t.Fatal(err)
		}

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want 3", len(lines))
		}

		var d reference.Diagnostic
		if err := json.Unmarshal([]byte(lines[1]), &d); err != nil {
			t.Fatalf("line 2 not JSON: %v", err)
		}
		if d.Key != "knuth84" || d.Field != "journal" || d.Severity != reference.SeverityWarning {
			t.Errorf("decoded diagnostic = %+v", d)
		}

		var s SummaryResponse
		if err := json.Unmarshal([]byte(lines[2]), &s); err != nil {
			t.Fatalf("summary not JSON: %v", err)
		}
		if s.Entries != 2 || s.Errors != 1 {
			t.Errorf("decoded summary = %+v", s)
		}
	})
}
