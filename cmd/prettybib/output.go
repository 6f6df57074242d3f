package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"

	"github.com/matsen/prettybib/internal/reference"
)

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SummaryResponse closes a JSON diagnostic stream.
type SummaryResponse struct {
	Entries  int                      `json:"entries"`
	Errors   int                      `json:"errors"`
	Warnings int                      `json:"warnings"`
	Statuses map[reference.Status]int `json:"statuses,omitempty"`
}

// outputJSONCompact writes a value as compact JSON to w.
func outputJSONCompact(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if jsonOutput {
		outputJSONCompact(os.Stderr, ErrorResponse{Error: msg})
	} else {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	}
	os.Exit(code)
}

// diagnosticPrinter writes diagnostics as colored text or JSON lines.
// Colors are dropped automatically when w is not a terminal.
type diagnosticPrinter struct {
	w    io.Writer
	json bool

	errStyle   lipgloss.Style
	warnStyle  lipgloss.Style
	keyStyle   lipgloss.Style
	mutedStyle lipgloss.Style
}

func newDiagnosticPrinter(w io.Writer, asJSON bool) *diagnosticPrinter {
	r := lipgloss.NewRenderer(w)
	return &diagnosticPrinter{
		w:          w,
		json:       asJSON,
		errStyle:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		warnStyle:  r.NewStyle().Foreground(lipgloss.Color("11")),
		keyStyle:   r.NewStyle().Bold(true),
		mutedStyle: r.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// Print writes one line per diagnostic.
func (p *diagnosticPrinter) Print(diags []reference.Diagnostic) error {
	for _, d := range diags {
		if p.json {
			if err := outputJSONCompact(p.w, d); err != nil {
				return err
			}
			continue
		}

		sev := p.warnStyle.Render(string(d.Severity))
		if d.Severity == reference.SeverityError {
			sev = p.errStyle.Render(string(d.Severity))
		}
		if _, err := fmt.Fprintf(p.w, "%s: %s: %s\n", sev, p.keyStyle.Render(d.Key), d.Message); err != nil {
			return err
		}
	}
	return nil
}

// Summary writes the closing totals line.
func (p *diagnosticPrinter) Summary(s SummaryResponse) error {
	if p.json {
		return outputJSONCompact(p.w, s)
	}
	line := fmt.Sprintf("%d entries, %d errors, %d warnings", s.Entries, s.Errors, s.Warnings)
	_, err := fmt.Fprintln(p.w, p.mutedStyle.Render(line))
	return err
}

// readInput reads the whole input document from path, or from stdin when
// path is empty or "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

// writeOutput writes text to path atomically, or to stdout when path is
// empty or "-". A partially written file never replaces an existing one.
func writeOutput(path, text string, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(text); err != nil {
		tmp.Close()
		return fmt.Errorf("writing output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing output: %w", err)
	}
	return nil
}
