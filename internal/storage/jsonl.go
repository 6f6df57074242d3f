// Package storage handles persistence: the SQLite lookup cache and JSONL
// status reports.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/matsen/prettybib/internal/reference"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// StatusRecord is one line of a status report: where a single entry ended up.
type StatusRecord struct {
	Index     int              `json:"index"`
	Key       string           `json:"key"`
	Type      string           `json:"type"`
	Status    reference.Status `json:"status"`
	Missing   []string         `json:"missing,omitempty"`   // Required fields absent from the input
	Sentinels []string         `json:"sentinels,omitempty"` // Fields still holding the sentinel
}

// BuildReport summarizes entries in the order given.
func BuildReport(entries []reference.Entry) []StatusRecord {
	records := make([]StatusRecord, 0, len(entries))
	for _, e := range entries {
		var sentinels []string
		for name, v := range e.Fields {
			if reference.IsSentinel(v) {
				sentinels = append(sentinels, name)
			}
		}
		sort.Strings(sentinels)
		records = append(records, StatusRecord{
			Index:     e.Index,
			Key:       e.Key,
			Type:      e.Type,
			Status:    e.Status,
			Missing:   e.Missing,
			Sentinels: sentinels,
		})
	}
	return records
}

// WriteReport writes records as JSON lines.
func WriteReport(w io.Writer, records []StatusRecord) error {
	bw := bufio.NewWriter(w)
	for i, rec := range records {
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encoding record %d: %w", i, err)
		}
		if _, err := bw.Write(data); err != nil {
			return fmt.Errorf("writing record %d: %w", i, err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}
	return bw.Flush()
}

// WriteReportFile writes records to a JSONL file, replacing existing content.
func WriteReportFile(path string, records []StatusRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}
	if err := WriteReport(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadReport reads all records from a JSONL report file.
func ReadReport(path string) ([]StatusRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening report file: %w", err)
	}
	defer f.Close()

	var records []StatusRecord
	scanner := bufio.NewScanner(f)
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec StatusRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading report file: %w", err)
	}

	return records, nil
}
