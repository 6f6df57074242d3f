package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/prettybib/internal/reference"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()

	r.RecordLookup("dbpedia", OutcomeHit, 20*time.Millisecond)
	r.RecordLookup("dbpedia", OutcomeHit, 30*time.Millisecond)
	r.RecordLookup("dbpedia", OutcomeError, time.Second)
	r.RecordFill("dbpedia", "issn")
	r.RecordDiagnostics([]reference.Diagnostic{
		reference.Warnf("a1", reference.KindMissingField, "missing required field 'issn'"),
		reference.Errorf("a1", reference.KindDuplicateKey, "duplicate key 'a1'"),
	})

	assert.Equal(t, 2.0, counterValue(t, r, "prettybib_lookups_total", "source", "dbpedia", "outcome", OutcomeHit))
	assert.Equal(t, 1.0, counterValue(t, r, "prettybib_lookups_total", "source", "dbpedia", "outcome", OutcomeError))
	assert.Equal(t, 1.0, counterValue(t, r, "prettybib_fields_filled_total", "strategy", "dbpedia", "field", "issn"))
	assert.Equal(t, 1.0, counterValue(t, r, "prettybib_diagnostics_total", "severity", "error", "kind", "duplicate_key"))
}

// counterValue gathers r and returns the counter named name whose labels
// match the given name/value pairs.
func counterValue(t *testing.T, r *Recorder, name string, labelPairs ...string) float64 {
	t.Helper()
	families, err := r.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			for i := 0; i+1 < len(labelPairs); i += 2 {
				if labels[labelPairs[i]] != labelPairs[i+1] {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("no %s sample with labels %v", name, labelPairs)
	return 0
}

func TestRecorder_Nil(t *testing.T) {
	var r *Recorder
	r.RecordLookup("dbpedia", OutcomeHit, time.Millisecond)
	r.RecordFill("preprint", "issn")
	r.RecordRateLimit("dbpedia", time.Second)
	assert.NoError(t, r.WriteFile(filepath.Join(t.TempDir(), "unused.prom")))
	assert.Nil(t, r.Registry())
}

func TestRecorder_WriteFile(t *testing.T) {
	r := New()
	r.RecordEntries([]reference.Entry{{Status: reference.StatusComplete}})

	path := filepath.Join(t.TempDir(), "metrics.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `prettybib_entries_total{status="complete"} 1`), string(data))
}
