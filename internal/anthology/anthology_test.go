package anthology

import (
	"os"
	"path/filepath"
	"testing"
)

const anthologyBib = `@article{ref1,
  title = {Phylogenetic {Inference} via Sequential Monte Carlo},
  journal = {Systematic Biology},
  issn = {1063-5157},
  year = {2012}
}

@book{ref2,
  title = {TODO},
  publisher = {Springer}
}
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anthology.bib")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadAndFind(t *testing.T) {
	idx, err := Load(writeFile(t, anthologyBib))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if idx.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (sentinel titles are not indexed)", idx.Len())
	}

	got := idx.Find("phylogenetic inference  via sequential monte carlo")
	if len(got) != 1 {
		t.Fatalf("Find() returned %d entries, want 1", len(got))
	}
	if got[0].Fields["issn"] != "1063-5157" {
		t.Errorf("Find()[0].issn = %q, want 1063-5157", got[0].Fields["issn"])
	}

	if got := idx.Find("Something Else"); got != nil {
		t.Errorf("Find(unknown) = %v, want nil", got)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.bib")); err == nil {
		t.Error("Load() expected error for missing file")
	}
}

func TestNilIndex(t *testing.T) {
	var idx *Index
	if idx.Find("x") != nil || idx.Len() != 0 {
		t.Error("nil index should behave as empty")
	}
}
