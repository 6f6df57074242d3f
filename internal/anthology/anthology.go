// Package anthology indexes known-paper BibTeX files by title so that fields
// missing from an entry can be copied from a curated copy of the same paper.
package anthology

import (
	"fmt"

	"github.com/matsen/prettybib/internal/importer"
	"github.com/matsen/prettybib/internal/reference"
)

// Index maps normalized titles to anthology entries.
type Index struct {
	byTitle map[string][]reference.Entry
	size    int
}

// New builds an index over entries. Entries without a usable title are skipped.
func New(entries []reference.Entry) *Index {
	idx := &Index{byTitle: make(map[string][]reference.Entry)}
	for _, e := range entries {
		title, ok := e.Known("title")
		if !ok {
			continue
		}
		key := reference.NormalizeTitle(title)
		idx.byTitle[key] = append(idx.byTitle[key], e)
		idx.size++
	}
	return idx
}

// Load parses each BibTeX file and indexes all entries across them.
// Files are indexed in the order given. Records the importer skips are not
// indexed.
func Load(paths ...string) (*Index, error) {
	var all []reference.Entry
	for _, path := range paths {
		doc, err := importer.ParseBibTeXFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading anthology: %w", err)
		}
		all = append(all, doc.Entries...)
	}
	return New(all), nil
}

// Find returns the anthology entries whose normalized title equals title's.
func (idx *Index) Find(title string) []reference.Entry {
	if idx == nil {
		return nil
	}
	return idx.byTitle[reference.NormalizeTitle(title)]
}

// Len returns the number of indexed entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.size
}
