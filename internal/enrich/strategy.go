package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matsen/prettybib/internal/dbpedia"
	"github.com/matsen/prettybib/internal/openlibrary"
	"github.com/matsen/prettybib/internal/reference"
	"github.com/matsen/prettybib/internal/schema"
)

// PreprintISSN is the ISSN of the arXiv preprint series.
const PreprintISSN = "2331-8422"

// Strategy names, in the order they are tried.
const (
	StrategyPreprint          = "preprint"
	StrategyCollection        = "collection"
	StrategyAnthology         = "anthology"
	StrategyDBpedia           = "dbpedia"
	StrategyOpenLibraryISBN   = "openlibrary-isbn"
	StrategyOpenLibrarySearch = "openlibrary-search"
)

// strategy fills some fields of an entry from one source.
type strategy struct {
	name string

	// local strategies answer from in-process data; a miss is not a failure.
	local bool

	// targets lists the fields the strategy could fill for en, or nil when
	// it does not apply. Callers filter the list with canFill.
	targets func(en reference.Entry) []string

	resolve func(ctx context.Context, en reference.Entry) (map[string]string, error)
}

// strategies returns the configured strategies in their fixed order:
// static rules first, then data already in hand, then remote services.
func (e *Enricher) strategies(b *batch) []strategy {
	list := []strategy{
		{
			name:    StrategyPreprint,
			local:   true,
			targets: articleISSN(isPreprintJournal),
			resolve: func(context.Context, reference.Entry) (map[string]string, error) {
				return map[string]string{"issn": PreprintISSN}, nil
			},
		},
		{
			name:    StrategyCollection,
			local:   true,
			targets: articleISSN(nil),
			resolve: func(_ context.Context, en reference.Entry) (map[string]string, error) {
				journal, _ := en.Known("journal")
				issn, ok := b.issnByJournal[journalKey(journal)]
				if !ok {
					return nil, ErrNoMatch
				}
				return map[string]string{"issn": issn}, nil
			},
		},
	}

	if e.anthology.Len() > 0 {
		list = append(list, strategy{
			name:    StrategyAnthology,
			local:   true,
			targets: e.anthologyTargets,
			resolve: e.resolveAnthology,
		})
	}
	if e.journals != nil {
		list = append(list, strategy{
			name:    StrategyDBpedia,
			targets: articleISSN(nil),
			resolve: e.resolveDBpedia,
		})
	}
	if e.books != nil {
		list = append(list,
			strategy{
				name:    StrategyOpenLibraryISBN,
				targets: bookByISBNTargets,
				resolve: e.resolveBookByISBN,
			},
			strategy{
				name:    StrategyOpenLibrarySearch,
				targets: bookSearchTargets,
				resolve: e.resolveBookSearch,
			},
		)
	}
	return list
}

// articleISSN targets the issn of an article with a known journal that
// also satisfies match, if given.
func articleISSN(match func(journal string) bool) func(reference.Entry) []string {
	return func(en reference.Entry) []string {
		if schema.Parse(en.Type) != schema.Article {
			return nil
		}
		journal, ok := en.Known("journal")
		if !ok || (match != nil && !match(journal)) {
			return nil
		}
		return []string{"issn"}
	}
}

func isPreprintJournal(journal string) bool {
	j := strings.ToLower(strings.Trim(journal, "{} "))
	return j == "corr" || strings.HasPrefix(j, "arxiv")
}

func (e *Enricher) anthologyTargets(en reference.Entry) []string {
	if _, ok := en.Known("title"); !ok {
		return nil
	}
	return requiredSentinels(en)
}

// resolveAnthology copies fields from anthology entries with the same
// title. Copies that disagree on a field are ambiguous for that field.
func (e *Enricher) resolveAnthology(_ context.Context, en reference.Entry) (map[string]string, error) {
	title, _ := en.Known("title")
	matches := e.anthology.Find(title)
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}

	values := make(map[string]string)
	var ambiguous []string
	for _, f := range requiredSentinels(en) {
		v, err := agree(matches, f)
		switch {
		case err == nil:
			values[f] = v
		case errors.Is(err, ErrAmbiguous):
			ambiguous = append(ambiguous, f)
		}
	}
	if len(values) == 0 && len(ambiguous) > 0 {
		return nil, fmt.Errorf("%w: anthology copies disagree on %s", ErrAmbiguous, strings.Join(ambiguous, ", "))
	}
	if len(values) == 0 {
		return nil, ErrNoMatch
	}
	return values, nil
}

// agree returns the single known value of field across entries.
func agree(entries []reference.Entry, field string) (string, error) {
	value := ""
	for _, m := range entries {
		v, ok := m.Known(field)
		if !ok {
			continue
		}
		if value != "" && v != value {
			return "", ErrAmbiguous
		}
		value = v
	}
	if value == "" {
		return "", ErrNoMatch
	}
	return value, nil
}

// resolveDBpedia looks the journal name up in DBpedia. Each matching
// journal contributes its first ISSN; journals that disagree are ambiguous.
func (e *Enricher) resolveDBpedia(ctx context.Context, en reference.Entry) (map[string]string, error) {
	journal, _ := en.Known("journal")
	name := strings.Trim(journal, "{}")

	journals, err := remote(ctx, e, gateDBpedia, StrategyDBpedia, name, func(ctx context.Context) ([]dbpedia.Journal, error) {
		return e.journals.JournalISSN(ctx, name)
	})
	if err != nil {
		return nil, err
	}

	issn := ""
	for _, j := range journals {
		if len(j.ISSNs) == 0 {
			continue
		}
		if issn != "" && j.ISSNs[0] != issn {
			return nil, fmt.Errorf("%w: %d journals named '%s'", ErrAmbiguous, len(journals), name)
		}
		issn = j.ISSNs[0]
	}
	if issn == "" {
		return nil, ErrNoMatch
	}
	return map[string]string{"issn": issn}, nil
}

func bookByISBNTargets(en reference.Entry) []string {
	if schema.Parse(en.Type) != schema.Book {
		return nil
	}
	isbn, ok := en.Known("isbn")
	if !ok || openlibrary.NormalizeISBN(isbn) == "" {
		return nil
	}
	return []string{"publisher", "year"}
}

// resolveBookByISBN fetches the edition for a known ISBN.
func (e *Enricher) resolveBookByISBN(ctx context.Context, en reference.Entry) (map[string]string, error) {
	isbn, _ := en.Known("isbn")
	isbn = openlibrary.NormalizeISBN(isbn)

	book, err := remote(ctx, e, gateOpenLibrary, StrategyOpenLibraryISBN, isbn, func(ctx context.Context) (*openlibrary.Book, error) {
		return e.books.BookByISBN(ctx, isbn)
	})
	if err != nil {
		return nil, err
	}
	return bookValues(*book, false), nil
}

func bookSearchTargets(en reference.Entry) []string {
	if schema.Parse(en.Type) != schema.Book || !canFill(en, "isbn") {
		return nil
	}
	if _, ok := en.Known("title"); !ok {
		return nil
	}
	return []string{"isbn", "publisher", "year"}
}

// resolveBookSearch searches by title and first author surname and takes
// the most relevant result whose title matches exactly after normalization.
func (e *Enricher) resolveBookSearch(ctx context.Context, en reference.Entry) (map[string]string, error) {
	title, _ := en.Known("title")
	title = strings.NewReplacer("{", "", "}", "").Replace(title)
	author := ""
	if a, ok := en.Known("author"); ok {
		author = reference.FirstAuthorSurname(a)
	}

	query := reference.NormalizeTitle(title) + "|" + strings.ToLower(author)
	books, err := remote(ctx, e, gateOpenLibrary, StrategyOpenLibrarySearch, query, func(ctx context.Context) ([]openlibrary.Book, error) {
		return e.books.SearchBook(ctx, title, author)
	})
	if err != nil {
		return nil, err
	}

	want := reference.NormalizeTitle(title)
	for _, b := range books {
		if reference.NormalizeTitle(b.Title) == want {
			return bookValues(b, true), nil
		}
	}
	return nil, fmt.Errorf("%w: no result titled '%s'", ErrNoMatch, title)
}

// bookValues maps a book to entry fields, skipping unknown values.
func bookValues(b openlibrary.Book, withISBN bool) map[string]string {
	values := make(map[string]string)
	if len(b.Publishers) > 0 {
		values["publisher"] = b.Publishers[0]
	}
	if b.Year != "" {
		values["year"] = b.Year
	}
	if withISBN {
		if isbn := preferredISBN(b.ISBNs); isbn != "" {
			values["isbn"] = isbn
		}
	}
	return values
}

// preferredISBN picks the first ISBN-13, falling back to the first ISBN-10.
func preferredISBN(isbns []string) string {
	fallback := ""
	for _, raw := range isbns {
		isbn := openlibrary.NormalizeISBN(raw)
		switch {
		case len(isbn) == 13:
			return isbn
		case isbn != "" && fallback == "":
			fallback = isbn
		}
	}
	return fallback
}
