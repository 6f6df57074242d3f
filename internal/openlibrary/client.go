// Package openlibrary looks up book metadata in the Open Library API.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// BaseURL is the Open Library base URL.
	BaseURL = "https://openlibrary.org"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// UserAgent identifies the client; Open Library asks for a contact address.
	UserAgent = "prettybib/1.0"

	// DefaultSearchLimit caps the number of search results requested.
	DefaultSearchLimit = 5

	searchFields = "title,author_name,publisher,first_publish_year,isbn"
)

var yearPattern = regexp.MustCompile(`\b(1[5-9]|20)\d{2}\b`)

// Book is the subset of Open Library metadata we use.
type Book struct {
	Title      string   `json:"title"`
	Authors    []string `json:"authors,omitempty"`
	Publishers []string `json:"publishers,omitempty"`
	Year       string   `json:"year,omitempty"`
	ISBNs      []string `json:"isbns,omitempty"`
}

// Client is an HTTP client for the Open Library API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithContact appends a contact address to the User-Agent header.
func WithContact(contact string) ClientOption {
	return func(c *Client) {
		if contact != "" {
			c.userAgent = fmt.Sprintf("%s (%s)", UserAgent, contact)
		}
	}
}

// NewClient creates a new Open Library client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    BaseURL,
		userAgent:  UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BookByISBN fetches the edition identified by isbn.
func (c *Client) BookByISBN(ctx context.Context, isbn string) (*Book, error) {
	isbn = NormalizeISBN(isbn)
	if isbn == "" {
		return nil, ErrNotFound
	}

	q := url.Values{}
	q.Set("bibkeys", "ISBN:"+isbn)
	q.Set("format", "json")
	q.Set("jscmd", "data")

	var body map[string]struct {
		Title      string `json:"title"`
		Publishers []struct {
			Name string `json:"name"`
		} `json:"publishers"`
		PublishDate string `json:"publish_date"`
		Authors     []struct {
			Name string `json:"name"`
		} `json:"authors"`
		Identifiers struct {
			ISBN13 []string `json:"isbn_13"`
			ISBN10 []string `json:"isbn_10"`
		} `json:"identifiers"`
	}
	if err := c.get(ctx, "/api/books", q, isbn, &body); err != nil {
		return nil, err
	}

	data, ok := body["ISBN:"+isbn]
	if !ok {
		return nil, ErrNotFound
	}

	book := &Book{
		Title: strings.TrimSpace(data.Title),
		Year:  ExtractYear(data.PublishDate),
	}
	for _, p := range data.Publishers {
		if name := strings.TrimSpace(p.Name); name != "" {
			book.Publishers = append(book.Publishers, name)
		}
	}
	for _, a := range data.Authors {
		book.Authors = append(book.Authors, a.Name)
	}
	book.ISBNs = append(book.ISBNs, data.Identifiers.ISBN13...)
	book.ISBNs = append(book.ISBNs, data.Identifiers.ISBN10...)
	if len(book.ISBNs) == 0 {
		book.ISBNs = []string{isbn}
	}

	return book, nil
}

// SearchBook searches by title and author, returning results in Open
// Library's relevance order. ErrNotFound is returned when nothing matches.
func (c *Client) SearchBook(ctx context.Context, title, author string) ([]Book, error) {
	q := url.Values{}
	if t := strings.TrimSpace(title); t != "" {
		q.Set("title", t)
	}
	if a := strings.TrimSpace(author); a != "" {
		q.Set("author", a)
	}
	if len(q) == 0 {
		return nil, ErrNotFound
	}
	q.Set("limit", strconv.Itoa(DefaultSearchLimit))
	q.Set("fields", searchFields)

	var body struct {
		NumFound int `json:"numFound"`
		Docs     []struct {
			Title            string   `json:"title"`
			AuthorName       []string `json:"author_name"`
			Publisher        []string `json:"publisher"`
			FirstPublishYear int      `json:"first_publish_year"`
			ISBN             []string `json:"isbn"`
		} `json:"docs"`
	}
	if err := c.get(ctx, "/search.json", q, title, &body); err != nil {
		return nil, err
	}

	if len(body.Docs) == 0 {
		return nil, ErrNotFound
	}

	books := make([]Book, 0, len(body.Docs))
	for _, d := range body.Docs {
		b := Book{
			Title:      strings.TrimSpace(d.Title),
			Authors:    d.AuthorName,
			Publishers: d.Publisher,
			ISBNs:      d.ISBN,
		}
		if d.FirstPublishYear > 0 {
			b.Year = strconv.Itoa(d.FirstPublishYear)
		}
		books = append(books, b)
	}
	return books, nil
}

// get issues a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, queryLabel string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
			Query:      queryLabel,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// NormalizeISBN strips hyphens and spaces and uppercases a trailing X.
// It returns "" when the result is not 10 or 13 characters long.
func NormalizeISBN(isbn string) string {
	var b strings.Builder
	for _, r := range isbn {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	s := b.String()
	if len(s) != 10 && len(s) != 13 {
		return ""
	}
	return s
}

// ExtractYear pulls a four-digit year out of a free-form date like
// "March 1964" or "1964-03-01".
func ExtractYear(date string) string {
	return yearPattern.FindString(date)
}
