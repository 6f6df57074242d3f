// Package dbpedia queries the DBpedia SPARQL endpoint for journal metadata.
package dbpedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	// Endpoint is the public DBpedia SPARQL endpoint.
	Endpoint = "https://dbpedia.org/sparql"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// UserAgent identifies the client to the endpoint.
	UserAgent = "prettybib/1.0"
)

// issnQuery finds academic journals whose label is exactly the given name.
const issnQuery = `PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>
PREFIX dbo: <http://dbpedia.org/ontology/>
SELECT ?journal ?issn
WHERE {
  ?journal a dbo:AcademicJournal ;
           rdfs:label ?journal_name ;
           dbo:issn ?issn .
  FILTER(str(?journal_name) = "%s")
}`

// Journal is one academic journal matched by name.
type Journal struct {
	Resource string   `json:"resource"` // DBpedia resource URI
	ISSNs    []string `json:"issns"`    // Sorted, deduplicated
}

// Client is an HTTP client for the DBpedia SPARQL endpoint.
type Client struct {
	httpClient *http.Client
	endpoint   string
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

// WithEndpoint sets a custom SPARQL endpoint (for testing or mirrors).
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithContact appends a contact address to the User-Agent header.
func WithContact(contact string) ClientOption {
	return func(c *Client) {
		if contact != "" {
			c.userAgent = fmt.Sprintf("%s (mailto:%s)", UserAgent, contact)
		}
	}
}

// NewClient creates a new DBpedia client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		endpoint:   Endpoint,
		userAgent:  UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// sparqlResponse is the SPARQL 1.1 JSON results format.
type sparqlResponse struct {
	Results struct {
		Bindings []map[string]struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"bindings"`
	} `json:"results"`
}

// JournalISSN looks up the ISSNs of academic journals labelled exactly name.
// Journals are returned sorted by resource URI. ErrNotFound is returned when
// nothing matches.
func (c *Client) JournalISSN(ctx context.Context, name string) ([]Journal, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNotFound
	}

	q := url.Values{}
	q.Set("query", fmt.Sprintf(issnQuery, escapeLiteral(name)))
	q.Set("format", "application/sparql-results+json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetworkError, err)
	}
	defer resp.Body.Close()

	if err := checkHTTPErrors(resp); err != nil {
		return nil, err
	}

	var body sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decoding results: %v", ErrInvalidResponse, err)
	}

	journals := groupBindings(body)
	if len(journals) == 0 {
		return nil, ErrNotFound
	}
	return journals, nil
}

// groupBindings folds (journal, issn) rows into one Journal per resource.
func groupBindings(body sparqlResponse) []Journal {
	byResource := make(map[string]map[string]bool)
	for _, b := range body.Results.Bindings {
		resource := b["journal"].Value
		issn := strings.TrimSpace(b["issn"].Value)
		if resource == "" || issn == "" {
			continue
		}
		if byResource[resource] == nil {
			byResource[resource] = make(map[string]bool)
		}
		byResource[resource][issn] = true
	}

	journals := make([]Journal, 0, len(byResource))
	for resource, set := range byResource {
		issns := make([]string, 0, len(set))
		for issn := range set {
			issns = append(issns, issn)
		}
		sort.Strings(issns)
		journals = append(journals, Journal{Resource: resource, ISSNs: issns})
	}
	sort.Slice(journals, func(i, j int) bool { return journals[i].Resource < journals[j].Resource })
	return journals
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(msg)),
		}
	}
	return nil
}

// escapeLiteral escapes a value for use inside a double-quoted SPARQL literal.
func escapeLiteral(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
	)
	return r.Replace(s)
}
