// Package metadata looks up book details in OpenLibrary for the book form.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

const userAgent = "LiteraryLinc/1.0"

// DefaultBaseURL is the public OpenLibrary API.
const DefaultBaseURL = "https://openlibrary.org"

// BookMetadata is one search hit, shaped to prefill a Book.
type BookMetadata struct {
	Title           string `json:"title"`
	Author          string `json:"author,omitempty"`
	ISBN            string `json:"isbn,omitempty"`
	PublicationYear int    `json:"publication_year,omitempty"`
	PageCount       int    `json:"page_count,omitempty"`
	CoverURL        string `json:"cover_url,omitempty"`
	OpenLibraryKey  string `json:"open_library_key,omitempty"`
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since := time.Since(r.lastCall); since < r.interval {
		timer := time.NewTimer(r.interval - since)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewOpenLibraryClient creates a new OpenLibrary API client with rate limiting.
// An empty baseURL uses DefaultBaseURL.
func NewOpenLibraryClient(baseURL string) *OpenLibraryClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &OpenLibraryClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: newRateLimiter(time.Second), // 1 request per second
	}
}

// Search runs a free-text query and returns up to limit results.
func (c *OpenLibraryClient) Search(ctx context.Context, query string, limit int) ([]BookMetadata, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("fields", "key,title,author_name,first_publish_year,isbn,cover_i,number_of_pages_median")

	var searchResult openLibrarySearchResult
	if err := c.getJSON(ctx, "/search.json?"+params.Encode(), &searchResult); err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}

	results := make([]BookMetadata, 0, len(searchResult.Docs))
	for i := range searchResult.Docs {
		results = append(results, convertSearchDoc(&searchResult.Docs[i]))
	}
	return results, nil
}

// SearchByISBN looks up a single edition by ISBN.
func (c *OpenLibraryClient) SearchByISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, fmt.Errorf("invalid ISBN")
	}

	var book openLibraryBook
	if err := c.getJSON(ctx, "/isbn/"+isbn+".json", &book); err != nil {
		return nil, fmt.Errorf("fetch ISBN %s: %w", isbn, err)
	}

	metadata := &BookMetadata{
		Title:           book.Title,
		ISBN:            isbn,
		PageCount:       book.NumberOfPages,
		PublicationYear: extractYear(book.PublishDate),
		CoverURL:        fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn),
		OpenLibraryKey:  book.Key,
	}

	// Editions only reference authors by key
	if len(book.Authors) > 0 {
		if name, err := c.fetchAuthorName(ctx, book.Authors[0].Key); err == nil {
			metadata.Author = name
		}
	}
	return metadata, nil
}

func (c *OpenLibraryClient) fetchAuthorName(ctx context.Context, authorKey string) (string, error) {
	if authorKey == "" {
		return "", fmt.Errorf("empty author key")
	}
	var authorData struct {
		Name string `json:"name"`
	}
	if err := c.getJSON(ctx, authorKey+".json", &authorData); err != nil {
		return "", err
	}
	return authorData.Name, nil
}

func (c *OpenLibraryClient) getJSON(ctx context.Context, path string, out any) error {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func convertSearchDoc(doc *openLibrarySearchDoc) BookMetadata {
	metadata := BookMetadata{
		Title:           doc.Title,
		PublicationYear: doc.FirstPublishYear,
		PageCount:       doc.NumberOfPagesMedian,
		OpenLibraryKey:  doc.Key,
	}
	if len(doc.AuthorName) > 0 {
		metadata.Author = strings.Join(doc.AuthorName, ", ")
	}
	if len(doc.ISBN) > 0 {
		metadata.ISBN = preferISBN13(doc.ISBN)
		metadata.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", metadata.ISBN)
	}
	// Cover IDs are more reliable than ISBN covers
	if doc.CoverI != 0 {
		metadata.CoverURL = fmt.Sprintf("https://covers.openlibrary.org/b/id/%d-L.jpg", doc.CoverI)
	}
	return metadata
}

func preferISBN13(isbns []string) string {
	for _, isbn := range isbns {
		if len(isbn) == 13 {
			return isbn
		}
	}
	return isbns[0]
}

// normalizeISBN removes hyphens and spaces from ISBN.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	// Basic validation: ISBN-10 or ISBN-13
	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}

	return isbn
}

// extractYear tries to extract a 4-digit year from a date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	// Last resort: find 4 consecutive digits
	for i := 0; i <= len(dateStr)-4; i++ {
		if year, err := strconv.Atoi(dateStr[i : i+4]); err == nil && year > 1000 && year < 3000 {
			return year
		}
	}

	return 0
}

// OpenLibrary API response types (internal)

type openLibraryBook struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
}

type authorRef struct {
	Key string `json:"key"`
}

type openLibrarySearchResult struct {
	NumFound int                    `json:"numFound"`
	Docs     []openLibrarySearchDoc `json:"docs"`
}

type openLibrarySearchDoc struct {
	Key                 string   `json:"key"`
	Title               string   `json:"title"`
	AuthorName          []string `json:"author_name"`
	FirstPublishYear    int      `json:"first_publish_year"`
	ISBN                []string `json:"isbn"`
	CoverI              int      `json:"cover_i"`
	NumberOfPagesMedian int      `json:"number_of_pages_median"`
}
