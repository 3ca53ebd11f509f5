package directory

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"RecordSync/internal/domain"
	"RecordSync/internal/lookup"
)

const (
	resultRowSelector = `tr[id^="datarow_"]`
	minResultCells    = 5
)

var registryIDExpr = regexp.MustCompile(`jno=(\d+)`)

// WamOptions configures the WAM NET facility search.
type WamOptions struct {
	SearchURL  string
	QueryParam string
	UserAgent  string

	// Interval is the minimum spacing between two searches.
	Interval time.Duration
}

// WamSearcher queries the WAM NET care facility directory and parses its result table.
type WamSearcher struct {
	client     *http.Client
	searchURL  string
	queryParam string
	userAgent  string
	limiter    *rate.Limiter
}

var _ lookup.Searcher = (*WamSearcher)(nil)

// NewWamSearcher wires an HTTP client; a nil client gets a 30 second timeout.
func NewWamSearcher(client *http.Client, opts WamOptions) *WamSearcher {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.QueryParam == "" {
		opts.QueryParam = "searchtext"
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "RecordSync/1.0"
	}

	limit := rate.Inf
	if opts.Interval > 0 {
		limit = rate.Every(opts.Interval)
	}

	return &WamSearcher{
		client:     client,
		searchURL:  opts.SearchURL,
		queryParam: opts.QueryParam,
		userAgent:  opts.UserAgent,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Name identifies the searcher inside the registry.
func (w *WamSearcher) Name() string {
	return "wam"
}

// Search runs one name query and returns every result row in page order.
func (w *WamSearcher) Search(ctx context.Context, req lookup.Request) ([]domain.CandidateRecord, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	pageURL, err := buildSearchURL(w.searchURL, w.queryParam, req.Query, req.Options)
	if err != nil {
		return nil, err
	}

	doc, err := w.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", req.Query, err)
	}

	base, _ := url.Parse(pageURL)
	return parseResults(doc, base), nil
}

func (w *WamSearcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("directory returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// ParseResultsHTML reads a saved result page.
func ParseResultsHTML(r io.Reader, pageURL string) ([]domain.CandidateRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %s: %w", pageURL, err)
	}
	return parseResults(doc, base), nil
}

func parseResults(doc *goquery.Document, base *url.URL) []domain.CandidateRecord {
	results := make([]domain.CandidateRecord, 0)
	doc.Find(resultRowSelector).Each(func(_ int, row *goquery.Selection) {
		if candidate, ok := parseRow(row, base); ok {
			results = append(results, candidate)
		}
	})
	return results
}

func parseRow(row *goquery.Selection, base *url.URL) (domain.CandidateRecord, bool) {
	cells := row.Find("td")
	if cells.Length() < minResultCells {
		return domain.CandidateRecord{}, false
	}

	var registryID string
	if href, ok := cells.Eq(3).Find("a").First().Attr("href"); ok {
		if m := registryIDExpr.FindStringSubmatch(href); m != nil {
			registryID = m[1]
		}
	}

	var detail string
	if href, ok := cells.Eq(4).Find("a").First().Attr("href"); ok {
		detail = resolveLink(base, href)
	}

	return domain.CandidateRecord{
		ServiceType:   strings.TrimSpace(cells.Eq(0).Text()),
		Name:          strings.TrimSpace(cells.Eq(1).Text()),
		Address:       strings.TrimSpace(cells.Eq(2).Text()),
		RegistryID:    registryID,
		DetailLocator: detail,
	}, true
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func buildSearchURL(base, param, query string, options map[string]string) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid search url %s: %w", base, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("search url %q has no host", base)
	}

	values := parsed.Query()
	for k, v := range options {
		values.Set(k, v)
	}
	values.Set(param, query)
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
