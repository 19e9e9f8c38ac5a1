package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// DefaultBaseURL is the TMDB v3 API root.
const DefaultBaseURL = "https://api.themoviedb.org/3"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20

// ErrFetchFailed matches every error returned by Client when a catalog
// request does not produce a usable page.
var ErrFetchFailed = errors.New("catalog: fetch failed")

// FetchError describes a failed catalog request.
type FetchError struct {
	// Message is suitable for showing to a user.
	Message string
	// Status is the HTTP status code, 0 for transport failures.
	Status int
	// Payload is true when the service answered 2xx but flagged a failure
	// inside the body.
	Payload bool
	Err     error
}

func (e *FetchError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("catalog: %s: %v", e.Message, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("catalog: %s (status %d)", e.Message, e.Status)
	default:
		return "catalog: " + e.Message
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrFetchFailed) true for every FetchError.
func (e *FetchError) Is(target error) bool { return target == ErrFetchFailed }

const defaultFailureMessage = "Failed to fetch movies"

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL      string
	ImageBaseURL string
	Token        string
	Timeout      time.Duration
	// RateLimit is the number of requests allowed per second.
	RateLimit float64
	// Transport lets callers route requests through an offline cache.
	Transport http.RoundTripper
}

// Client talks to the movie catalog.
type Client struct {
	baseURL   string
	imageBase string
	token     string
	client    *http.Client
	limiter   *rate.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	return &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		imageBase: opts.ImageBaseURL,
		token:     opts.Token,
		client:    &http.Client{Timeout: opts.Timeout, Transport: opts.Transport},
		limiter:   rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
	}
}

// PosterURL resolves a poster path against the configured image base.
func (c *Client) PosterURL(posterPath string) string {
	return PosterURL(c.imageBase, posterPath)
}

// Fetch searches by text when query is non-empty, otherwise discovers by
// sort order.
func (c *Client) Fetch(ctx context.Context, query string, sort SortKey, page int) (*Page, error) {
	if strings.TrimSpace(query) != "" {
		return c.Search(ctx, query, page)
	}
	return c.Discover(ctx, sort, page)
}

// Search returns one page of movies whose titles match query.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	req, err := c.SearchRequest(ctx, query, page)
	if err != nil {
		return nil, err
	}
	return c.doPage(req)
}

// Discover returns one page of movies in the given order.
func (c *Client) Discover(ctx context.Context, sort SortKey, page int) (*Page, error) {
	req, err := c.DiscoverRequest(ctx, sort, page)
	if err != nil {
		return nil, err
	}
	return c.doPage(req)
}

// Movie looks up a single movie by id.
func (c *Client) Movie(ctx context.Context, id int) (*Movie, error) {
	req, err := c.newRequest(ctx, "/movie/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var m Movie
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, &FetchError{Message: defaultFailureMessage, Err: fmt.Errorf("decode movie: %w", err)}
	}
	return &m, nil
}

// SearchRequest builds the authenticated request used by Search.
func (c *Client) SearchRequest(ctx context.Context, query string, page int) (*http.Request, error) {
	return c.newRequest(ctx, "/search/movie", url.Values{
		"query": {query},
		"page":  {strconv.Itoa(normalizePage(page))},
	})
}

// DiscoverRequest builds the authenticated request used by Discover.
func (c *Client) DiscoverRequest(ctx context.Context, sort SortKey, page int) (*http.Request, error) {
	if sort == "" {
		sort = SortPopularity
	}
	return c.newRequest(ctx, "/discover/movie", url.Values{
		"sort_by": {string(sort)},
		"page":    {strconv.Itoa(normalizePage(page))},
	})
}

func (c *Client) newRequest(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &FetchError{Message: defaultFailureMessage, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

// envelope is a page body plus the failure flags the catalog may set.
type envelope struct {
	Page
	Response      json.RawMessage `json:"Response"`
	Error         string          `json:"Error"`
	Success       *bool           `json:"success"`
	StatusMessage string          `json:"status_message"`
}

// failed reports a payload-level failure and its message.
func (e *envelope) failed() (bool, string) {
	if flag := bytes.TrimSpace(e.Response); len(flag) > 0 {
		if string(flag) == `"false"` || string(flag) == "false" {
			return true, firstNonEmpty(e.Error, e.StatusMessage, defaultFailureMessage)
		}
	}
	if e.Success != nil && !*e.Success {
		return true, firstNonEmpty(e.StatusMessage, e.Error, defaultFailureMessage)
	}
	return false, ""
}

func (c *Client) doPage(req *http.Request) (*Page, error) {
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &FetchError{Message: defaultFailureMessage, Err: fmt.Errorf("decode page: %w", err)}
	}
	if failed, msg := env.failed(); failed {
		return nil, &FetchError{Message: msg, Payload: true}
	}
	if env.Results == nil {
		env.Results = []Movie{}
	}
	page := env.Page
	return &page, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	ctx := req.Context()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &FetchError{Message: defaultFailureMessage, Err: fmt.Errorf("rate limiter wait: %w", err)}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{Message: defaultFailureMessage, Err: fmt.Errorf("request cancelled: %w", ctx.Err())}
		}
		return nil, &FetchError{Message: defaultFailureMessage, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Message: defaultFailureMessage, Status: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := defaultFailureMessage
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.StatusMessage != "" {
			msg = env.StatusMessage
		}
		return nil, &FetchError{Message: msg, Status: resp.StatusCode}
	}
	return body, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
