package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"
)

const defaultBaseURL = "https://www.omdbapi.com/"

// Result holds the descriptive attributes the lookup API returned. Any field
// may be empty; callers merge what they get with user-supplied data.
type Result struct {
	Title     string
	Year      string
	Genres    string
	PosterURL string
	Rating    string
	Plot      string
}

// Client looks up title metadata from an OMDb-compatible API. Lookups are
// best-effort: a missing title is nil, not an error, and transient failures
// are retried briefly before giving up.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

func WithBaseURL(u string) Option {
	return func(cl *Client) {
		cl.baseURL = u
	}
}

func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

type apiResponse struct {
	Response string `json:"Response"`
	Error    string `json:"Error"`
	Title    string `json:"Title"`
	Year     string `json:"Year"`
	Genre    string `json:"Genre"`
	Poster   string `json:"Poster"`
	Rating   string `json:"imdbRating"`
	Plot     string `json:"Plot"`
}

// Lookup fetches metadata for a title. Returns nil, nil when the API does
// not know the title; callers proceed with user-supplied data alone.
func (c *Client) Lookup(ctx context.Context, title, contentType string) (*Result, error) {
	if !c.Configured() {
		return nil, nil
	}

	apiType := "movie"
	if contentType == "tv" {
		apiType = "series"
	}

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("t", title)
	q.Set("type", apiType)
	reqURL := c.baseURL + "?" + q.Encode()

	var apiResp apiResponse
	backoff := retry.WithMaxRetries(3, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("metadata API request: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("metadata API returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("metadata API returned status %d", resp.StatusCode)
		}

		if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
			return fmt.Errorf("decode metadata response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if apiResp.Response != "True" {
		// "Movie not found!" and friends: absence, not failure.
		return nil, nil
	}

	res := &Result{
		Title:     apiResp.Title,
		Year:      apiResp.Year,
		Genres:    apiResp.Genre,
		PosterURL: apiResp.Poster,
		Rating:    apiResp.Rating,
		Plot:      apiResp.Plot,
	}
	if res.PosterURL == "N/A" {
		res.PosterURL = ""
	}
	if res.Rating == "N/A" {
		res.Rating = ""
	}
	if res.Plot == "N/A" {
		res.Plot = ""
	}
	return res, nil
}
