package reputation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"hashvet/version"
)

// DefaultBaseURL is the v2-style public API of the reputation service.
const DefaultBaseURL = "https://www.virustotal.com/vtapi/v2"

// Report is the structured part of a file-report response. The raw
// body is carried separately so it can be displayed unmodified.
type Report struct {
	ResponseCode int    `json:"response_code"`
	VerboseMsg   string `json:"verbose_msg,omitempty"`
	Resource     string `json:"resource,omitempty"`
	ScanDate     string `json:"scan_date,omitempty"`
	Total        int    `json:"total,omitempty"`
	Positives    int    `json:"positives,omitempty"`
	Permalink    string `json:"permalink,omitempty"`
}

// Client queries the reputation service for file reports by digest.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a client for the given API key. An empty baseURL
// selects the public endpoint; a zero timeout means no client timeout
// (cancellation then rests on the request context alone).
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FileReport fetches the report for one content digest. It returns the
// raw response body alongside the decoded report. Transport failures,
// non-2xx statuses, and undecodable bodies are errors; an unknown hash
// is not (the service answers it with a response code of 0).
func (c *Client) FileReport(ctx context.Context, digest string) ([]byte, Report, error) {
	var report Report

	q := url.Values{}
	q.Set("apikey", c.apiKey)
	q.Set("resource", digest)
	endpoint := c.baseURL + "/file/report?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, report, err
	}
	req.Header.Set("User-Agent", "hashvet/"+version.Version)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, report, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, report, fmt.Errorf("file report for %s: unexpected status %s", digest, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, report, err
	}
	if err := json.Unmarshal(body, &report); err != nil {
		return nil, report, fmt.Errorf("file report for %s: malformed response: %v", digest, err)
	}
	return body, report, nil
}
