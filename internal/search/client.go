package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// IndexingError indicates the bulk write was rejected or failed in transit.
// Body carries the upstream response for diagnosis.
type IndexingError struct {
	StatusCode int
	Body       string
}

func (e *IndexingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("bulk indexing failed (status %d): %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("bulk indexing failed: %s", e.Body)
}

// Client talks to an OpenSearch-compatible search engine.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// bulkResponse is the slice of the engine's bulk response we inspect. A 200
// with Errors set means at least one item was rejected.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// Bulk submits a newline-delimited bulk body to the engine's _bulk endpoint.
// Callers must not submit an empty body.
func (c *Client) Bulk(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/_bulk", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create bulk request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-ndjson")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &IndexingError{Body: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &IndexingError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &IndexingError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	var bulkResp bulkResponse
	if err := json.Unmarshal(respBody, &bulkResp); err != nil {
		return &IndexingError{StatusCode: resp.StatusCode, Body: fmt.Sprintf("failed to parse response: %v", err)}
	}
	if bulkResp.Errors {
		return &IndexingError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	return nil
}
