// Package scorer provides access to the external classifier service. The
// classifier is a black box to this service: given encoded feature rows in
// the trained column order, it returns one delay probability per row.
package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/flightontime/flightontime/internal/metrics"
)

// Scorer is the classifier capability the pipeline depends on.
type Scorer interface {
	// PredictProba scores one feature row per element and returns the
	// delay probability for each, in the same order.
	PredictProba(ctx context.Context, rows [][]float64) ([]float64, error)
}

// Client calls a remote model-scoring service over HTTP.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// predictRequest is the wire request for the scoring endpoint.
type predictRequest struct {
	Instances [][]float64 `json:"instances"`
}

// predictResponse is the wire response from the scoring endpoint.
type predictResponse struct {
	Probabilities []float64 `json:"probabilities"`
}

// NewClient creates a new scoring client.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// PredictProba posts the feature rows to the scoring service and decodes
// the probabilities. A response with a different number of probabilities
// than rows is an error, never truncated.
func (c *Client) PredictProba(ctx context.Context, rows [][]float64) ([]float64, error) {
	if len(rows) == 0 {
		return []float64{}, nil
	}

	body, err := json.Marshal(predictRequest{Instances: rows})
	if err != nil {
		return nil, fmt.Errorf("failed to encode scoring request: %w", err)
	}

	start := time.Now()
	resp, err := c.doRequest(ctx, c.baseURL+"/predict_proba", body)
	metrics.RecordScorerCall(time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("failed to score features: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scoring service returned status %d", resp.StatusCode)
	}

	var decoded predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode scoring response: %w", err)
	}

	if len(decoded.Probabilities) != len(rows) {
		return nil, fmt.Errorf("scoring service returned %d probabilities for %d rows", len(decoded.Probabilities), len(rows))
	}
	for i, p := range decoded.Probabilities {
		if p < 0 || p > 1 {
			return nil, fmt.Errorf("scoring service returned probability %v out of [0,1] at index %d", p, i)
		}
	}
	return decoded.Probabilities, nil
}

// doRequest performs the POST with bounded retry. Network failures and
// 5xx responses are retried with linear backoff; 4xx responses are not,
// since retrying a rejected payload cannot succeed.
func (c *Client) doRequest(ctx context.Context, url string, body []byte) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i+1)):
			}
			continue
		}

		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i+1)):
			}
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
