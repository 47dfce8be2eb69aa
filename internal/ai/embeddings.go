package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pdf-ingest-service/internal/logger"
)

// EmbeddingServiceError carries the upstream status and message for a failed
// embedding call. A transport-level success whose body lacks the expected
// vector is still an EmbeddingServiceError, never a zero vector.
type EmbeddingServiceError struct {
	StatusCode int
	Message    string
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding service error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("embedding service error: %s", e.Message)
}

// EmbeddingClient calls an OpenAI-compatible /embeddings endpoint. Calls are
// independent; callers may fan them out concurrently.
type EmbeddingClient struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	limiter *rate.Limiter
}

// NewEmbeddingClient creates a client for the given provider. rpm bounds the
// client-side request rate; the breaker sheds load when the provider degrades.
func NewEmbeddingClient(apiKey, model, baseURL string, rpm int) *EmbeddingClient {
	if rpm < 1 {
		rpm = 1
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "EmbeddingAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &EmbeddingClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		breaker: breaker,
		limiter: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), rpm/10+1),
	}
}

// embeddingRequest is the request body for the embedding API
type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

// embeddingResponse is the response from the embedding API
type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed returns the embedding vector for text.
func (c *EmbeddingClient) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &EmbeddingServiceError{Message: fmt.Sprintf("rate limiter wait: %v", err)}
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, text)
	})
	if err != nil {
		var serviceErr *EmbeddingServiceError
		if errors.As(err, &serviceErr) {
			return nil, serviceErr
		}
		// breaker-open and marshal failures
		return nil, &EmbeddingServiceError{Message: err.Error()}
	}

	return out.([]float32), nil
}

func (c *EmbeddingClient) doRequest(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: c.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &EmbeddingServiceError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &EmbeddingServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &EmbeddingServiceError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, &EmbeddingServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to parse response: %v", err)}
	}

	if embResp.Error != nil {
		return nil, &EmbeddingServiceError{StatusCode: resp.StatusCode, Message: embResp.Error.Message}
	}

	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, &EmbeddingServiceError{StatusCode: resp.StatusCode, Message: "no embedding in response"}
	}

	return embResp.Data[0].Embedding, nil
}
