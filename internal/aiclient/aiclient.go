// Package aiclient talks to the external vision+text model host the
// AI Worker depends on (spec.md §4.5.3). It wraps plain HTTP calls in
// a circuit breaker so a struggling model host degrades the AI
// pipeline's throughput instead of blocking every worker goroutine on
// slow timeouts, grounded on tomtom215-cartographus's
// internal/sync/circuit_breaker.go.
package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/camcoord/coordinator/internal/observability"
)

// VisionResult is the "vision" call's output: what the model host saw
// in the two images.
type VisionResult struct {
	PersonDetected bool     `json:"person_detected"`
	Confidence     float64  `json:"confidence"`
	Objects        []string `json:"objects"`
}

// TextResult is the "text" call's output: a short caption plus a
// longer description.
type TextResult struct {
	Phrase      string `json:"phrase"`
	Description string `json:"description"`
}

// Client submits images and context to the model host, circuit-broken
// per endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	visionCB   *gobreaker.CircuitBreaker[[]byte]
	textCB     *gobreaker.CircuitBreaker[[]byte]
}

func New(baseURL string, timeout time.Duration) *Client {
	settings := func(name string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.Requests >= 5 && float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
			},
			OnStateChange: func(_ string, _, to gobreaker.State) {
				observability.AICircuitState.Set(circuitStateValue(to))
			},
		}
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		visionCB:   gobreaker.NewCircuitBreaker[[]byte](settings("ai-vision")),
		textCB:     gobreaker.NewCircuitBreaker[[]byte](settings("ai-text")),
	}
}

func circuitStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

type visionRequest struct {
	ImageA []byte `json:"image_a"`
	ImageB []byte `json:"image_b"`
}

// Vision submits the two event images and returns the model host's
// detection signal.
func (c *Client) Vision(ctx context.Context, imageA, imageB []byte) (*VisionResult, error) {
	body, err := json.Marshal(visionRequest{ImageA: imageA, ImageB: imageB})
	if err != nil {
		return nil, fmt.Errorf("marshal vision request: %w", err)
	}

	raw, err := c.visionCB.Execute(func() ([]byte, error) {
		return c.post(ctx, "/v1/vision", body)
	})
	if err != nil {
		observability.AICallErrors.WithLabelValues(breakerReason(err)).Inc()
		return nil, fmt.Errorf("ai vision call: %w", err)
	}

	var result VisionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal vision response: %w", err)
	}
	return &result, nil
}

type textRequest struct {
	VisionResult VisionResult `json:"vision_result"`
}

// Text submits the vision result and returns a short phrase plus a
// longer description.
func (c *Client) Text(ctx context.Context, vision VisionResult) (*TextResult, error) {
	body, err := json.Marshal(textRequest{VisionResult: vision})
	if err != nil {
		return nil, fmt.Errorf("marshal text request: %w", err)
	}

	raw, err := c.textCB.Execute(func() ([]byte, error) {
		return c.post(ctx, "/v1/text", body)
	})
	if err != nil {
		observability.AICallErrors.WithLabelValues(breakerReason(err)).Inc()
		return nil, fmt.Errorf("ai text call: %w", err)
	}

	var result TextResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unmarshal text response: %w", err)
	}
	if len(result.Phrase) > 500 {
		result.Phrase = result.Phrase[:500]
	}
	return &result, nil
}

func breakerReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState):
		return "circuit_open"
	case errors.Is(err, gobreaker.ErrTooManyRequests):
		return "too_many_requests"
	default:
		return "call_failed"
	}
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	observability.AICallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ai model host returned status %d: %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// IsCircuitOpen reports whether err originated from an open circuit
// rather than a genuine call failure, which the AI Worker treats as a
// transient condition worth releasing (not failing) the claim over.
func IsCircuitOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
