// Package ai wraps the external text-generation service used for AI-assisted
// bug report drafting. The service is a black box with a request/response
// contract; model behavior is out of scope.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrGenerationFailed is returned when the service reports a failure for an
// otherwise well-formed request.
var ErrGenerationFailed = errors.New("text generation failed")

// Generator produces text from a prompt plus structured context.
type Generator interface {
	Generate(ctx context.Context, prompt string, contextData map[string]string) (string, error)
}

// generateRequest is the wire request to the generation service.
type generateRequest struct {
	Prompt  string            `json:"prompt"`
	Context map[string]string `json:"context,omitempty"`
}

// generateResponse is the wire response from the generation service.
type generateResponse struct {
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HTTPGenerator implements Generator against an HTTP JSON endpoint.
type HTTPGenerator struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPGenerator creates an HTTPGenerator for the given endpoint.
func NewHTTPGenerator(url, apiKey string) *HTTPGenerator {
	return &HTTPGenerator{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Generate sends the prompt and context to the generation service and
// returns the generated text.
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string, contextData map[string]string) (string, error) {
	if g.url == "" {
		return "", fmt.Errorf("%w: generation service URL is not configured", ErrGenerationFailed)
	}

	body, err := json.Marshal(generateRequest{Prompt: prompt, Context: contextData})
	if err != nil {
		return "", fmt.Errorf("failed to encode generation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status %d", ErrGenerationFailed, resp.StatusCode)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode generation response: %w", err)
	}
	if !out.Success {
		return "", fmt.Errorf("%w: %s", ErrGenerationFailed, out.Error)
	}
	return out.Data, nil
}
