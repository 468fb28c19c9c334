// Package ai provides the chatbot backend: an LLM client interface and
// the Gemini HTTP implementation used for business recommendations.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Chatbot fallback replies
const (
	FallbackEmptyReply = "I'm sorry, I wasn't able to generate a recommendation. Please try again."
	FallbackNoResponse = "No response from Gemini AI"
)

// defaultGeminiURL is the generateContent endpoint used when none is
// configured
const defaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// LLMClient generates text from a prompt
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiClient implements LLMClient against the Gemini generateContent
// API
type GeminiClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// GeminiConfig configures a Gemini client
type GeminiConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// geminiRequestBody represents the generateContent request
type geminiRequestBody struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

// geminiResponseBody represents the generateContent response. Parts
// may appear under candidate.content or directly on the candidate
// depending on API version.
type geminiResponseBody struct {
	Candidates []struct {
		Content *struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content,omitempty"`
		Parts []geminiPart `json:"parts,omitempty"`
	} `json:"candidates"`
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(config GeminiConfig) (*GeminiClient, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = os.Getenv("GEMINI_API_URL")
	}
	if baseURL == "" {
		baseURL = defaultGeminiURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	return &GeminiClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Generate sends a prompt to Gemini and extracts the reply text
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	body := geminiRequestBody{
		Contents: []geminiContent{
			{Parts: []geminiPart{{Text: prompt}}},
		},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s?key=%s", c.baseURL, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Gemini API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("error contacting Gemini AI API: %s", string(respBody))
	}

	var parsed geminiResponseBody
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(parsed.Candidates) == 0 {
		return FallbackNoResponse, nil
	}

	candidate := parsed.Candidates[0]
	parts := candidate.Parts
	if candidate.Content != nil {
		parts = candidate.Content.Parts
	}

	var b strings.Builder
	for _, part := range parts {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(part.Text)
	}

	text := strings.TrimSpace(b.String())
	if text == "" || strings.EqualFold(text, "none") {
		return FallbackEmptyReply, nil
	}
	return text, nil
}
