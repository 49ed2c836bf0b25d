// Package genai builds generation requests and talks to the Gemini REST API.
package genai

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

	"github.com/mhaddad/feedback-assistant/log"
)

// Generator is the text-generation capability consumed by the workflow.
// One blocking call per invocation; no streaming, no retries.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

const defaultBaseURL = "https://generativelanguage.googleapis.com"

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type generateContentRequest struct {
	SystemInstruction content          `json:"systemInstruction"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature float64 `json:"temperature"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate calls the Gemini generateContent endpoint and returns the candidate text.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	payload := generateContentRequest{
		SystemInstruction: content{Parts: []part{{Text: req.SystemInstruction}}},
		Contents:          []content{{Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig:  generationConfig{Temperature: 0.7},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("genai.generate.marshal: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("genai.generate.request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("genai.generate.call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("genai.generate.read: %w", err)
	}

	var parsed generateContentResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("genai.generate.parse: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		log.Debugf("genai.generate: status %d: %s", resp.StatusCode, msg)
		return "", fmt.Errorf("genai.generate: %s", msg)
	}

	text := candidateText(parsed)
	if text == "" {
		return "", errors.New("genai.generate: no usable text in response")
	}
	return text, nil
}

func candidateText(resp generateContentResponse) string {
	if len(resp.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
