package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/client"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

const (
	defaultBaseURL = "https://api.openai.com"
	defaultModel   = "gpt-4o"

	requestTimeout = 5 * time.Minute

	// Outputs are parsed programmatically, so sampling stays low and bounded.
	maxOutputTokens = 4000
	temperature     = 0.2
)

// Client talks to the OpenAI chat completions API, or to any server that
// speaks the same protocol.
type Client struct {
	cfg        types.ProviderConfig
	baseURL    string
	httpClient *http.Client
}

// Message is one chat turn. Content is a plain string for text-only turns or
// []ContentPart when images are attached.
type Message struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage,omitempty"`
}

type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Option overrides a client default.
type Option func(*Client)

// WithBaseURL points the client at a compatible server.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// New builds a client from a provider config snapshot. The snapshot is copied;
// later config changes require a new client.
func New(cfg types.ProviderConfig, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseURL = strings.TrimSuffix(c.baseURL, "/")
	return c
}

func (c *Client) Name() string { return types.ProviderOpenAI }

// ValidateKey lists models as a cheap authenticated probe.
func (c *Client) ValidateKey(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return client.ErrMissingCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/models", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	return mapStatus(resp.StatusCode, nil)
}

// Extract sends the extraction instruction plus one image part per screenshot.
func (c *Client) Extract(ctx context.Context, images []types.ImagePayload, language string) (string, error) {
	parts := make([]ContentPart, 0, len(images)+1)
	parts = append(parts, ContentPart{Type: "text", Text: client.ExtractionUserPrompt(language)})
	for _, img := range images {
		parts = append(parts, imagePart(img))
	}

	messages := []Message{
		{Role: "system", Content: client.ExtractionSystemPrompt},
		{Role: "user", Content: parts},
	}
	return c.chat(ctx, pickModel(c.cfg.ExtractionModel), messages)
}

// Solve sends a text-only prompt for an already extracted problem.
func (c *Client) Solve(ctx context.Context, prompt string) (string, error) {
	messages := []Message{
		{Role: "system", Content: client.SolveSystemPrompt},
		{Role: "user", Content: prompt},
	}
	return c.chat(ctx, pickModel(c.cfg.SolutionModel), messages)
}

// Debug sends the debugging prompt together with the error screenshots.
func (c *Client) Debug(ctx context.Context, prompt string, images []types.ImagePayload) (string, error) {
	parts := make([]ContentPart, 0, len(images)+1)
	parts = append(parts, ContentPart{Type: "text", Text: prompt})
	for _, img := range images {
		parts = append(parts, imagePart(img))
	}

	messages := []Message{
		{Role: "system", Content: client.DebugSystemPrompt},
		{Role: "user", Content: parts},
	}
	return c.chat(ctx, pickModel(c.cfg.DebuggingModel), messages)
}

func (c *Client) chat(ctx context.Context, model string, messages []Message) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", client.ErrMissingCredential
	}

	reqBody := ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxOutputTokens,
		Stream:      false,
	}

	respBody, err := c.sendRequest(ctx, "/v1/chat/completions", reqBody)
	if err != nil {
		return "", err
	}

	var resp ChatCompletionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("%w: %v", client.ErrMalformedResponse, err)
	}
	if len(resp.Choices) == 0 {
		return "", client.ErrEmptyResponse
	}

	text := messageText(resp.Choices[0].Message)
	if text == "" {
		return "", client.ErrEmptyResponse
	}
	return text, nil
}

func (c *Client) sendRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if err := mapStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

// imagePart encodes one screenshot as a data URL segment.
func imagePart(img types.ImagePayload) ContentPart {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return ContentPart{
		Type:     "image_url",
		ImageURL: &ImageURL{URL: "data:" + mime + ";base64," + img.Base64},
	}
}

// messageText extracts text from a response message, which may arrive as a
// plain string or as an array of typed parts.
func messageText(msg Message) string {
	switch content := msg.Content.(type) {
	case string:
		return content
	case []interface{}:
		for _, item := range content {
			if partMap, ok := item.(map[string]interface{}); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}

func mapStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return client.ErrInvalidCredential
	case status == http.StatusTooManyRequests:
		return client.ErrRateLimited
	case status >= 500:
		return fmt.Errorf("%w: status %d", client.ErrUpstream, status)
	case status < 200 || status >= 300:
		return fmt.Errorf("server returned status %d: %s", status, truncate(body, 512))
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func pickModel(model string) string {
	if model == "" {
		return defaultModel
	}
	return model
}
