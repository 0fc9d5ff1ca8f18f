package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/client"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.0-flash"

	requestTimeout = 5 * time.Minute

	maxOutputTokens = 4000
	temperature     = 0.2
)

// Client implements a minimal Gemini generateContent API wrapper. The
// credential travels as a query parameter on every request; there is no
// client-level session to authenticate.
type Client struct {
	cfg        types.ProviderConfig
	baseURL    string
	httpClient *http.Client
}

// The generateContent protocol has no system role, so stage instructions are
// folded into the leading text part of the single user turn.
type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content content `json:"content"`
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

// New builds a client from a provider config snapshot.
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

func (c *Client) Name() string { return types.ProviderGemini }

// ValidateKey lists models as a cheap authenticated probe.
func (c *Client) ValidateKey(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return client.ErrMissingCredential
	}

	endpoint := fmt.Sprintf("%s/v1beta/models?key=%s", c.baseURL, url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	return mapStatus(resp.StatusCode, nil)
}

// Extract sends the extraction instruction followed by one inline image part
// per screenshot.
func (c *Client) Extract(ctx context.Context, images []types.ImagePayload, language string) (string, error) {
	text := client.ExtractionSystemPrompt + "\n\n" + client.ExtractionUserPrompt(language)
	return c.generate(ctx, pickModel(c.cfg.ExtractionModel), text, images)
}

// Solve sends a text-only prompt for an already extracted problem.
func (c *Client) Solve(ctx context.Context, prompt string) (string, error) {
	text := client.SolveSystemPrompt + "\n\n" + prompt
	return c.generate(ctx, pickModel(c.cfg.SolutionModel), text, nil)
}

// Debug sends the debugging prompt together with the error screenshots.
func (c *Client) Debug(ctx context.Context, prompt string, images []types.ImagePayload) (string, error) {
	text := client.DebugSystemPrompt + "\n\n" + prompt
	return c.generate(ctx, pickModel(c.cfg.DebuggingModel), text, images)
}

func (c *Client) generate(ctx context.Context, model, text string, images []types.ImagePayload) (string, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return "", client.ErrMissingCredential
	}

	parts := make([]part, 0, len(images)+1)
	parts = append(parts, part{Text: text})
	for _, img := range images {
		parts = append(parts, imagePart(img))
	}

	payload := generateRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: &generationConfig{
			Temperature:     temperature,
			MaxOutputTokens: maxOutputTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, model, url.QueryEscape(c.cfg.APIKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if err := mapStatus(resp.StatusCode, respBody); err != nil {
		return "", err
	}

	var response generateResponse
	if err := json.Unmarshal(respBody, &response); err != nil {
		return "", fmt.Errorf("%w: %v", client.ErrMalformedResponse, err)
	}
	if len(response.Candidates) == 0 {
		return "", client.ErrEmptyResponse
	}

	text = candidateText(response.Candidates[0])
	if text == "" {
		return "", client.ErrEmptyResponse
	}
	return text, nil
}

func imagePart(img types.ImagePayload) part {
	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	return part{InlineData: &inlineData{MIMEType: mime, Data: img.Base64}}
}

// candidateText concatenates every text part of a candidate.
func candidateText(cand candidate) string {
	var buf bytes.Buffer
	for _, p := range cand.Content.Parts {
		buf.WriteString(p.Text)
	}
	return buf.String()
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
