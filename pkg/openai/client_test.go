package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/client"
	"github.com/Ornithopter-pilot/interview-coder-withoupaywall-opensource/pkg/types"
)

type mockRT struct {
	roundTrip func(req *http.Request) (*http.Response, error)
}

func (m *mockRT) RoundTrip(req *http.Request) (*http.Response, error) {
	return m.roundTrip(req)
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func newTestClient(key string, rt *mockRT) *Client {
	return New(types.ProviderConfig{
		Provider:        types.ProviderOpenAI,
		APIKey:          key,
		ExtractionModel: "gpt-4o",
		SolutionModel:   "gpt-4o",
		DebuggingModel:  "gpt-4o-mini",
	}, WithHTTPClient(&http.Client{Transport: rt}))
}

func testImages() []types.ImagePayload {
	return []types.ImagePayload{
		{ID: "a.png", MIME: "image/png", Base64: "aW1nMQ=="},
		{ID: "b.jpg", MIME: "image/jpeg", Base64: "aW1nMg=="},
	}
}

func TestExtractRequestShape(t *testing.T) {
	var captured struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
		Temperature float64 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Stream      bool    `json:"stream"`
	}

	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			if req.Method != http.MethodPost {
				t.Fatalf("expected POST, got %s", req.Method)
			}
			if req.URL.Path != "/v1/chat/completions" {
				t.Fatalf("expected /v1/chat/completions, got %s", req.URL.Path)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Fatalf("unexpected authorization header: %q", got)
			}
			if got := req.Header.Get("Content-Type"); got != "application/json" {
				t.Fatalf("unexpected content type: %q", got)
			}
			body, err := io.ReadAll(req.Body)
			if err != nil {
				t.Fatalf("read request body: %v", err)
			}
			if err := json.Unmarshal(body, &captured); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			return response(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"{}"}}]}`), nil
		},
	})

	if _, err := cli.Extract(context.Background(), testImages(), "golang"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if captured.Model != "gpt-4o" {
		t.Errorf("Expected model gpt-4o, got %q", captured.Model)
	}
	if captured.Temperature != 0.2 {
		t.Errorf("Expected temperature 0.2, got %v", captured.Temperature)
	}
	if captured.MaxTokens != 4000 {
		t.Errorf("Expected max_tokens 4000, got %d", captured.MaxTokens)
	}
	if captured.Stream {
		t.Error("Expected stream false")
	}

	if len(captured.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(captured.Messages))
	}
	if captured.Messages[0].Role != "system" {
		t.Errorf("Expected leading system turn, got role %q", captured.Messages[0].Role)
	}
	if captured.Messages[1].Role != "user" {
		t.Errorf("Expected user turn, got role %q", captured.Messages[1].Role)
	}

	var parts []ContentPart
	if err := json.Unmarshal(captured.Messages[1].Content, &parts); err != nil {
		t.Fatalf("decode user content parts: %v", err)
	}
	if len(parts) != 3 {
		t.Fatalf("Expected text part plus 2 image parts, got %d", len(parts))
	}
	if parts[0].Type != "text" || !strings.Contains(parts[0].Text, "golang") {
		t.Errorf("Expected leading text part naming the language, got %+v", parts[0])
	}
	if parts[1].Type != "image_url" || parts[1].ImageURL == nil ||
		parts[1].ImageURL.URL != "data:image/png;base64,aW1nMQ==" {
		t.Errorf("Unexpected first image part: %+v", parts[1])
	}
	if parts[2].ImageURL == nil || !strings.HasPrefix(parts[2].ImageURL.URL, "data:image/jpeg;base64,") {
		t.Errorf("Unexpected second image part: %+v", parts[2])
	}
}

func TestSolveSendsPlainText(t *testing.T) {
	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			var captured ChatCompletionRequest
			if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			if len(captured.Messages) != 2 {
				t.Fatalf("Expected 2 messages, got %d", len(captured.Messages))
			}
			text, ok := captured.Messages[1].Content.(string)
			if !ok || text != "solve this" {
				t.Fatalf("Expected plain string user content, got %#v", captured.Messages[1].Content)
			}
			return response(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"answer"}}]}`), nil
		},
	})

	got, err := cli.Solve(context.Background(), "solve this")
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if got != "answer" {
		t.Errorf("Expected answer, got %q", got)
	}
}

func TestDebugUsesDebuggingModel(t *testing.T) {
	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			var captured ChatCompletionRequest
			if err := json.NewDecoder(req.Body).Decode(&captured); err != nil {
				t.Fatalf("decode request body: %v", err)
			}
			if captured.Model != "gpt-4o-mini" {
				t.Fatalf("Expected gpt-4o-mini, got %q", captured.Model)
			}
			return response(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"report"}}]}`), nil
		},
	})

	if _, err := cli.Debug(context.Background(), "what broke", testImages()); err != nil {
		t.Fatalf("Debug failed: %v", err)
	}
}

func TestMissingKeySkipsNetwork(t *testing.T) {
	called := false
	cli := newTestClient("", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			called = true
			return response(http.StatusOK, "{}"), nil
		},
	})

	_, err := cli.Solve(context.Background(), "hi")
	if !errors.Is(err, client.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
	if called {
		t.Error("Expected no network traffic without a credential")
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, client.ErrInvalidCredential},
		{http.StatusForbidden, client.ErrInvalidCredential},
		{http.StatusTooManyRequests, client.ErrRateLimited},
		{http.StatusInternalServerError, client.ErrUpstream},
		{http.StatusServiceUnavailable, client.ErrUpstream},
	}

	for _, test := range tests {
		cli := newTestClient("sk-test", &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				return response(test.status, `{"error":"nope"}`), nil
			},
		})
		_, err := cli.Solve(context.Background(), "hi")
		if !errors.Is(err, test.want) {
			t.Errorf("status %d: expected %v, got %v", test.status, test.want, err)
		}
	}
}

func TestEmptyChoices(t *testing.T) {
	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"choices":[]}`), nil
		},
	})

	_, err := cli.Solve(context.Background(), "hi")
	if !errors.Is(err, client.ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestMalformedResponseBody(t *testing.T) {
	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			return response(http.StatusOK, `{"choices": [`), nil
		},
	})

	_, err := cli.Solve(context.Background(), "hi")
	if !errors.Is(err, client.ErrMalformedResponse) {
		t.Errorf("Expected ErrMalformedResponse, got %v", err)
	}
}

func TestContentPartsResponse(t *testing.T) {
	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			return response(http.StatusOK,
				`{"choices":[{"message":{"role":"assistant","content":[{"type":"text","text":"from parts"}]}}]}`), nil
		},
	})

	got, err := cli.Solve(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if got != "from parts" {
		t.Errorf("Expected text from parts, got %q", got)
	}
}

func TestValidateKey(t *testing.T) {
	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			if req.Method != http.MethodGet {
				t.Fatalf("expected GET, got %s", req.Method)
			}
			if req.URL.Path != "/v1/models" {
				t.Fatalf("expected /v1/models, got %s", req.URL.Path)
			}
			if got := req.Header.Get("Authorization"); got != "Bearer sk-test" {
				t.Fatalf("unexpected authorization header: %q", got)
			}
			return response(http.StatusOK, `{"data":[]}`), nil
		},
	})

	if err := cli.ValidateKey(context.Background()); err != nil {
		t.Fatalf("ValidateKey failed: %v", err)
	}
}

func TestValidateKeyUnauthorized(t *testing.T) {
	cli := newTestClient("sk-test", &mockRT{
		roundTrip: func(req *http.Request) (*http.Response, error) {
			return response(http.StatusUnauthorized, `{"error":"bad key"}`), nil
		},
	})

	if err := cli.ValidateKey(context.Background()); !errors.Is(err, client.ErrInvalidCredential) {
		t.Errorf("Expected ErrInvalidCredential, got %v", err)
	}
}

func TestWithBaseURL(t *testing.T) {
	var gotURL string
	cli := New(types.ProviderConfig{APIKey: "sk-test"},
		WithBaseURL("http://localhost:8080/"),
		WithHTTPClient(&http.Client{Transport: &mockRT{
			roundTrip: func(req *http.Request) (*http.Response, error) {
				gotURL = req.URL.String()
				return response(http.StatusOK, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`), nil
			},
		}}))

	if _, err := cli.Solve(context.Background(), "hi"); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}
	if gotURL != "http://localhost:8080/v1/chat/completions" {
		t.Errorf("Expected trailing slash trimmed from base URL, got %s", gotURL)
	}
}
