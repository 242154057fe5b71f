package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"unblock-hq/corsair/pkg/config"
	"unblock-hq/corsair/pkg/retry"
)

// defaultGeminiBaseURL is the public Generative Language API endpoint.
const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider talks to the Google Generative Language API.
// When the configured model is unavailable it falls back through the
// configured fallback chain and sticks with the first model that works.
type GeminiProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
	policy  retry.Policy

	// mu protects modelIdx
	mu       sync.Mutex
	models   []string
	modelIdx int
}

// Gemini wire types.

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type geminiSafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
	SafetySettings   []geminiSafetySetting  `json:"safetySettings"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// defaultSafetySettings block medium-and-above harm categories, matching
// the thresholds the frontend was built around.
var defaultSafetySettings = []geminiSafetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_MEDIUM_AND_ABOVE"},
}

// NewGeminiProvider creates a Gemini-backed completion provider from cfg.
// The API key must be non-empty; the base URL defaults to the public API.
func NewGeminiProvider(cfg config.ProviderConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("missing provider API key")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGeminiBaseURL
	}

	models := append([]string{cfg.Model}, cfg.FallbackModels...)

	return &GeminiProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{},
		timeout: cfg.Timeout,
		policy:  retry.Policy{MaxRetries: cfg.MaxRetries, BaseDelay: time.Second, Retryable: IsTransient},
		models:  models,
	}, nil
}

// Model returns the model identifier currently in use.
func (p *GeminiProvider) Model() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.models[p.modelIdx]
}

// Complete sends the conversation to the API and returns the reply.
// Transient failures are retried; an unavailable model advances the
// fallback chain and retries immediately with the next model.
func (p *GeminiProvider) Complete(ctx context.Context, history []Message, message string) (*Completion, error) {
	contents := make([]geminiContent, 0, len(history)+1)
	for _, m := range history {
		contents = append(contents, geminiContent{
			Role:  m.Role,
			Parts: []geminiPart{{Text: m.Text}},
		})
	}
	contents = append(contents, geminiContent{
		Role:  RoleUser,
		Parts: []geminiPart{{Text: message}},
	})

	body, err := json.Marshal(geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			Temperature:     0.7,
			TopP:            0.8,
			TopK:            40,
			MaxOutputTokens: 2048,
		},
		SafetySettings: defaultSafetySettings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal completion request: %w", err)
	}

	for {
		model := p.Model()

		var completion *Completion
		err := p.policy.Do(ctx, "completion", func() error {
			var callErr error
			completion, callErr = p.call(ctx, model, body)
			return callErr
		})
		if err == nil {
			return completion, nil
		}

		var notFound *ModelNotFoundError
		if errors.As(err, &notFound) && p.advanceModel(model) {
			slog.Warn("model unavailable, falling back",
				"model", model,
				"fallback", p.Model(),
			)
			continue
		}
		return nil, err
	}
}

// advanceModel moves past from the chain if it is still current.
// Returns false when the chain is exhausted.
func (p *GeminiProvider) advanceModel(from string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.models[p.modelIdx] != from {
		// Another caller already advanced.
		return true
	}
	if p.modelIdx+1 >= len(p.models) {
		return false
	}
	p.modelIdx++
	return true
}

// call performs one generateContent request against a specific model.
func (p *GeminiProvider) call(ctx context.Context, model string, body []byte) (*Completion, error) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, p.apiKey)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, &TimeoutError{Timeout: p.timeout}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UnavailableError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ParseError{Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, p.statusError(model, resp, respBody)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ParseError{RawResponse: string(respBody), Cause: err}
	}

	if parsed.PromptFeedback.BlockReason != "" {
		return nil, &ContentFilteredError{Reason: parsed.PromptFeedback.BlockReason}
	}
	if len(parsed.Candidates) == 0 {
		return nil, &ParseError{RawResponse: string(respBody), Cause: errors.New("no candidates in response")}
	}

	candidate := parsed.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return nil, &ContentFilteredError{Reason: candidate.FinishReason}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	return &Completion{
		Text:  sb.String(),
		Model: model,
		Usage: Usage{
			InputTokens:  parsed.UsageMetadata.PromptTokenCount,
			OutputTokens: parsed.UsageMetadata.CandidatesTokenCount,
			TotalTokens:  parsed.UsageMetadata.TotalTokenCount,
		},
	}, nil
}

// statusError maps a non-200 API response to a typed error.
func (p *GeminiProvider) statusError(model string, resp *http.Response, body []byte) error {
	message := string(body)
	var apiErr geminiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		message = apiErr.Error.Message
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    message,
		}
	case resp.StatusCode == http.StatusNotFound:
		return &ModelNotFoundError{Model: model}
	case resp.StatusCode >= 500:
		return &UnavailableError{Cause: &ProviderError{StatusCode: resp.StatusCode, Message: message}}
	default:
		return &ProviderError{StatusCode: resp.StatusCode, Message: message}
	}
}

// Close releases pooled connections.
func (p *GeminiProvider) Close() error {
	p.client.CloseIdleConnections()
	return nil
}

// parseRetryAfter parses a Retry-After header value.
// It supports both delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}

	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err == nil {
		return time.Duration(seconds) * time.Second
	}

	if t, err := http.ParseTime(header); err == nil {
		return time.Until(t)
	}

	return 0
}
