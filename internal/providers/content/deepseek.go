package content

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
)

const (
	deepSeekDefaultTimeout = 60 * time.Second
	deepSeekDefaultModel   = "deepseek-chat"
	deepSeekDefaultBaseURL = "https://api.deepseek.com"
)

// DeepSeekOptions configures the DeepSeek-backed generator.
type DeepSeekOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
}

// DeepSeek generates marketing content through the DeepSeek
// chat-completions API (OpenAI-compatible, JSON mode).
type DeepSeek struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
}

type deepSeekChatRequest struct {
	Model          string            `json:"model"`
	Messages       []deepSeekMessage `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat *deepSeekFormat   `json:"response_format,omitempty"`
}

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekFormat struct {
	Type string `json:"type"`
}

type deepSeekChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func NewDeepSeek(opts DeepSeekOptions) (*DeepSeek, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("deepseek api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = deepSeekDefaultBaseURL
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = deepSeekDefaultModel
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: deepSeekDefaultTimeout}
	}
	return &DeepSeek{
		apiKey:  strings.TrimSpace(opts.APIKey),
		model:   model,
		baseURL: baseURL,
		client:  client,
	}, nil
}

// Model returns the configured model identifier.
func (d *DeepSeek) Model() string {
	return d.model
}

// Generate asks DeepSeek for localized content pieces grounded in the
// analysis and returns the raw choice text.
func (d *DeepSeek) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	payload := deepSeekChatRequest{
		Model:          d.model,
		Temperature:    temperatureFor(req.CreativityLevel),
		ResponseFormat: &deepSeekFormat{Type: "json_object"},
		Messages: []deepSeekMessage{
			{Role: "system", Content: "You are a marketing copywriter that only responds with valid JSON."},
			{Role: "user", Content: buildGenerationPrompt(req)},
		},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return "", fmt.Errorf("deepseek: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", &buf)
	if err != nil {
		return "", fmt.Errorf("deepseek: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("deepseek: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("deepseek: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("deepseek: unexpected status %d", resp.StatusCode)
	}

	var out deepSeekChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("deepseek: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("deepseek: no choices returned")
	}
	text := strings.TrimSpace(out.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("deepseek: empty choice content")
	}
	return text, nil
}

// buildGenerationPrompt embeds the complete analysis output, never a
// truncated or summarized version.
func buildGenerationPrompt(req GenerateRequest) string {
	locale := req.Locale
	if locale == "" {
		locale = "en"
	}
	sb := &strings.Builder{}
	sb.WriteString("Generate marketing content pieces grounded in the brand analysis below. Respond strictly as JSON: ")
	sb.WriteString(`{"pieces":[{"headline":string,"body":string,"call_to_action":string,"channel":string,"locale":string}]}`)
	fmt.Fprintf(sb, ". Target purpose: %q. Output format: %q. Locale: '%s'.", req.Purpose, req.OutputFormat, locale)
	if req.Instructions != "" {
		fmt.Fprintf(sb, " Additional instructions: %q.", req.Instructions)
	}
	sb.WriteString("\n\nBrand analysis:\n")
	sb.WriteString(req.Analysis)
	return sb.String()
}

func temperatureFor(creativity float64) float64 {
	if creativity < 0 {
		creativity = 0
	}
	if creativity > 2 {
		creativity = 2
	}
	// DeepSeek accepts 0..2 directly.
	return creativity
}

var _ Generator = (*DeepSeek)(nil)
