package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"labassist/internal/config"
	"labassist/internal/llm"
	"labassist/internal/port"
)

const (
	apiBaseURL       = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultMaxTokens = 8192
)

// Backend implements port.ReasoningBackend using Google's Gemini API.
type Backend struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewBackend creates a Gemini-based reasoning backend.
func NewBackend(cfg *config.ProviderConfig) *Backend {
	return newBackend(cfg, cfg.Endpoint)
}

// NewBackendWithEndpoint creates a backend pointing at a custom API endpoint (for testing).
func NewBackendWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Backend {
	return newBackend(cfg, endpoint)
}

func newBackend(cfg *config.ProviderConfig, endpoint string) *Backend {
	model := cfg.DefaultModel
	if model == "" {
		model = "gemini-2.0-flash"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Backend{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *Backend) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
	parts, err := buildParts(req)
	if err != nil {
		return nil, err
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	genConfig := map[string]interface{}{
		"maxOutputTokens": maxTokens,
	}
	if req.ResponseFormat == port.FormatJSON {
		genConfig["responseMimeType"] = "application/json"
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role":  "user",
				"parts": parts,
			},
		},
		"generationConfig": genConfig,
	}
	if req.SystemPrompt != "" {
		reqBody["systemInstruction"] = map[string]interface{}{
			"parts": []map[string]interface{}{{"text": req.SystemPrompt}},
		}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", b.apiKey)

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.ErrorFromResponse("gemini", resp, respBody)
	}

	return parseResponse(respBody, b.model)
}

func buildParts(req port.CompletionRequest) ([]map[string]interface{}, error) {
	var parts []map[string]interface{}
	if req.Attachment != nil {
		mimeType, err := toGeminiMimeType(req.Attachment.MimeType)
		if err != nil {
			return nil, err
		}
		parts = append(parts, map[string]interface{}{
			"inline_data": map[string]interface{}{
				"mime_type": mimeType,
				"data":      base64.StdEncoding.EncodeToString(req.Attachment.Data),
			},
		})
	}
	parts = append(parts, map[string]interface{}{"text": req.Prompt})
	return parts, nil
}

func toGeminiMimeType(contentType string) (string, error) {
	switch contentType {
	case "application/pdf", "image/jpeg", "image/png", "image/webp":
		return contentType, nil
	default:
		return "", fmt.Errorf("%w for gemini: %s", llm.ErrUnsupportedAttachment, contentType)
	}
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model string) (*port.CompletionResponse, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling gemini response: %v", llm.ErrMalformedResponse, err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", llm.ErrEmptyResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == "MAX_TOKENS" {
		return nil, fmt.Errorf("%w (finishReason: MAX_TOKENS)", llm.ErrTruncated)
	}
	if len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("%w: no parts", llm.ErrEmptyResponse)
	}

	var text string
	for _, p := range candidate.Content.Parts {
		text += p.Text
	}

	return &port.CompletionResponse{
		Text:         text,
		Model:        model,
		FinishReason: candidate.FinishReason,
	}, nil
}
