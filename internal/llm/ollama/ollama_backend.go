package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"labassist/internal/config"
	"labassist/internal/llm"
	"labassist/internal/port"
)

const (
	defaultURL   = "http://localhost:11434"
	defaultModel = "llama3.1"
)

// Backend implements port.ReasoningBackend against a local Ollama server's chat API.
// Only image attachments are supported; PDFs must be sent as extracted text.
type Backend struct {
	model    string
	endpoint string
	client   *http.Client
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Model      string      `json:"model"`
	Message    chatMessage `json:"message"`
	Done       bool        `json:"done"`
	DoneReason string      `json:"done_reason"`
	Error      string      `json:"error,omitempty"`
}

// NewBackend creates an Ollama reasoning backend. cfg.Endpoint is the server base URL.
func NewBackend(cfg *config.ProviderConfig) *Backend {
	base := cfg.Endpoint
	if base == "" {
		base = defaultURL
	}
	return newBackend(cfg, strings.TrimRight(base, "/")+"/api/chat")
}

// NewBackendWithEndpoint creates a backend posting to the given chat endpoint (for testing).
func NewBackendWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Backend {
	return newBackend(cfg, endpoint)
}

func newBackend(cfg *config.ProviderConfig, endpoint string) *Backend {
	model := cfg.DefaultModel
	if model == "" {
		model = defaultModel
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 300 * time.Second
	}
	return &Backend{
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *Backend) Complete(ctx context.Context, req port.CompletionRequest) (*port.CompletionResponse, error) {
	user := chatMessage{Role: "user", Content: req.Prompt}
	if att := req.Attachment; att != nil {
		if !strings.HasPrefix(att.MimeType, "image/") {
			return nil, fmt.Errorf("%w for ollama: %s", llm.ErrUnsupportedAttachment, att.MimeType)
		}
		user.Images = []string{base64.StdEncoding.EncodeToString(att.Data)}
	}

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, user)

	reqBody := chatRequest{
		Model:    b.model,
		Messages: messages,
		Stream:   false,
	}
	if req.ResponseFormat == port.FormatJSON {
		reqBody.Format = "json"
	}
	if req.MaxTokens > 0 {
		reqBody.Options = map[string]any{"num_predict": req.MaxTokens}
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

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("calling ollama: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, llm.ErrorFromResponse("ollama", resp, respBody)
	}

	var out chatResponse
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling ollama response: %v", llm.ErrMalformedResponse, err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("%w: ollama error: %s", llm.ErrMalformedResponse, out.Error)
	}
	if out.DoneReason == "length" {
		return nil, fmt.Errorf("%w (done_reason: length)", llm.ErrTruncated)
	}
	if strings.TrimSpace(out.Message.Content) == "" {
		return nil, fmt.Errorf("%w: ollama returned no content", llm.ErrEmptyResponse)
	}

	model := out.Model
	if model == "" {
		model = b.model
	}
	return &port.CompletionResponse{
		Text:         out.Message.Content,
		Model:        model,
		FinishReason: out.DoneReason,
	}, nil
}
