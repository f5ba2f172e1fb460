package port

import "context"

// ResponseFormat tells the backend whether the caller expects JSON or free text.
type ResponseFormat string

const (
	FormatText ResponseFormat = "text"
	FormatJSON ResponseFormat = "json"
)

// Attachment is a binary document sent alongside the prompt (PDF or image).
type Attachment struct {
	MimeType string
	Data     []byte
}

// CompletionRequest carries one synchronous call to a language model.
type CompletionRequest struct {
	SystemPrompt   string
	Prompt         string
	Attachment     *Attachment
	ResponseFormat ResponseFormat
	MaxTokens      int
}

// CompletionResponse contains the model output.
type CompletionResponse struct {
	Text         string
	Model        string
	FinishReason string
}

// ReasoningBackend abstracts a text-completion language model.
type ReasoningBackend interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
