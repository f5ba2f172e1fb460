package handler

import (
	"labassist/internal/domain"
)

// Request and response bodies. Also referenced by the handler annotations.

// --- Request Types ---

// ImportRequest locates a document in object storage. SessionID is optional;
// when set the existing session is re-analyzed.
type ImportRequest struct {
	Bucket    string `json:"bucket" binding:"required" example:"lab-reports"`
	Key       string `json:"key" binding:"required" example:"uploads/2024/cbc.pdf"`
	SessionID string `json:"session_id" example:"550e8400-e29b-41d4-a716-446655440000"`
}

// AskRequest is a follow-up question about an interpreted session.
type AskRequest struct {
	Question string `json:"question" binding:"required" example:"Is my hemoglobin something to worry about?"`
}

// ExportRequest uploads a session export to object storage. An empty Key
// stores it under exports/<session_id>/.
type ExportRequest struct {
	Format string `json:"format" example:"xlsx"`
	Bucket string `json:"bucket" binding:"required" example:"lab-exports"`
	Key    string `json:"key" example:"reports/cbc.xlsx"`
}

// --- Response Types ---

// AskResponse carries the answer and the updated session.
type AskResponse struct {
	Answer  string          `json:"answer" example:"Your hemoglobin is slightly below the reference range..."`
	Session *domain.Session `json:"session"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string   `json:"status" example:"ok"`
	Providers []string `json:"providers,omitempty" example:"gemini,claude"`
	Error     string   `json:"error,omitempty" example:"no reasoning provider configured"`
}

// --- Generic Response Wrappers ---

// Response wraps a successful response with data.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool        `json:"success" example:"false"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error"`
}
