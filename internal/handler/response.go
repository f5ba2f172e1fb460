package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"labassist/internal/domain"
	"labassist/internal/middleware"
	"labassist/internal/service"
)

// APIResponse is the standard envelope for all API responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError holds error details in the response.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// RespondOK sends a 200 success response.
func RespondOK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

// RespondCreated sends a 201 success response.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// RespondError sends an error response with the given status code.
func RespondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: msg},
	})
}

// MapDomainError translates domain errors to HTTP status codes and error codes.
func MapDomainError(err error) (status int, code, msg string) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound, "SESSION_NOT_FOUND", "session not found"
	case errors.Is(err, domain.ErrNotReady):
		return http.StatusConflict, "SESSION_NOT_READY", "session has no interpretation yet; analyze a report first"
	case errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict, "INVALID_TRANSITION", "operation not allowed in the current session state"
	case errors.Is(err, domain.ErrEmptyQuestion):
		return http.StatusBadRequest, "EMPTY_QUESTION", "question must not be empty"
	case errors.Is(err, domain.ErrEmptyDocument):
		return http.StatusBadRequest, "EMPTY_DOCUMENT", "document is empty"
	case errors.Is(err, domain.ErrUnsupportedDocument):
		return http.StatusBadRequest, "UNSUPPORTED_DOCUMENT", "unsupported document type; allowed: pdf, jpg, png, webp, text"
	case errors.Is(err, domain.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "document exceeds maximum allowed size"
	case errors.Is(err, domain.ErrEncryptedDocument):
		return http.StatusUnprocessableEntity, "ENCRYPTED_DOCUMENT", "document is password protected"
	case errors.Is(err, domain.ErrCorruptDocument):
		return http.StatusUnprocessableEntity, "CORRUPT_DOCUMENT", "document is corrupted or unreadable"
	case errors.Is(err, service.ErrUnknownFormat):
		return http.StatusBadRequest, "UNKNOWN_FORMAT", "unknown export format; allowed: csv, xlsx"
	case errors.Is(err, domain.ErrStorageNotConfigured):
		return http.StatusNotImplemented, "STORAGE_NOT_CONFIGURED", "object storage is not configured"
	case errors.Is(err, domain.ErrExtraction):
		return http.StatusBadGateway, "EXTRACTION_FAILED", "could not extract lab values from the document"
	case errors.Is(err, domain.ErrInterpretation):
		return http.StatusBadGateway, "INTERPRETATION_FAILED", "could not interpret the extracted lab values"
	case errors.Is(err, domain.ErrAnswer):
		return http.StatusBadGateway, "ANSWER_FAILED", "could not answer the question"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR", "an internal error occurred"
	}
}

// HandleError maps a domain error and sends the appropriate error response.
func HandleError(c *gin.Context, err error) {
	HandleErrorWithData(c, err, nil)
}

// HandleErrorWithData is HandleError with a payload, used to return the
// session snapshot alongside a pipeline failure. Document errors found during
// extraction surface with their own code.
func HandleErrorWithData(c *gin.Context, err error, data interface{}) {
	status, code, msg := MapDomainError(err)

	var details map[string]string
	var stageErr *domain.StageError
	if errors.As(err, &stageErr) {
		details = map[string]string{"stage": string(stageErr.Stage), "transient": "false"}
		if stageErr.Transient {
			status = http.StatusServiceUnavailable
			details["transient"] = "true"
		}
		if docStatus, docCode, docMsg := MapDomainError(stageErr.Err); docStatus < 500 {
			status, code, msg = docStatus, docCode, docMsg
		}
	}

	if status >= 500 {
		middleware.GetLogger(c).Error("handler: request failed",
			zap.String("code", code),
			zap.Error(err),
		)
	}
	c.JSON(status, APIResponse{
		Success: false,
		Data:    data,
		Error:   &APIError{Code: code, Message: msg, Details: details},
	})
}
