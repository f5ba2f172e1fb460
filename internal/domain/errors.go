package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrNotReady             = errors.New("session is not ready for questions")
	ErrInvalidTransition    = errors.New("invalid session state transition")
	ErrEmptyDocument        = errors.New("document is empty")
	ErrEmptyQuestion        = errors.New("question is empty")
	ErrUnsupportedDocument  = errors.New("unsupported document type")
	ErrEncryptedDocument    = errors.New("document is encrypted")
	ErrCorruptDocument      = errors.New("document is corrupted or unreadable")
	ErrDocumentTooLarge     = errors.New("document exceeds maximum allowed size")
	ErrMissingSummary       = errors.New("interpretation is missing a summary")
	ErrMissingDisclaimer    = errors.New("interpretation is missing disclaimers")
	ErrExtraction           = errors.New("extraction failed")
	ErrInterpretation       = errors.New("interpretation failed")
	ErrAnswer               = errors.New("answer failed")
	ErrStorageNotConfigured = errors.New("object storage is not configured")
)

// StageError is a reasoning component failure tagged with the pipeline stage
// that produced it, so callers can render a stage-specific message.
type StageError struct {
	Stage     PipelineStage
	Transient bool
	Err       error
}

// NewExtractionError wraps err as an extraction failure.
func NewExtractionError(err error, transient bool) *StageError {
	return &StageError{Stage: StageExtraction, Transient: transient, Err: err}
}

// NewInterpretationError wraps err as an interpretation failure.
func NewInterpretationError(err error, transient bool) *StageError {
	return &StageError{Stage: StageInterpretation, Transient: transient, Err: err}
}

// NewAnswerError wraps err as a question-answering failure.
func NewAnswerError(err error, transient bool) *StageError {
	return &StageError{Stage: StageAnswer, Transient: transient, Err: err}
}

func (e *StageError) Error() string {
	kind := "permanent"
	if e.Transient {
		kind = "transient"
	}
	return fmt.Sprintf("%s failed (%s): %v", stageNoun(e.Stage), kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match the per-stage sentinels (ErrExtraction etc.).
func (e *StageError) Is(target error) bool {
	switch target {
	case ErrExtraction:
		return e.Stage == StageExtraction
	case ErrInterpretation:
		return e.Stage == StageInterpretation
	case ErrAnswer:
		return e.Stage == StageAnswer
	}
	return false
}

func stageNoun(s PipelineStage) string {
	switch s {
	case StageExtraction:
		return "extraction"
	case StageInterpretation:
		return "interpretation"
	case StageAnswer:
		return "answer"
	}
	return string(s)
}

// TransitionError reports an operation attempted from the wrong session state.
type TransitionError struct {
	SessionID uuid.UUID
	Op        string
	From      SessionStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s session %s in state %s", ErrInvalidTransition, e.Op, e.SessionID, e.From)
}

func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// NotReadyError is returned when a question is asked before interpretation succeeded.
type NotReadyError struct {
	SessionID uuid.UUID
	Status    SessionStatus
}

func (e *NotReadyError) Error() string {
	return fmt.Sprintf("%s: session %s is %s", ErrNotReady, e.SessionID, e.Status)
}

func (e *NotReadyError) Is(target error) bool {
	return target == ErrNotReady
}
