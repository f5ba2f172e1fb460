package service

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labassist/internal/domain"
)

// SessionManager is the single writer for Session state. Every method returns a
// deep copy, so no caller ever holds a reference into the store.
type SessionManager interface {
	CreateSession() *domain.Session
	ResetSession(id uuid.UUID) (*domain.Session, error)
	RecordExtraction(id uuid.UUID, report *domain.StructuredReport) (*domain.Session, error)
	RecordInterpretation(id uuid.UUID, interp *domain.Interpretation) (*domain.Session, error)
	AppendTurn(id uuid.UUID, turn domain.ConversationTurn) (*domain.Session, error)
	Get(id uuid.UUID) (*domain.Session, error)
	MarkError(id uuid.UUID, stage domain.PipelineStage, reason string) (*domain.Session, error)
	Destroy(id uuid.UUID) error
}

type sessionEntry struct {
	mu      sync.Mutex
	session *domain.Session
}

type sessionManager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionEntry
	now      func() time.Time
	logger   *zap.Logger
}

// NewSessionManager creates an in-memory SessionManager.
func NewSessionManager(logger *zap.Logger) SessionManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &sessionManager{
		sessions: make(map[uuid.UUID]*sessionEntry),
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

func (m *sessionManager) CreateSession() *domain.Session {
	now := m.now()
	s := &domain.Session{
		ID:        uuid.New(),
		Status:    domain.StatusEmpty,
		Progress:  domain.StatusEmpty,
		History:   []domain.ConversationTurn{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = &sessionEntry{session: s}
	m.mu.Unlock()

	m.logger.Debug("sessionManager.CreateSession: created", zap.String("session_id", s.ID.String()))
	return s.Clone()
}

func (m *sessionManager) ResetSession(id uuid.UUID) (*domain.Session, error) {
	return m.mutate(id, func(s *domain.Session) error {
		s.Progress = domain.StatusEmpty
		s.Report = nil
		s.Interpretation = nil
		s.History = []domain.ConversationTurn{}
		return nil
	})
}

func (m *sessionManager) RecordExtraction(id uuid.UUID, report *domain.StructuredReport) (*domain.Session, error) {
	if report == nil {
		return nil, fmt.Errorf("recording extraction: report is nil")
	}
	return m.mutate(id, func(s *domain.Session) error {
		if s.Progress != domain.StatusEmpty {
			return &domain.TransitionError{SessionID: id, Op: "record extraction", From: s.Progress}
		}
		r := report.Clone()
		if r.TestResults == nil {
			r.TestResults = []domain.TestResult{}
		}
		s.Report = r
		s.Progress = domain.StatusExtracted
		return nil
	})
}

func (m *sessionManager) RecordInterpretation(id uuid.UUID, interp *domain.Interpretation) (*domain.Session, error) {
	if interp == nil {
		return nil, fmt.Errorf("recording interpretation: interpretation is nil")
	}
	if err := interp.Validate(); err != nil {
		return nil, fmt.Errorf("recording interpretation: %w", err)
	}
	return m.mutate(id, func(s *domain.Session) error {
		if s.Progress != domain.StatusExtracted || s.Report == nil {
			return &domain.TransitionError{SessionID: id, Op: "record interpretation", From: s.Progress}
		}
		s.Interpretation = interp.Clone()
		s.Progress = domain.StatusInterpreted
		return nil
	})
}

func (m *sessionManager) AppendTurn(id uuid.UUID, turn domain.ConversationTurn) (*domain.Session, error) {
	if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
		return nil, fmt.Errorf("appending turn: unknown role %q", turn.Role)
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = m.now()
	}
	return m.mutate(id, func(s *domain.Session) error {
		if s.Progress != domain.StatusInterpreted {
			return &domain.TransitionError{SessionID: id, Op: "append turn", From: s.Progress}
		}
		s.History = append(s.History, turn)
		return nil
	})
}

func (m *sessionManager) Get(id uuid.UUID) (*domain.Session, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Clone(), nil
}

// MarkError moves the session to ERROR and records the failure. Report,
// interpretation, history and Progress are left untouched. For an ANSWER
// failure the error points at the trailing unanswered USER turn.
func (m *sessionManager) MarkError(id uuid.UUID, stage domain.PipelineStage, reason string) (*domain.Session, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.session
	turnIndex := -1
	if stage == domain.StageAnswer {
		if n := len(s.History); n > 0 && s.History[n-1].Role == domain.RoleUser {
			turnIndex = n - 1
		}
	}
	now := m.now()
	s.Status = domain.StatusError
	s.LastError = &domain.SessionError{Stage: stage, Reason: reason, TurnIndex: turnIndex, At: now}
	s.UpdatedAt = now

	m.logger.Info("sessionManager.MarkError: session moved to ERROR",
		zap.String("session_id", id.String()),
		zap.String("stage", string(stage)),
		zap.String("progress", string(s.Progress)),
	)
	return s.Clone(), nil
}

func (m *sessionManager) Destroy(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return domain.ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Debug("sessionManager.Destroy: removed", zap.String("session_id", id.String()))
	return nil
}

func (m *sessionManager) entry(id uuid.UUID) (*sessionEntry, error) {
	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return e, nil
}

// mutate applies fn under the session's lock. On success the session leaves
// ERROR, its status follows Progress and the last error is cleared. On failure
// the stored session is unchanged.
func (m *sessionManager) mutate(id uuid.UUID, fn func(s *domain.Session) error) (*domain.Session, error) {
	e, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.session.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.Status = work.Progress
	work.LastError = nil
	work.UpdatedAt = m.now()
	e.session = work
	return work.Clone(), nil
}
