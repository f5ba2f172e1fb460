package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"labassist/internal/domain"
	"labassist/internal/llm"
	"labassist/internal/metrics"
)

// Orchestrator is the single entry point for analysis and questions. It
// sequences the reasoning components against state owned by the
// SessionManager and does not retry anything itself.
type Orchestrator interface {
	// Analyze runs extraction then interpretation. A nil sessionID creates a new
	// session; an existing one is reset to EMPTY first. The returned session is
	// non-nil whenever a session exists, including on pipeline failure.
	Analyze(ctx context.Context, sessionID uuid.UUID, doc []byte) (*domain.Session, error)
	// Ask answers a question about an INTERPRETED session and records the exchange.
	Ask(ctx context.Context, sessionID uuid.UUID, question string) (string, *domain.Session, error)
	Session(sessionID uuid.UUID) (*domain.Session, error)
	// End destroys the session at the end of the user interaction.
	End(sessionID uuid.UUID) error
}

type orchestrator struct {
	sessions     SessionManager
	extractor    Extractor
	interpreter  Interpreter
	answerer     Answerer
	historyLimit int
	locks        *keyedMutex
	metrics      *metrics.Tracker
	logger       *zap.Logger
}

// NewOrchestrator creates an Orchestrator. historyLimit <= 0 uses
// DefaultHistoryLimit; tracker may be nil.
func NewOrchestrator(
	sessions SessionManager,
	extractor Extractor,
	interpreter Interpreter,
	answerer Answerer,
	historyLimit int,
	tracker *metrics.Tracker,
	logger *zap.Logger,
) Orchestrator {
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orchestrator{
		sessions:     sessions,
		extractor:    extractor,
		interpreter:  interpreter,
		answerer:     answerer,
		historyLimit: historyLimit,
		locks:        newKeyedMutex(),
		metrics:      tracker,
		logger:       logger,
	}
}

func (o *orchestrator) Analyze(ctx context.Context, sessionID uuid.UUID, doc []byte) (*domain.Session, error) {
	var session *domain.Session
	if sessionID == uuid.Nil {
		session = o.sessions.CreateSession()
		sessionID = session.ID
	}

	unlock := o.locks.Lock(sessionID)
	defer unlock()

	if session == nil {
		var err error
		if session, err = o.sessions.ResetSession(sessionID); err != nil {
			return nil, err
		}
	}
	log := o.logger.With(zap.String("session_id", sessionID.String()))
	log.Info("orchestrator.Analyze: starting", zap.Int("bytes", len(doc)))

	start := time.Now()
	report, err := o.extractor.Extract(ctx, doc)
	if err != nil {
		o.metrics.Inc(metrics.AnalysisErrors, zap.String("stage", string(domain.StageExtraction)))
		return o.fail(log, sessionID, domain.StageExtraction, err)
	}
	extractTime := time.Since(start)
	o.metrics.ObserveDuration(metrics.ExtractionTime, extractTime)
	if _, err := o.sessions.RecordExtraction(sessionID, report); err != nil {
		return nil, err
	}

	interpStart := time.Now()
	interp, err := o.interpreter.Interpret(ctx, report)
	if err != nil {
		o.metrics.Inc(metrics.AnalysisErrors, zap.String("stage", string(domain.StageInterpretation)))
		return o.fail(log, sessionID, domain.StageInterpretation, err)
	}
	interpTime := time.Since(interpStart)
	o.metrics.ObserveDuration(metrics.InterpretationTime, interpTime)
	session, err = o.sessions.RecordInterpretation(sessionID, interp)
	if err != nil {
		return nil, err
	}
	total := time.Since(start)
	o.metrics.ObserveDuration(metrics.AnalysisTotalTime, total)

	log.Info("orchestrator.Analyze: session interpreted",
		zap.Int("tests", len(session.Report.TestResults)),
		zap.Int("findings", len(session.Interpretation.Findings)),
		zap.Duration("extraction_time", extractTime),
		zap.Duration("interpretation_time", interpTime),
		zap.Duration("total_time", total),
	)
	return session, nil
}

func (o *orchestrator) Ask(ctx context.Context, sessionID uuid.UUID, question string) (string, *domain.Session, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", nil, domain.ErrEmptyQuestion
	}

	unlock := o.locks.Lock(sessionID)
	defer unlock()

	session, err := o.sessions.Get(sessionID)
	if err != nil {
		return "", nil, err
	}
	if !session.ReadyForQuestions() {
		return "", session, &domain.NotReadyError{SessionID: sessionID, Status: session.Status}
	}

	// Prior turns only; the pending question is passed on its own.
	history := TrimHistory(session.History, o.historyLimit)

	session, err = o.sessions.AppendTurn(sessionID, domain.NewTurn(domain.RoleUser, question))
	if err != nil {
		return "", nil, err
	}
	log := o.logger.With(zap.String("session_id", sessionID.String()))

	start := time.Now()
	answer, err := o.answerer.Answer(ctx, question, session.Report, session.Interpretation, history)
	if err != nil {
		o.metrics.Inc(metrics.AnswerErrors)
		s, serr := o.fail(log, sessionID, domain.StageAnswer, err)
		return "", s, serr
	}
	answerTime := time.Since(start)
	o.metrics.ObserveDuration(metrics.AnswerTime, answerTime)

	session, err = o.sessions.AppendTurn(sessionID, domain.NewTurn(domain.RoleAssistant, answer))
	if err != nil {
		return "", nil, err
	}
	log.Info("orchestrator.Ask: answered",
		zap.Int("history", len(session.History)),
		zap.Duration("answer_time", answerTime),
	)
	return answer, session, nil
}

func (o *orchestrator) Session(sessionID uuid.UUID) (*domain.Session, error) {
	return o.sessions.Get(sessionID)
}

func (o *orchestrator) End(sessionID uuid.UUID) error {
	unlock := o.locks.Lock(sessionID)
	defer unlock()
	return o.sessions.Destroy(sessionID)
}

// fail records err on the session and returns it tagged with stage.
func (o *orchestrator) fail(log *zap.Logger, sessionID uuid.UUID, stage domain.PipelineStage, err error) (*domain.Session, error) {
	stageErr := asStageError(stage, err)
	session, markErr := o.sessions.MarkError(sessionID, stage, stageErr.Err.Error())
	if markErr != nil {
		log.Error("orchestrator: failed to mark session error", zap.Error(markErr))
	}
	log.Warn("orchestrator: pipeline stage failed",
		zap.String("stage", string(stage)),
		zap.Bool("transient", stageErr.Transient),
		zap.Error(stageErr.Err),
	)
	return session, stageErr
}

func asStageError(stage domain.PipelineStage, err error) *domain.StageError {
	var se *domain.StageError
	if errors.As(err, &se) && se.Stage == stage {
		return se
	}
	return &domain.StageError{Stage: stage, Transient: llm.IsTransient(err), Err: err}
}
