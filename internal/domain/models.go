package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Finding explains one abnormal or borderline test.
type Finding struct {
	TestName    string   `json:"test_name"`
	Category    Category `json:"category"`
	Explanation string   `json:"explanation"`
}

// Interpretation is the patient-friendly reading of a StructuredReport.
type Interpretation struct {
	Summary            string    `json:"summary"`
	Findings           []Finding `json:"findings"`
	Disclaimers        []string  `json:"disclaimers"`
	QuestionsForDoctor []string  `json:"questions_for_doctor,omitempty"`
	LifestyleTips      []string  `json:"lifestyle_tips,omitempty"`
}

// Validate enforces the minimal schema: a summary and at least one disclaimer.
func (i *Interpretation) Validate() error {
	if strings.TrimSpace(i.Summary) == "" {
		return ErrMissingSummary
	}
	for _, d := range i.Disclaimers {
		if strings.TrimSpace(d) != "" {
			return nil
		}
	}
	return ErrMissingDisclaimer
}

// FindingFor returns the finding for testName, matched case-insensitively.
func (i *Interpretation) FindingFor(testName string) (Finding, bool) {
	for _, f := range i.Findings {
		if strings.EqualFold(strings.TrimSpace(f.TestName), strings.TrimSpace(testName)) {
			return f, true
		}
	}
	return Finding{}, false
}

// Covers reports whether testName has an explicit finding or is named in the
// summary as a whole word, so "K" is not found inside "look".
func (i *Interpretation) Covers(testName string) bool {
	if _, ok := i.FindingFor(testName); ok {
		return true
	}
	name := strings.TrimSpace(testName)
	if name == "" {
		return false
	}
	re := regexp.MustCompile(`(?i)(^|[^\p{L}\p{N}])` + regexp.QuoteMeta(name) + `($|[^\p{L}\p{N}])`)
	return re.MatchString(i.Summary)
}

// Clone returns a deep copy.
func (i *Interpretation) Clone() *Interpretation {
	if i == nil {
		return nil
	}
	return &Interpretation{
		Summary:            i.Summary,
		Findings:           append(make([]Finding, 0, len(i.Findings)), i.Findings...),
		Disclaimers:        append([]string(nil), i.Disclaimers...),
		QuestionsForDoctor: append([]string(nil), i.QuestionsForDoctor...),
		LifestyleTips:      append([]string(nil), i.LifestyleTips...),
	}
}

// ConversationTurn is one message in the Q&A history. Turns are values; once
// appended to a session they are never edited.
type ConversationTurn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current UTC time.
func NewTurn(role Role, text string) ConversationTurn {
	return ConversationTurn{Role: role, Text: text, Timestamp: time.Now().UTC()}
}

// SessionError records the most recent failure on a session.
type SessionError struct {
	Stage  PipelineStage `json:"stage"`
	Reason string        `json:"reason"`
	// TurnIndex points at the unanswered USER turn when Stage is ANSWER, otherwise -1.
	TurnIndex int       `json:"turn_index"`
	At        time.Time `json:"at"`
}

// Session is the state of one document analysis.
type Session struct {
	ID uuid.UUID `json:"id"`
	// Status is the reported lifecycle state; ERROR after a failed component call.
	Status SessionStatus `json:"status"`
	// Progress is the furthest pipeline state reached. It is never ERROR, so the
	// work retained across a failure stays visible.
	Progress       SessionStatus      `json:"progress"`
	Report         *StructuredReport  `json:"report,omitempty"`
	Interpretation *Interpretation    `json:"interpretation,omitempty"`
	History        []ConversationTurn `json:"history"`
	LastError      *SessionError      `json:"last_error,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// ReadyForQuestions reports whether the session holds an interpretation to ground answers on.
func (s *Session) ReadyForQuestions() bool {
	return s.Progress == StatusInterpreted && s.Report != nil && s.Interpretation != nil
}

// Clone returns a deep copy so callers never share state with the session store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Report = s.Report.Clone()
	out.Interpretation = s.Interpretation.Clone()
	out.History = append(make([]ConversationTurn, 0, len(s.History)), s.History...)
	if s.LastError != nil {
		e := *s.LastError
		out.LastError = &e
	}
	return &out
}
