package prompt

import (
	"fmt"
	"strings"

	"labassist/internal/domain"
)

// AnswerSystemPrompt restricts the answerer to the supplied report context.
const AnswerSystemPrompt = `You are a helpful health assistant answering a patient's follow-up questions about their own lab report.

RULES:
- Answer ONLY from the lab report, interpretation and conversation provided below. Do not use outside facts about this patient.
- If the report does not contain the information needed, say so plainly.
- NEVER diagnose conditions or prescribe medications. Use "may indicate" or "could suggest".
- Keep answers short, clear and friendly. Plain text, no headings.
- When discussing abnormal results, suggest talking to a healthcare provider.`

// RelevantTests returns the tests a question refers to: those whose full name
// or any significant word of the name appears in the question.
func RelevantTests(question string, tests []domain.TestResult) []domain.TestResult {
	q := strings.ToLower(question)
	var out []domain.TestResult
	for _, t := range tests {
		name := strings.ToLower(strings.TrimSpace(t.Name))
		if name == "" {
			continue
		}
		if strings.Contains(q, name) {
			out = append(out, t)
			continue
		}
		for _, word := range strings.FieldsFunc(name, isNameSeparator) {
			if len(word) >= 3 && strings.Contains(q, word) {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

func isNameSeparator(r rune) bool {
	switch r {
	case ' ', '-', '(', ')', ',', '/', '.':
		return true
	}
	return false
}

// BuildAnswerPrompt renders the grounding context, the recent history and the question.
func BuildAnswerPrompt(question string, report *domain.StructuredReport, interp *domain.Interpretation, history []domain.ConversationTurn) string {
	var sb strings.Builder

	sb.WriteString("LAB REPORT\n")
	writeReport(&sb, report)

	if interp != nil {
		sb.WriteString("\nINTERPRETATION\n")
		sb.WriteString("Summary: " + interp.Summary + "\n")
		for _, f := range interp.Findings {
			sb.WriteString(fmt.Sprintf("- %s (%s): %s\n", f.TestName, f.Category, f.Explanation))
		}
	}

	if relevant := RelevantTests(question, report.TestResults); len(relevant) > 0 {
		sb.WriteString("\nTESTS MENTIONED IN THE QUESTION\n")
		for _, t := range relevant {
			sb.WriteString("- " + FormatTest(t) + "\n")
		}
	}

	// Tolerate callers that include the pending question as the last turn.
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleUser && history[n-1].Text == question {
		history = history[:n-1]
	}
	if len(history) > 0 {
		sb.WriteString("\nCONVERSATION SO FAR\n")
		for _, turn := range history {
			sb.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Text))
		}
	}

	sb.WriteString("\nQUESTION\n")
	sb.WriteString(question)
	sb.WriteString("\n")
	return sb.String()
}
