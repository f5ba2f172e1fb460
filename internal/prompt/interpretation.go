package prompt

import (
	"fmt"
	"sort"
	"strings"

	"labassist/internal/domain"
)

// MedicalDisclaimer is attached to every interpretation.
const MedicalDisclaimer = "This analysis is AI-generated for informational purposes only and is NOT medical advice. " +
	"Always consult a licensed healthcare professional for diagnosis, treatment, and medical decisions. " +
	"Do not make health decisions based solely on this information."

// NoAnalyzableDataSummary is the summary used when a report has neither tests nor patient info.
const NoAnalyzableDataSummary = "No analyzable data was found in this document. " +
	"It does not appear to contain lab test results or patient information."

// InterpretationSystemPrompt sets the role and safety rules for interpretation.
const InterpretationSystemPrompt = `You are a medical interpreter assistant who helps patients understand their lab results.

YOUR RESPONSIBILITIES:
1. Explain each abnormal test result in plain, simple English.
2. Describe what the test measures and why it matters.
3. Explain what HIGH or LOW values might indicate (general possibilities, not diagnosis).
4. Provide safe, general diet and lifestyle suggestions (not prescriptions).
5. Suggest 3-5 follow-up questions the patient should discuss with their doctor.

STRICT SAFETY RULES:
- NEVER diagnose conditions. Use words like "may indicate", "could suggest", "associated with".
- NEVER prescribe medications or specific treatments.
- ALWAYS emphasize consulting a healthcare provider.
- Keep explanations accessible to non-medical readers.
- Be empathetic and reassuring while being accurate.

Output ONLY valid JSON. No markdown, no code fences.`

const interpretationSchema = `{
  "summary": "string: plain-language overview of the results (required)",
  "findings": [
    {
      "test_name": "string: exact test name from the report",
      "category": "NORMAL | ATTENTION | URGENT",
      "explanation": "string: what the test measures and what this result may mean"
    }
  ],
  "questions_for_doctor": ["string"],
  "lifestyle_tips": ["string"],
  "disclaimers": ["string: at least one advisory statement (required)"]
}`

// BuildInterpretationPrompt renders the report for the interpreter model.
func BuildInterpretationPrompt(report *domain.StructuredReport) string {
	var sb strings.Builder
	sb.WriteString("Interpret the following lab report for the patient.\n\n")
	writeReport(&sb, report)

	abnormal := report.AbnormalTests()
	sb.WriteString(fmt.Sprintf("\n%d of %d tests are outside the normal range or have no clear flag.\n", len(abnormal), len(report.TestResults)))
	if len(abnormal) > 0 {
		sb.WriteString("You MUST include exactly one finding for each of these tests:\n")
		for _, t := range abnormal {
			sb.WriteString(fmt.Sprintf("- %s [%s]\n", t.Name, t.Flag))
		}
		sb.WriteString("Use category URGENT only for results that are far outside the range and may need prompt attention; otherwise use ATTENTION.\n")
	}
	sb.WriteString("Normal tests may be summarized in the summary rather than listed as findings.\n\n")
	sb.WriteString("Return JSON following this exact schema:\n")
	sb.WriteString(interpretationSchema)
	return sb.String()
}

// writeReport renders patient info, metadata and tests as plain text.
func writeReport(sb *strings.Builder, report *domain.StructuredReport) {
	if len(report.PatientInfo) > 0 {
		sb.WriteString("PATIENT:\n")
		writeSortedMap(sb, report.PatientInfo)
	}
	if len(report.Metadata) > 0 {
		sb.WriteString("REPORT:\n")
		writeSortedMap(sb, report.Metadata)
	}
	sb.WriteString("TESTS:\n")
	if len(report.TestResults) == 0 {
		sb.WriteString("(none)\n")
	}
	for _, t := range report.TestResults {
		sb.WriteString("- ")
		sb.WriteString(FormatTest(t))
		sb.WriteString("\n")
	}
}

// FormatTest renders one test result on a single line.
func FormatTest(t domain.TestResult) string {
	var sb strings.Builder
	if t.Category != "" {
		sb.WriteString("[" + t.Category + "] ")
	}
	sb.WriteString(t.Name)
	sb.WriteString(": ")
	sb.WriteString(t.Value.String())
	if t.Unit != "" {
		sb.WriteString(" " + t.Unit)
	}
	if rr := t.ReferenceRange.String(); rr != "" {
		sb.WriteString(" (Reference: " + rr + ")")
	}
	sb.WriteString(" [" + string(t.Flag) + "]")
	return sb.String()
}

func writeSortedMap(sb *strings.Builder, m map[string]string) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(fmt.Sprintf("  %s: %s\n", k, m[k]))
	}
}
